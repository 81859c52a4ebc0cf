package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.loggedIn = true
	return f.record("register")
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) SendCode(ctx context.Context) error { return f.record("phone") }
func (f *fakeExec) Verify(ctx context.Context) error   { return f.record("verify") }
func (f *fakeExec) Resend(ctx context.Context) error   { return f.record("resend") }
func (f *fakeExec) OAuth(ctx context.Context) error    { return f.record("oauth") }
func (f *fakeExec) Stats(ctx context.Context) error    { return f.record("stats") }
func (f *fakeExec) WhoAmI(ctx context.Context) error   { return f.record("whoami") }
func (f *fakeExec) Profile(ctx context.Context) error  { return f.record("profile") }
func (f *fakeExec) Delete(ctx context.Context) error   { return f.record("delete") }
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

func run(f *fakeExec, input string) {
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewScanner(strings.NewReader(input)))
}

func TestREPL_DispatchesLoggedOutCommands(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{}

	run(f, "phone\nverify\nresend\noauth\nregister\nexit\n")

	assert.Equal(t, []string{"phone", "verify", "resend", "oauth", "register"}, f.calls)
}

func TestREPL_DispatchesLoggedInCommands(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{}

	run(f, "login\nwhoami\nstats\nprofile\ndelete\nlogout\nquit\n")

	assert.Equal(t, []string{"login", "whoami", "stats", "profile", "delete", "logout"}, f.calls)
}

func TestREPL_RequiresLogin(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	run(f, "stats\nwhoami\n")

	assert.Empty(t, f.calls)
	assert.Contains(t, *out, "Please log in first")
}

func TestREPL_UnknownAndBlank(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	run(f, "\n   \nfoo\nexit\n")

	assert.Empty(t, f.calls)
	assert.Contains(t, *out, "Unknown command: foo")
	assert.Contains(t, *out, "Bye!")
}

func TestREPL_Help(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	run(f, "help\nlogin\nhelp\n")

	assert.Contains(t, *out, "Available commands: register, login, phone, verify, resend, oauth, exit")
	assert.Contains(t, *out, "Available commands: whoami, stats, profile, delete, logout, exit")
}

func TestREPL_PromptShowsStatus(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	runREPL(context.Background(), f, func() string { return "(bob local)" }, bufio.NewScanner(strings.NewReader("")))

	assert.Equal(t, []string{"pk (bob local)>"}, *out)
}
