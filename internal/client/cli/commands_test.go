package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/session"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	state session.State
	err   error

	login    [2]string
	register models.RegisterInput
	verify   [2]string
	sentTo   string
	oauth    [2]string
	update   models.ProfileUpdate
	deleted  bool
	refresh  int
	stats    models.Stats
}

func (f *fakeEngine) Init(ctx context.Context) error { return f.err }
func (f *fakeEngine) State() session.State           { return f.state }
func (f *fakeEngine) Login(ctx context.Context, identifier, secret string) error {
	f.login = [2]string{identifier, secret}
	return f.err
}
func (f *fakeEngine) Register(ctx context.Context, in models.RegisterInput) error {
	f.register = in
	return f.err
}
func (f *fakeEngine) Logout(ctx context.Context) error {
	f.state = session.State{Status: session.StatusUnauthenticated}
	return nil
}
func (f *fakeEngine) SendPhoneVerification(ctx context.Context, phone string) (*verification.Issued, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sentTo = phone
	return &verification.Issued{ID: "v1", Phone: "+" + strings.TrimPrefix(phone, "+"), DebugCode: "123456"}, nil
}
func (f *fakeEngine) VerifyPhoneCode(ctx context.Context, phone, code string) error {
	f.verify = [2]string{phone, code}
	return f.err
}
func (f *fakeEngine) ResendVerificationCode(ctx context.Context, phone string) (*verification.Issued, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sentTo = phone
	return &verification.Issued{ID: "v2", Phone: phone}, nil
}
func (f *fakeEngine) LoginWithOAuthCode(ctx context.Context, provider, code string) error {
	f.oauth = [2]string{provider, code}
	return f.err
}
func (f *fakeEngine) GetUserStats(ctx context.Context) models.Stats { return f.stats }
func (f *fakeEngine) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	f.update = upd
	return f.err
}
func (f *fakeEngine) RefreshProfile(ctx context.Context) { f.refresh++ }
func (f *fakeEngine) DeleteAccount(ctx context.Context) error {
	f.deleted = true
	return f.err
}

// stubInput feeds answers to prompts in order and returns pw for passwords.
func stubInput(t *testing.T, pw string, answers ...string) {
	t.Helper()
	oldText, oldPw := getSimpleText, getPassword
	t.Cleanup(func() { getSimpleText, getPassword = oldText, oldPw })

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
}

func newTestApp(e *fakeEngine) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{engine: e, out: out, reader: bufio.NewReader(strings.NewReader(""))}, out
}

func TestApp_Login(t *testing.T) {
	stubInput(t, "secret", "alice")
	e := &fakeEngine{}
	a, out := newTestApp(e)

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, [2]string{"alice", "secret"}, e.login)
	assert.Contains(t, out.String(), "Login successful")
}

func TestApp_LoginFailurePrintsMessage(t *testing.T) {
	stubInput(t, "bad", "alice")
	e := &fakeEngine{err: &session.Error{Kind: session.KindInvalidCredentials, Message: "Invalid username or password"}}
	a, out := newTestApp(e)

	err := a.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "Error: Invalid username or password")
	assert.NotContains(t, out.String(), "Login successful")
}

func TestApp_Register(t *testing.T) {
	stubInput(t, "pw12345", "bob", "bob@example.com", "Bob", "")
	e := &fakeEngine{}
	a, out := newTestApp(e)

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, models.RegisterInput{Username: "bob", Email: "bob@example.com", FirstName: "Bob", Password: "pw12345"}, e.register)
	assert.Contains(t, out.String(), "signed in as bob")
}

func TestApp_PhoneFlowRemembersNumber(t *testing.T) {
	stubInput(t, "", "+251911111111", "123456")
	e := &fakeEngine{}
	a, out := newTestApp(e)
	ctx := context.Background()

	require.NoError(t, a.SendCode(ctx))
	assert.Contains(t, out.String(), "[debug] code: 123456")

	require.NoError(t, a.Verify(ctx))
	assert.Equal(t, [2]string{"+251911111111", "123456"}, e.verify)
	assert.Empty(t, a.pendingPhone)
}

func TestApp_VerifyKeepsNumberOnFailure(t *testing.T) {
	stubInput(t, "", "+251911111111", "000000")
	e := &fakeEngine{}
	a, out := newTestApp(e)
	ctx := context.Background()

	require.NoError(t, a.SendCode(ctx))
	e.err = &session.Error{Kind: session.KindInvalidCode, Message: "Invalid code. 2 attempts remaining", Remaining: 2}

	require.Error(t, a.Verify(ctx))
	assert.Equal(t, "+251911111111", a.pendingPhone)
	assert.Contains(t, out.String(), "2 attempts remaining")
}

func TestApp_ResendPromptsWithoutPending(t *testing.T) {
	stubInput(t, "", "+15550001111")
	e := &fakeEngine{}
	a, out := newTestApp(e)

	require.NoError(t, a.Resend(context.Background()))
	assert.Equal(t, "+15550001111", e.sentTo)
	assert.Equal(t, "+15550001111", a.pendingPhone)
	assert.Contains(t, out.String(), "A new code was sent")
}

func TestApp_OAuth(t *testing.T) {
	stubInput(t, "", "google", "abc")
	e := &fakeEngine{}
	a, _ := newTestApp(e)

	require.NoError(t, a.OAuth(context.Background()))
	assert.Equal(t, [2]string{"google", "abc"}, e.oauth)
}

func TestApp_ProfileSkipsEmptyAnswers(t *testing.T) {
	stubInput(t, "", "Carol", "", "", "+15550002222")
	e := &fakeEngine{}
	a, out := newTestApp(e)

	require.NoError(t, a.Profile(context.Background()))
	require.NotNil(t, e.update.FirstName)
	assert.Equal(t, "Carol", *e.update.FirstName)
	assert.Nil(t, e.update.LastName)
	assert.Nil(t, e.update.Email)
	require.NotNil(t, e.update.Phone)
	assert.Equal(t, "+15550002222", *e.update.Phone)
	assert.Contains(t, out.String(), "Profile updated")
}

func TestApp_DeleteRequiresConfirmation(t *testing.T) {
	stubInput(t, "", "no")
	e := &fakeEngine{}
	a, out := newTestApp(e)

	require.NoError(t, a.Delete(context.Background()))
	assert.False(t, e.deleted)
	assert.Contains(t, out.String(), "Cancelled")

	stubInput(t, "", "yes")
	require.NoError(t, a.Delete(context.Background()))
	assert.True(t, e.deleted)
}

func TestApp_WhoAmIAndStatus(t *testing.T) {
	e := &fakeEngine{state: session.State{
		Status:          session.StatusAuthenticated,
		IsAuthenticated: true,
		Token:           "local_abc_1700000000000",
		User:            &models.Account{Username: "dave", Email: "d@x.com", FirstName: "Dave", Provider: models.ProviderLocal},
	}}
	a, out := newTestApp(e)

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Equal(t, 1, e.refresh)
	assert.Contains(t, out.String(), "Dave")
	assert.Contains(t, out.String(), "d@x.com")
	assert.Equal(t, "(dave local)", a.getStatus())

	e.state.Token = "jwt-token"
	assert.Equal(t, "(dave remote)", a.getStatus())

	require.NoError(t, a.Logout(context.Background()))
	assert.Equal(t, "", a.getStatus())
	assert.False(t, a.isLoggedIn())
}

func TestApp_Stats(t *testing.T) {
	e := &fakeEngine{stats: models.Stats{PropertiesListed: 4, Views: 12}}
	a, out := newTestApp(e)

	require.NoError(t, a.Stats(context.Background()))
	assert.Contains(t, out.String(), "Properties listed: 4")
	assert.Contains(t, out.String(), "12")
}
