package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	SendCode(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	OAuth(ctx context.Context) error
	Stats(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	Delete(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit".
//
//	Not logged in: register, login, phone, verify, resend, oauth, exit
//	Logged in:     whoami, stats, profile, delete, logout, exit
//
// Handler errors are not fatal; handlers report them to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		if requiresLogin(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, stats, profile, delete, logout, exit")
			} else {
				printlnFn("Available commands: register, login, phone, verify, resend, oauth, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "phone":
			_ = a.SendCode(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "oauth":
			_ = a.OAuth(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requiresLogin(cmd string) bool {
	switch cmd {
	case "whoami", "stats", "profile", "delete", "logout":
		return true
	}
	return false
}
