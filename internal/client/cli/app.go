package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	"github.com/dmitrijs2005/propkeeper/internal/client/config"
	"github.com/dmitrijs2005/propkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/propkeeper/internal/client/session"
	"github.com/dmitrijs2005/propkeeper/internal/client/storage"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Engine is the part of session.Engine the CLI drives.
type Engine interface {
	Init(ctx context.Context) error
	State() session.State
	Login(ctx context.Context, identifier, secret string) error
	Register(ctx context.Context, in models.RegisterInput) error
	Logout(ctx context.Context) error
	SendPhoneVerification(ctx context.Context, phone string) (*verification.Issued, error)
	VerifyPhoneCode(ctx context.Context, phone, code string) error
	ResendVerificationCode(ctx context.Context, phone string) (*verification.Issued, error)
	LoginWithOAuthCode(ctx context.Context, provider, code string) error
	GetUserStats(ctx context.Context) models.Stats
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	RefreshProfile(ctx context.Context)
	DeleteAccount(ctx context.Context) error
}

type App struct {
	config  *config.Config
	engine  Engine
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error

	// pendingPhone is the number the last code was sent to.
	pendingPhone string
}

// NewApp wires the session engine from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log, syncLog, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Debug:   c.Debug,
	})
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	remote, err := newRemote(c, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	engine := session.NewEngine(
		credentials.NewStore(db, log),
		verification.NewService(db, log, verification.Options{
			TTL:         c.VerificationTTL,
			MaxAttempts: c.MaxAttempts,
			Debug:       c.Debug,
		}),
		metadata.NewSQLiteRepository(db),
		remote,
		log,
		session.Options{MinPasswordEntropy: c.MinPasswordEntropy},
	)

	return &App{
		config:  c,
		engine:  engine,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closers: []func() error{remote.Close, db.Close, syncLog},
	}, nil
}

func newRemote(c *config.Config, log logging.Logger) (client.Client, error) {
	if c.ServerBaseURL == "" {
		return client.Offline{}, nil
	}
	return client.NewHTTPClient(client.Options{
		BaseURL:            c.ServerBaseURL,
		Timeout:            c.RequestTimeout,
		BreakerMaxFailures: c.BreakerMaxFailures,
		BreakerTimeout:     c.BreakerTimeout,
	}, log)
}

// Run restores the persisted session and serves the REPL until exit.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.engine.Init(ctx); err != nil {
		a.fail(err)
	}
	if a.isLoggedIn() {
		a.println("Welcome back,", a.engine.State().User.DisplayName())
	}

	a.println("Welcome to propkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.engine.State().IsAuthenticated
}

func (a *App) mode() Mode {
	s := a.engine.State()
	if !s.IsAuthenticated {
		return ""
	}
	if models.IsLocalToken(s.Token) {
		return ModeLocal
	}
	return ModeRemote
}

func (a *App) getStatus() string {
	s := a.engine.State()
	if !s.IsAuthenticated || s.User == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", s.User.Username, a.mode())
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// fail prints the user-facing part of err.
func (a *App) fail(err error) {
	var se *session.Error
	if errors.As(err, &se) {
		a.println("Error:", se.Message)
		return
	}
	a.println("Error:", err.Error())
}
