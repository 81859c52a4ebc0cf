package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

var errLocalMiss = errors.New("no matching local account")

// Init restores the persisted session. A remote token is re-validated with
// the authority and a local token against the credential store; anything
// that does not check out is cleared.
func (e *Engine) Init(ctx context.Context) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	e.publish(State{Status: StatusLoading, IsLoading: true})

	token, user, err := e.loadPersisted(ctx)
	if err != nil {
		e.log.Warn(ctx, "persisted session unreadable", "error", err)
		_ = e.clearPersisted(ctx)
		e.publish(unauthenticated())
		return e.fail(ctx, "init", normalize(err))
	}
	if token == "" || user == nil {
		e.publish(unauthenticated())
		return nil
	}

	restored, err := e.revalidate(ctx, token, user)
	if err != nil || restored == nil {
		e.log.Info(ctx, "persisted session rejected", "user_id", user.ID, "error", err)
		_ = e.clearPersisted(ctx)
		e.publish(unauthenticated())
		return nil
	}

	if err := e.persist(ctx, token, restored); err != nil {
		e.log.Warn(ctx, "failed to refresh persisted user", "error", err)
	}
	e.publish(authenticated(token, restored))
	e.log.Info(ctx, "session restored", "user_id", restored.ID)
	return nil
}

func (e *Engine) loadPersisted(ctx context.Context) (string, *models.Account, error) {
	token, err := e.meta.Get(ctx, common.MetaKeyToken)
	if err != nil {
		return "", nil, err
	}
	raw, err := e.meta.Get(ctx, common.MetaKeyUser)
	if err != nil {
		return "", nil, err
	}
	if len(token) == 0 || len(raw) == 0 {
		return "", nil, nil
	}

	var user models.Account
	if err := json.Unmarshal(raw, &user); err != nil {
		return "", nil, err
	}
	return string(token), &user, nil
}

func (e *Engine) revalidate(ctx context.Context, token string, user *models.Account) (*models.Account, error) {
	if models.IsLocalToken(token) {
		if !strings.HasPrefix(token, common.LocalTokenPrefix+user.ID+"_") {
			return nil, nil
		}
		return e.store.Lookup(ctx, user.ID)
	}

	fresh, valid, err := e.remote.VerifyToken(ctx, token)
	if err != nil || !valid {
		return nil, err
	}
	if fresh == nil {
		fresh = user
	}
	return fresh, nil
}

// Login tries the local credential store first and the remote authority
// second. Remote failures are final.
func (e *Engine) Login(ctx context.Context, identifier, secret string) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	if strings.TrimSpace(identifier) == "" || secret == "" {
		return newError(KindValidation, "Please enter your username or email and password.", nil)
	}

	done := e.begin()
	defer done()

	res, _, err := runStrategies(ctx, e.log, "login",
		strategy[*client.AuthResult]{
			name: "local",
			run: func(ctx context.Context) (*client.AuthResult, error) {
				acc, err := e.store.Authenticate(ctx, identifier, secret)
				if err != nil {
					return nil, err
				}
				if acc == nil {
					return nil, errLocalMiss
				}
				return &client.AuthResult{Token: e.store.GenerateToken(acc.ID), User: acc}, nil
			},
			fallThrough: func(error) bool { return true },
		},
		strategy[*client.AuthResult]{
			name: "remote",
			run: func(ctx context.Context) (*client.AuthResult, error) {
				return e.remote.Login(ctx, identifier, secret)
			},
		},
	)
	if err != nil {
		return e.fail(ctx, "login", normalize(err))
	}
	return e.fail(ctx, "login", normalize(e.authenticate(ctx, res.Token, res.User)))
}

// Register creates the account with the remote authority, or locally when
// the authority is unreachable or failing.
func (e *Engine) Register(ctx context.Context, in models.RegisterInput) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return newError(KindValidation, "Username, email and password are required.", nil)
	}
	if err := models.ValidateIdentity(in.Username, in.Email, models.ProviderLocal); err != nil {
		return newError(KindValidation, "This username or email cannot be used. Please choose another.", err)
	}
	if e.opts.MinPasswordEntropy > 0 {
		if err := passwordvalidator.Validate(in.Password, e.opts.MinPasswordEntropy); err != nil {
			return newError(KindValidation, err.Error(), common.ErrWeakPassword)
		}
	}

	done := e.begin()
	defer done()

	exists, err := e.store.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return e.fail(ctx, "register", normalize(err))
	}
	if exists {
		return e.fail(ctx, "register", newError(KindDuplicate, "", common.ErrorAlreadyExists))
	}

	res, _, err := runStrategies(ctx, e.log, "register",
		strategy[*client.AuthResult]{
			name: "remote",
			run: func(ctx context.Context) (*client.AuthResult, error) {
				return e.remote.Register(ctx, in)
			},
			fallThrough: func(err error) bool {
				var srv *client.ServerError
				return errors.Is(err, client.ErrUnavailable) || errors.As(err, &srv)
			},
		},
		strategy[*client.AuthResult]{
			name: "local",
			run: func(ctx context.Context) (*client.AuthResult, error) {
				acc, err := e.store.Register(ctx, in)
				if err != nil {
					return nil, err
				}
				return &client.AuthResult{Token: e.store.GenerateToken(acc.ID), User: acc}, nil
			},
		},
	)
	if err != nil {
		return e.fail(ctx, "register", normalize(err))
	}
	return e.fail(ctx, "register", normalize(e.authenticate(ctx, res.Token, res.User)))
}

// LoginWithOAuthCode exchanges an OAuth authorization code with the remote
// authority. There is no local fallback.
func (e *Engine) LoginWithOAuthCode(ctx context.Context, provider, code string) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	if strings.TrimSpace(provider) == "" || strings.TrimSpace(code) == "" {
		return newError(KindValidation, "Provider and authorization code are required.", nil)
	}

	done := e.begin()
	defer done()

	res, err := e.remote.OAuthLogin(ctx, provider, code)
	if err != nil {
		return e.fail(ctx, "oauth login", normalize(err))
	}
	if res.User.Provider == "" {
		res.User.Provider = provider
	}
	return e.fail(ctx, "oauth login", normalize(e.authenticate(ctx, res.Token, res.User)))
}

// Logout always ends UNAUTHENTICATED. The remote call and the storage
// cleanup are best effort; their failures are only logged.
func (e *Engine) Logout(ctx context.Context) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	s := e.State()
	defer func() {
		e.publish(unauthenticated())
		e.log.Info(ctx, "logged out")
	}()

	if s.Token != "" && !models.IsLocalToken(s.Token) {
		if err := e.remote.Logout(ctx, s.Token); err != nil {
			e.log.Warn(ctx, "remote logout failed", "error", err)
		}
	}
	_ = e.clearPersisted(ctx)
	return nil
}
