package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
)

// CredentialStore is the local authority. credentials.Store implements it.
type CredentialStore interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.Account, error)
	RegisterWithProvider(ctx context.Context, in models.RegisterInput, provider string) (*models.Account, error)
	Authenticate(ctx context.Context, identifier, secret string) (*models.Account, error)
	Lookup(ctx context.Context, id string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Account, error)
	IncrementCounters(ctx context.Context, id string, delta models.StatsDelta) (*models.Account, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Delete(ctx context.Context, id string) error
	GenerateToken(id string) string
}

// CodeVerifier runs phone challenges. verification.Service implements it.
type CodeVerifier interface {
	SendCode(ctx context.Context, phone string) (*verification.Issued, error)
	VerifyCode(ctx context.Context, id, code string) (string, error)
	Resend(ctx context.Context, oldID, phone string) (*verification.Issued, error)
	PurgeAll(ctx context.Context) error
}

type Options struct {
	// MinPasswordEntropy enables the password strength check on register
	// when positive.
	MinPasswordEntropy float64
}

type subscriber struct {
	id int
	fn func(State)
}

// Engine owns the session. Create one per process with NewEngine and call
// Init before anything else.
type Engine struct {
	store  CredentialStore
	codes  CodeVerifier
	meta   metadata.Repository
	remote client.Client
	log    logging.Logger
	opts   Options

	// ops serializes mutating verbs.
	ops sync.Mutex

	stateMu sync.RWMutex
	state   State
	subs    []subscriber
	nextSub int
}

func NewEngine(store CredentialStore, codes CodeVerifier, meta metadata.Repository, remote client.Client, log logging.Logger, opts Options) *Engine {
	if log == nil {
		log = logging.NopLogger{}
	}
	if remote == nil {
		remote = client.Offline{}
	}
	return &Engine{
		store:  store,
		codes:  codes,
		meta:   meta,
		remote: remote,
		log:    log.With("module", "session"),
		opts:   opts,
		state:  State{Status: StatusUninitialized},
	}
}

// State returns a snapshot of the published session.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state.clone()
}

func (e *Engine) IsAuthenticated() bool {
	return e.State().IsAuthenticated
}

// Subscribe registers fn to receive every published state. fn runs on the
// goroutine that changed the state and must not call mutating verbs.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.stateMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.stateMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.stateMu.Lock()
			defer e.stateMu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *Engine) publish(s State) {
	e.stateMu.Lock()
	e.state = s.clone()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.stateMu.Unlock()

	for _, sub := range subs {
		sub.fn(s.clone())
	}
}

// begin marks the session as loading and returns the matching reset.
func (e *Engine) begin() func() {
	s := e.State()
	s.IsLoading = true
	e.publish(s)
	return func() {
		s := e.State()
		if s.IsLoading {
			s.IsLoading = false
			e.publish(s)
		}
	}
}

// authenticate persists token and user and publishes AUTHENTICATED.
func (e *Engine) authenticate(ctx context.Context, token string, user *models.Account) error {
	if err := e.persist(ctx, token, user); err != nil {
		return err
	}
	e.publish(authenticated(token, user))
	e.log.Info(ctx, "session established", "user_id", user.ID, "local", models.IsLocalToken(token))
	return nil
}

func (e *Engine) persist(ctx context.Context, token string, user *models.Account) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := e.meta.SetMany(ctx, map[string][]byte{
		common.MetaKeyToken: []byte(token),
		common.MetaKeyUser:  b,
	}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// updateUser replaces the session user, keeping the token.
func (e *Engine) updateUser(ctx context.Context, user *models.Account) error {
	s := e.State()
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := e.meta.Set(ctx, common.MetaKeyUser, b); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	s.User = user
	e.publish(s)
	return nil
}

// clearPersisted removes every session key and outstanding verification
// record. It keeps going after failures and reports them joined.
func (e *Engine) clearPersisted(ctx context.Context) error {
	keysErr := metadata.DeleteKeys(ctx, e.meta, common.SessionKeys...)
	if keysErr != nil {
		e.log.Warn(ctx, "failed to remove session keys", "error", keysErr)
	}
	codesErr := e.codes.PurgeAll(ctx)
	if codesErr != nil {
		e.log.Warn(ctx, "failed to purge verification records", "error", codesErr)
	}
	if keysErr != nil {
		return keysErr
	}
	return codesErr
}

// current returns the active session or a NOT_AUTHENTICATED error.
func (e *Engine) current() (State, *Error) {
	s := e.State()
	if !s.IsAuthenticated || s.User == nil {
		return s, newError(KindNotAuthenticated, "", nil)
	}
	return s, nil
}

// fail logs err and returns its normalized form. It returns a plain error so
// that a nil *Error never ends up in a non-nil interface.
func (e *Engine) fail(ctx context.Context, op string, err *Error) error {
	if err == nil {
		return nil
	}
	e.log.Warn(ctx, op+" failed", "kind", string(err.Kind), "error", err.cause)
	return err
}
