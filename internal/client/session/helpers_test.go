package session

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	"github.com/dmitrijs2005/propkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/propkeeper/internal/client/storage"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a scripted client.Client. Unset funcs report
// client.ErrUnavailable.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	login       func(identifier, password string) (*client.AuthResult, error)
	register    func(in models.RegisterInput) (*client.AuthResult, error)
	logout      func(token string) error
	verifyToken func(token string) (*models.Account, bool, error)
	getProfile  func(token string) (*models.Account, error)
	updateProf  func(token string, upd models.ProfileUpdate) (*models.Account, error)
	deleteProf  func(token string) error
	getStats    func(token string) (models.Stats, error)
	oauth       func(provider, code string) (*client.AuthResult, error)
}

var _ client.Client = (*fakeRemote)(nil)

func (f *fakeRemote) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) Login(_ context.Context, identifier, password string) (*client.AuthResult, error) {
	f.record("login")
	if f.login == nil {
		return nil, client.ErrUnavailable
	}
	return f.login(identifier, password)
}

func (f *fakeRemote) Register(_ context.Context, in models.RegisterInput) (*client.AuthResult, error) {
	f.record("register")
	if f.register == nil {
		return nil, client.ErrUnavailable
	}
	return f.register(in)
}

func (f *fakeRemote) Logout(_ context.Context, token string) error {
	f.record("logout")
	if f.logout == nil {
		return client.ErrUnavailable
	}
	return f.logout(token)
}

func (f *fakeRemote) VerifyToken(_ context.Context, token string) (*models.Account, bool, error) {
	f.record("verify")
	if f.verifyToken == nil {
		return nil, false, client.ErrUnavailable
	}
	return f.verifyToken(token)
}

func (f *fakeRemote) GetProfile(_ context.Context, token string) (*models.Account, error) {
	f.record("get_profile")
	if f.getProfile == nil {
		return nil, client.ErrUnavailable
	}
	return f.getProfile(token)
}

func (f *fakeRemote) UpdateProfile(_ context.Context, token string, upd models.ProfileUpdate) (*models.Account, error) {
	f.record("update_profile")
	if f.updateProf == nil {
		return nil, client.ErrUnavailable
	}
	return f.updateProf(token, upd)
}

func (f *fakeRemote) DeleteProfile(_ context.Context, token string) error {
	f.record("delete_profile")
	if f.deleteProf == nil {
		return client.ErrUnavailable
	}
	return f.deleteProf(token)
}

func (f *fakeRemote) GetStats(_ context.Context, token string) (models.Stats, error) {
	f.record("stats")
	if f.getStats == nil {
		return models.Stats{}, client.ErrUnavailable
	}
	return f.getStats(token)
}

func (f *fakeRemote) OAuthLogin(_ context.Context, provider, code string) (*client.AuthResult, error) {
	f.record("oauth")
	if f.oauth == nil {
		return nil, client.ErrUnavailable
	}
	return f.oauth(provider, code)
}

func (f *fakeRemote) Close() error { return nil }

// failingMeta wraps a metadata repository and fails deletes on demand.
type failingMeta struct {
	metadata.Repository
	deleteErr error
}

func (m *failingMeta) Delete(ctx context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	return m.Repository.Delete(ctx, key)
}

// failingCodes wraps a verifier and fails PurgeAll.
type failingCodes struct {
	CodeVerifier
}

func (failingCodes) PurgeAll(context.Context) error { return errors.New("purge failed") }

type harness struct {
	db     *sql.DB
	store  *credentials.Store
	codes  *verification.Service
	meta   metadata.Repository
	remote *fakeRemote
	engine *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, Options{}, nil)
}

func newHarnessWith(t *testing.T, opts Options, wrap func(h *harness) (CodeVerifier, metadata.Repository)) *harness {
	t.Helper()
	db, err := storage.OpenDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:     db,
		store:  credentials.NewStore(db, logging.NopLogger{}),
		codes:  verification.NewService(db, logging.NopLogger{}, verification.Options{Debug: true}),
		meta:   metadata.NewSQLiteRepository(db),
		remote: &fakeRemote{},
	}
	var (
		codes CodeVerifier        = h.codes
		meta  metadata.Repository = h.meta
	)
	if wrap != nil {
		codes, meta = wrap(h)
	}
	h.engine = NewEngine(h.store, codes, meta, h.remote, logging.NopLogger{}, opts)
	require.NoError(t, h.engine.Init(context.Background()))
	return h
}

// restart builds a fresh engine over the same storage, as after a process
// restart.
func (h *harness) restart(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(h.store, h.codes, h.meta, h.remote, logging.NopLogger{}, Options{})
	return e
}

func (h *harness) metaValue(t *testing.T, key string) []byte {
	t.Helper()
	v, err := h.meta.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "message: %s", se.Message)
}

func remoteUser(id, username string) *models.Account {
	return &models.Account{ID: id, Username: username, Email: username + "@x.com", Provider: models.ProviderRemote, IsActive: true}
}
