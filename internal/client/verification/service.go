package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/verifications"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/cryptox"
	"github.com/dmitrijs2005/propkeeper/internal/dbx"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// Issued describes a freshly created challenge. DebugCode is only filled in
// debug mode.
type Issued struct {
	ID        string
	Phone     string
	ExpiresAt time.Time
	DebugCode string
}

type Options struct {
	TTL         time.Duration
	MaxAttempts int
	Debug       bool
	Sender      Sender
}

type Service struct {
	db          *sql.DB
	log         logging.Logger
	sender      Sender
	ttl         time.Duration
	maxAttempts int
	debug       bool

	now      func() time.Time
	generate func() (string, error)
}

func NewService(db *sql.DB, log logging.Logger, opts Options) *Service {
	if log == nil {
		log = logging.NopLogger{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = models.DefaultMaxAttempts
	}
	if opts.Sender == nil {
		opts.Sender = NewLogSender(log)
	}
	return &Service{
		db:          db,
		log:         log.With("module", "verification"),
		sender:      opts.Sender,
		ttl:         opts.TTL,
		maxAttempts: opts.MaxAttempts,
		debug:       opts.Debug,
		now:         time.Now,
		generate:    GenerateCode,
	}
}

func (s *Service) repo(db dbx.DBTX) verifications.Repository {
	return verifications.NewSQLiteRepository(db)
}

// SendCode issues a new challenge for phone.
func (s *Service) SendCode(ctx context.Context, phone string) (*Issued, error) {
	rec, code, err := s.newRecord(phone)
	if err != nil {
		return nil, err
	}
	if err := s.repo(s.db).Create(ctx, rec); err != nil {
		return nil, err
	}
	return s.dispatch(ctx, rec, code)
}

// Resend replaces the challenge oldID with a fresh one. The new code goes to
// phone; when phone is empty it goes to the old challenge's number. When
// oldID is gone it behaves like SendCode(phone).
func (s *Service) Resend(ctx context.Context, oldID, phone string) (*Issued, error) {
	var code string
	rec, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Verification, error) {
		repo := s.repo(tx)

		target := phone
		old, err := repo.Get(ctx, oldID)
		switch {
		case err == nil:
			if target == "" {
				target = old.Phone
			} else if !samePhone(target, old.Phone) {
				s.log.Info(ctx, "resend redirected to a new number", "verification_id", old.ID)
			}
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
		if target == "" {
			return nil, fmt.Errorf("%w: phone number is required", common.ErrorValidation)
		}

		rec, c, err := s.newRecord(target)
		if err != nil {
			return nil, err
		}
		if err := repo.Create(ctx, rec); err != nil {
			return nil, err
		}
		if old != nil {
			if err := repo.Delete(ctx, old.ID); err != nil {
				return nil, err
			}
		}
		code = c
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resend verification code: %w", err)
	}
	return s.dispatch(ctx, rec, code)
}

// VerifyCode checks code against the challenge id and returns the verified
// phone number.
//
// A missing or stale record yields common.ErrSessionExpired. An exhausted
// record yields common.ErrTooManyAttempts. A wrong code yields
// *InvalidCodeError, or common.ErrTooManyAttempts when it used the last
// attempt.
//
// The wrong code that uses the last attempt purges the record. A further
// call with the same id therefore yields common.ErrSessionExpired, not
// common.ErrTooManyAttempts: the third failure reports the lockout and the
// id is dead afterwards. ErrTooManyAttempts on a later call is only seen if
// that purge failed and the exhausted record is still stored.
func (s *Service) VerifyCode(ctx context.Context, id, code string) (string, error) {
	repo := s.repo(s.db)

	rec, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrSessionExpired
		}
		return "", err
	}

	if s.now().Sub(rec.CreatedAt) > s.ttl {
		s.purge(ctx, repo, id)
		return "", common.ErrSessionExpired
	}

	if rec.Attempts >= rec.MaxAttempts {
		s.purge(ctx, repo, id)
		return "", common.ErrTooManyAttempts
	}

	attempts, err := repo.IncrementAttempts(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Raced with another verify that exhausted or consumed it.
			return "", common.ErrSessionExpired
		}
		return "", err
	}

	if cryptox.CheckVerifier([]byte(code), rec.CodeVerifier) {
		s.purge(ctx, repo, id)
		s.log.Info(ctx, "phone verified", "verification_id", id)
		return rec.Phone, nil
	}

	remaining := rec.MaxAttempts - attempts
	if remaining <= 0 {
		s.purge(ctx, repo, id)
		s.log.Warn(ctx, "verification exhausted", "verification_id", id)
		return "", common.ErrTooManyAttempts
	}
	return "", &InvalidCodeError{Remaining: remaining}
}

// PurgeAll removes every outstanding challenge.
func (s *Service) PurgeAll(ctx context.Context) error {
	repo := s.repo(s.db)
	list, err := repo.List(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, v := range list {
		if err := repo.Delete(ctx, v.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func samePhone(a, b string) bool {
	digits := func(p string) string {
		return strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, p)
	}
	return digits(a) == digits(b)
}

func (s *Service) newRecord(phone string) (*models.Verification, string, error) {
	code, err := s.generate()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate code: %w", err)
	}
	return &models.Verification{
		ID:           uuid.NewString(),
		Phone:        phone,
		CodeVerifier: cryptox.MakeVerifier([]byte(code)),
		CreatedAt:    s.now().UTC(),
		MaxAttempts:  s.maxAttempts,
	}, code, nil
}

func (s *Service) dispatch(ctx context.Context, rec *models.Verification, code string) (*Issued, error) {
	if err := s.sender.Send(ctx, rec.Phone, code); err != nil {
		s.purge(ctx, s.repo(s.db), rec.ID)
		return nil, fmt.Errorf("failed to send verification code: %w", err)
	}

	issued := &Issued{ID: rec.ID, Phone: rec.Phone, ExpiresAt: rec.CreatedAt.Add(s.ttl)}
	if s.debug {
		issued.DebugCode = code
		s.log.Debug(ctx, "verification code issued", "verification_id", rec.ID, "code", code)
	}
	return issued, nil
}

func (s *Service) purge(ctx context.Context, repo verifications.Repository, id string) {
	if err := repo.Delete(ctx, id); err != nil {
		s.log.Warn(ctx, "failed to purge verification record", "verification_id", id, "error", err)
	}
}
