package verification

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/verifications"
	"github.com/dmitrijs2005/propkeeper/internal/client/storage"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	phones []string
	codes  []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, phone, code string) error {
	r.phones = append(r.phones, phone)
	r.codes = append(r.codes, code)
	return r.err
}

func newService(t *testing.T, opts Options) (*Service, *sql.DB) {
	t.Helper()
	db, err := storage.OpenDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, logging.NopLogger{}, opts), db
}

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		c, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, c, 6)
		n, err := strconv.Atoi(c)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestSendCode_StoresRecordAndDispatches(t *testing.T) {
	sender := &recordingSender{}
	s, db := newService(t, Options{Sender: sender})
	s.generate = fixedCode("123456")

	issued, err := s.SendCode(context.Background(), "+251911111111")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, "+251911111111", issued.Phone)
	assert.Empty(t, issued.DebugCode)
	assert.Equal(t, []string{"123456"}, sender.codes)

	rec, err := verifications.NewSQLiteRepository(db).Get(context.Background(), issued.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, 3, rec.MaxAttempts)
	assert.NotEqual(t, []byte("123456"), rec.CodeVerifier)
}

func TestSendCode_DebugExposesCode(t *testing.T) {
	s, _ := newService(t, Options{Debug: true, Sender: &recordingSender{}})
	s.generate = fixedCode("654321")

	issued, err := s.SendCode(context.Background(), "+1555")
	require.NoError(t, err)
	assert.Equal(t, "654321", issued.DebugCode)
}

func TestSendCode_SenderFailureRemovesRecord(t *testing.T) {
	s, db := newService(t, Options{Sender: &recordingSender{err: errors.New("carrier down")}})

	_, err := s.SendCode(context.Background(), "+1555")
	require.Error(t, err)

	list, err := verifications.NewSQLiteRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVerifyCode_CorrectCodePurges(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		t.Run("attempt "+strconv.Itoa(attempt), func(t *testing.T) {
			s, _ := newService(t, Options{Sender: &recordingSender{}})
			s.generate = fixedCode("424242")
			ctx := context.Background()

			issued, err := s.SendCode(ctx, "+251911111111")
			require.NoError(t, err)

			for i := 1; i < attempt; i++ {
				_, err := s.VerifyCode(ctx, issued.ID, "000000")
				var ice *InvalidCodeError
				require.ErrorAs(t, err, &ice)
				assert.Equal(t, 3-i, ice.Remaining)
			}

			phone, err := s.VerifyCode(ctx, issued.ID, "424242")
			require.NoError(t, err)
			assert.Equal(t, "+251911111111", phone)

			_, err = s.VerifyCode(ctx, issued.ID, "424242")
			require.ErrorIs(t, err, common.ErrSessionExpired)
		})
	}
}

func TestVerifyCode_WrongThreeTimes(t *testing.T) {
	s, db := newService(t, Options{Sender: &recordingSender{}})
	s.generate = fixedCode("424242")
	ctx := context.Background()
	repo := verifications.NewSQLiteRepository(db)

	issued, err := s.SendCode(ctx, "+251911111111")
	require.NoError(t, err)

	_, err = s.VerifyCode(ctx, issued.ID, "000000")
	require.ErrorIs(t, err, common.ErrInvalidCode)
	rec, err := repo.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Attempts)

	_, err = s.VerifyCode(ctx, issued.ID, "000000")
	var ice *InvalidCodeError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, 1, ice.Remaining)

	_, err = s.VerifyCode(ctx, issued.ID, "000000")
	require.ErrorIs(t, err, common.ErrTooManyAttempts)

	_, err = repo.Get(ctx, issued.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.VerifyCode(ctx, issued.ID, "424242")
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestVerifyCode_ExhaustedRecordIsPurged(t *testing.T) {
	s, db := newService(t, Options{Sender: &recordingSender{}})
	ctx := context.Background()
	repo := verifications.NewSQLiteRepository(db)

	issued, err := s.SendCode(ctx, "+1555")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := repo.IncrementAttempts(ctx, issued.ID)
		require.NoError(t, err)
	}

	_, err = s.VerifyCode(ctx, issued.ID, "111111")
	require.ErrorIs(t, err, common.ErrTooManyAttempts)

	_, err = repo.Get(ctx, issued.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVerifyCode_Expired(t *testing.T) {
	s, db := newService(t, Options{TTL: time.Minute, Sender: &recordingSender{}})
	s.generate = fixedCode("424242")
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	issued, err := s.SendCode(ctx, "+1555")
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), issued.ExpiresAt)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = s.VerifyCode(ctx, issued.ID, "424242")
	require.ErrorIs(t, err, common.ErrSessionExpired)

	_, err = verifications.NewSQLiteRepository(db).Get(ctx, issued.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVerifyCode_Unknown(t *testing.T) {
	s, _ := newService(t, Options{})

	_, err := s.VerifyCode(context.Background(), "nope", "123456")
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestVerifyCode_ExactMatchOnly(t *testing.T) {
	s, _ := newService(t, Options{Sender: &recordingSender{}})
	s.generate = fixedCode("123456")
	ctx := context.Background()

	issued, err := s.SendCode(ctx, "+1555")
	require.NoError(t, err)

	_, err = s.VerifyCode(ctx, issued.ID, " 123456")
	require.ErrorIs(t, err, common.ErrInvalidCode)

	phone, err := s.VerifyCode(ctx, issued.ID, "123456")
	require.NoError(t, err)
	assert.Equal(t, "+1555", phone)
}

func TestResend_ReplacesExistingRecord(t *testing.T) {
	sender := &recordingSender{}
	s, db := newService(t, Options{Sender: sender})
	ctx := context.Background()
	repo := verifications.NewSQLiteRepository(db)

	s.generate = fixedCode("111111")
	first, err := s.SendCode(ctx, "+251911111111")
	require.NoError(t, err)

	s.generate = fixedCode("222222")
	second, err := s.Resend(ctx, first.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "+251911111111", second.Phone)

	_, err = repo.Get(ctx, first.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.VerifyCode(ctx, second.ID, "111111")
	require.ErrorIs(t, err, common.ErrInvalidCode)
	phone, err := s.VerifyCode(ctx, second.ID, "222222")
	require.NoError(t, err)
	assert.Equal(t, "+251911111111", phone)
}

func TestResend_SameNumberDifferentFormatting(t *testing.T) {
	sender := &recordingSender{}
	s, _ := newService(t, Options{Sender: sender})
	ctx := context.Background()

	first, err := s.SendCode(ctx, "+251911111111")
	require.NoError(t, err)
	second, err := s.Resend(ctx, first.ID, "+251 911 111 111")
	require.NoError(t, err)
	assert.Equal(t, "+251 911 111 111", second.Phone)
	assert.Equal(t, []string{"+251911111111", "+251 911 111 111"}, sender.phones)
}

func TestResend_CorrectedNumberGetsTheCode(t *testing.T) {
	sender := &recordingSender{}
	s, db := newService(t, Options{Sender: sender})
	ctx := context.Background()
	repo := verifications.NewSQLiteRepository(db)

	s.generate = fixedCode("111111")
	typo, err := s.SendCode(ctx, "+251911111111")
	require.NoError(t, err)

	s.generate = fixedCode("222222")
	fixed, err := s.Resend(ctx, typo.ID, "+251922222222")
	require.NoError(t, err)
	assert.Equal(t, "+251922222222", fixed.Phone)
	assert.Equal(t, []string{"+251911111111", "+251922222222"}, sender.phones)

	_, err = repo.Get(ctx, typo.ID)
	require.ErrorIs(t, err, common.ErrorNotFound, "the challenge for the mistyped number is purged")

	phone, err := s.VerifyCode(ctx, fixed.ID, "222222")
	require.NoError(t, err)
	assert.Equal(t, "+251922222222", phone)
}

func TestResend_NoPhoneAndNoRecord(t *testing.T) {
	s, _ := newService(t, Options{Sender: &recordingSender{}})
	_, err := s.Resend(context.Background(), "gone", "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestResend_MissingBehavesLikeSend(t *testing.T) {
	s, db := newService(t, Options{Sender: &recordingSender{}})
	s.generate = fixedCode("333333")
	ctx := context.Background()

	issued, err := s.Resend(ctx, "gone", "+1555")
	require.NoError(t, err)
	assert.Equal(t, "+1555", issued.Phone)

	rec, err := verifications.NewSQLiteRepository(db).Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, 3, rec.MaxAttempts)

	phone, err := s.VerifyCode(ctx, issued.ID, "333333")
	require.NoError(t, err)
	assert.Equal(t, "+1555", phone)
}

func TestPurgeAll(t *testing.T) {
	s, db := newService(t, Options{Sender: &recordingSender{}})
	ctx := context.Background()

	for _, p := range []string{"+1", "+2", "+3"} {
		_, err := s.SendCode(ctx, p)
		require.NoError(t, err)
	}

	require.NoError(t, s.PurgeAll(ctx))

	list, err := verifications.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.PurgeAll(ctx))
}

func TestInvalidCodeError(t *testing.T) {
	err := error(&InvalidCodeError{Remaining: 2})
	assert.True(t, errors.Is(err, common.ErrInvalidCode))
	assert.Contains(t, err.Error(), "2 attempt(s) remaining")
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(nil).Send(context.Background(), "+1", "123456"))
}
