package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/dmitrijs2005/propkeeper/internal/common"
)

func phoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// SendPhoneVerification issues a code for phone and remembers the challenge
// id for the following verify or resend.
func (e *Engine) SendPhoneVerification(ctx context.Context, phone string) (*verification.Issued, error) {
	e.ops.Lock()
	defer e.ops.Unlock()

	phone = strings.TrimSpace(phone)
	if phoneDigits(phone) == "" {
		return nil, newError(KindValidation, "Please enter a valid phone number.", nil)
	}

	issued, err := e.codes.SendCode(ctx, phone)
	if err != nil {
		return nil, e.fail(ctx, "send verification", normalize(err))
	}
	if err := e.meta.Set(ctx, common.MetaKeyVerificationID, []byte(issued.ID)); err != nil {
		return nil, e.fail(ctx, "send verification", normalize(err))
	}
	return issued, nil
}

// ResendVerificationCode replaces the current challenge with a new one.
func (e *Engine) ResendVerificationCode(ctx context.Context, phone string) (*verification.Issued, error) {
	e.ops.Lock()
	defer e.ops.Unlock()

	phone = strings.TrimSpace(phone)
	if phoneDigits(phone) == "" {
		return nil, newError(KindValidation, "Please enter a valid phone number.", nil)
	}

	oldID, err := e.meta.Get(ctx, common.MetaKeyVerificationID)
	if err != nil {
		return nil, e.fail(ctx, "resend verification", normalize(err))
	}

	issued, err := e.codes.Resend(ctx, string(oldID), phone)
	if err != nil {
		return nil, e.fail(ctx, "resend verification", normalize(err))
	}
	if err := e.meta.Set(ctx, common.MetaKeyVerificationID, []byte(issued.ID)); err != nil {
		return nil, e.fail(ctx, "resend verification", normalize(err))
	}
	return issued, nil
}

// VerifyPhoneCode checks code against the current challenge. On success the
// phone's local account is found or created and the session is established.
func (e *Engine) VerifyPhoneCode(ctx context.Context, phone, code string) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	if strings.TrimSpace(code) == "" {
		return newError(KindValidation, "Please enter the verification code.", nil)
	}

	id, err := e.meta.Get(ctx, common.MetaKeyVerificationID)
	if err != nil {
		return e.fail(ctx, "verify phone", normalize(err))
	}
	if len(id) == 0 {
		return e.fail(ctx, "verify phone", newError(KindSessionExpired, "", common.ErrSessionExpired))
	}

	done := e.begin()
	defer done()

	verified, err := e.codes.VerifyCode(ctx, string(id), code)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrTooManyAttempts) {
			if derr := e.meta.Delete(ctx, common.MetaKeyVerificationID); derr != nil {
				e.log.Warn(ctx, "failed to forget verification id", "error", derr)
			}
		}
		return e.fail(ctx, "verify phone", normalize(err))
	}
	if phone != "" && phone != verified {
		e.log.Warn(ctx, "verified phone differs from submitted phone", "verification_id", string(id))
	}

	if err := e.meta.Delete(ctx, common.MetaKeyVerificationID); err != nil {
		e.log.Warn(ctx, "failed to forget verification id", "error", err)
	}

	acc, err := e.phoneAccount(ctx, verified)
	if err != nil {
		return e.fail(ctx, "verify phone", normalize(err))
	}
	return e.fail(ctx, "verify phone", normalize(e.authenticate(ctx, e.store.GenerateToken(acc.ID), acc)))
}

// phoneAccount finds or creates the account owned by phone. Only an account
// created by phone verification is reused; anything else holding the phone
// identity is a collision and is never logged into.
func (e *Engine) phoneAccount(ctx context.Context, phone string) (*models.Account, error) {
	username, email := models.PhoneIdentity(phoneDigits(phone))

	acc, err := e.findPhoneAccount(ctx, username)
	if err != nil || acc != nil {
		return acc, err
	}

	secret, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	acc, err = e.store.RegisterWithProvider(ctx, models.RegisterInput{
		Username: username,
		Email:    email,
		Password: secret,
		Phone:    phone,
	}, models.ProviderPhone)
	if errors.Is(err, common.ErrorAlreadyExists) {
		acc, err = e.findPhoneAccount(ctx, username)
		if err == nil && acc == nil {
			err = fmt.Errorf("%w: phone identity %s held by another account", common.ErrorAlreadyExists, email)
		}
	}
	return acc, err
}

func (e *Engine) findPhoneAccount(ctx context.Context, username string) (*models.Account, error) {
	acc, err := e.store.FindByUsername(ctx, username)
	if err != nil || acc == nil {
		return nil, err
	}
	if acc.Provider != models.ProviderPhone {
		e.log.Warn(ctx, "phone username held by non-phone account", "user_id", acc.ID, "provider", acc.Provider)
		return nil, fmt.Errorf("%w: %s belongs to a %s account", common.ErrorAlreadyExists, username, acc.Provider)
	}
	return acc, nil
}
