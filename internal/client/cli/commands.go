package cli

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, a.out)
}

func (a *App) readSecret() (string, error) {
	pw, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// report prints the outcome of a verb and passes err through.
func (a *App) report(err error, success string) error {
	if err != nil {
		a.fail(err)
		return err
	}
	a.println(success)
	return nil
}

func (a *App) Register(ctx context.Context) error {
	var (
		in  models.RegisterInput
		err error
	)
	if in.Username, err = a.prompt("Enter username"); err != nil {
		return err
	}
	if in.Email, err = a.prompt("Enter email"); err != nil {
		return err
	}
	if in.FirstName, err = a.prompt("First name (optional)"); err != nil {
		return err
	}
	if in.LastName, err = a.prompt("Last name (optional)"); err != nil {
		return err
	}
	if in.Password, err = a.readSecret(); err != nil {
		return err
	}
	return a.report(a.engine.Register(ctx, in), "Account created. You are signed in as "+in.Username+".")
}

func (a *App) Login(ctx context.Context) error {
	identifier, err := a.prompt("Enter username or email")
	if err != nil {
		return err
	}
	secret, err := a.readSecret()
	if err != nil {
		return err
	}
	return a.report(a.engine.Login(ctx, identifier, secret), "Login successful")
}

func (a *App) Logout(ctx context.Context) error {
	a.pendingPhone = ""
	return a.report(a.engine.Logout(ctx), "Logged out")
}

func (a *App) SendCode(ctx context.Context) error {
	phone, err := a.prompt("Enter phone number")
	if err != nil {
		return err
	}
	issued, err := a.engine.SendPhoneVerification(ctx, phone)
	if err != nil {
		a.fail(err)
		return err
	}
	a.pendingPhone = issued.Phone
	a.println("Verification code sent to", issued.Phone)
	if issued.DebugCode != "" {
		a.println("[debug] code:", issued.DebugCode)
	}
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	if a.pendingPhone == "" {
		phone, err := a.prompt("Enter phone number")
		if err != nil {
			return err
		}
		a.pendingPhone = phone
	}
	code, err := a.prompt("Enter the 6-digit code")
	if err != nil {
		return err
	}
	if err := a.engine.VerifyPhoneCode(ctx, a.pendingPhone, code); err != nil {
		a.fail(err)
		return err
	}
	a.pendingPhone = ""
	a.println("Phone verified. Login successful")
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	phone := a.pendingPhone
	if phone == "" {
		var err error
		if phone, err = a.prompt("Enter phone number"); err != nil {
			return err
		}
	}
	issued, err := a.engine.ResendVerificationCode(ctx, phone)
	if err != nil {
		a.fail(err)
		return err
	}
	a.pendingPhone = issued.Phone
	a.println("A new code was sent to", issued.Phone)
	if issued.DebugCode != "" {
		a.println("[debug] code:", issued.DebugCode)
	}
	return nil
}

func (a *App) OAuth(ctx context.Context) error {
	provider, err := a.prompt("OAuth provider (e.g. google)")
	if err != nil {
		return err
	}
	code, err := a.prompt("Authorization code")
	if err != nil {
		return err
	}
	return a.report(a.engine.LoginWithOAuthCode(ctx, provider, code), "Login successful")
}

func (a *App) Stats(ctx context.Context) error {
	s := a.engine.GetUserStats(ctx)
	a.println("Properties listed:", s.PropertiesListed)
	a.println("Favorites:        ", s.Favorites)
	a.println("Views:            ", s.Views)
	a.println("Inquiries:        ", s.Inquiries)
	a.println("Saved searches:   ", s.SavedSearches)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	a.engine.RefreshProfile(ctx)
	s := a.engine.State()
	if !s.IsAuthenticated || s.User == nil {
		a.println("Not signed in")
		return nil
	}
	u := s.User
	a.println("Name:    ", u.DisplayName())
	a.println("Username:", u.Username)
	a.println("Email:   ", u.Email)
	if u.Phone != "" {
		a.println("Phone:   ", u.Phone)
	}
	a.println("Provider:", u.Provider)
	a.println("Session: ", a.mode())
	return nil
}

// Profile prompts for each editable field; an empty answer keeps the
// current value.
func (a *App) Profile(ctx context.Context) error {
	var upd models.ProfileUpdate
	fields := []struct {
		prompt string
		dst    **string
	}{
		{"First name (empty keeps current)", &upd.FirstName},
		{"Last name (empty keeps current)", &upd.LastName},
		{"Email (empty keeps current)", &upd.Email},
		{"Phone (empty keeps current)", &upd.Phone},
	}
	for _, f := range fields {
		v, err := a.prompt(f.prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}
	return a.report(a.engine.UpdateProfile(ctx, upd), "Profile updated")
}

func (a *App) Delete(ctx context.Context) error {
	answer, err := a.prompt("Type 'yes' to delete your account permanently")
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.println("Cancelled")
		return nil
	}
	return a.report(a.engine.DeleteAccount(ctx), "Account deleted")
}
