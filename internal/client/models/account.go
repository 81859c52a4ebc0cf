// Package models defines client-side data models shared by the credential
// store, the verification service and the session engine.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/common"
)

// Provider values recorded on accounts.
const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
	ProviderPhone  = "phone"
)

// Phone-verified accounts are named phone_<digits> with email
// <digits>@phone.local. Both are reserved for ProviderPhone.
const (
	PhoneUsernamePrefix = "phone_"
	PhoneEmailDomain    = "phone.local"
)

// PhoneIdentity returns the username and email of the account owned by the
// phone number with the given digits.
func PhoneIdentity(digits string) (username, email string) {
	return PhoneUsernamePrefix + digits, digits + "@" + PhoneEmailDomain
}

// ValidateIdentity rejects a username or email that an account of provider
// may not hold. Usernames never contain '@', so a login identifier is
// unambiguous between the username and email columns.
func ValidateIdentity(username, email, provider string) error {
	if strings.Contains(username, "@") {
		return fmt.Errorf("%w: username must not contain '@'", common.ErrorValidation)
	}
	if provider == ProviderPhone {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(username), PhoneUsernamePrefix) {
		return fmt.Errorf("%w: usernames starting with %q are reserved", common.ErrorValidation, PhoneUsernamePrefix)
	}
	if strings.HasSuffix(strings.ToLower(email), "@"+PhoneEmailDomain) {
		return fmt.Errorf("%w: emails at %s are reserved", common.ErrorValidation, PhoneEmailDomain)
	}
	return nil
}

// Stats holds per-account usage counters. Counters are never negative.
type Stats struct {
	PropertiesListed int64 `json:"properties_listed"`
	Favorites        int64 `json:"favorites"`
	Views            int64 `json:"views"`
	Inquiries        int64 `json:"inquiries"`
	SavedSearches    int64 `json:"saved_searches"`
}

// StatsDelta describes a signed change applied to Stats.
type StatsDelta Stats

// Apply returns s shifted by d, clamping every counter at zero.
func (s Stats) Apply(d StatsDelta) Stats {
	return Stats{
		PropertiesListed: clampAdd(s.PropertiesListed, d.PropertiesListed),
		Favorites:        clampAdd(s.Favorites, d.Favorites),
		Views:            clampAdd(s.Views, d.Views),
		Inquiries:        clampAdd(s.Inquiries, d.Inquiries),
		SavedSearches:    clampAdd(s.SavedSearches, d.SavedSearches),
	}
}

// Clamped returns s with negative counters replaced by zero.
func (s Stats) Clamped() Stats {
	return s.Apply(StatsDelta{})
}

func clampAdd(v, d int64) int64 {
	if v+d < 0 {
		return 0
	}
	return v + d
}

// Account is the identity of a user as seen by callers. It never carries the
// password or anything derived from it.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
	Stats     Stats     `json:"stats"`
}

// DisplayName joins the name parts, falling back to the username.
func (a *Account) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	case a.LastName != "":
		return a.LastName
	default:
		return a.Username
	}
}

// StoredAccount is the persisted form of an account including the salt and
// password verifier. It never leaves the credential store.
type StoredAccount struct {
	Account
	Salt     []byte
	Verifier []byte
}

// RegisterInput carries the fields accepted by registration.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileUpdate is a partial account update; nil fields are left untouched.
// Stats, when set, replace the stored counters.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Stats     *Stats  `json:"stats,omitempty"`
}

// ApplyTo merges u into a copy of acc.
func (u ProfileUpdate) ApplyTo(acc Account) Account {
	if u.Username != nil {
		acc.Username = *u.Username
	}
	if u.Email != nil {
		acc.Email = *u.Email
	}
	if u.FirstName != nil {
		acc.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		acc.LastName = *u.LastName
	}
	if u.Phone != nil {
		acc.Phone = *u.Phone
	}
	if u.IsActive != nil {
		acc.IsActive = *u.IsActive
	}
	if u.Stats != nil {
		acc.Stats = u.Stats.Clamped()
	}
	return acc
}
