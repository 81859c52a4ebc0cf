package models

import "time"

const ProviderLocal = "local"

// User is an account known to the authority. PasswordHash is empty for
// accounts created through OAuth.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Provider     string    `json:"provider"`
	PasswordHash []byte    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	Stats        Stats     `json:"stats"`
}

type Stats struct {
	PropertiesListed int64 `json:"properties_listed"`
	Favorites        int64 `json:"favorites"`
	Views            int64 `json:"views"`
	Inquiries        int64 `json:"inquiries"`
	SavedSearches    int64 `json:"saved_searches"`
}

func (s Stats) clamped() Stats {
	return Stats{
		PropertiesListed: max(s.PropertiesListed, 0),
		Favorites:        max(s.Favorites, 0),
		Views:            max(s.Views, 0),
		Inquiries:        max(s.Inquiries, 0),
		SavedSearches:    max(s.SavedSearches, 0),
	}
}

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Stats     *Stats  `json:"stats,omitempty"`
}

// ApplyTo returns u with the non-nil fields of p applied. Stats are clamped
// at zero.
func (p ProfileUpdate) ApplyTo(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.Stats != nil {
		u.Stats = p.Stats.clamped()
	}
	return u
}
