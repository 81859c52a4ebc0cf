package session

import "github.com/dmitrijs2005/propkeeper/internal/client/models"

type Status string

const (
	StatusUninitialized   Status = "UNINITIALIZED"
	StatusLoading         Status = "LOADING"
	StatusAuthenticated   Status = "AUTHENTICATED"
	StatusUnauthenticated Status = "UNAUTHENTICATED"
)

// State is the published session as observed by the UI.
type State struct {
	Status          Status
	IsLoading       bool
	IsAuthenticated bool
	Token           string
	User            *models.Account
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func authenticated(token string, user *models.Account) State {
	return State{Status: StatusAuthenticated, IsAuthenticated: true, Token: token, User: user}
}

func unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}
