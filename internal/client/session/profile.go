package session

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
)

// GetUserStats returns the usage counters of the current user. Failures are
// logged and reported as zero counters.
func (e *Engine) GetUserStats(ctx context.Context) models.Stats {
	s, serr := e.current()
	if serr != nil {
		return models.Stats{}
	}

	if models.IsLocalToken(s.Token) {
		acc, err := e.store.Lookup(ctx, s.User.ID)
		if err != nil || acc == nil {
			e.log.Warn(ctx, "local stats unavailable", "error", err)
			return models.Stats{}
		}
		return acc.Stats
	}

	stats, err := e.remote.GetStats(ctx, s.Token)
	if err != nil {
		e.log.Warn(ctx, "remote stats unavailable", "error", err)
		return models.Stats{}
	}
	return stats.Clamped()
}

// UpdateProfile applies upd with the authority that issued the session and
// merges the result into it. On failure the session is left unchanged.
func (e *Engine) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	s, serr := e.current()
	if serr != nil {
		return serr
	}

	done := e.begin()
	defer done()

	var (
		acc *models.Account
		err error
	)
	if models.IsLocalToken(s.Token) {
		acc, err = e.store.Update(ctx, s.User.ID, upd)
	} else {
		acc, err = e.remote.UpdateProfile(ctx, s.Token, upd)
	}
	if err != nil {
		return e.fail(ctx, "update profile", normalizeSessionCall(err))
	}
	return e.fail(ctx, "update profile", normalize(e.updateUser(ctx, acc)))
}

// RefreshProfile pulls the current profile from the remote authority. It
// never fails; on error the session keeps its profile.
func (e *Engine) RefreshProfile(ctx context.Context) {
	e.ops.Lock()
	defer e.ops.Unlock()

	s, serr := e.current()
	if serr != nil {
		return
	}

	var (
		acc *models.Account
		err error
	)
	if models.IsLocalToken(s.Token) {
		acc, err = e.store.Lookup(ctx, s.User.ID)
	} else {
		acc, err = e.remote.GetProfile(ctx, s.Token)
	}
	if err != nil || acc == nil {
		e.log.Warn(ctx, "profile refresh failed", "error", err)
		return
	}

	merged := *s.User
	merged.Username = acc.Username
	merged.Email = acc.Email
	merged.FirstName = acc.FirstName
	merged.LastName = acc.LastName
	merged.Phone = acc.Phone
	merged.IsActive = acc.IsActive
	merged.Stats = acc.Stats.Clamped()
	if acc.Provider != "" {
		merged.Provider = acc.Provider
	}
	if err := e.updateUser(ctx, &merged); err != nil {
		e.log.Warn(ctx, "failed to persist refreshed profile", "error", err)
	}
}

// DeleteAccount removes the current account from its authority and ends
// the session.
func (e *Engine) DeleteAccount(ctx context.Context) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	s, serr := e.current()
	if serr != nil {
		return serr
	}

	done := e.begin()
	defer done()

	var err error
	if models.IsLocalToken(s.Token) {
		err = e.store.Delete(ctx, s.User.ID)
	} else {
		err = e.remote.DeleteProfile(ctx, s.Token)
	}
	if err != nil {
		return e.fail(ctx, "delete account", normalizeSessionCall(err))
	}

	_ = e.clearPersisted(ctx)
	e.publish(unauthenticated())
	e.log.Info(ctx, "account deleted", "user_id", s.User.ID)
	return nil
}

// TrackUsage adds delta to the local usage counters. Remote sessions keep
// their counters on the server, so it is a no-op for them.
func (e *Engine) TrackUsage(ctx context.Context, delta models.StatsDelta) error {
	e.ops.Lock()
	defer e.ops.Unlock()

	s, serr := e.current()
	if serr != nil {
		return serr
	}
	if !models.IsLocalToken(s.Token) {
		return nil
	}

	acc, err := e.store.IncrementCounters(ctx, s.User.ID, delta)
	if err != nil {
		return e.fail(ctx, "track usage", normalize(err))
	}
	return e.fail(ctx, "track usage", normalize(e.updateUser(ctx, acc)))
}
