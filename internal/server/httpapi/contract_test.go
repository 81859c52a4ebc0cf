package httpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	clientmodels "github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The remote client and this API must agree on paths, payloads and status
// mapping.
func TestRemoteClientContract(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()

	c, err := client.NewHTTPClient(client.Options{BaseURL: ts.URL}, logging.NopLogger{})
	require.NoError(t, err)
	defer c.Close()

	reg, err := c.Register(ctx, clientmodels.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw", FirstName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, "Alice", reg.User.FirstName)
	assert.True(t, reg.User.IsActive)

	_, err = c.Register(ctx, clientmodels.RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw"})
	assert.ErrorIs(t, err, client.ErrConflict)

	_, err = c.Register(ctx, clientmodels.RegisterInput{Username: "bob"})
	var se *client.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Status)

	_, err = c.Login(ctx, "alice", "bad")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	res, err := c.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	u, ok, err := c.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, reg.User.ID, u.ID)

	last := "Smith"
	u, err = c.UpdateProfile(ctx, res.Token, clientmodels.ProfileUpdate{LastName: &last, Stats: &clientmodels.Stats{Favorites: 2}})
	require.NoError(t, err)
	assert.Equal(t, "Smith", u.LastName)

	stats, err := c.GetStats(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Favorites)

	u, err = c.GetProfile(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "Smith", u.LastName)

	require.NoError(t, c.Logout(ctx, res.Token))
	_, ok, err = c.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok)

	o, err := c.OAuthLogin(ctx, "google", "code")
	require.NoError(t, err)
	require.NoError(t, c.DeleteProfile(ctx, o.Token))
}
