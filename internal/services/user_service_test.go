package services

import (
	"context"
	"testing"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWallet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, created, err := e.users.ConnectWallet(ctx, "  0xAbCdEf ", "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xabcdef", u.WalletAddress)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, models.LevelBasic, u.VerificationLevel)
	assert.True(t, u.TotalOffsets.IsZero())

	again, created, err := e.users.ConnectWallet(ctx, "0xABCDEF", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "alice", again.Username)

	anon, _, err := e.users.ConnectWallet(ctx, "0x02", "")
	require.NoError(t, err)
	assert.Equal(t, "User", anon.Username)

	_, _, err = e.users.ConnectWallet(ctx, "   ", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, []string{"Welcome"}, titles(e.notifications(t, u.ID)))
}

func TestSetVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "0xA")

	got, err := e.users.SetVerification(ctx, u.ID, true, models.LevelPremium)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, models.LevelPremium, got.VerificationLevel)

	_, err = e.users.SetVerification(ctx, u.ID, true, "gold")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.users.SetVerification(ctx, 999, true, models.LevelBasic)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationsMarkRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "0xA")
	other := e.user(t, "0xB")

	unread, err := e.notes.List(ctx, u.ID, true, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	err = e.notes.MarkRead(ctx, unread[0].ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.notes.MarkRead(ctx, unread[0].ID, u.ID))
	unread, err = e.notes.List(ctx, u.ID, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := e.notes.List(ctx, u.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsRead)
}
