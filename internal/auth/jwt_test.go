package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePairRoundTrip(t *testing.T) {
	tm := NewTokenManager("acc", "ref", time.Minute, time.Hour)
	p, err := tm.GeneratePair(42, "0xabc", "admin")
	require.NoError(t, err)
	assert.True(t, p.ExpiresAt.After(time.Now()))

	c, isRefresh, err := tm.ParseAny(p.AccessToken)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "0xabc", c.Wallet)
	assert.Equal(t, "admin", c.Role)

	c, isRefresh, err = tm.ParseAny(p.RefreshToken)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, int64(42), c.UserID)
}

func TestParseAnyRejects(t *testing.T) {
	tm := NewTokenManager("acc", "ref", time.Minute, time.Hour)
	other := NewTokenManager("x", "y", time.Minute, time.Hour)
	p, err := other.GeneratePair(1, "0x1", "user")
	require.NoError(t, err)

	_, _, err = tm.ParseAny(p.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = tm.ParseAny("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("acc", "ref", -time.Minute, -time.Minute)
	p, err = expired.GeneratePair(1, "0x1", "user")
	require.NoError(t, err)
	_, _, err = tm.ParseAny(p.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
