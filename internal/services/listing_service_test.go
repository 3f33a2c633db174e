package services

import (
	"context"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListForSale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	other := e.user(t, "0xB")
	c := e.credit(t, owner, "10", "8", false)

	_, err := e.listing.ListForSale(ctx, c.ID, owner.ID, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = e.listing.ListForSale(ctx, c.ID, owner.ID, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = e.listing.ListForSale(ctx, c.ID, other.ID, dec("3"))
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.listing.ListForSale(ctx, 777, owner.ID, dec("3"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, e.mustCredit(t, c.ID).ForSale)

	got, err := e.listing.ListForSale(ctx, c.ID, owner.ID, dec("12.40"))
	require.NoError(t, err)
	assert.True(t, got.ForSale)
	assert.True(t, got.Price.Equal(dec("12.40")))
	assert.True(t, got.MinBidPrice.Equal(dec("11.16")))
	assert.True(t, got.MinBidPrice.LessThanOrEqual(got.Price))
	assert.Contains(t, titles(e.notifications(t, owner.ID)), "Credit Listed for Sale")

	avail, err := e.credits.ListAvailable(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, c.ID, avail[0].ID)
}

func TestUnlist(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	c := e.credit(t, owner, "10", "8", true)

	got, err := e.listing.Unlist(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, got.ForSale)

	_, err = e.listing.Unlist(ctx, c.ID, owner.ID)
	assert.ErrorIs(t, err, ErrInvalidTransferState)
}

func TestRetire(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	bidder := e.user(t, "0xB")
	c := e.credit(t, owner, "10", "8", true)
	bid, err := e.bids.PlaceBid(ctx, BidRequest{CreditID: c.ID, BidderID: bidder.ID, Price: dec("8"), Quantity: dec("1"), Expiry: time.Hour})
	require.NoError(t, err)

	_, err = e.listing.Retire(ctx, c.ID, bidder.ID)
	require.ErrorIs(t, err, ErrNotOwner)

	got, err := e.listing.Retire(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Retired)
	assert.False(t, got.ForSale)
	require.NotNil(t, got.RetiredAt)
	assert.Equal(t, e.clock.Now(), *got.RetiredAt)

	stored := e.mustCredit(t, c.ID)
	assert.True(t, stored.Retired)
	assert.False(t, stored.ForSale)

	_, err = e.listing.Retire(ctx, c.ID, owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyRetired)
	_, err = e.listing.ListForSale(ctx, c.ID, owner.ID, dec("9"))
	assert.ErrorIs(t, err, ErrAlreadyRetired)
	assert.False(t, e.mustCredit(t, c.ID).ForSale)

	bids, err := e.bids.ListForBidder(ctx, bidder.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, bid.ID, bids[0].ID)
	assert.Equal(t, models.BidRejected, bids[0].Status)

	_, err = e.trading.AcceptBid(ctx, bid.ID, owner.ID)
	assert.ErrorIs(t, err, ErrBidNotActive)

	stats, err := e.credits.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CreditsRetired)
	assert.Equal(t, int64(0), stats.CreditsForSale)
}
