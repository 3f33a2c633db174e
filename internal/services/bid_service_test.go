package services

import (
	"context"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceBidValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	bidder := e.user(t, "0xB")
	listed := e.credit(t, owner, "10", "5", true)
	unlisted := e.credit(t, owner, "10", "5", false)

	req := func(creditID, bidderID int64, price, qty string, expiry time.Duration) BidRequest {
		return BidRequest{CreditID: creditID, BidderID: bidderID, Price: dec(price), Quantity: dec(qty), Expiry: expiry}
	}
	cases := []struct {
		name string
		req  BidRequest
		want error
	}{
		{"zero price", req(listed.ID, bidder.ID, "0", "1", time.Hour), ErrInvalidPrice},
		{"zero quantity", req(listed.ID, bidder.ID, "5", "0", time.Hour), ErrInvalidQuantity},
		{"negative quantity", req(listed.ID, bidder.ID, "5", "-2", time.Hour), ErrInvalidQuantity},
		{"quantity above credit", req(listed.ID, bidder.ID, "5", "11", time.Hour), ErrInvalidQuantity},
		{"no expiry", req(listed.ID, bidder.ID, "5", "1", 0), ErrInvalidExpiry},
		{"not listed", req(unlisted.ID, bidder.ID, "5", "1", time.Hour), ErrCreditNotAvailable},
		{"missing credit", req(999, bidder.ID, "5", "1", time.Hour), ErrCreditNotAvailable},
		{"own credit", req(listed.ID, owner.ID, "5", "1", time.Hour), ErrCreditNotAvailable},
		{"below minimum", req(listed.ID, bidder.ID, "4.49", "1", time.Hour), ErrBidTooLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.bids.PlaceBid(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	mine, err := e.bids.ListForBidder(ctx, bidder.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	bid, err := e.bids.PlaceBid(ctx, req(listed.ID, bidder.ID, "4.50", "1", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, e.clock.Now().Add(time.Hour), bid.ExpiresAt)
	assert.Contains(t, titles(e.notifications(t, owner.ID)), "New Bid Received")
}

func TestBidExpiresLazily(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	bidder := e.user(t, "0xB")
	c := e.credit(t, owner, "10", "5", true)

	bid, err := e.bids.PlaceBid(ctx, BidRequest{CreditID: c.ID, BidderID: bidder.ID, Price: dec("5"), Quantity: dec("2"), Expiry: 24 * time.Hour})
	require.NoError(t, err)

	e.clock.Advance(23 * time.Hour)
	list, err := e.bids.ListForCredit(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BidActive, list[0].Status)

	e.clock.Advance(2 * time.Hour)
	list, err = e.bids.ListForCredit(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidExpired, list[0].Status)

	_, err = e.bids.RejectBid(ctx, bid.ID, owner.ID)
	assert.ErrorIs(t, err, ErrBidNotActive)
	_, err = e.trading.AcceptBid(ctx, bid.ID, owner.ID)
	assert.ErrorIs(t, err, ErrBidNotActive)
}

func TestRejectBid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	bidder := e.user(t, "0xB")
	c := e.credit(t, owner, "10", "5", true)
	bid, err := e.bids.PlaceBid(ctx, BidRequest{CreditID: c.ID, BidderID: bidder.ID, Price: dec("5"), Quantity: dec("2"), Expiry: time.Hour})
	require.NoError(t, err)

	_, err = e.bids.RejectBid(ctx, bid.ID, bidder.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.bids.RejectBid(ctx, 31337, owner.ID)
	assert.ErrorIs(t, err, ErrBidNotFound)

	got, err := e.bids.RejectBid(ctx, bid.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidRejected, got.Status)

	_, err = e.bids.RejectBid(ctx, bid.ID, owner.ID)
	assert.ErrorIs(t, err, ErrBidNotActive)
	assert.Equal(t, owner.ID, e.mustCredit(t, c.ID).OwnerID)
}

func TestListForCreditOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	b1 := e.user(t, "0xB")
	b2 := e.user(t, "0xC")
	c := e.credit(t, owner, "10", "5", true)

	for _, p := range []struct {
		bidder int64
		price  string
	}{{b1.ID, "4.6"}, {b2.ID, "5.2"}} {
		_, err := e.bids.PlaceBid(ctx, BidRequest{CreditID: c.ID, BidderID: p.bidder, Price: dec(p.price), Quantity: dec("1"), Expiry: time.Hour})
		require.NoError(t, err)
	}

	list, err := e.bids.ListForCredit(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Price.Equal(dec("5.2")), "highest bid first")

	_, err = e.bids.ListForCredit(ctx, c.ID, b1.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.bids.ListForCredit(ctx, 555, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
