package services

import (
	"context"
	"fmt"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type BidRequest struct {
	CreditID int64
	BidderID int64
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Expiry   time.Duration
	Notes    string
}

// BidService creates and closes offers against listed credits. Expiry is never
// swept: a bid is expired whenever it is read after its expiry time.
type BidService struct{ core }

func NewBidService(d Deps) *BidService { return &BidService{newCore(d)} }

func (s *BidService) PlaceBid(ctx context.Context, req BidRequest) (models.TradingBid, error) {
	switch {
	case !req.Price.IsPositive():
		return models.TradingBid{}, s.finish("place_bid", ErrInvalidPrice)
	case !req.Quantity.IsPositive():
		return models.TradingBid{}, s.finish("place_bid", ErrInvalidQuantity)
	case req.Expiry <= 0:
		return models.TradingBid{}, s.finish("place_bid", ErrInvalidExpiry)
	}

	var out models.TradingBid
	err := s.commerce(ctx, "place_bid", func(ctx context.Context, tx repo.Tx) error {
		credit, err := tx.Credits().GetForUpdate(ctx, req.CreditID)
		if err != nil {
			return orNotFound(err, fmt.Errorf("%w: credit %d not found", ErrCreditNotAvailable, req.CreditID))
		}
		if !credit.Available() {
			return fmt.Errorf("%w: credit %d is not for sale", ErrCreditNotAvailable, credit.ID)
		}
		if credit.OwnerID == req.BidderID {
			return fmt.Errorf("%w: cannot bid on own credit", ErrCreditNotAvailable)
		}
		minBid := credit.MinBidPrice
		if !minBid.IsPositive() {
			minBid = models.DefaultMinBid(credit.Price)
		}
		if req.Price.LessThan(minBid) {
			return fmt.Errorf("%w: minimum is %s", ErrBidTooLow, minBid.StringFixed(2))
		}
		if req.Quantity.GreaterThan(credit.Quantity) {
			return fmt.Errorf("%w: credit holds %s kg", ErrInvalidQuantity, credit.Quantity)
		}

		now := s.now()
		out = models.TradingBid{
			CreditID:  credit.ID,
			BidderID:  req.BidderID,
			Price:     req.Price,
			Quantity:  req.Quantity,
			Status:    models.BidActive,
			ExpiresAt: now.Add(req.Expiry),
			Notes:     req.Notes,
		}
		if err := tx.Bids().Create(ctx, &out); err != nil {
			return err
		}
		return notify(ctx, tx, credit.OwnerID, models.NotifyBid, "New Bid Received",
			fmt.Sprintf("A bid of $%s was placed on %s", req.Price.StringFixed(2), credit.ProjectName))
	})
	if err != nil {
		return models.TradingBid{}, err
	}
	s.log.Info("bid placed", "bid_id", out.ID, "credit_id", req.CreditID, "bidder_id", req.BidderID)
	return out, nil
}

func (s *BidService) RejectBid(ctx context.Context, bidID, ownerID int64) (models.TradingBid, error) {
	var out models.TradingBid
	err := s.commerce(ctx, "reject_bid", func(ctx context.Context, tx repo.Tx) error {
		peek, err := tx.Bids().GetByID(ctx, bidID)
		if err != nil {
			return orNotFound(err, ErrBidNotFound)
		}
		credit, err := tx.Credits().GetForUpdate(ctx, peek.CreditID)
		if err != nil {
			return orNotFound(err, fmt.Errorf("%w: credit %d", ErrNotFound, peek.CreditID))
		}
		bid, err := tx.Bids().GetForUpdate(ctx, bidID)
		if err != nil {
			return orNotFound(err, ErrBidNotFound)
		}
		if !bid.IsActive(s.now()) {
			return ErrBidNotActive
		}
		if credit.OwnerID != ownerID {
			return ErrNotOwner
		}
		if err := tx.Bids().UpdateStatus(ctx, bid.ID, models.BidRejected, nil); err != nil {
			return err
		}
		bid.Status = models.BidRejected
		out = bid
		return notify(ctx, tx, bid.BidderID, models.NotifyBid, "Bid Rejected",
			fmt.Sprintf("Your bid for %s was rejected", credit.ProjectName))
	})
	return out, err
}

func (s *BidService) ListForCredit(ctx context.Context, creditID, ownerID int64) ([]models.TradingBid, error) {
	var out []models.TradingBid
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		credit, err := tx.Credits().GetByID(ctx, creditID)
		if err != nil {
			return err
		}
		if credit.OwnerID != ownerID {
			return ErrNotOwner
		}
		out, err = tx.Bids().ListByCredit(ctx, creditID)
		return err
	})
	return s.withEffectiveStatus(out), err
}

func (s *BidService) ListForBidder(ctx context.Context, bidderID int64) ([]models.TradingBid, error) {
	var out []models.TradingBid
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Bids().ListByBidder(ctx, bidderID)
		return err
	})
	return s.withEffectiveStatus(out), err
}

func (s *BidService) withEffectiveStatus(bids []models.TradingBid) []models.TradingBid {
	now := s.now()
	for i := range bids {
		bids[i].Status = bids[i].EffectiveStatus(now)
	}
	return bids
}
