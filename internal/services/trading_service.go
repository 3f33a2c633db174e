package services

import (
	"context"
	"fmt"

	"github.com/baharkarakas/h2credits-backend/internal/metrics"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// TradingService moves credits between owners. Each operation validates its
// preconditions against locked rows and then records the transaction, the
// ownership change, the user totals and the notifications in one unit of work.
type TradingService struct{ core }

func NewTradingService(d Deps) *TradingService { return &TradingService{newCore(d)} }

// Purchase buys a listed credit outright at its asking price.
func (s *TradingService) Purchase(ctx context.Context, creditID, buyerID int64) (models.Transaction, error) {
	var out models.Transaction
	err := s.commerce(ctx, "purchase", func(ctx context.Context, tx repo.Tx) error {
		credit, err := tx.Credits().GetForUpdate(ctx, creditID)
		if err != nil {
			return orNotFound(err, fmt.Errorf("%w: credit %d not found", ErrInvalidTransferState, creditID))
		}
		switch {
		case !credit.ForSale:
			return fmt.Errorf("%w: credit %d is not for sale", ErrInvalidTransferState, creditID)
		case credit.Retired:
			return fmt.Errorf("%w: credit %d is retired", ErrInvalidTransferState, creditID)
		case credit.OwnerID == buyerID:
			return fmt.Errorf("%w: buyer already owns credit %d", ErrInvalidTransferState, creditID)
		}

		buyer, err := tx.Users().GetByID(ctx, buyerID)
		if err != nil {
			return orNotFound(err, fmt.Errorf("%w: buyer %d", ErrNotFound, buyerID))
		}
		sellerID := credit.OwnerID

		out, err = transfer(ctx, tx, credit, buyerID, credit.Price, credit.Quantity, models.TxnPurchase)
		if err != nil {
			return err
		}
		if err := rejectOpenBids(ctx, tx, credit, 0); err != nil {
			return err
		}
		if err := notify(ctx, tx, buyerID, models.NotifyTrade, "Purchase Successful",
			fmt.Sprintf("You have successfully purchased %s kg of hydrogen credits from %s", credit.Quantity, credit.ProjectName)); err != nil {
			return err
		}
		return notify(ctx, tx, sellerID, models.NotifyTrade, "Credit Sold",
			fmt.Sprintf("Your hydrogen credit from %s has been sold to %s", credit.ProjectName, buyer.Username))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	metrics.TradesTotal.WithLabelValues(string(models.TxnPurchase)).Inc()
	s.log.Info("credit purchased", "credit_id", creditID, "buyer_id", buyerID, "txn_id", out.ID)
	return out, nil
}

// AcceptBid sells the bid's credit to the bidder at the bid's price and
// quantity. Every other open bid on the credit is rejected.
func (s *TradingService) AcceptBid(ctx context.Context, bidID, ownerID int64) (models.Transaction, error) {
	var out models.Transaction
	err := s.commerce(ctx, "accept_bid", func(ctx context.Context, tx repo.Tx) error {
		// lock order is credit then bid, matching every other writer
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

		now := s.now()
		if !bid.IsActive(now) {
			return fmt.Errorf("%w: bid %d is %s", ErrBidNotActive, bid.ID, bid.EffectiveStatus(now))
		}
		if credit.OwnerID != ownerID {
			return ErrNotOwner
		}
		if credit.Retired {
			return fmt.Errorf("%w: credit %d is retired", ErrInvalidTransferState, credit.ID)
		}
		if bid.BidderID == ownerID {
			return fmt.Errorf("%w: bidder already owns credit %d", ErrInvalidTransferState, credit.ID)
		}

		out, err = transfer(ctx, tx, credit, bid.BidderID, bid.Price, bid.Quantity, models.TxnBid)
		if err != nil {
			return err
		}
		if err := tx.Bids().UpdateStatus(ctx, bid.ID, models.BidAccepted, &now); err != nil {
			return err
		}
		if err := rejectOpenBids(ctx, tx, credit, bid.ID); err != nil {
			return err
		}
		if err := notify(ctx, tx, bid.BidderID, models.NotifyTrade, "Bid Accepted",
			fmt.Sprintf("Your bid for %s has been accepted!", credit.ProjectName)); err != nil {
			return err
		}
		return notify(ctx, tx, ownerID, models.NotifyTrade, "Credit Sold",
			fmt.Sprintf("You sold %s for $%s", credit.ProjectName, bid.Price.StringFixed(2)))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	metrics.TradesTotal.WithLabelValues(string(models.TxnBid)).Inc()
	s.log.Info("bid accepted", "bid_id", bidID, "owner_id", ownerID, "txn_id", out.ID)
	return out, nil
}

// transfer records the completed transaction, hands the credit to buyerID,
// takes it off the market and updates both parties' totals.
func transfer(ctx context.Context, tx repo.Tx, credit models.Credit, buyerID int64,
	price, quantity decimal.Decimal, typ models.TransactionType) (models.Transaction, error) {
	t := models.Transaction{
		CreditID: credit.ID,
		BuyerID:  buyerID,
		SellerID: credit.OwnerID,
		Price:    price,
		Quantity: quantity,
		Type:     typ,
		Status:   models.TxnCompleted,
	}
	if err := tx.Transactions().Create(ctx, &t); err != nil {
		return models.Transaction{}, err
	}

	credit.OwnerID = buyerID
	credit.ForSale = false
	if err := tx.Credits().Update(ctx, credit); err != nil {
		return models.Transaction{}, err
	}

	// user rows are written in ascending id order so that opposite trades
	// between the same two users cannot deadlock
	totals := []struct {
		id      int64
		role    string
		offsets decimal.Decimal
	}{
		{buyerID, "buyer", quantity},
		{t.SellerID, "seller", decimal.Zero},
	}
	if totals[1].id < totals[0].id {
		totals[0], totals[1] = totals[1], totals[0]
	}
	for _, u := range totals {
		if err := tx.Users().AddTotals(ctx, u.id, u.offsets, price); err != nil {
			return models.Transaction{}, orNotFound(err, fmt.Errorf("%w: %s %d", ErrNotFound, u.role, u.id))
		}
	}
	return t, nil
}

// rejectOpenBids closes every open bid on the credit except keepID and tells
// the bidders.
func rejectOpenBids(ctx context.Context, tx repo.Tx, credit models.Credit, keepID int64) error {
	rejected, err := tx.Bids().RejectOpen(ctx, credit.ID, keepID)
	if err != nil {
		return err
	}
	for _, b := range rejected {
		if err := notify(ctx, tx, b.BidderID, models.NotifyBid, "Bid Rejected",
			fmt.Sprintf("Your bid for %s is no longer open", credit.ProjectName)); err != nil {
			return err
		}
	}
	return nil
}
