package services

import (
	"context"
	"fmt"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type ListingService struct{ core }

func NewListingService(d Deps) *ListingService { return &ListingService{newCore(d)} }

// ListForSale puts an owned, unretired credit on the market at price and
// resets its minimum bid to 90% of price.
func (s *ListingService) ListForSale(ctx context.Context, creditID, sellerID int64, price decimal.Decimal) (models.Credit, error) {
	if !price.IsPositive() {
		return models.Credit{}, s.finish("list", ErrInvalidPrice)
	}
	var out models.Credit
	err := s.commerce(ctx, "list", func(ctx context.Context, tx repo.Tx) error {
		credit, err := ownedCredit(ctx, tx, creditID, sellerID)
		if err != nil {
			return err
		}
		if credit.Retired {
			return fmt.Errorf("%w: credit %d", ErrAlreadyRetired, creditID)
		}
		credit.ForSale = true
		credit.Price = price
		credit.MinBidPrice = models.DefaultMinBid(price)
		if err := tx.Credits().Update(ctx, credit); err != nil {
			return err
		}
		out = credit
		return notify(ctx, tx, sellerID, models.NotifyTrade, "Credit Listed for Sale",
			fmt.Sprintf("Your hydrogen credit from %s is now listed for $%s", credit.ProjectName, price.StringFixed(2)))
	})
	if err != nil {
		return models.Credit{}, err
	}
	s.log.Info("credit listed", "credit_id", creditID, "price", price.String())
	return out, nil
}

// Unlist takes a listed credit off the market. Open bids stay open.
func (s *ListingService) Unlist(ctx context.Context, creditID, ownerID int64) (models.Credit, error) {
	var out models.Credit
	err := s.commerce(ctx, "unlist", func(ctx context.Context, tx repo.Tx) error {
		credit, err := ownedCredit(ctx, tx, creditID, ownerID)
		if err != nil {
			return err
		}
		if !credit.ForSale {
			return fmt.Errorf("%w: credit %d is not listed", ErrInvalidTransferState, creditID)
		}
		credit.ForSale = false
		out = credit
		return tx.Credits().Update(ctx, credit)
	})
	return out, err
}

// Retire permanently removes a credit from circulation. Retiring an already
// retired credit fails with ErrAlreadyRetired.
func (s *ListingService) Retire(ctx context.Context, creditID, ownerID int64) (models.Credit, error) {
	var out models.Credit
	err := s.commerce(ctx, "retire", func(ctx context.Context, tx repo.Tx) error {
		credit, err := ownedCredit(ctx, tx, creditID, ownerID)
		if err != nil {
			return err
		}
		if credit.Retired {
			return fmt.Errorf("%w: credit %d", ErrAlreadyRetired, creditID)
		}
		now := s.now()
		credit.Retired = true
		credit.ForSale = false
		credit.RetiredAt = &now
		if err := tx.Credits().Update(ctx, credit); err != nil {
			return err
		}
		out = credit
		return rejectOpenBids(ctx, tx, credit, 0)
	})
	if err != nil {
		return models.Credit{}, err
	}
	s.log.Info("credit retired", "credit_id", creditID, "owner_id", ownerID)
	return out, nil
}

func ownedCredit(ctx context.Context, tx repo.Tx, creditID, ownerID int64) (models.Credit, error) {
	credit, err := tx.Credits().GetForUpdate(ctx, creditID)
	if err != nil {
		return models.Credit{}, orNotFound(err, fmt.Errorf("%w: credit %d", ErrNotFound, creditID))
	}
	if credit.OwnerID != ownerID {
		return models.Credit{}, ErrNotOwner
	}
	return credit, nil
}
