package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type PartnershipInput struct {
	CreditID      int64
	OwnerID       int64
	PartnerID     int64
	Type          string
	Quantity      decimal.Decimal
	ReservedPrice decimal.Decimal
	Start         time.Time
	End           time.Time
}

// PartnershipService reserves slices of a credit's quantity for partners over
// a time window. Its lifecycle is independent of the credit's sale state.
type PartnershipService struct{ core }

func NewPartnershipService(d Deps) *PartnershipService { return &PartnershipService{newCore(d)} }

func (s *PartnershipService) Create(ctx context.Context, in PartnershipInput) (models.PartnershipCredit, error) {
	now := s.now()
	if in.Start.IsZero() {
		in.Start = now
	}
	in.Type = strings.TrimSpace(in.Type)
	switch {
	case in.Type == "" || len(in.Type) > 30:
		return models.PartnershipCredit{}, s.finish("create_partnership", fmt.Errorf("%w: partnership_type", ErrInvalidInput))
	case in.PartnerID == in.OwnerID:
		return models.PartnershipCredit{}, s.finish("create_partnership", fmt.Errorf("%w: partner must differ from owner", ErrInvalidInput))
	case !in.Quantity.IsPositive():
		return models.PartnershipCredit{}, s.finish("create_partnership", ErrInvalidQuantity)
	case !in.ReservedPrice.IsPositive():
		return models.PartnershipCredit{}, s.finish("create_partnership", ErrInvalidPrice)
	case !in.End.After(in.Start) || !in.End.After(now):
		return models.PartnershipCredit{}, s.finish("create_partnership", ErrInvalidExpiry)
	}

	p := models.PartnershipCredit{
		CreditID:          in.CreditID,
		PartnerID:         in.PartnerID,
		PartnershipType:   in.Type,
		AllocatedQuantity: in.Quantity,
		ReservedPrice:     in.ReservedPrice,
		Status:            models.PartnershipPending,
		StartDate:         in.Start.UTC(),
		EndDate:           in.End.UTC(),
	}
	err := s.write(ctx, "create_partnership", func(ctx context.Context, tx repo.Tx) error {
		credit, err := ownedCredit(ctx, tx, in.CreditID, in.OwnerID)
		if err != nil {
			return err
		}
		if credit.Retired {
			return fmt.Errorf("%w: credit %d", ErrAlreadyRetired, credit.ID)
		}
		owner, err := tx.Users().GetByID(ctx, in.OwnerID)
		if err != nil {
			return orNotFound(err, fmt.Errorf("%w: owner %d", ErrNotFound, in.OwnerID))
		}
		if !owner.IsVerified {
			return fmt.Errorf("%w: account must be verified for partnerships", ErrForbidden)
		}
		if _, err := tx.Users().GetByID(ctx, in.PartnerID); err != nil {
			return orNotFound(err, fmt.Errorf("%w: partner %d", ErrNotFound, in.PartnerID))
		}

		existing, err := tx.Partnerships().ListByCredit(ctx, credit.ID)
		if err != nil {
			return err
		}
		reserved := in.Quantity
		for _, e := range existing {
			if e.Open(now) {
				reserved = reserved.Add(e.AllocatedQuantity)
			}
		}
		if reserved.GreaterThan(credit.Quantity) {
			return fmt.Errorf("%w: %s of %s kg", ErrAllocationExceeded, reserved, credit.Quantity)
		}

		if err := tx.Partnerships().Create(ctx, &p); err != nil {
			return err
		}
		if !credit.Partnership {
			credit.Partnership = true
			if err := tx.Credits().Update(ctx, credit); err != nil {
				return err
			}
		}
		return notify(ctx, tx, in.PartnerID, models.NotifyPartnership, "Partnership Opportunity",
			fmt.Sprintf("%s kg of %s is reserved for you at $%s", in.Quantity, credit.ProjectName, in.ReservedPrice.StringFixed(2)))
	})
	if err != nil {
		return models.PartnershipCredit{}, err
	}
	return p, nil
}

// Activate is the partner's acceptance of a pending allocation.
func (s *PartnershipService) Activate(ctx context.Context, id, partnerID int64) (models.PartnershipCredit, error) {
	var out models.PartnershipCredit
	err := s.write(ctx, "activate_partnership", func(ctx context.Context, tx repo.Tx) error {
		credit, p, err := lockPartnership(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.PartnerID != partnerID {
			return ErrForbidden
		}
		if st := p.EffectiveStatus(s.now()); st != models.PartnershipPending {
			return fmt.Errorf("%w: partnership %d is %s", ErrPartnershipNotOpen, id, st)
		}
		if err := tx.Partnerships().UpdateStatus(ctx, id, models.PartnershipActive); err != nil {
			return err
		}
		p.Status = models.PartnershipActive
		out = p
		return notify(ctx, tx, credit.OwnerID, models.NotifyPartnership, "Partnership Activated",
			fmt.Sprintf("Your partnership on %s is now active", credit.ProjectName))
	})
	return out, err
}

// Cancel closes an open allocation; either the credit owner or the partner
// may cancel. The credit loses its partnership flag when nothing stays open.
func (s *PartnershipService) Cancel(ctx context.Context, id, userID int64) (models.PartnershipCredit, error) {
	var out models.PartnershipCredit
	err := s.write(ctx, "cancel_partnership", func(ctx context.Context, tx repo.Tx) error {
		credit, p, err := lockPartnership(ctx, tx, id)
		if err != nil {
			return err
		}
		if userID != p.PartnerID && userID != credit.OwnerID {
			return ErrForbidden
		}
		now := s.now()
		if !p.Open(now) {
			return fmt.Errorf("%w: partnership %d is %s", ErrPartnershipNotOpen, id, p.EffectiveStatus(now))
		}
		if err := tx.Partnerships().UpdateStatus(ctx, id, models.PartnershipCancelled); err != nil {
			return err
		}
		p.Status = models.PartnershipCancelled
		out = p

		siblings, err := tx.Partnerships().ListByCredit(ctx, credit.ID)
		if err != nil {
			return err
		}
		stillOpen := false
		for _, sib := range siblings {
			if sib.ID != id && sib.Open(now) {
				stillOpen = true
				break
			}
		}
		if !stillOpen && credit.Partnership {
			credit.Partnership = false
			if err := tx.Credits().Update(ctx, credit); err != nil {
				return err
			}
		}

		other := p.PartnerID
		if userID == p.PartnerID {
			other = credit.OwnerID
		}
		return notify(ctx, tx, other, models.NotifyPartnership, "Partnership Cancelled",
			fmt.Sprintf("The partnership on %s was cancelled", credit.ProjectName))
	})
	return out, err
}

func (s *PartnershipService) ListForPartner(ctx context.Context, partnerID int64) ([]models.PartnershipCredit, error) {
	var out []models.PartnershipCredit
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Partnerships().ListByPartner(ctx, partnerID)
		return err
	})
	now := s.now()
	for i := range out {
		out[i].Status = out[i].EffectiveStatus(now)
	}
	return out, err
}

// lockPartnership locks the partnership's credit and then the partnership.
func lockPartnership(ctx context.Context, tx repo.Tx, id int64) (models.Credit, models.PartnershipCredit, error) {
	peek, err := tx.Partnerships().GetByID(ctx, id)
	if err != nil {
		return models.Credit{}, models.PartnershipCredit{}, orNotFound(err, fmt.Errorf("%w: partnership %d", ErrNotFound, id))
	}
	credit, err := tx.Credits().GetForUpdate(ctx, peek.CreditID)
	if err != nil {
		return models.Credit{}, models.PartnershipCredit{}, err
	}
	p, err := tx.Partnerships().GetForUpdate(ctx, id)
	if err != nil {
		return models.Credit{}, models.PartnershipCredit{}, err
	}
	return credit, p, nil
}
