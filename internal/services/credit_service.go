package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// creditValidity is how long an issued certificate stays valid.
const creditValidity = 3 * 365 * 24 * time.Hour

// portfolioScan caps how many transactions feed one portfolio summary.
const portfolioScan = 10000

const statsKey = "market_stats"

type CreditInput struct {
	ProjectName        string
	ProjectType        string
	ProjectCountry     string
	VintageYear        int
	Certification      string
	CertificationLevel models.CertificationLevel
	Quantity           decimal.Decimal
	Price              decimal.Decimal
	// MinBidPrice overrides the derived 90% minimum when positive.
	MinBidPrice decimal.Decimal
	ForSale     bool
	Partnership bool
}

type CertificationInput struct {
	CreditID          int64
	OwnerID           int64
	CertifierName     string
	Type              models.CertificationType
	CertificateNumber string
}

// CreditService issues credits, attaches certifications and answers market
// and portfolio queries.
type CreditService struct {
	core
	stats *cache.Cache
}

func NewCreditService(d Deps, statsTTL time.Duration) *CreditService {
	if statsTTL <= 0 {
		statsTTL = time.Nanosecond
	}
	return &CreditService{core: newCore(d), stats: cache.New(statsTTL, 2*statsTTL)}
}

func (in *CreditInput) validate(now time.Time) error {
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	in.ProjectType = strings.TrimSpace(in.ProjectType)
	switch {
	case in.ProjectName == "" || len(in.ProjectName) > 100:
		return fmt.Errorf("%w: project_name", ErrInvalidInput)
	case in.ProjectType == "" || len(in.ProjectType) > 50:
		return fmt.Errorf("%w: project_type", ErrInvalidInput)
	case in.VintageYear < 1900 || in.VintageYear > now.Year()+1:
		return fmt.Errorf("%w: vintage_year", ErrInvalidInput)
	case !in.Quantity.IsPositive():
		return ErrInvalidQuantity
	case !in.Price.IsPositive():
		return ErrInvalidPrice
	case in.MinBidPrice.IsNegative() || in.MinBidPrice.GreaterThan(in.Price):
		return fmt.Errorf("%w: min_bid_price must not exceed price", ErrInvalidPrice)
	}
	if in.CertificationLevel == "" {
		in.CertificationLevel = models.CertStandard
	}
	return nil
}

// Create issues a new credit to ownerID with the next token id and adds its
// quantity to the owner's offsets.
func (s *CreditService) Create(ctx context.Context, ownerID int64, in CreditInput) (models.Credit, error) {
	now := s.now()
	if err := in.validate(now); err != nil {
		return models.Credit{}, s.finish("create_credit", err)
	}
	minBid := in.MinBidPrice
	if !minBid.IsPositive() {
		minBid = models.DefaultMinBid(in.Price)
	}
	expires := now.Add(creditValidity)
	c := models.Credit{
		OwnerID:            ownerID,
		ProjectName:        in.ProjectName,
		ProjectType:        in.ProjectType,
		ProjectCountry:     strings.TrimSpace(in.ProjectCountry),
		VintageYear:        in.VintageYear,
		Certification:      strings.TrimSpace(in.Certification),
		CertificationLevel: in.CertificationLevel,
		Quantity:           in.Quantity,
		Price:              in.Price,
		MinBidPrice:        minBid,
		ForSale:            in.ForSale,
		Partnership:        in.Partnership,
		IssuedAt:           now,
		ExpiresAt:          &expires,
	}
	err := s.write(ctx, "create_credit", func(ctx context.Context, tx repo.Tx) error {
		if _, err := tx.Users().GetByID(ctx, ownerID); err != nil {
			return orNotFound(err, fmt.Errorf("%w: user %d", ErrNotFound, ownerID))
		}
		if err := tx.Credits().Create(ctx, &c); err != nil {
			return err
		}
		return tx.Users().AddTotals(ctx, ownerID, c.Quantity, decimal.Zero)
	})
	if err != nil {
		return models.Credit{}, err
	}
	s.log.Info("credit issued", "credit_id", c.ID, "token_id", c.TokenID, "owner_id", ownerID)
	return c, nil
}

func (s *CreditService) Get(ctx context.Context, id int64) (models.Credit, error) {
	var out models.Credit
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Credits().GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *CreditService) ListAvailable(ctx context.Context, limit, offset int) ([]models.Credit, error) {
	var out []models.Credit
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Credits().ListForSale(ctx, limit, offset)
		return err
	})
	return out, err
}

func (s *CreditService) ListOwned(ctx context.Context, ownerID int64) ([]models.Credit, error) {
	var out []models.Credit
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Credits().ListByOwner(ctx, ownerID)
		return err
	})
	return out, err
}

// Stats returns market-wide figures, cached for the configured TTL.
func (s *CreditService) Stats(ctx context.Context) (models.MarketStats, error) {
	if v, ok := s.stats.Get(statsKey); ok {
		return v.(models.MarketStats), nil
	}
	var out models.MarketStats
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Credits().Stats(ctx)
		return err
	})
	if err != nil {
		return models.MarketStats{}, err
	}
	s.stats.SetDefault(statsKey, out)
	return out, nil
}

func (s *CreditService) Portfolio(ctx context.Context, userID int64) (models.Portfolio, error) {
	p := models.Portfolio{
		UserID:          userID,
		TotalInvestment: decimal.Zero,
		TotalSales:      decimal.Zero,
		PortfolioValue:  decimal.Zero,
	}
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		owned, err := tx.Credits().ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		txns, err := tx.Transactions().ListByUser(ctx, userID, portfolioScan, 0)
		if err != nil {
			return err
		}
		p.CreditsOwned = len(owned)
		for _, c := range owned {
			if !c.Retired {
				p.PortfolioValue = p.PortfolioValue.Add(c.Price)
			}
		}
		for _, t := range txns {
			if t.BuyerID == userID {
				p.TotalInvestment = p.TotalInvestment.Add(t.Price)
			}
			if t.SellerID == userID {
				p.TotalSales = p.TotalSales.Add(t.Price)
			}
		}
		return nil
	})
	p.NetPosition = p.TotalSales.Sub(p.TotalInvestment)
	return p, err
}

func (s *CreditService) Transactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Transactions().ListByUser(ctx, userID, limit, offset)
		return err
	})
	return out, err
}

func (s *CreditService) History(ctx context.Context, creditID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Transactions().ListByCredit(ctx, creditID)
		return err
	})
	return out, err
}

// AddCertification appends an attestation to an owned credit. Audit and
// compliance certifications upgrade the credit's level.
func (s *CreditService) AddCertification(ctx context.Context, in CertificationInput) (models.CreditCertification, error) {
	in.CertifierName = strings.TrimSpace(in.CertifierName)
	in.CertificateNumber = strings.TrimSpace(in.CertificateNumber)
	if in.CertifierName == "" || in.CertificateNumber == "" || !in.Type.Valid() {
		return models.CreditCertification{}, s.finish("add_certification", ErrInvalidInput)
	}

	cert := models.CreditCertification{
		CreditID:          in.CreditID,
		CertifierName:     in.CertifierName,
		Type:              in.Type,
		CertificateNumber: in.CertificateNumber,
		Status:            "active",
		ConfidenceScore:   85,
	}
	err := s.write(ctx, "add_certification", func(ctx context.Context, tx repo.Tx) error {
		credit, err := ownedCredit(ctx, tx, in.CreditID, in.OwnerID)
		if err != nil {
			return err
		}
		if err := tx.Certifications().Create(ctx, &cert); err != nil {
			return err
		}
		if level, ok := in.Type.UpgradedLevel(); ok && credit.CertificationLevel != level {
			credit.CertificationLevel = level
			return tx.Credits().Update(ctx, credit)
		}
		return nil
	})
	if err != nil {
		return models.CreditCertification{}, err
	}
	return cert, nil
}

func (s *CreditService) Certifications(ctx context.Context, creditID int64) ([]models.CreditCertification, error) {
	var out []models.CreditCertification
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Certifications().ListByCredit(ctx, creditID)
		return err
	})
	return out, err
}
