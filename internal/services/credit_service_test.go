package services

import (
	"context"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCredit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")

	first := e.credit(t, owner, "100", "10", true)
	second := e.credit(t, owner, "40", "3", false)

	assert.Equal(t, int64(1), first.TokenID)
	assert.Equal(t, int64(2), second.TokenID)
	assert.True(t, first.MinBidPrice.Equal(dec("9")))
	assert.Equal(t, models.CertStandard, first.CertificationLevel)
	require.NotNil(t, first.ExpiresAt)
	assert.Equal(t, e.clock.Now().Add(creditValidity), *first.ExpiresAt)
	assert.True(t, e.mustUser(t, owner.ID).TotalOffsets.Equal(dec("140")))

	owned, err := e.credits.ListOwned(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	withOverride, err := e.credits.Create(ctx, owner.ID, CreditInput{
		ProjectName: "Override", ProjectType: "blue_hydrogen", VintageYear: 2023,
		Quantity: dec("1"), Price: dec("10"), MinBidPrice: dec("7"),
	})
	require.NoError(t, err)
	assert.True(t, withOverride.MinBidPrice.Equal(dec("7")))
}

func TestCreateCreditValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")

	base := func() CreditInput {
		return CreditInput{ProjectName: "P", ProjectType: "T", VintageYear: 2024, Quantity: dec("1"), Price: dec("2")}
	}
	cases := []struct {
		name   string
		mutate func(*CreditInput)
		want   error
	}{
		{"no name", func(in *CreditInput) { in.ProjectName = "" }, ErrInvalidInput},
		{"old vintage", func(in *CreditInput) { in.VintageYear = 1800 }, ErrInvalidInput},
		{"zero quantity", func(in *CreditInput) { in.Quantity = dec("0") }, ErrInvalidQuantity},
		{"zero price", func(in *CreditInput) { in.Price = dec("0") }, ErrInvalidPrice},
		{"min bid above price", func(in *CreditInput) { in.MinBidPrice = dec("3") }, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base()
			tc.mutate(&in)
			_, err := e.credits.Create(ctx, owner.ID, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := e.credits.Create(ctx, 404, base())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificationsUpgradeLevel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "0xA")
	other := e.user(t, "0xB")
	c := e.credit(t, owner, "10", "5", false)

	add := func(userID int64, typ models.CertificationType) (models.CreditCertification, error) {
		return e.credits.AddCertification(ctx, CertificationInput{
			CreditID: c.ID, OwnerID: userID, CertifierName: "TUV", Type: typ, CertificateNumber: "H2-001",
		})
	}

	_, err := add(other.ID, models.CertTypeAudit)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = add(owner.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)

	cert, err := add(owner.ID, models.CertTypeVerification)
	require.NoError(t, err)
	assert.Equal(t, 85.0, cert.ConfidenceScore)
	assert.Equal(t, models.CertStandard, e.mustCredit(t, c.ID).CertificationLevel)

	_, err = add(owner.ID, models.CertTypeAudit)
	require.NoError(t, err)
	assert.Equal(t, models.CertVerified, e.mustCredit(t, c.ID).CertificationLevel)

	_, err = add(owner.ID, models.CertTypeCompliance)
	require.NoError(t, err)
	assert.Equal(t, models.CertCertified, e.mustCredit(t, c.ID).CertificationLevel)

	certs, err := e.credits.Certifications(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 3)
}

func TestMarketStatsAndPortfolio(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "0xA")
	b := e.user(t, "0xB")
	c1 := e.credit(t, a, "10", "4", true)
	e.credit(t, a, "10", "6", true)

	stats, err := e.credits.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.CreditsForSale)
	assert.Equal(t, int64(1), stats.ProjectCount)
	assert.True(t, stats.AveragePrice.Equal(dec("5")))

	_, err = e.trading.Purchase(ctx, c1.ID, b.ID)
	require.NoError(t, err)

	pb, err := e.credits.Portfolio(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pb.CreditsOwned)
	assert.True(t, pb.TotalInvestment.Equal(dec("4")))
	assert.True(t, pb.NetPosition.Equal(dec("-4")))
	assert.True(t, pb.PortfolioValue.Equal(dec("4")))

	pa, err := e.credits.Portfolio(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pa.CreditsOwned)
	assert.True(t, pa.TotalSales.Equal(dec("4")))
	assert.True(t, pa.NetPosition.Equal(dec("4")))
}

func TestMarketStatsCached(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "0xA")
	e.credit(t, a, "10", "4", true)

	cached := NewCreditService(Deps{Store: e.store, Now: e.clock.Now}, time.Hour)
	first, err := cached.Stats(ctx)
	require.NoError(t, err)
	e.credit(t, a, "10", "4", true)
	second, err := cached.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.CreditsForSale, second.CreditsForSale)

	fresh, err := e.credits.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.CreditsForSale)
}
