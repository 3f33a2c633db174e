package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type creditsRepo struct{ q querier }

// tokenIDLockKey serialises token id assignment across concurrent issuers.
const tokenIDLockKey = 7_202_001

const creditColumns = `id, token_id, owner_id, project_name, project_type, project_country, vintage_year,
	certification, certification_level, quantity, price, min_bid_price,
	for_sale, retired, partnership, issued_at, retired_at, expires_at`

func scanCredit(row pgx.Row) (models.Credit, error) {
	var c models.Credit
	err := row.Scan(&c.ID, &c.TokenID, &c.OwnerID, &c.ProjectName, &c.ProjectType, &c.ProjectCountry,
		&c.VintageYear, &c.Certification, &c.CertificationLevel, &c.Quantity, &c.Price, &c.MinBidPrice,
		&c.ForSale, &c.Retired, &c.Partnership, &c.IssuedAt, &c.RetiredAt, &c.ExpiresAt)
	return c, mapErr(err)
}

func collectCredits(rows pgx.Rows, err error) ([]models.Credit, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *creditsRepo) Create(ctx context.Context, c *models.Credit) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tokenIDLockKey); err != nil {
		return err
	}
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(token_id), 0) + 1 FROM credits`).Scan(&c.TokenID); err != nil {
		return err
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO credits(token_id, owner_id, project_name, project_type, project_country, vintage_year,
		                     certification, certification_level, quantity, price, min_bid_price,
		                     for_sale, retired, partnership, issued_at, expires_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,false,$13,$14,$15)
		 RETURNING id`,
		c.TokenID, c.OwnerID, c.ProjectName, c.ProjectType, c.ProjectCountry, c.VintageYear,
		c.Certification, c.CertificationLevel, c.Quantity, c.Price, c.MinBidPrice,
		c.ForSale, c.Partnership, c.IssuedAt, c.ExpiresAt,
	).Scan(&c.ID)
	return mapErr(err)
}

func (r *creditsRepo) GetByID(ctx context.Context, id int64) (models.Credit, error) {
	return scanCredit(r.q.QueryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id=$1`, id))
}

func (r *creditsRepo) GetForUpdate(ctx context.Context, id int64) (models.Credit, error) {
	return scanCredit(r.q.QueryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id=$1 FOR UPDATE`, id))
}

func (r *creditsRepo) Update(ctx context.Context, c models.Credit) error {
	return affected(r.q.Exec(ctx,
		`UPDATE credits
		    SET owner_id=$2, price=$3, min_bid_price=$4, for_sale=$5, retired=$6,
		        partnership=$7, retired_at=$8, certification_level=$9
		  WHERE id=$1`,
		c.ID, c.OwnerID, c.Price, c.MinBidPrice, c.ForSale, c.Retired,
		c.Partnership, c.RetiredAt, c.CertificationLevel,
	))
}

func (r *creditsRepo) ListForSale(ctx context.Context, limit, offset int) ([]models.Credit, error) {
	return collectCredits(r.q.Query(ctx,
		`SELECT `+creditColumns+`
		   FROM credits
		  WHERE for_sale AND NOT retired
		  ORDER BY id
		  LIMIT $1 OFFSET $2`,
		limit, offset,
	))
}

func (r *creditsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.Credit, error) {
	return collectCredits(r.q.Query(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE owner_id=$1 ORDER BY id`, ownerID))
}

func (r *creditsRepo) Stats(ctx context.Context) (models.MarketStats, error) {
	var s models.MarketStats
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE for_sale AND NOT retired),
		        count(*) FILTER (WHERE retired),
		        count(DISTINCT project_name),
		        COALESCE(avg(price) FILTER (WHERE for_sale AND NOT retired), 0)
		   FROM credits`,
	).Scan(&s.CreditsForSale, &s.CreditsRetired, &s.ProjectCount, &s.AveragePrice)
	return s, err
}
