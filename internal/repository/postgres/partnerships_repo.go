package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type partnershipsRepo struct{ q querier }

const partnershipColumns = `id, credit_id, partner_id, partnership_type, allocated_quantity, reserved_price,
	status, start_date, end_date, created_at`

func scanPartnership(row pgx.Row) (models.PartnershipCredit, error) {
	var p models.PartnershipCredit
	err := row.Scan(&p.ID, &p.CreditID, &p.PartnerID, &p.PartnershipType, &p.AllocatedQuantity,
		&p.ReservedPrice, &p.Status, &p.StartDate, &p.EndDate, &p.CreatedAt)
	return p, mapErr(err)
}

func collectPartnerships(rows pgx.Rows, err error) ([]models.PartnershipCredit, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PartnershipCredit
	for rows.Next() {
		p, err := scanPartnership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *partnershipsRepo) Create(ctx context.Context, p *models.PartnershipCredit) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO partnership_credits(credit_id, partner_id, partnership_type, allocated_quantity,
		                                 reserved_price, status, start_date, end_date)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id, created_at`,
		p.CreditID, p.PartnerID, p.PartnershipType, p.AllocatedQuantity,
		p.ReservedPrice, p.Status, p.StartDate, p.EndDate,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *partnershipsRepo) GetByID(ctx context.Context, id int64) (models.PartnershipCredit, error) {
	return scanPartnership(r.q.QueryRow(ctx, `SELECT `+partnershipColumns+` FROM partnership_credits WHERE id=$1`, id))
}

func (r *partnershipsRepo) GetForUpdate(ctx context.Context, id int64) (models.PartnershipCredit, error) {
	return scanPartnership(r.q.QueryRow(ctx,
		`SELECT `+partnershipColumns+` FROM partnership_credits WHERE id=$1 FOR UPDATE`, id))
}

func (r *partnershipsRepo) UpdateStatus(ctx context.Context, id int64, status models.PartnershipStatus) error {
	return affected(r.q.Exec(ctx, `UPDATE partnership_credits SET status=$2 WHERE id=$1`, id, status))
}

func (r *partnershipsRepo) ListByCredit(ctx context.Context, creditID int64) ([]models.PartnershipCredit, error) {
	return collectPartnerships(r.q.Query(ctx,
		`SELECT `+partnershipColumns+` FROM partnership_credits WHERE credit_id=$1 ORDER BY id`, creditID))
}

func (r *partnershipsRepo) ListByPartner(ctx context.Context, partnerID int64) ([]models.PartnershipCredit, error) {
	return collectPartnerships(r.q.Query(ctx,
		`SELECT `+partnershipColumns+` FROM partnership_credits WHERE partner_id=$1 ORDER BY id`, partnerID))
}
