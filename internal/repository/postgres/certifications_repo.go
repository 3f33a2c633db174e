package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
)

type certificationsRepo struct{ q querier }

func (r *certificationsRepo) Create(ctx context.Context, c *models.CreditCertification) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO credit_certifications(credit_id, certifier_name, certification_type, certificate_number, status, confidence_score)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING id, issued_at`,
		c.CreditID, c.CertifierName, c.Type, c.CertificateNumber, c.Status, c.ConfidenceScore,
	).Scan(&c.ID, &c.IssuedAt)
}

func (r *certificationsRepo) ListByCredit(ctx context.Context, creditID int64) ([]models.CreditCertification, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, credit_id, certifier_name, certification_type, certificate_number, status, confidence_score, issued_at
		   FROM credit_certifications
		  WHERE credit_id=$1
		  ORDER BY id`,
		creditID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CreditCertification
	for rows.Next() {
		var c models.CreditCertification
		if err := rows.Scan(&c.ID, &c.CreditID, &c.CertifierName, &c.Type, &c.CertificateNumber,
			&c.Status, &c.ConfidenceScore, &c.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
