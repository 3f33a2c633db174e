package models

import "time"

type CertificationType string

const (
	CertTypeVerification CertificationType = "verification"
	CertTypeAudit        CertificationType = "audit"
	CertTypeCompliance   CertificationType = "compliance"
)

func (t CertificationType) Valid() bool {
	switch t {
	case CertTypeVerification, CertTypeAudit, CertTypeCompliance:
		return true
	}
	return false
}

// UpgradedLevel returns the credit level implied by adding a certification of
// this type, and false when the type does not change the level.
func (t CertificationType) UpgradedLevel() (CertificationLevel, bool) {
	switch t {
	case CertTypeAudit:
		return CertVerified, true
	case CertTypeCompliance:
		return CertCertified, true
	}
	return "", false
}

type CreditCertification struct {
	ID                int64             `json:"id"`
	CreditID          int64             `json:"credit_id"`
	CertifierName     string            `json:"certifier_name"`
	Type              CertificationType `json:"certification_type"`
	CertificateNumber string            `json:"certificate_number"`
	Status            string            `json:"status"`
	ConfidenceScore   float64           `json:"confidence_score"`
	IssuedAt          time.Time         `json:"issued_at"`
}
