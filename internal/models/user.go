package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type VerificationLevel string

const (
	LevelBasic      VerificationLevel = "basic"
	LevelVerified   VerificationLevel = "verified"
	LevelPremium    VerificationLevel = "premium"
	LevelEnterprise VerificationLevel = "enterprise"
)

func (l VerificationLevel) Valid() bool {
	switch l {
	case LevelBasic, LevelVerified, LevelPremium, LevelEnterprise:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                int64             `json:"id"`
	Username          string            `json:"username"`
	WalletAddress     string            `json:"wallet_address"`
	Role              string            `json:"role"`
	IsVerified        bool              `json:"is_verified"`
	VerificationLevel VerificationLevel `json:"verification_level"`
	TotalOffsets      decimal.Decimal   `json:"total_offsets"`
	TradingVolume     decimal.Decimal   `json:"trading_volume"`
	RegisteredAt      time.Time         `json:"registered_at"`
}

// NormalizeWallet lower-cases and trims a wallet identifier so lookups are
// case-insensitive.
func NormalizeWallet(w string) string { return strings.ToLower(strings.TrimSpace(w)) }

// MaxWalletLen matches the wallet_address column width.
const MaxWalletLen = 64

func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		u.Username = "User"
	}
	if len(u.Username) > 50 {
		return errors.New("username too long")
	}
	if u.WalletAddress == "" {
		return errors.New("wallet address required")
	}
	if len(u.WalletAddress) > MaxWalletLen {
		return errors.New("wallet address too long")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.VerificationLevel == "" {
		u.VerificationLevel = LevelBasic
	}
	return nil
}
