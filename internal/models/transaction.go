package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnPurchase    TransactionType = "purchase"
	TxnBid         TransactionType = "bid"
	TxnPartnership TransactionType = "partnership"
)

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	TxnCancelled TransactionStatus = "cancelled"
)

// Transaction is the append-only record of one ownership change.
type Transaction struct {
	ID        int64             `json:"id"`
	CreditID  int64             `json:"credit_id"`
	BuyerID   int64             `json:"buyer_id"`
	SellerID  int64             `json:"seller_id"`
	Price     decimal.Decimal   `json:"price"`
	Quantity  decimal.Decimal   `json:"quantity"`
	Type      TransactionType   `json:"type"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
