package models

import (
	"time"
)

// Wallet holds a user's internal balance in minor currency units. One wallet
// per user, created lazily on the first credit or debit. Balance never goes
// negative; Pending tracks funds held by in-flight payouts.
type Wallet struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	Pending   int64     `json:"pending" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User         User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Transactions []WalletTransaction `json:"transactions,omitempty" gorm:"foreignKey:WalletID"`
}

type WalletTransactionType string

const (
	WalletTxCredit WalletTransactionType = "credit"
	WalletTxDebit  WalletTransactionType = "debit"
)

// WalletTransaction is one immutable entry in the ledger. BalanceAfter is
// the wallet balance snapshot taken inside the same transaction that applied
// the mutation, so replaying the log always reproduces the current balance.
type WalletTransaction struct {
	ID           uint                  `json:"id" gorm:"primaryKey"`
	WalletID     uint                  `json:"wallet_id" gorm:"not null;index"`
	Type         WalletTransactionType `json:"type" gorm:"type:varchar(10);not null"`
	Amount       int64                 `json:"amount" gorm:"not null"`
	BalanceAfter int64                 `json:"balance_after" gorm:"not null"`
	BookingID    *uint                 `json:"booking_id" gorm:"index"`
	Metadata     string                `json:"metadata" gorm:"type:text"`
	CreatedAt    time.Time             `json:"created_at"`

	// Relationships
	Wallet Wallet `json:"-" gorm:"foreignKey:WalletID"`
}

// Signed returns the amount with the sign implied by the transaction type.
func (t WalletTransaction) Signed() int64 {
	if t.Type == WalletTxDebit {
		return -t.Amount
	}
	return t.Amount
}
