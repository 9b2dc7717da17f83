package models

import (
	"time"
)

type PayoutStatus string

const (
	PayoutStatusRequested  PayoutStatus = "requested"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Payout is a mechanic's withdrawal of wallet balance to a bank account.
// The wallet is debited when the payout is requested, so the funds cannot
// be double-spent while the transfer is in flight; a failed payout credits
// the amount back exactly once.
type Payout struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	WalletID      uint         `json:"wallet_id" gorm:"not null;index"`
	UserID        uint         `json:"user_id" gorm:"not null;index"`
	Amount        int64        `json:"amount" gorm:"not null"`
	BankCode      string       `json:"bank_code" gorm:"type:varchar(20);not null"`
	AccountNumber string       `json:"account_number" gorm:"type:varchar(30);not null"`
	AccountName   string       `json:"account_name" gorm:"type:varchar(100)"`
	Status        PayoutStatus `json:"status" gorm:"type:varchar(20);not null;default:'requested';index"`
	Reference     string       `json:"reference" gorm:"type:varchar(100);index"`
	ProviderRef   string       `json:"provider_ref" gorm:"type:varchar(100)"`
	FailureReason string       `json:"failure_reason" gorm:"type:varchar(255)"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Relationships
	Wallet Wallet `json:"-" gorm:"foreignKey:WalletID"`
}

// PayoutRequest represents the request structure for requesting a payout
type PayoutRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	BankCode      string `json:"bank_code" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountName   string `json:"account_name"`
}

// PayoutResultRequest marks the outcome of a payout transfer, normally fed
// by the gateway's transfer webhook or the reconciliation job.
type PayoutResultRequest struct {
	Status        PayoutStatus `json:"status" binding:"required,oneof=paid failed"`
	ProviderRef   string       `json:"provider_ref"`
	FailureReason string       `json:"failure_reason"`
}
