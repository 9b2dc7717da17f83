package models

import (
	"time"
)

// Subaccount is a gateway-side routing target that lets the gateway settle
// a share of a charge straight to the mechanic's bank account. One per user
// per gateway; a duplicate request is a conflict.
type Subaccount struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	BusinessName     string    `json:"business_name" gorm:"type:varchar(200);not null"`
	BankCode         string    `json:"bank_code" gorm:"type:varchar(20);not null"`
	AccountNumber    string    `json:"account_number" gorm:"type:varchar(30);not null"`
	PercentageCharge float64   `json:"percentage_charge" gorm:"type:decimal(5,2);not null"`
	Gateway          string    `json:"gateway" gorm:"type:varchar(30);not null"`
	SubaccountCode   string    `json:"subaccount_code" gorm:"type:varchar(100);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// SubaccountCreateRequest represents the request structure for creating a subaccount
type SubaccountCreateRequest struct {
	BusinessName     string  `json:"business_name" binding:"required"`
	BankCode         string  `json:"bank_code" binding:"required"`
	AccountNumber    string  `json:"account_number" binding:"required"`
	PercentageCharge float64 `json:"percentage_charge" binding:"required,gt=0,lte=100"`
}
