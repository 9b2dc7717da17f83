package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusInitiated  PaymentStatus = "initiated"
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// IsFinal reports whether the gateway has given a definitive answer.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Payment is one attempt to collect money for a booking. A booking may
// accumulate several attempts (retries), but at most one ends up success.
// Reference is the gateway-side identifier used for verification.
type Payment struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	BookingID   uint          `json:"booking_id" gorm:"not null;index"`
	Amount      int64         `json:"amount" gorm:"not null"`
	Reference   string        `json:"reference" gorm:"type:varchar(100);uniqueIndex;not null"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'initiated';index"`
	Gateway     string        `json:"gateway" gorm:"type:varchar(30);not null"`
	PaymentURL  string        `json:"payment_url" gorm:"type:varchar(500)"`
	RawResponse string        `json:"-" gorm:"type:text"`
	FailReason  string        `json:"fail_reason" gorm:"type:varchar(255)"`
	PaidAt      *time.Time    `json:"paid_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relationships
	Booking Booking `json:"-" gorm:"foreignKey:BookingID"`
}

// InitializePaymentRequest represents the request structure for starting a payment
type InitializePaymentRequest struct {
	Email string `json:"email" binding:"required,email"`
}
