package models

import (
	"time"
)

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusRejected DisputeStatus = "rejected"
)

// Dispute is raised against an in-progress or completed booking. Resolution
// may move money, but only through the two explicit flags: RefundCustomer
// credits the customer wallet, DebitMechanic debits the mechanic wallet.
// Neither happens implicitly.
type Dispute struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	BookingID    uint          `json:"booking_id" gorm:"not null;index"`
	RaisedByID   uint          `json:"raised_by_id" gorm:"not null"`
	Reason       string        `json:"reason" gorm:"type:text;not null"`
	Status       DisputeStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	Resolution   string        `json:"resolution" gorm:"type:text"`
	RefundAmount int64         `json:"refund_amount" gorm:"default:0"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Relationships
	Booking  Booking `json:"-" gorm:"foreignKey:BookingID"`
	RaisedBy User    `json:"raised_by,omitempty" gorm:"foreignKey:RaisedByID"`
}

// DisputeCreateRequest represents the request structure for raising a dispute
type DisputeCreateRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// DisputeResolveRequest represents the request structure for resolving a dispute
type DisputeResolveRequest struct {
	Status         DisputeStatus `json:"status" binding:"required,oneof=resolved rejected"`
	Resolution     string        `json:"resolution" binding:"required"`
	RefundAmount   int64         `json:"refund_amount"`
	RefundCustomer bool          `json:"refund_customer"`
	DebitMechanic  bool          `json:"debit_mechanic"`
}
