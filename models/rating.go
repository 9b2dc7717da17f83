package models

import (
	"time"
)

// Rating is a customer's score for a completed booking, one per booking.
type Rating struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BookingID  uint      `json:"booking_id" gorm:"uniqueIndex;not null"`
	MechanicID uint      `json:"mechanic_id" gorm:"not null;index"`
	CustomerID uint      `json:"customer_id" gorm:"not null"`
	Score      int       `json:"score" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Booking  Booking         `json:"-" gorm:"foreignKey:BookingID"`
	Mechanic MechanicProfile `json:"-" gorm:"foreignKey:MechanicID"`
}

// RatingCreateRequest represents the request structure for submitting a rating
type RatingCreateRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}
