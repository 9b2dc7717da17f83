package models

import (
	"time"

	"gorm.io/gorm"
)

// MechanicProfile represents a mechanic's professional profile, including
// the live position used for proximity matching. CurrentLat/CurrentLng stay
// nil until the first location update comes in; a mechanic without a known
// position is never considered for dispatch.
type MechanicProfile struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	PhoneNumber string `json:"phone_number" gorm:"type:varchar(20)"`
	City        string `json:"city" gorm:"type:varchar(100)"`
	Skills      string `json:"skills" gorm:"type:text"`

	// Location and availability
	IsAvailable        bool       `json:"is_available" gorm:"default:false"`
	CurrentLat         *float64   `json:"current_lat" gorm:"type:decimal(10,8)"`
	CurrentLng         *float64   `json:"current_lng" gorm:"type:decimal(11,8)"`
	LastLocationUpdate *time.Time `json:"last_location_update"`

	// Settlement details
	BankCode      string `json:"bank_code" gorm:"type:varchar(20)"`
	AccountNumber string `json:"account_number" gorm:"type:varchar(30)"`
	SubaccountID  string `json:"subaccount_id" gorm:"type:varchar(100)"`

	ActiveBookings int     `json:"active_bookings" gorm:"default:0"`
	CompletedJobs  int     `json:"completed_jobs" gorm:"default:0"`
	Rating         float64 `json:"rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews   int     `json:"total_reviews" gorm:"default:0"`
	IsVerified     bool    `json:"is_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LocationUpdateRequest represents a mechanic's location update
type LocationUpdateRequest struct {
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	IsAvailable bool    `json:"is_available"`
}

// NearbyMechanic is a MechanicProfile annotated with the distance from the
// query point, returned in ascending distance order.
type NearbyMechanic struct {
	MechanicProfile
	DistanceKm float64 `json:"distance_km"`
}
