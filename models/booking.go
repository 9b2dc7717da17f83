package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusSearching  BookingStatus = "searching"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusArrived    BookingStatus = "arrived"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusDisputed   BookingStatus = "disputed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Booking represents one service request from a customer. Price is in minor
// currency units. Status only ever moves forward through the lifecycle
// graph; each transition stamps its own timestamp column.
type Booking struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	CustomerID  uint          `json:"customer_id" gorm:"not null;index"`
	MechanicID  *uint         `json:"mechanic_id" gorm:"index"` // nil until matched
	ServiceType string        `json:"service_type" gorm:"type:varchar(100);not null"`
	Description string        `json:"description" gorm:"type:text"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	Price       int64         `json:"price" gorm:"not null"`
	PickupLat   float64       `json:"pickup_lat" gorm:"type:decimal(10,8);not null"`
	PickupLng   float64       `json:"pickup_lng" gorm:"type:decimal(11,8);not null"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'searching';index"`

	AssignedAt  *time.Time `json:"assigned_at"`
	AcceptedAt  *time.Time `json:"accepted_at"`
	ArrivedAt   *time.Time `json:"arrived_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Customer User             `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Mechanic *MechanicProfile `json:"mechanic,omitempty" gorm:"foreignKey:MechanicID"`
	Payments []Payment        `json:"payments,omitempty" gorm:"foreignKey:BookingID"`
}

// BookingCreateRequest represents the request structure for creating a booking
type BookingCreateRequest struct {
	ServiceType string     `json:"service_type" binding:"required"`
	Description string     `json:"description"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Price       int64      `json:"price" binding:"required,gt=0"`
	PickupLat   float64    `json:"pickup_lat" binding:"required"`
	PickupLng   float64    `json:"pickup_lng" binding:"required"`
	RadiusKm    float64    `json:"radius_km"`
}

// BookingStatusUpdateRequest carries a requested lifecycle transition.
type BookingStatusUpdateRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
