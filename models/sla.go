package models

import (
	"time"
)

// SlaRecord tracks the settlement-relevant milestones of one booking:
// when it was assigned, when the mechanic accepted, arrived and finished.
// Created at assignment, patched on every later transition, never deleted.
// The SLA monitor derives breach alerts from gaps between these timestamps.
type SlaRecord struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	BookingID   uint       `json:"booking_id" gorm:"uniqueIndex;not null"`
	AssignedAt  *time.Time `json:"assigned_at"`
	AcceptedAt  *time.Time `json:"accepted_at"`
	ArrivedAt   *time.Time `json:"arrived_at"`
	CompletedAt *time.Time `json:"completed_at"`

	AcceptBreached  bool   `json:"accept_breached" gorm:"default:false"`
	ArrivalBreached bool   `json:"arrival_breached" gorm:"default:false"`
	BreachReason    string `json:"breach_reason" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Booking Booking `json:"-" gorm:"foreignKey:BookingID"`
}
