package jobs

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/models"
)

func seedSlaRecord(t *testing.T, db *gorm.DB, bookingID uint, assignedAgo, acceptedAgo, arrivedAgo time.Duration) *models.SlaRecord {
	t.Helper()
	record := models.SlaRecord{BookingID: bookingID}
	now := time.Now()
	if assignedAgo > 0 {
		at := now.Add(-assignedAgo)
		record.AssignedAt = &at
	}
	if acceptedAgo > 0 {
		at := now.Add(-acceptedAgo)
		record.AcceptedAt = &at
	}
	if arrivedAgo > 0 {
		at := now.Add(-arrivedAgo)
		record.ArrivedAt = &at
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed sla record: %v", err)
	}
	return &record
}

func TestSlaMonitorFlagsOverdueAcceptance(t *testing.T) {
	db := newTestDB(t)
	customer := seedUser(t, db)

	overdue := seedBooking(t, db, customer.ID, models.BookingStatusAssigned, 0)
	seedSlaRecord(t, db, overdue.ID, 20*time.Minute, 0, 0)

	fresh := seedBooking(t, db, customer.ID, models.BookingStatusAssigned, 0)
	seedSlaRecord(t, db, fresh.ID, 2*time.Minute, 0, 0)

	// Accepted recently enough that the arrival stage stays quiet.
	accepted := seedBooking(t, db, customer.ID, models.BookingStatusAccepted, 0)
	seedSlaRecord(t, db, accepted.ID, 20*time.Minute, 5*time.Minute, 0)

	job := NewSlaMonitorJob(db, nil, 10*time.Minute, 15*time.Minute, time.Minute)
	if raised := job.RunOnce(); raised != 1 {
		t.Fatalf("raised = %d, want 1", raised)
	}

	var record models.SlaRecord
	if err := db.Where("booking_id = ?", overdue.ID).First(&record).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if !record.AcceptBreached {
		t.Fatal("overdue record not flagged")
	}
	if record.BreachReason == "" {
		t.Fatal("breach reason not recorded")
	}

	var untouched models.SlaRecord
	db.Where("booking_id = ?", fresh.ID).First(&untouched)
	if untouched.AcceptBreached {
		t.Fatal("fresh record should not be flagged")
	}
}

func TestSlaMonitorFlagsOverdueArrival(t *testing.T) {
	db := newTestDB(t)
	customer := seedUser(t, db)

	booking := seedBooking(t, db, customer.ID, models.BookingStatusAccepted, 0)
	seedSlaRecord(t, db, booking.ID, time.Hour, 30*time.Minute, 0)

	job := NewSlaMonitorJob(db, nil, time.Hour, 15*time.Minute, time.Minute)
	if raised := job.RunOnce(); raised != 1 {
		t.Fatalf("raised = %d, want 1", raised)
	}

	var record models.SlaRecord
	db.Where("booking_id = ?", booking.ID).First(&record)
	if !record.ArrivalBreached {
		t.Fatal("arrival breach not flagged")
	}
	if record.AcceptBreached {
		t.Fatal("acceptance was on time, should not be flagged")
	}
}

func TestSlaMonitorAlertsOncePerStage(t *testing.T) {
	db := newTestDB(t)
	customer := seedUser(t, db)

	booking := seedBooking(t, db, customer.ID, models.BookingStatusAssigned, 0)
	seedSlaRecord(t, db, booking.ID, 20*time.Minute, 0, 0)

	job := NewSlaMonitorJob(db, nil, 10*time.Minute, 15*time.Minute, time.Minute)
	if raised := job.RunOnce(); raised != 1 {
		t.Fatalf("first run raised = %d, want 1", raised)
	}
	if raised := job.RunOnce(); raised != 0 {
		t.Fatalf("second run raised = %d, want 0 (already flagged)", raised)
	}
}

func TestSlaMonitorIgnoresCompletedStages(t *testing.T) {
	db := newTestDB(t)
	customer := seedUser(t, db)

	// Slow but finished: accepted late, arrived late, both columns stamped.
	booking := seedBooking(t, db, customer.ID, models.BookingStatusInProgress, 0)
	seedSlaRecord(t, db, booking.ID, 2*time.Hour, 90*time.Minute, 40*time.Minute)

	job := NewSlaMonitorJob(db, nil, 10*time.Minute, 15*time.Minute, time.Minute)
	if raised := job.RunOnce(); raised != 0 {
		t.Fatalf("raised = %d, want 0 for stamped milestones", raised)
	}
}
