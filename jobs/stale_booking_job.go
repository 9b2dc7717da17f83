package jobs

import (
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/metrics"
	"mechanic-service-server/models"
	"mechanic-service-server/services"
)

// StaleBookingJob force-cancels bookings stuck in a non-terminal state past
// the configured age. Cancellation goes through the booking service, so the
// standard refund policy applies and the assigned mechanic is notified.
type StaleBookingJob struct {
	db       *gorm.DB
	bookings *services.BookingService
	maxAge   time.Duration
	interval time.Duration
	stopChan chan bool
	running  atomic.Bool
}

func NewStaleBookingJob(db *gorm.DB, bookings *services.BookingService, maxAge, interval time.Duration) *StaleBookingJob {
	return &StaleBookingJob{
		db:       db,
		bookings: bookings,
		maxAge:   maxAge,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the cleanup loop
func (j *StaleBookingJob) Start() {
	go j.run()
	log.Println("🚀 Stale booking cleanup job started")
}

// Stop stops the cleanup loop
func (j *StaleBookingJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Stale booking cleanup job stopped")
}

func (j *StaleBookingJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Single flight: skip the tick if the previous run is still going.
			if !j.running.CompareAndSwap(false, true) {
				log.Println("⏭️ Stale booking cleanup still running, skipping tick")
				continue
			}
			j.RunOnce()
			j.running.Store(false)
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce performs one cleanup pass. One failing booking never halts the
// rest of the batch; the pass ends with a structured summary.
func (j *StaleBookingJob) RunOnce() {
	start := time.Now()
	cutoff := time.Now().Add(-j.maxAge)

	var stale []models.Booking
	err := j.db.Where("status NOT IN ?", []models.BookingStatus{
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusDisputed,
	}).Where("created_at <= ?", cutoff).Find(&stale).Error
	if err != nil {
		log.Printf("❌ Stale booking cleanup: query failed: %v", err)
		metrics.JobRunsTotal.WithLabelValues("stale_booking", "error").Inc()
		return
	}

	succeeded, failed := 0, 0
	for _, booking := range stale {
		if _, err := j.bookings.Cancel(booking.ID, "cancelled automatically: no progress"); err != nil {
			failed++
			metrics.JobItemsTotal.WithLabelValues("stale_booking", "error").Inc()
			log.Printf("❌ Stale booking cleanup: booking %d: %v", booking.ID, err)
			continue
		}
		succeeded++
		metrics.JobItemsTotal.WithLabelValues("stale_booking", "ok").Inc()
	}

	if len(stale) > 0 {
		log.Printf("🧹 Stale booking cleanup: attempted=%d cancelled=%d failed=%d", len(stale), succeeded, failed)
	}
	metrics.JobRunsTotal.WithLabelValues("stale_booking", "ok").Inc()
	metrics.JobDuration.WithLabelValues("stale_booking").Observe(time.Since(start).Seconds())
}
