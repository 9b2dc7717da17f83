package jobs

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/metrics"
	"mechanic-service-server/models"
	"mechanic-service-server/services"
)

// SlaMonitorJob scans SlaRecords for bookings that sat too long between
// milestones: assignment without acceptance, acceptance without arrival.
// It only flags the record and emits alerts; booking state is never touched
// from here.
type SlaMonitorJob struct {
	db              *gorm.DB
	notifier        *services.NotificationService
	acceptThreshold time.Duration
	arriveThreshold time.Duration
	interval        time.Duration
	stopChan        chan bool
	running         atomic.Bool
}

func NewSlaMonitorJob(db *gorm.DB, notifier *services.NotificationService, acceptThreshold, arriveThreshold, interval time.Duration) *SlaMonitorJob {
	return &SlaMonitorJob{
		db:              db,
		notifier:        notifier,
		acceptThreshold: acceptThreshold,
		arriveThreshold: arriveThreshold,
		interval:        interval,
		stopChan:        make(chan bool),
	}
}

// Start begins the monitor loop
func (j *SlaMonitorJob) Start() {
	go j.run()
	log.Println("🚀 SLA monitor job started")
}

// Stop stops the monitor loop
func (j *SlaMonitorJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 SLA monitor job stopped")
}

func (j *SlaMonitorJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				continue
			}
			j.RunOnce()
			j.running.Store(false)
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce performs one scan and returns how many breaches were raised.
func (j *SlaMonitorJob) RunOnce() int {
	start := time.Now()
	raised := 0
	raised += j.scanStage("acceptance", "assigned_at", "accepted_at", "accept_breached", j.acceptThreshold)
	raised += j.scanStage("arrival", "accepted_at", "arrived_at", "arrival_breached", j.arriveThreshold)

	if raised > 0 {
		log.Printf("⏰ SLA monitor: raised %d breach alerts", raised)
	}
	metrics.JobRunsTotal.WithLabelValues("sla_monitor", "ok").Inc()
	metrics.JobDuration.WithLabelValues("sla_monitor").Observe(time.Since(start).Seconds())
	return raised
}

// scanStage flags records where fromColumn is older than the threshold and
// untilColumn never got stamped. The breach flag keeps each record from
// alerting more than once per stage.
func (j *SlaMonitorJob) scanStage(stage, fromColumn, untilColumn, breachColumn string, threshold time.Duration) int {
	cutoff := time.Now().Add(-threshold)

	var records []models.SlaRecord
	err := j.db.Where(fromColumn+" IS NOT NULL AND "+fromColumn+" <= ?", cutoff).
		Where(untilColumn + " IS NULL").
		Where(breachColumn + " = ?", false).
		Find(&records).Error
	if err != nil {
		log.Printf("❌ SLA monitor: %s scan failed: %v", stage, err)
		metrics.JobRunsTotal.WithLabelValues("sla_monitor", "error").Inc()
		return 0
	}

	raised := 0
	for _, record := range records {
		reason := fmt.Sprintf("%s overdue past %s", stage, threshold)
		err := j.db.Model(&models.SlaRecord{}).
			Where("id = ? AND "+breachColumn+" = ?", record.ID, false).
			Updates(map[string]interface{}{
				breachColumn:    true,
				"breach_reason": reason,
			}).Error
		if err != nil {
			log.Printf("❌ SLA monitor: failed to flag record %d: %v", record.ID, err)
			continue
		}

		raised++
		metrics.SlaBreachesTotal.WithLabelValues(stage).Inc()
		j.alert(record, stage, reason)
	}
	return raised
}

// alert notifies the booking's parties about a breach.
func (j *SlaMonitorJob) alert(record models.SlaRecord, stage, reason string) {
	if j.notifier == nil {
		return
	}

	var booking models.Booking
	if err := j.db.First(&booking, record.BookingID).Error; err != nil {
		return
	}

	data := map[string]interface{}{"booking_id": booking.ID, "stage": stage}
	j.notifier.Notify(booking.CustomerID, "sla_breach", "Booking is delayed",
		fmt.Sprintf("Booking #%d: %s", booking.ID, reason), data)

	if booking.MechanicID != nil {
		var mechanic models.MechanicProfile
		if err := j.db.First(&mechanic, *booking.MechanicID).Error; err == nil {
			j.notifier.Notify(mechanic.UserID, "sla_breach", "Job is overdue",
				fmt.Sprintf("Booking #%d: %s", booking.ID, reason), data)
		}
	}
}
