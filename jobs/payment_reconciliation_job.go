package jobs

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/metrics"
	"mechanic-service-server/models"
	"mechanic-service-server/services"
)

// PaymentReconciliationJob repairs drift between local payment records and
// the gateway. Payments sitting in a non-final state past the configured
// age are re-verified in fixed-size batches, oldest first; payouts whose
// gateway call never got an answer are re-driven. The gateway's answer is
// always the source of truth.
type PaymentReconciliationJob struct {
	db        *gorm.DB
	payments  *services.PaymentService
	payouts   *services.PayoutService
	maxAge    time.Duration
	interval  time.Duration
	batchSize int
	stopChan  chan bool
	running   atomic.Bool
}

func NewPaymentReconciliationJob(db *gorm.DB, payments *services.PaymentService, payouts *services.PayoutService, maxAge, interval time.Duration, batchSize int) *PaymentReconciliationJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &PaymentReconciliationJob{
		db:        db,
		payments:  payments,
		payouts:   payouts,
		maxAge:    maxAge,
		interval:  interval,
		batchSize: batchSize,
		stopChan:  make(chan bool),
	}
}

// Start begins the reconciliation loop
func (j *PaymentReconciliationJob) Start() {
	go j.run()
	log.Println("🚀 Payment reconciliation job started")
}

// Stop stops the reconciliation loop
func (j *PaymentReconciliationJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Payment reconciliation job stopped")
}

func (j *PaymentReconciliationJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				log.Println("⏭️ Payment reconciliation still running, skipping tick")
				continue
			}
			j.RunOnce(context.Background())
			j.running.Store(false)
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce reconciles one batch. Every payment is verified independently;
// a gateway error on one leaves the rest of the batch untouched.
func (j *PaymentReconciliationJob) RunOnce(ctx context.Context) (attempted, succeeded, failed int) {
	start := time.Now()
	cutoff := time.Now().Add(-j.maxAge)

	var stuck []models.Payment
	err := j.db.Where("status IN ?", []models.PaymentStatus{
		models.PaymentStatusInitiated,
		models.PaymentStatusPending,
		models.PaymentStatusAuthorized,
	}).Where("created_at <= ?", cutoff).
		Order("created_at ASC").
		Limit(j.batchSize).
		Find(&stuck).Error
	if err != nil {
		log.Printf("❌ Payment reconciliation: query failed: %v", err)
		metrics.JobRunsTotal.WithLabelValues("payment_reconciliation", "error").Inc()
		return 0, 0, 0
	}

	attempted = len(stuck)
	for _, payment := range stuck {
		if _, err := j.payments.Confirm(ctx, payment.Reference); err != nil {
			failed++
			metrics.JobItemsTotal.WithLabelValues("payment_reconciliation", "error").Inc()
			log.Printf("❌ Payment reconciliation: payment %d (%s): %v", payment.ID, payment.Reference, err)
			continue
		}
		succeeded++
		metrics.JobItemsTotal.WithLabelValues("payment_reconciliation", "ok").Inc()
	}

	j.redrivePayouts(cutoff)

	if attempted > 0 {
		log.Printf("🔄 Payment reconciliation: attempted=%d verified=%d failed=%d", attempted, succeeded, failed)
	}
	metrics.JobRunsTotal.WithLabelValues("payment_reconciliation", "ok").Inc()
	metrics.JobDuration.WithLabelValues("payment_reconciliation").Observe(time.Since(start).Seconds())
	return attempted, succeeded, failed
}

// redrivePayouts retries payouts that were debited but whose gateway call
// never produced an answer. Dispatch is a no-op for anything past requested.
func (j *PaymentReconciliationJob) redrivePayouts(cutoff time.Time) {
	var stuck []models.Payout
	err := j.db.Where("status = ? AND updated_at <= ?", models.PayoutStatusRequested, cutoff).
		Order("created_at ASC").
		Limit(j.batchSize).
		Find(&stuck).Error
	if err != nil {
		log.Printf("❌ Payment reconciliation: payout query failed: %v", err)
		return
	}

	for _, payout := range stuck {
		j.payouts.Dispatch(payout.ID)
	}
	if len(stuck) > 0 {
		log.Printf("🔄 Payment reconciliation: re-drove %d stuck payouts", len(stuck))
	}
}
