package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mechanic-service-server/gateway"
	"mechanic-service-server/models"
	"mechanic-service-server/services"
)

func TestReconciliationResolvesStuckPayments(t *testing.T) {
	db := newTestDB(t)
	sandbox := gateway.NewSandbox()
	payments := services.NewPaymentService(db, sandbox, nil, time.Second)
	wallets := services.NewWalletService(db)
	payouts := services.NewPayoutService(db, wallets, sandbox, nil, time.Second)
	customer := seedUser(t, db)

	// Nine payments the gateway knows and will verify as success.
	for i := 0; i < 9; i++ {
		booking := seedBooking(t, db, customer.ID, models.BookingStatusInProgress, 0)
		reference := fmt.Sprintf("pay_stuck_%d", i)
		if _, err := sandbox.InitializePayment(context.Background(), gateway.InitializeParams{
			Amount:    5000,
			Reference: reference,
		}); err != nil {
			t.Fatalf("prime gateway: %v", err)
		}
		payment := models.Payment{
			BookingID: booking.ID,
			Amount:    5000,
			Reference: reference,
			Status:    models.PaymentStatusPending,
			Gateway:   "sandbox",
		}
		if err := db.Create(&payment).Error; err != nil {
			t.Fatalf("seed payment: %v", err)
		}
		backdate(t, db, &models.Payment{}, payment.ID, time.Hour)
	}

	// One payment the gateway has never heard of; verification fails.
	booking := seedBooking(t, db, customer.ID, models.BookingStatusInProgress, 0)
	orphan := models.Payment{
		BookingID: booking.ID,
		Amount:    5000,
		Reference: "pay_orphan",
		Status:    models.PaymentStatusPending,
		Gateway:   "sandbox",
	}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("seed orphan: %v", err)
	}
	backdate(t, db, &models.Payment{}, orphan.ID, time.Hour)

	// And one too recent to touch.
	recentBooking := seedBooking(t, db, customer.ID, models.BookingStatusInProgress, 0)
	recent := models.Payment{
		BookingID: recentBooking.ID,
		Amount:    5000,
		Reference: "pay_recent",
		Status:    models.PaymentStatusPending,
		Gateway:   "sandbox",
	}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatalf("seed recent: %v", err)
	}

	job := NewPaymentReconciliationJob(db, payments, payouts, 30*time.Minute, time.Minute, 50)
	attempted, succeeded, failed := job.RunOnce(context.Background())

	if attempted != 10 || succeeded != 9 || failed != 1 {
		t.Fatalf("attempted=%d succeeded=%d failed=%d, want 10/9/1", attempted, succeeded, failed)
	}

	// One bad payment never halts the rest of the batch.
	var resolved int64
	db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusSuccess).Count(&resolved)
	if resolved != 9 {
		t.Fatalf("resolved payments = %d, want 9", resolved)
	}

	var untouched models.Payment
	if err := db.Where("reference = ?", "pay_recent").First(&untouched).Error; err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if untouched.Status != models.PaymentStatusPending {
		t.Fatalf("recent payment status = %s, want still pending", untouched.Status)
	}
}

func TestReconciliationRespectsBatchSize(t *testing.T) {
	db := newTestDB(t)
	sandbox := gateway.NewSandbox()
	payments := services.NewPaymentService(db, sandbox, nil, time.Second)
	wallets := services.NewWalletService(db)
	payouts := services.NewPayoutService(db, wallets, sandbox, nil, time.Second)
	customer := seedUser(t, db)

	for i := 0; i < 5; i++ {
		booking := seedBooking(t, db, customer.ID, models.BookingStatusInProgress, 0)
		reference := fmt.Sprintf("pay_batch_%d", i)
		if _, err := sandbox.InitializePayment(context.Background(), gateway.InitializeParams{
			Amount:    1000,
			Reference: reference,
		}); err != nil {
			t.Fatalf("prime gateway: %v", err)
		}
		payment := models.Payment{
			BookingID: booking.ID,
			Amount:    1000,
			Reference: reference,
			Status:    models.PaymentStatusPending,
			Gateway:   "sandbox",
		}
		if err := db.Create(&payment).Error; err != nil {
			t.Fatalf("seed payment: %v", err)
		}
		backdate(t, db, &models.Payment{}, payment.ID, time.Duration(i+1)*time.Hour)
	}

	job := NewPaymentReconciliationJob(db, payments, payouts, 30*time.Minute, time.Minute, 2)
	attempted, succeeded, _ := job.RunOnce(context.Background())
	if attempted != 2 || succeeded != 2 {
		t.Fatalf("attempted=%d succeeded=%d, want batch of 2", attempted, succeeded)
	}
}

func TestReconciliationRedrivesStuckPayouts(t *testing.T) {
	db := newTestDB(t)
	sandbox := gateway.NewSandbox()
	payments := services.NewPaymentService(db, sandbox, nil, time.Second)
	wallets := services.NewWalletService(db)
	payouts := services.NewPayoutService(db, wallets, sandbox, nil, time.Second)
	user := seedUser(t, db)

	if _, err := wallets.Credit(user.ID, 5000, nil, "earnings"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// A payout that was debited but never dispatched (gateway was down).
	wallet, err := wallets.GetWallet(user.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	payout := models.Payout{
		WalletID:      wallet.ID,
		UserID:        user.ID,
		Amount:        2000,
		BankCode:      "058",
		AccountNumber: "0123456789",
		Status:        models.PayoutStatusRequested,
	}
	if err := db.Create(&payout).Error; err != nil {
		t.Fatalf("seed payout: %v", err)
	}
	backdate(t, db, &models.Payout{}, payout.ID, time.Hour)

	job := NewPaymentReconciliationJob(db, payments, payouts, 30*time.Minute, time.Minute, 50)
	job.RunOnce(context.Background())

	var fresh models.Payout
	if err := db.First(&fresh, payout.ID).Error; err != nil {
		t.Fatalf("load payout: %v", err)
	}
	if fresh.Status != models.PayoutStatusProcessing {
		t.Fatalf("status = %s, want processing after redrive", fresh.Status)
	}
	if len(sandbox.PayoutCalls) != 1 {
		t.Fatalf("gateway payout calls = %d, want 1", len(sandbox.PayoutCalls))
	}
}
