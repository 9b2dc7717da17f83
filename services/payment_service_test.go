package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/gateway"
	"mechanic-service-server/models"
)

// stubGateway scripts individual gateway calls for failure-path tests.
// Unset hooks fall through to the sandbox.
type stubGateway struct {
	*gateway.Sandbox
	initialize func(gateway.InitializeParams) (*gateway.InitializeResult, error)
	verify     func(string) (*gateway.VerifyResult, error)
	payout     func(gateway.PayoutParams) (*gateway.PayoutResult, error)
}

func newStubGateway() *stubGateway {
	return &stubGateway{Sandbox: gateway.NewSandbox()}
}

func (s *stubGateway) InitializePayment(ctx context.Context, params gateway.InitializeParams) (*gateway.InitializeResult, error) {
	if s.initialize != nil {
		return s.initialize(params)
	}
	return s.Sandbox.InitializePayment(ctx, params)
}

func (s *stubGateway) VerifyPayment(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	if s.verify != nil {
		return s.verify(reference)
	}
	return s.Sandbox.VerifyPayment(ctx, reference)
}

func (s *stubGateway) InitiatePayout(ctx context.Context, params gateway.PayoutParams) (*gateway.PayoutResult, error) {
	if s.payout != nil {
		return s.payout(params)
	}
	return s.Sandbox.InitiatePayout(ctx, params)
}

func seedBookingRow(t *testing.T, db *gorm.DB, customerID uint, price int64) *models.Booking {
	t.Helper()
	booking := models.Booking{
		CustomerID:  customerID,
		ServiceType: "brake_service",
		Price:       price,
		PickupLat:   6.5244,
		PickupLng:   3.3792,
		Status:      models.BookingStatusSearching,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return &booking
}

func TestPaymentInitializeAndConfirm(t *testing.T) {
	db := newTestDB(t)
	sandbox := gateway.NewSandbox()
	payments := NewPaymentService(db, sandbox, nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)

	payment, err := payments.Initialize(booking.ID, "customer@example.com")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", payment.Status)
	}
	if payment.PaymentURL == "" {
		t.Fatal("payment url empty")
	}
	if payment.Amount != 7500 {
		t.Fatalf("amount = %d, want booking price 7500", payment.Amount)
	}

	confirmed, err := payments.Confirm(context.Background(), payment.Reference)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.PaymentStatusSuccess {
		t.Fatalf("status = %s, want success", confirmed.Status)
	}
	if confirmed.PaidAt == nil {
		t.Fatal("paid_at not stamped")
	}

	// A second confirm is a no-op and never re-hits the gateway.
	verifies := len(sandbox.VerifyCalls)
	again, err := payments.Confirm(context.Background(), payment.Reference)
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if again.Status != models.PaymentStatusSuccess {
		t.Fatalf("replay status = %s, want success", again.Status)
	}
	if len(sandbox.VerifyCalls) != verifies {
		t.Fatalf("replay confirm hit the gateway %d extra times", len(sandbox.VerifyCalls)-verifies)
	}
}

func TestPaymentInitializeConflictsAfterSuccess(t *testing.T) {
	db := newTestDB(t)
	payments := NewPaymentService(db, gateway.NewSandbox(), nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)
	seedSuccessPayment(t, db, booking.ID, 7500)

	if _, err := payments.Initialize(booking.ID, "customer@example.com"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPaymentInitializeRejectsTerminalBooking(t *testing.T) {
	db := newTestDB(t)
	payments := NewPaymentService(db, gateway.NewSandbox(), nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)
	db.Model(booking).Update("status", models.BookingStatusCancelled)

	if _, err := payments.Initialize(booking.ID, "customer@example.com"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPaymentInitializeGatewayRejection(t *testing.T) {
	db := newTestDB(t)
	stub := newStubGateway()
	stub.initialize = func(gateway.InitializeParams) (*gateway.InitializeResult, error) {
		return nil, &gateway.Error{Kind: gateway.KindRejected, Code: 400, Message: "bad email"}
	}
	payments := NewPaymentService(db, stub, nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)

	if _, err := payments.Initialize(booking.ID, "nope"); err == nil {
		t.Fatal("expected gateway rejection to surface")
	}

	// A definitive rejection fails the attempt; a retry stays possible.
	var payment models.Payment
	if err := db.Where("booking_id = ?", booking.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != models.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", payment.Status)
	}
}

func TestPaymentInitializeGatewayOutage(t *testing.T) {
	db := newTestDB(t)
	stub := newStubGateway()
	stub.initialize = func(gateway.InitializeParams) (*gateway.InitializeResult, error) {
		return nil, &gateway.Error{Kind: gateway.KindTransient, Code: 503, Message: "down"}
	}
	payments := NewPaymentService(db, stub, nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)

	if _, err := payments.Initialize(booking.ID, "customer@example.com"); !gateway.IsTransient(err) {
		t.Fatalf("err = %v, want transient gateway error", err)
	}

	// Transient failures leave the row initiated for reconciliation.
	var payment models.Payment
	if err := db.Where("booking_id = ?", booking.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != models.PaymentStatusInitiated {
		t.Fatalf("status = %s, want initiated", payment.Status)
	}
}

func TestPaymentConfirmAmountMismatchFails(t *testing.T) {
	db := newTestDB(t)
	stub := newStubGateway()
	payments := NewPaymentService(db, stub, nil, time.Second)
	customer := seedUser(t, db, models.RoleCustomer)
	booking := seedBookingRow(t, db, customer.ID, 7500)

	payment, err := payments.Initialize(booking.ID, "customer@example.com")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	stub.verify = func(string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Status: gateway.VerifySuccess, Amount: 100}, nil
	}

	if _, err := payments.Confirm(context.Background(), payment.Reference); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	var fresh models.Payment
	if err := db.First(&fresh, payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if fresh.Status != models.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", fresh.Status)
	}
	if fresh.FailReason == "" {
		t.Fatal("fail_reason not recorded")
	}
}

func TestCreateSubaccountOncePerUser(t *testing.T) {
	db := newTestDB(t)
	payments := NewPaymentService(db, gateway.NewSandbox(), nil, time.Second)
	mechUser, profile := seedMechanic(t, db, 6.5, 3.3)

	req := models.SubaccountCreateRequest{
		BusinessName:     "Okoro Auto Works",
		BankCode:         "058",
		AccountNumber:    "0123456789",
		PercentageCharge: 85,
	}
	subaccount, err := payments.CreateSubaccount(mechUser.ID, req)
	if err != nil {
		t.Fatalf("create subaccount: %v", err)
	}
	if subaccount.SubaccountCode == "" {
		t.Fatal("subaccount code empty")
	}

	var fresh models.MechanicProfile
	if err := db.First(&fresh, profile.ID).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if fresh.SubaccountID != subaccount.SubaccountCode {
		t.Fatalf("profile subaccount = %q, want %q", fresh.SubaccountID, subaccount.SubaccountCode)
	}

	if _, err := payments.CreateSubaccount(mechUser.ID, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}
