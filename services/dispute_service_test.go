package services

import (
	"errors"
	"testing"

	"mechanic-service-server/models"
)

func newDisputeFixture(t *testing.T) (*BookingService, *DisputeService, *WalletService, func() *models.Booking, uint, uint) {
	t.Helper()
	db := newTestDB(t)
	wallets := NewWalletService(db)
	bookings := NewBookingService(db, wallets, nil)
	disputes := NewDisputeService(db, bookings, wallets, nil)

	customer := seedUser(t, db, models.RoleCustomer)
	mechUser, _ := seedMechanic(t, db, 6.5334, 3.3792)

	makeInProgress := func() *models.Booking {
		booking := createTestBooking(t, bookings, customer.ID)
		if _, err := bookings.Accept(booking.ID, mechUser.ID); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if _, err := bookings.Arrive(booking.ID, mechUser.ID); err != nil {
			t.Fatalf("arrive: %v", err)
		}
		started, err := bookings.Start(booking.ID, mechUser.ID)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		return started
	}
	return bookings, disputes, wallets, makeInProgress, customer.ID, mechUser.ID
}

func TestDisputeRaiseFreezesBooking(t *testing.T) {
	bookings, disputes, _, makeInProgress, customerID, _ := newDisputeFixture(t)
	booking := makeInProgress()

	dispute, err := disputes.Raise(customerID, models.DisputeCreateRequest{
		BookingID: booking.ID,
		Reason:    "work not finished",
	})
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	if dispute.Status != models.DisputeStatusOpen {
		t.Fatalf("dispute status = %s, want open", dispute.Status)
	}

	frozen, err := bookings.Get(booking.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if frozen.Status != models.BookingStatusDisputed {
		t.Fatalf("booking status = %s, want disputed", frozen.Status)
	}
}

func TestDisputeRaiseRequiresParty(t *testing.T) {
	_, disputes, _, makeInProgress, _, _ := newDisputeFixture(t)
	booking := makeInProgress()

	if _, err := disputes.Raise(9999, models.DisputeCreateRequest{
		BookingID: booking.ID,
		Reason:    "not my booking",
	}); err == nil {
		t.Fatal("expected error for non-party dispute")
	}
}

func TestDisputeRaiseOnlyInProgressOrCompleted(t *testing.T) {
	bookings, disputes, _, _, customerID, _ := newDisputeFixture(t)
	booking := createTestBooking(t, bookings, customerID)

	// Still assigned: nothing to dispute yet.
	if _, err := disputes.Raise(customerID, models.DisputeCreateRequest{
		BookingID: booking.ID,
		Reason:    "too early",
	}); !IsInvalidTransition(err) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestDisputeResolveMovesMoneyExplicitly(t *testing.T) {
	_, disputes, wallets, makeInProgress, customerID, mechUserID := newDisputeFixture(t)
	booking := makeInProgress()

	if _, err := wallets.Credit(mechUserID, 4000, nil, "prior earnings"); err != nil {
		t.Fatalf("credit mechanic: %v", err)
	}

	dispute, err := disputes.Raise(customerID, models.DisputeCreateRequest{
		BookingID: booking.ID,
		Reason:    "overcharged",
	})
	if err != nil {
		t.Fatalf("raise: %v", err)
	}

	resolved, err := disputes.Resolve(dispute.ID, models.DisputeResolveRequest{
		Status:         models.DisputeStatusResolved,
		Resolution:     "partial refund agreed",
		RefundAmount:   1500,
		RefundCustomer: true,
		DebitMechanic:  true,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != models.DisputeStatusResolved {
		t.Fatalf("status = %s, want resolved", resolved.Status)
	}

	db := disputes.db
	if got := walletBalance(t, db, customerID); got != 1500 {
		t.Fatalf("customer balance = %d, want 1500", got)
	}
	if got := walletBalance(t, db, mechUserID); got != 2500 {
		t.Fatalf("mechanic balance = %d, want 2500", got)
	}

	// A dispute settles once; the replay is a conflict, not a second refund.
	if _, err := disputes.Resolve(dispute.ID, models.DisputeResolveRequest{
		Status:         models.DisputeStatusResolved,
		Resolution:     "again",
		RefundAmount:   1500,
		RefundCustomer: true,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("replay err = %v, want ErrConflict", err)
	}
	if got := walletBalance(t, db, customerID); got != 1500 {
		t.Fatalf("customer balance after replay = %d, want 1500", got)
	}
}

func TestDisputeRejectMovesNoMoney(t *testing.T) {
	_, disputes, _, makeInProgress, customerID, mechUserID := newDisputeFixture(t)
	booking := makeInProgress()

	dispute, err := disputes.Raise(customerID, models.DisputeCreateRequest{
		BookingID: booking.ID,
		Reason:    "spurious",
	})
	if err != nil {
		t.Fatalf("raise: %v", err)
	}

	if _, err := disputes.Resolve(dispute.ID, models.DisputeResolveRequest{
		Status:     models.DisputeStatusRejected,
		Resolution: "no grounds",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	db := disputes.db
	if got := walletBalance(t, db, customerID); got != 0 {
		t.Fatalf("customer balance = %d, want 0", got)
	}
	if got := walletBalance(t, db, mechUserID); got != 0 {
		t.Fatalf("mechanic balance = %d, want 0", got)
	}
}
