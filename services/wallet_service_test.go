package services

import (
	"errors"
	"testing"

	"mechanic-service-server/models"
)

func TestWalletCreditDebit(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	user := seedUser(t, db, models.RoleCustomer)

	if _, err := wallets.Credit(user.ID, 1000, nil, "top up"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := wallets.Debit(user.ID, 300, nil, "spend"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	if got := walletBalance(t, db, user.ID); got != 700 {
		t.Fatalf("balance = %d, want 700", got)
	}

	entries := ledgerEntries(t, db, user.ID)
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	if entries[0].BalanceAfter != 1000 || entries[1].BalanceAfter != 700 {
		t.Fatalf("balance snapshots = %d, %d, want 1000, 700",
			entries[0].BalanceAfter, entries[1].BalanceAfter)
	}

	// Replaying the ledger must reproduce the live balance.
	var replayed int64
	for _, entry := range entries {
		replayed += entry.Signed()
	}
	if replayed != 700 {
		t.Fatalf("ledger replay = %d, want 700", replayed)
	}
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	user := seedUser(t, db, models.RoleCustomer)

	if _, err := wallets.Credit(user.ID, 100, nil, "top up"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := wallets.Debit(user.ID, 200, nil, "overdraw")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("debit err = %v, want ErrInsufficientFunds", err)
	}

	// The failed debit must leave no trace: no balance change, no entry.
	if got := walletBalance(t, db, user.ID); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}
	if entries := ledgerEntries(t, db, user.ID); len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	user := seedUser(t, db, models.RoleCustomer)

	for _, amount := range []int64{0, -50} {
		if _, err := wallets.Credit(user.ID, amount, nil, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %d err = %v, want ErrInvalidAmount", amount, err)
		}
		if _, err := wallets.Debit(user.ID, amount, nil, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("debit %d err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestWalletTransactionsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	user := seedUser(t, db, models.RoleCustomer)

	for i := int64(1); i <= 3; i++ {
		if _, err := wallets.Credit(user.ID, i*100, nil, ""); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	entries, total, err := wallets.Transactions(user.ID, 1, 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("total = %d, entries = %d, want 3 each", total, len(entries))
	}
	if entries[0].Amount != 300 || entries[2].Amount != 100 {
		t.Fatalf("ordering wrong: first = %d, last = %d", entries[0].Amount, entries[2].Amount)
	}
}

func TestWalletGetWithoutWallet(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)

	if _, err := wallets.GetWallet(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
