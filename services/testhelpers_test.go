package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
)

// newTestDB opens a fresh in-memory database with the full schema. A single
// connection keeps sqlite's locking out of the picture.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	user := models.User{
		FullName:     fmt.Sprintf("Test %s", role),
		Email:        fmt.Sprintf("%s%d@example.com", role, seedSeq(db)),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

// seedSeq keeps seeded emails unique within one test database.
func seedSeq(db *gorm.DB) int64 {
	var count int64
	db.Model(&models.User{}).Count(&count)
	return count + 1
}

// seedMechanic creates a mechanic user with an available profile at the
// given position.
func seedMechanic(t *testing.T, db *gorm.DB, lat, lng float64) (*models.User, *models.MechanicProfile) {
	t.Helper()
	user := seedUser(t, db, models.RoleMechanic)
	profile := models.MechanicProfile{
		UserID:      user.ID,
		IsAvailable: true,
		CurrentLat:  &lat,
		CurrentLng:  &lng,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed mechanic profile: %v", err)
	}
	return user, &profile
}

// seedSuccessPayment records an already-collected payment for a booking.
func seedSuccessPayment(t *testing.T, db *gorm.DB, bookingID uint, amount int64) *models.Payment {
	t.Helper()
	payment := models.Payment{
		BookingID: bookingID,
		Amount:    amount,
		Reference: fmt.Sprintf("test_pay_%d_%d", bookingID, amount),
		Status:    models.PaymentStatusSuccess,
		Gateway:   "sandbox",
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return &payment
}

func walletBalance(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0
		}
		t.Fatalf("load wallet: %v", err)
	}
	return wallet.Balance
}

func ledgerEntries(t *testing.T, db *gorm.DB, userID uint) []models.WalletTransaction {
	t.Helper()
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil
	}
	var entries []models.WalletTransaction
	if err := db.Where("wallet_id = ?", wallet.ID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	return entries
}
