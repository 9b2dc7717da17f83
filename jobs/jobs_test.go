package jobs

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
)

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
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	var count int64
	db.Model(&models.User{}).Count(&count)
	user := models.User{
		FullName:     "Job Test User",
		Email:        fmt.Sprintf("jobs%d@example.com", count+1),
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedBooking(t *testing.T, db *gorm.DB, customerID uint, status models.BookingStatus, age time.Duration) *models.Booking {
	t.Helper()
	booking := models.Booking{
		CustomerID:  customerID,
		ServiceType: "battery_swap",
		Price:       5000,
		PickupLat:   6.5244,
		PickupLng:   3.3792,
		Status:      status,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if age > 0 {
		backdate(t, db, &models.Booking{}, booking.ID, age)
	}
	return &booking
}

// backdate rewrites created_at/updated_at so a freshly inserted row looks old.
func backdate(t *testing.T, db *gorm.DB, model interface{}, id uint, age time.Duration) {
	t.Helper()
	then := time.Now().Add(-age)
	err := db.Model(model).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"created_at": then, "updated_at": then}).Error
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}
}
