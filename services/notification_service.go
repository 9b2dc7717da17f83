package services

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"mechanic-service-server/models"
)

// Deliverer pushes a payload to a connected user. Delivery is best effort:
// false means the user has no live connection and the payload was dropped,
// which is fine because the notification row is already persisted.
type Deliverer interface {
	Deliver(userID uint, payload []byte) bool
}

// NotificationService persists notifications and hands them to the delivery
// registry keyed by user id.
type NotificationService struct {
	db        *gorm.DB
	deliverer Deliverer
}

func NewNotificationService(db *gorm.DB, deliverer Deliverer) *NotificationService {
	return &NotificationService{db: db, deliverer: deliverer}
}

// Notify writes the notification and attempts live delivery.
func (s *NotificationService) Notify(userID uint, ntype, title, body string, data map[string]interface{}) {
	encoded := ""
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			encoded = string(raw)
		}
	}

	notification := models.Notification{
		UserID: userID,
		Type:   ntype,
		Title:  title,
		Body:   body,
		Data:   encoded,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("❌ Failed to persist %s notification for user %d: %v", ntype, userID, err)
		return
	}

	if s.deliverer == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	if !s.deliverer.Deliver(userID, payload) {
		log.Printf("📪 User %d offline, notification %d stored only", userID, notification.ID)
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(userID uint, page, limit int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
