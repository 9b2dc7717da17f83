package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mechanic-service-server/gateway"
	"mechanic-service-server/models"
)

// PaymentService drives payment collection through the gateway port.
// The gateway's answer to VerifyPayment is the only source of truth for a
// payment's fate; local timeouts leave the record pending for the
// reconciliation job rather than guessing.
type PaymentService struct {
	db       *gorm.DB
	gw       gateway.PaymentGateway
	notifier *NotificationService
	timeout  time.Duration
}

func NewPaymentService(db *gorm.DB, gw gateway.PaymentGateway, notifier *NotificationService, timeout time.Duration) *PaymentService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaymentService{db: db, gw: gw, notifier: notifier, timeout: timeout}
}

// Initialize starts a new payment attempt for a booking and returns the
// hosted payment URL. A booking that already has a successful payment is a
// conflict; earlier failed attempts do not block a retry.
func (s *PaymentService) Initialize(bookingID uint, payerEmail string) (*models.Payment, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, ErrConflict
	}

	var succeeded int64
	if err := s.db.Model(&models.Payment{}).
		Where("booking_id = ? AND status = ?", bookingID, models.PaymentStatusSuccess).
		Count(&succeeded).Error; err != nil {
		return nil, err
	}
	if succeeded > 0 {
		return nil, ErrConflict
	}

	payment := models.Payment{
		BookingID: bookingID,
		Amount:    booking.Price,
		Reference: "pay_" + uuid.NewString(),
		Status:    models.PaymentStatusInitiated,
		Gateway:   s.gw.Name(),
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.gw.InitializePayment(ctx, gateway.InitializeParams{
		Amount:     payment.Amount,
		PayerEmail: payerEmail,
		Reference:  payment.Reference,
		Metadata:   map[string]string{"booking_id": fmt.Sprint(bookingID)},
	})
	if err != nil {
		if gateway.IsRejected(err) {
			s.db.Model(&payment).Updates(map[string]interface{}{
				"status":      models.PaymentStatusFailed,
				"fail_reason": err.Error(),
			})
		}
		// Transient failures keep the row initiated; the reconciliation job
		// re-verifies it on the next pass.
		return nil, err
	}

	updates := map[string]interface{}{
		"status":      models.PaymentStatusPending,
		"payment_url": result.PaymentURL,
	}
	// Some providers mint their own reference (e.g. a checkout session id).
	if result.Reference != "" && result.Reference != payment.Reference {
		updates["reference"] = result.Reference
	}
	if err := s.db.Model(&payment).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.byReference(payment.ID)
}

// Confirm re-verifies a payment against the gateway and applies the
// authoritative outcome. Confirming an already-final payment is a no-op, so
// webhooks and the reconciliation job can both funnel through here safely.
func (s *PaymentService) Confirm(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("reference = ?", reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if payment.Status.IsFinal() {
		return &payment, nil
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.gw.VerifyPayment(verifyCtx, payment.Reference)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case gateway.VerifySuccess:
		if result.Amount != payment.Amount {
			s.db.Model(&payment).Updates(map[string]interface{}{
				"status":       models.PaymentStatusFailed,
				"fail_reason":  fmt.Sprintf("amount mismatch: expected %d, gateway reports %d", payment.Amount, result.Amount),
				"raw_response": result.Raw,
			})
			return nil, ErrConflict
		}
		now := time.Now()
		updated := s.db.Model(&models.Payment{}).
			Where("id = ? AND status NOT IN ?", payment.ID,
				[]models.PaymentStatus{models.PaymentStatusSuccess, models.PaymentStatusFailed}).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusSuccess,
				"paid_at":      now,
				"raw_response": result.Raw,
			})
		if updated.Error != nil {
			return nil, updated.Error
		}
		if updated.RowsAffected > 0 {
			var booking models.Booking
			if err := s.db.First(&booking, payment.BookingID).Error; err == nil && s.notifier != nil {
				s.notifier.Notify(booking.CustomerID, "payment_confirmed", "Payment confirmed",
					fmt.Sprintf("Payment of %d for booking #%d was confirmed", payment.Amount, payment.BookingID),
					map[string]interface{}{"booking_id": payment.BookingID, "reference": payment.Reference})
			}
		}
	case gateway.VerifyFailed:
		s.db.Model(&payment).Updates(map[string]interface{}{
			"status":       models.PaymentStatusFailed,
			"fail_reason":  "gateway reported failure",
			"raw_response": result.Raw,
		})
	default:
		// Still pending on the gateway side; record that we looked.
		s.db.Model(&payment).
			Where("status = ?", models.PaymentStatusInitiated).
			Update("status", models.PaymentStatusPending)
	}

	return s.byReference(payment.ID)
}

func (s *PaymentService) byReference(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateSubaccount registers a split-settlement target with the gateway and
// stores the mapping. One subaccount per user; a second request conflicts.
func (s *PaymentService) CreateSubaccount(userID uint, req models.SubaccountCreateRequest) (*models.Subaccount, error) {
	var existing models.Subaccount
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.gw.CreateSubaccount(ctx, gateway.SubaccountParams{
		BusinessName:     req.BusinessName,
		BankCode:         req.BankCode,
		AccountNumber:    req.AccountNumber,
		PercentageCharge: req.PercentageCharge,
	})
	if err != nil {
		return nil, err
	}

	subaccount := models.Subaccount{
		UserID:           userID,
		BusinessName:     req.BusinessName,
		BankCode:         req.BankCode,
		AccountNumber:    req.AccountNumber,
		PercentageCharge: req.PercentageCharge,
		Gateway:          s.gw.Name(),
		SubaccountCode:   result.SubaccountID,
	}
	if err := s.db.Create(&subaccount).Error; err != nil {
		return nil, err
	}

	s.db.Model(&models.MechanicProfile{}).
		Where("user_id = ?", userID).
		Update("subaccount_id", result.SubaccountID)

	return &subaccount, nil
}
