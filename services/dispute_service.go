package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mechanic-service-server/models"
)

// DisputeService handles disputes against in-progress or completed bookings.
// Resolution can move money, but only through the request's explicit flags;
// nothing is refunded or clawed back implicitly.
type DisputeService struct {
	db       *gorm.DB
	bookings *BookingService
	wallets  *WalletService
	notifier *NotificationService
}

func NewDisputeService(db *gorm.DB, bookings *BookingService, wallets *WalletService, notifier *NotificationService) *DisputeService {
	return &DisputeService{db: db, bookings: bookings, wallets: wallets, notifier: notifier}
}

// Raise opens a dispute and flips the booking to disputed in one transaction.
func (s *DisputeService) Raise(userID uint, req models.DisputeCreateRequest) (*models.Dispute, error) {
	booking, err := s.bookings.Get(req.BookingID)
	if err != nil {
		return nil, err
	}

	mechanicUserID := uint(0)
	if booking.MechanicID != nil {
		if mechanic, err := s.bookings.mechanicOf(booking); err == nil {
			mechanicUserID = mechanic.UserID
		}
	}
	if booking.CustomerID != userID && mechanicUserID != userID {
		return nil, ErrNotFound
	}

	var dispute models.Dispute
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.bookings.MarkDisputedTx(tx, booking.ID); err != nil {
			return err
		}
		dispute = models.Dispute{
			BookingID:  booking.ID,
			RaisedByID: userID,
			Reason:     req.Reason,
			Status:     models.DisputeStatusOpen,
		}
		return tx.Create(&dispute).Error
	})
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// Resolve closes an open dispute. RefundCustomer credits the customer's
// wallet with the resolved amount; DebitMechanic debits the mechanic's
// wallet by the same amount. Each flag acts independently. Resolving a
// dispute that is no longer open is a conflict.
func (s *DisputeService) Resolve(disputeID uint, req models.DisputeResolveRequest) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := s.db.First(&dispute, disputeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	booking, err := s.bookings.Get(dispute.BookingID)
	if err != nil {
		return nil, err
	}

	if (req.RefundCustomer || req.DebitMechanic) && req.RefundAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	var mechanic *models.MechanicProfile
	if req.DebitMechanic {
		if mechanic, err = s.bookings.mechanicOf(booking); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Dispute{}).
			Where("id = ? AND status = ?", disputeID, models.DisputeStatusOpen).
			Updates(map[string]interface{}{
				"status":        req.Status,
				"resolution":    req.Resolution,
				"refund_amount": req.RefundAmount,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		if req.Status != models.DisputeStatusResolved {
			return nil
		}

		if req.RefundCustomer {
			if _, err := s.wallets.CreditTx(tx, booking.CustomerID, req.RefundAmount, &booking.ID,
				fmt.Sprintf("dispute %d refund", disputeID)); err != nil {
				return err
			}
		}
		if req.DebitMechanic {
			if _, err := s.wallets.DebitTx(tx, mechanic.UserID, req.RefundAmount, &booking.ID,
				fmt.Sprintf("dispute %d adjustment", disputeID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(dispute.RaisedByID, "dispute_resolved", "Dispute resolved",
			fmt.Sprintf("Dispute #%d on booking #%d: %s", disputeID, dispute.BookingID, req.Resolution),
			map[string]interface{}{"dispute_id": disputeID, "booking_id": dispute.BookingID})
	}

	return s.get(disputeID)
}

func (s *DisputeService) get(disputeID uint) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := s.db.First(&dispute, disputeID).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}
