package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/models"
	"mechanic-service-server/utils"
)

// bookingTransitions is the full lifecycle graph. Status only ever moves
// forward through it; completed and cancelled are terminal.
var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusSearching:  {models.BookingStatusAssigned, models.BookingStatusCancelled},
	models.BookingStatusAssigned:   {models.BookingStatusAccepted, models.BookingStatusCancelled},
	models.BookingStatusAccepted:   {models.BookingStatusArrived, models.BookingStatusCancelled},
	models.BookingStatusArrived:    {models.BookingStatusInProgress, models.BookingStatusCancelled},
	models.BookingStatusInProgress: {models.BookingStatusCompleted, models.BookingStatusCancelled, models.BookingStatusDisputed},
	models.BookingStatusCompleted:  {models.BookingStatusDisputed},
}

// TransitionAllowed reports whether the lifecycle graph permits from -> to.
func TransitionAllowed(from, to models.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingService owns the booking lifecycle. Transitions are conditional
// updates guarded on the expected prior status, so two racing actors cannot
// both move the same booking; money side effects commit in the same
// database transaction as the state flip.
type BookingService struct {
	db       *gorm.DB
	wallets  *WalletService
	notifier *NotificationService

	// Policy knobs, wired from config at startup.
	CommissionPct           int
	CancelInProgressCustPct int
	DefaultRadiusKm         float64
}

func NewBookingService(db *gorm.DB, wallets *WalletService, notifier *NotificationService) *BookingService {
	return &BookingService{
		db:                      db,
		wallets:                 wallets,
		notifier:                notifier,
		CommissionPct:           15,
		CancelInProgressCustPct: 50,
		DefaultRadiusKm:         10,
	}
}

// Create stores a new booking in searching status and immediately tries to
// match a mechanic. A booking with nobody nearby stays searching; the stale
// booking job eventually cancels it.
func (s *BookingService) Create(customerID uint, req models.BookingCreateRequest) (*models.Booking, error) {
	if !utils.IsLocationValid(req.PickupLat, req.PickupLng) {
		return nil, utils.ErrInvalidCoordinates
	}
	if req.Price <= 0 {
		return nil, ErrInvalidAmount
	}

	booking := models.Booking{
		CustomerID:  customerID,
		ServiceType: req.ServiceType,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Price:       req.Price,
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		Status:      models.BookingStatusSearching,
	}
	if err := s.db.Create(&booking).Error; err != nil {
		return nil, err
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = s.DefaultRadiusKm
	}
	if assigned, err := s.TryAssign(booking.ID, radius); err == nil {
		return assigned, nil
	} else if !errors.Is(err, ErrNoMechanicFound) {
		log.Printf("⚠️ Booking %d created but assignment failed: %v", booking.ID, err)
	}
	return &booking, nil
}

// TryAssign matches the nearest available mechanic to a searching booking.
// Candidates come back in ascending distance order; the first one whose
// conditional update lands gets the job.
func (s *BookingService) TryAssign(bookingID uint, radiusKm float64) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusSearching {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.BookingStatusAssigned}
	}

	nearby, err := utils.FindNearbyMechanics(s.db, utils.Location{
		Latitude:  booking.PickupLat,
		Longitude: booking.PickupLng,
	}, radiusKm)
	if err != nil {
		return nil, err
	}

	for _, candidate := range nearby {
		mechanic := candidate.MechanicProfile
		now := time.Now()
		var assigned bool
		err := s.db.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.Booking{}).
				Where("id = ? AND status = ?", bookingID, models.BookingStatusSearching).
				Updates(map[string]interface{}{
					"status":      models.BookingStatusAssigned,
					"mechanic_id": mechanic.ID,
					"assigned_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Someone else assigned it first; nothing to do.
				return nil
			}
			assigned = true

			sla := models.SlaRecord{BookingID: bookingID, AssignedAt: &now}
			if err := tx.Where(models.SlaRecord{BookingID: bookingID}).
				Assign(models.SlaRecord{AssignedAt: &now}).
				FirstOrCreate(&sla).Error; err != nil {
				return err
			}

			return tx.Model(&models.MechanicProfile{}).
				Where("id = ?", mechanic.ID).
				Update("active_bookings", gorm.Expr("active_bookings + 1")).Error
		})
		if err != nil {
			return nil, err
		}
		if !assigned {
			return s.Get(bookingID)
		}

		if s.notifier != nil {
			s.notifier.Notify(mechanic.UserID, "booking_assigned", "New job assigned",
				fmt.Sprintf("Booking #%d is %.1f km away", bookingID, candidate.DistanceKm),
				map[string]interface{}{"booking_id": bookingID})
		}
		return s.Get(bookingID)
	}

	return nil, ErrNoMechanicFound
}

// Accept moves an assigned booking to accepted. Only the assigned mechanic's
// own user may accept.
func (s *BookingService) Accept(bookingID, actorUserID uint) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.guardAssignedMechanic(booking, actorUserID); err != nil {
		return nil, err
	}

	now := time.Now()
	return s.advance(booking, models.BookingStatusAccepted,
		map[string]interface{}{"accepted_at": now},
		models.SlaRecord{AcceptedAt: &now})
}

// Arrive marks the mechanic as on site.
func (s *BookingService) Arrive(bookingID, actorUserID uint) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.guardAssignedMechanic(booking, actorUserID); err != nil {
		return nil, err
	}

	now := time.Now()
	return s.advance(booking, models.BookingStatusArrived,
		map[string]interface{}{"arrived_at": now},
		models.SlaRecord{ArrivedAt: &now})
}

// Start begins the work.
func (s *BookingService) Start(bookingID, actorUserID uint) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.guardAssignedMechanic(booking, actorUserID); err != nil {
		return nil, err
	}

	return s.advance(booking, models.BookingStatusInProgress,
		map[string]interface{}{"started_at": time.Now()}, models.SlaRecord{})
}

// Complete finishes an in-progress booking and settles the mechanic: the
// collected payment, net of platform commission, is credited to the
// mechanic's wallet in the same transaction as the state flip.
func (s *BookingService) Complete(bookingID, actorUserID uint) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.guardAssignedMechanic(booking, actorUserID); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusInProgress {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.BookingStatusCompleted}
	}

	mechanic, err := s.mechanicOf(booking)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingStatusInProgress).
			Updates(map[string]interface{}{
				"status":       models.BookingStatusCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidTransitionError{From: freshStatus(tx, bookingID), To: models.BookingStatusCompleted}
		}

		if err := tx.Model(&models.SlaRecord{}).
			Where("booking_id = ?", bookingID).
			Update("completed_at", now).Error; err != nil {
			return err
		}

		collected, err := s.collectedAmount(tx, bookingID)
		if err != nil {
			return err
		}
		if collected > 0 {
			net := collected * int64(100-s.CommissionPct) / 100
			if net > 0 {
				if _, err := s.wallets.CreditTx(tx, mechanic.UserID, net, &bookingID,
					fmt.Sprintf("booking %d completion, net of %d%% commission", bookingID, s.CommissionPct)); err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.MechanicProfile{}).
			Where("id = ?", mechanic.ID).
			Updates(map[string]interface{}{
				"active_bookings": gorm.Expr("CASE WHEN active_bookings > 0 THEN active_bookings - 1 ELSE 0 END"),
				"completed_jobs":  gorm.Expr("completed_jobs + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(booking.CustomerID, "booking_completed", "Booking completed",
			fmt.Sprintf("Booking #%d has been completed", bookingID),
			map[string]interface{}{"booking_id": bookingID})
		s.notifier.Notify(mechanic.UserID, "booking_completed", "Job completed",
			fmt.Sprintf("Earnings for booking #%d have been credited to your wallet", bookingID),
			map[string]interface{}{"booking_id": bookingID})
	}

	return s.Get(bookingID)
}

// Cancel cancels a non-terminal booking and applies the refund policy
// against the collected payment: before work starts the customer gets all
// of it back, mid-progress it splits between customer and mechanic, and a
// completed booking cannot be cancelled at all. Refund and state flip are
// one transaction.
func (s *BookingService) Cancel(bookingID uint, reason string) (*models.Booking, error) {
	booking, err := s.Get(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCompleted {
		return nil, ErrCancelCompleted
	}
	if booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusDisputed {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.BookingStatusCancelled}
	}

	fromStatus := booking.Status
	var mechanic *models.MechanicProfile
	if booking.MechanicID != nil {
		if mechanic, err = s.mechanicOf(booking); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, fromStatus).
			Updates(map[string]interface{}{
				"status":       models.BookingStatusCancelled,
				"cancelled_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidTransitionError{From: freshStatus(tx, bookingID), To: models.BookingStatusCancelled}
		}

		collected, err := s.collectedAmount(tx, bookingID)
		if err != nil {
			return err
		}
		if collected > 0 {
			customerShare := collected
			var mechanicShare int64
			if fromStatus == models.BookingStatusInProgress && mechanic != nil {
				customerShare = collected * int64(s.CancelInProgressCustPct) / 100
				mechanicShare = collected - customerShare
			}
			if customerShare > 0 {
				if _, err := s.wallets.CreditTx(tx, booking.CustomerID, customerShare, &bookingID,
					"refund: "+reason); err != nil {
					return err
				}
			}
			if mechanicShare > 0 {
				if _, err := s.wallets.CreditTx(tx, mechanic.UserID, mechanicShare, &bookingID,
					"cancellation compensation: "+reason); err != nil {
					return err
				}
			}
		}

		if mechanic != nil {
			return tx.Model(&models.MechanicProfile{}).
				Where("id = ?", mechanic.ID).
				Update("active_bookings", gorm.Expr("CASE WHEN active_bookings > 0 THEN active_bookings - 1 ELSE 0 END")).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(booking.CustomerID, "booking_cancelled", "Booking cancelled",
			fmt.Sprintf("Booking #%d was cancelled: %s", bookingID, reason),
			map[string]interface{}{"booking_id": bookingID})
		if mechanic != nil {
			s.notifier.Notify(mechanic.UserID, "booking_cancelled", "Job cancelled",
				fmt.Sprintf("Booking #%d was cancelled: %s", bookingID, reason),
				map[string]interface{}{"booking_id": bookingID})
		}
	}

	return s.Get(bookingID)
}

// MarkDisputedTx flips an in-progress or completed booking to disputed
// inside the caller's transaction.
func (s *BookingService) MarkDisputedTx(tx *gorm.DB, bookingID uint) error {
	result := tx.Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingID,
			[]models.BookingStatus{models.BookingStatusInProgress, models.BookingStatusCompleted}).
		Update("status", models.BookingStatusDisputed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &InvalidTransitionError{From: freshStatus(tx, bookingID), To: models.BookingStatusDisputed}
	}
	return nil
}

// Get loads a single booking.
func (s *BookingService) Get(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ListForCustomer returns a customer's bookings, newest first.
func (s *BookingService) ListForCustomer(customerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.Where("customer_id = ?", customerID).Order("id DESC").Find(&bookings).Error
	return bookings, err
}

// advance applies one guarded forward transition plus its timestamp stamps
// and SLA patch.
func (s *BookingService) advance(booking *models.Booking, to models.BookingStatus, stamps map[string]interface{}, slaPatch models.SlaRecord) (*models.Booking, error) {
	if !TransitionAllowed(booking.Status, to) {
		return nil, &InvalidTransitionError{From: booking.Status, To: to}
	}

	updates := map[string]interface{}{"status": to}
	for column, value := range stamps {
		updates[column] = value
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, booking.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidTransitionError{From: freshStatus(tx, booking.ID), To: to}
		}

		if slaPatch.AcceptedAt != nil || slaPatch.ArrivedAt != nil {
			return tx.Model(&models.SlaRecord{}).
				Where("booking_id = ?", booking.ID).
				Updates(slaPatch).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(booking.ID)
}

// freshStatus re-reads a booking's status through the active transaction,
// for error messages after a conditional update found the row moved.
func freshStatus(tx *gorm.DB, bookingID uint) models.BookingStatus {
	var booking models.Booking
	if err := tx.First(&booking, bookingID).Error; err != nil {
		return models.BookingStatus("unknown")
	}
	return booking.Status
}

// guardAssignedMechanic verifies the actor is the user behind the assigned
// mechanic profile.
func (s *BookingService) guardAssignedMechanic(booking *models.Booking, actorUserID uint) error {
	mechanic, err := s.mechanicOf(booking)
	if err != nil {
		return err
	}
	if mechanic.UserID != actorUserID {
		return ErrNotYourBooking
	}
	return nil
}

func (s *BookingService) mechanicOf(booking *models.Booking) (*models.MechanicProfile, error) {
	if booking.MechanicID == nil {
		return nil, ErrNotYourBooking
	}
	var mechanic models.MechanicProfile
	if err := s.db.First(&mechanic, *booking.MechanicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &mechanic, nil
}

// collectedAmount sums the successfully collected payments for a booking.
// At most one payment per booking ever reaches success, but summing keeps
// the reconciliation invariant obvious.
func (s *BookingService) collectedAmount(tx *gorm.DB, bookingID uint) (int64, error) {
	var collected int64
	err := tx.Model(&models.Payment{}).
		Where("booking_id = ? AND status = ?", bookingID, models.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&collected).Error
	return collected, err
}
