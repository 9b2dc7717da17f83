package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"mechanic-service-server/gateway"
	"mechanic-service-server/models"
)

// PayoutService moves wallet balance out to a mechanic's bank account.
// The wallet debit and the payout row are one transaction, so requested
// funds can never be spent twice; a failed transfer reverses the debit
// exactly once, guarded by the payout's own status.
type PayoutService struct {
	db       *gorm.DB
	wallets  *WalletService
	gw       gateway.PaymentGateway
	notifier *NotificationService
	timeout  time.Duration

	// Async toggles whether the gateway transfer runs in a goroutine.
	// Tests flip it off to keep dispatch synchronous.
	Async bool
}

func NewPayoutService(db *gorm.DB, wallets *WalletService, gw gateway.PaymentGateway, notifier *NotificationService, timeout time.Duration) *PayoutService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PayoutService{db: db, wallets: wallets, gw: gw, notifier: notifier, timeout: timeout, Async: true}
}

// Request debits the wallet, holds the funds and kicks off the transfer.
func (s *PayoutService) Request(userID uint, req models.PayoutRequest) (*models.Payout, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := s.wallets.DebitTx(tx, userID, req.Amount, nil, "payout request")
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", entry.WalletID).
			Update("pending", gorm.Expr("pending + ?", req.Amount)).Error; err != nil {
			return err
		}

		payout = models.Payout{
			WalletID:      entry.WalletID,
			UserID:        userID,
			Amount:        req.Amount,
			BankCode:      req.BankCode,
			AccountNumber: req.AccountNumber,
			AccountName:   req.AccountName,
			Status:        models.PayoutStatusRequested,
		}
		return tx.Create(&payout).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Async {
		go s.Dispatch(payout.ID)
	} else {
		s.Dispatch(payout.ID)
	}

	return &payout, nil
}

// Dispatch pushes a requested payout to the gateway. A transient gateway
// failure leaves the payout requested for the reconciliation job to re-drive;
// a definitive rejection fails it immediately with a reversal.
func (s *PayoutService) Dispatch(payoutID uint) {
	var payout models.Payout
	if err := s.db.First(&payout, payoutID).Error; err != nil {
		log.Printf("❌ Payout %d dispatch: load failed: %v", payoutID, err)
		return
	}
	if payout.Status != models.PayoutStatusRequested {
		return
	}

	// The transfer reference is derived from the payout id and stored before
	// the gateway call. A redrive after a timeout reuses the same reference,
	// so a transfer that did land remotely is deduplicated by the provider
	// instead of paid again.
	reference := payout.Reference
	if reference == "" {
		reference = fmt.Sprintf("payout_%d", payout.ID)
		if err := s.db.Model(&payout).Update("reference", reference).Error; err != nil {
			log.Printf("❌ Payout %d dispatch: failed to store reference: %v", payout.ID, err)
			return
		}
	}

	accountName := payout.AccountName
	if accountName == "" {
		var user models.User
		if err := s.db.First(&user, payout.UserID).Error; err == nil {
			accountName = user.FullName
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.gw.InitiatePayout(ctx, gateway.PayoutParams{
		Amount:        payout.Amount,
		BankCode:      payout.BankCode,
		AccountNumber: payout.AccountNumber,
		AccountName:   accountName,
		Reference:     reference,
		Reason:        fmt.Sprintf("wallet withdrawal #%d", payout.ID),
	})
	if err != nil {
		if gateway.IsRejected(err) {
			if markErr := s.MarkResult(payout.ID, models.PayoutStatusFailed, "", err.Error()); markErr != nil {
				log.Printf("❌ Payout %d: failed to record gateway rejection: %v", payout.ID, markErr)
			}
			return
		}
		// Transient: the transfer may or may not exist remotely. Leave the
		// payout requested; reconciliation settles it later.
		log.Printf("⚠️ Payout %d: gateway unavailable, will retry: %v", payout.ID, err)
		return
	}

	s.db.Model(&models.Payout{}).
		Where("id = ? AND status = ?", payout.ID, models.PayoutStatusRequested).
		Updates(map[string]interface{}{
			"status":       models.PayoutStatusProcessing,
			"provider_ref": result.TransferRef,
		})
}

// MarkResult records the final outcome of a payout transfer. Paid consumes
// the held funds; failed reverses the original debit. Both paths are
// conditional on the payout not already being final, so replaying the same
// result is a no-op and can never double-credit.
func (s *PayoutService) MarkResult(payoutID uint, status models.PayoutStatus, providerRef, failureReason string) error {
	if status != models.PayoutStatusPaid && status != models.PayoutStatusFailed {
		return ErrConflict
	}

	var payout models.Payout
	if err := s.db.First(&payout, payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	nonFinal := []models.PayoutStatus{models.PayoutStatusRequested, models.PayoutStatusProcessing}

	var applied bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if providerRef != "" {
			updates["provider_ref"] = providerRef
		}
		if status == models.PayoutStatusFailed {
			updates["failure_reason"] = failureReason
		}

		result := tx.Model(&models.Payout{}).
			Where("id = ? AND status IN ?", payoutID, nonFinal).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already final: idempotent replay.
			return nil
		}
		applied = true

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", payout.WalletID).
			Update("pending", gorm.Expr("CASE WHEN pending >= ? THEN pending - ? ELSE 0 END", payout.Amount, payout.Amount)).Error; err != nil {
			return err
		}

		if status == models.PayoutStatusFailed {
			_, err := s.wallets.CreditTx(tx, payout.UserID, payout.Amount, nil,
				fmt.Sprintf("payout %d reversal: %s", payoutID, failureReason))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if applied && s.notifier != nil {
		if status == models.PayoutStatusPaid {
			s.notifier.Notify(payout.UserID, "payout_paid", "Payout completed",
				fmt.Sprintf("Your payout of %d has been paid out", payout.Amount),
				map[string]interface{}{"payout_id": payoutID})
		} else {
			s.notifier.Notify(payout.UserID, "payout_failed", "Payout failed",
				fmt.Sprintf("Your payout of %d failed and was returned to your wallet: %s", payout.Amount, failureReason),
				map[string]interface{}{"payout_id": payoutID})
		}
	}
	return nil
}

// List returns payouts filtered by user and/or status, newest first.
func (s *PayoutService) List(userID uint, status models.PayoutStatus, page, limit int) ([]models.Payout, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Payout{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payouts []models.Payout
	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payouts).Error
	return payouts, total, err
}
