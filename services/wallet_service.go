package services

import (
	"errors"

	"gorm.io/gorm"

	"mechanic-service-server/models"
)

// WalletService owns the internal ledger. Every mutation runs inside one
// database transaction that updates the balance and appends the matching
// WalletTransaction with a balance-after snapshot, so the transaction log
// replayed from the start always equals the live balance.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// EnsureWallet returns the user's wallet, creating it if this is the first
// ledger touch for that user.
func (s *WalletService) EnsureWallet(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWallet returns the wallet without creating it.
func (s *WalletService) GetWallet(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// Credit adds amount to the user's wallet.
func (s *WalletService) Credit(userID uint, amount int64, bookingID *uint, metadata string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.CreditTx(tx, userID, amount, bookingID, metadata)
		return txErr
	})
	return entry, err
}

// Debit removes amount from the user's wallet, failing with
// ErrInsufficientFunds when the balance does not cover it.
func (s *WalletService) Debit(userID uint, amount int64, bookingID *uint, metadata string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.DebitTx(tx, userID, amount, bookingID, metadata)
		return txErr
	})
	return entry, err
}

// CreditTx applies a credit inside the caller's transaction, so a booking
// transition or payout reversal commits atomically with its ledger entry.
func (s *WalletService) CreditTx(tx *gorm.DB, userID uint, amount int64, bookingID *uint, metadata string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var wallet models.Wallet
	if err := tx.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return nil, err
	}

	return s.appendEntry(tx, wallet.ID, models.WalletTxCredit, amount, bookingID, metadata)
}

// DebitTx applies a debit inside the caller's transaction. The balance check
// sits in the UPDATE's own predicate, so two concurrent debits can never
// both pass a stale check.
func (s *WalletService) DebitTx(tx *gorm.DB, userID uint, amount int64, bookingID *uint, metadata string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var wallet models.Wallet
	if err := tx.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}

	result := tx.Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", wallet.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientFunds
	}

	return s.appendEntry(tx, wallet.ID, models.WalletTxDebit, amount, bookingID, metadata)
}

// appendEntry snapshots the post-mutation balance and writes the immutable
// ledger row. Runs inside the same transaction as the balance update.
func (s *WalletService) appendEntry(tx *gorm.DB, walletID uint, txType models.WalletTransactionType, amount int64, bookingID *uint, metadata string) (*models.WalletTransaction, error) {
	var wallet models.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		return nil, err
	}

	entry := models.WalletTransaction{
		WalletID:     walletID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: wallet.Balance,
		BookingID:    bookingID,
		Metadata:     metadata,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Transactions returns the user's ledger entries, newest first.
func (s *WalletService) Transactions(userID uint, page, limit int) ([]models.WalletTransaction, int64, error) {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.WalletTransaction
	err = s.db.Where("wallet_id = ?", wallet.ID).
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
