package repository

import (
	"errors"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrTransactionSettled is returned when a settled transaction is moved again.
var ErrTransactionSettled = errors.New("transaction already settled")

// TransactionFilter narrows List. Zero values are ignored.
type TransactionFilter struct {
	BusinessID  string
	UserAddress string
	Type        model.TransactionType
	Status      model.TransactionStatus
	Since       time.Time
	Limit       int
}

type TransactionRepository interface {
	Create(txn *model.Transaction) error
	FindByHash(hash string) (*model.Transaction, error)
	List(filter TransactionFilter) ([]model.Transaction, error)
	Complete(txn *model.Transaction, blockNumber uint64) error
	Fail(txn *model.Transaction, code string) error
	Pending(olderThan time.Time) ([]model.Transaction, error)
	HasCompletedPayment(businessID, userAddress string) (bool, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *model.Transaction) error {
	logger.Debug("Recording transaction", map[string]interface{}{
		"business_id": txn.BusinessID,
		"type":        txn.Type,
		"tx_hash":     txn.TransactionHash,
		"status":      txn.Status,
	})
	if err := r.db.Create(txn).Error; err != nil {
		logger.Error("Failed to record transaction", err, map[string]interface{}{
			"business_id": txn.BusinessID,
			"tx_hash":     txn.TransactionHash,
		})
		return err
	}
	return nil
}

func (r *transactionRepository) FindByHash(hash string) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.First(&txn, "transaction_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) List(filter TransactionFilter) ([]model.Transaction, error) {
	query := r.db.Model(&model.Transaction{})
	if filter.BusinessID != "" {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.UserAddress != "" {
		query = query.Where("user_address = ?", filter.UserAddress)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	txns := []model.Transaction{}
	if err := query.Order("created_at DESC").Find(&txns).Error; err != nil {
		logger.Error("Failed to list transactions", err, map[string]interface{}{
			"business_id": filter.BusinessID,
			"user":        filter.UserAddress,
		})
		return nil, err
	}
	return txns, nil
}

// Complete moves a pending transaction to completed. A completed payment also
// bumps the business's transaction counter, in the same DB transaction, so a
// hash is counted at most once.
func (r *transactionRepository) Complete(txn *model.Transaction, blockNumber uint64) error {
	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, model.TransactionPending).
			UpdateColumns(map[string]interface{}{
				"status":       model.TransactionCompleted,
				"amount_wei":   txn.AmountWei,
				"block_number": blockNumber,
				"confirmed_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTransactionSettled
		}

		if txn.Type != model.TransactionPayment {
			return nil
		}
		return tx.Model(&model.Business{}).
			Where("id = ?", txn.BusinessID).
			UpdateColumn("total_transactions", gorm.Expr("total_transactions + ?", 1)).Error
	})
	if err != nil {
		if !errors.Is(err, ErrTransactionSettled) {
			logger.Error("Failed to complete transaction", err, map[string]interface{}{
				"tx_hash": txn.TransactionHash,
			})
		}
		return err
	}

	txn.Status = model.TransactionCompleted
	txn.BlockNumber = blockNumber
	txn.ConfirmedAt = &now
	return nil
}

func (r *transactionRepository) Fail(txn *model.Transaction, code string) error {
	res := r.db.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, model.TransactionPending).
		UpdateColumns(map[string]interface{}{
			"status":       model.TransactionFailed,
			"failure_code": code,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		logger.Error("Failed to mark transaction failed", res.Error, map[string]interface{}{
			"tx_hash": txn.TransactionHash,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionSettled
	}
	txn.Status = model.TransactionFailed
	txn.FailureCode = code
	return nil
}

func (r *transactionRepository) Pending(olderThan time.Time) ([]model.Transaction, error) {
	txns := []model.Transaction{}
	err := r.db.Where("status = ? AND created_at < ?", model.TransactionPending, olderThan).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) HasCompletedPayment(businessID, userAddress string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Transaction{}).
		Where("business_id = ? AND user_address = ? AND type = ? AND status = ?",
			businessID, userAddress, model.TransactionPayment, model.TransactionCompleted).
		Count(&count).Error
	return count > 0, err
}
