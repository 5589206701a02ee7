package repository

import (
	"strings"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

// BusinessFilter narrows FindAll. Limit <= 0 returns every match.
type BusinessFilter struct {
	Category string
	Search   string
	Owner    string
	Offset   int
	Limit    int
}

// ChainSnapshot is the on-chain view of a business written by the sync job.
type ChainSnapshot struct {
	Registered       bool
	IsActive         *bool
	TotalReceivedWei string
	TransactionCount int64
	SyncedAt         time.Time
}

type BusinessRepository interface {
	Create(business *model.Business) error
	Update(business *model.Business) error
	Delete(id string) error
	FindByID(id string) (*model.Business, error)
	FindAll(filter BusinessFilter) ([]model.Business, int64, error)
	Exists(id string) (bool, error)
	IncrementTransactions(id string) error
	SetActive(id string, active bool) error
	MarkRegistered(id, txHash string) error
	ApplyChainSnapshot(id string, snap ChainSnapshot) error
}

// likeEscaper makes search input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"business_id": business.ID,
		"name":        business.Name,
		"owner":       business.Owner,
	})

	if err := r.db.Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"business_id": business.ID,
			"owner":       business.Owner,
		})
		return err
	}
	return nil
}

func (r *businessRepository) Update(business *model.Business) error {
	logger.Debug("Updating business in database", map[string]interface{}{
		"business_id": business.ID,
	})

	if err := r.db.Save(business).Error; err != nil {
		logger.Error("Failed to update business in database", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return err
	}
	return nil
}

// Delete removes the business together with its reviews, their helpful votes
// and any loyalty rewards it issued. Payment history is kept.
func (r *businessRepository) Delete(id string) error {
	logger.Debug("Deleting business from database", map[string]interface{}{
		"business_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&model.Review{}).Select("id").Where("business_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&model.ReviewHelpfulVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("business_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		rewardIDs := tx.Model(&model.LoyaltyReward{}).Select("id").Where("business_id = ?", id)
		if err := tx.Where("reward_id IN (?)", rewardIDs).Delete(&model.RewardRedemption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("business_id = ?", id).Delete(&model.LoyaltyReward{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Business{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete business from database", err, map[string]interface{}{
			"business_id": id,
		})
		return err
	}

	logger.Debug("Business deleted from database", map[string]interface{}{
		"business_id": id,
	})
	return nil
}

func (r *businessRepository) FindByID(id string) (*model.Business, error) {
	var business model.Business
	if err := r.db.First(&business, "id = ?", id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find business", err, map[string]interface{}{
				"business_id": id,
			})
		}
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindAll(filter BusinessFilter) ([]model.Business, int64, error) {
	logger.Debug("Finding businesses", map[string]interface{}{
		"category": filter.Category,
		"search":   filter.Search,
		"owner":    filter.Owner,
	})

	query := r.db.Model(&model.Business{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count businesses", err, nil)
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Order("id ASC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	businesses := []model.Business{}
	if err := query.Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, 0, err
	}
	return businesses, total, nil
}

func (r *businessRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Business{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *businessRepository) IncrementTransactions(id string) error {
	res := r.db.Model(&model.Business{}).
		Where("id = ?", id).
		UpdateColumn("total_transactions", gorm.Expr("total_transactions + ?", 1))
	if res.Error != nil {
		logger.Error("Failed to increment business transactions", res.Error, map[string]interface{}{
			"business_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *businessRepository) SetActive(id string, active bool) error {
	return r.db.Model(&model.Business{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

func (r *businessRepository) MarkRegistered(id, txHash string) error {
	return r.db.Model(&model.Business{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"on_chain_registered":  true,
			"registration_tx_hash": txHash,
		}).Error
}

// ApplyChainSnapshot stores the contract's view of a business. The contract's
// transaction count wins over the local counter once it is registered.
func (r *businessRepository) ApplyChainSnapshot(id string, snap ChainSnapshot) error {
	updates := map[string]interface{}{
		"on_chain_registered": snap.Registered,
		"last_synced_at":      snap.SyncedAt,
	}
	if snap.Registered {
		updates["total_received_wei"] = snap.TotalReceivedWei
		updates["on_chain_tx_count"] = snap.TransactionCount
		updates["total_transactions"] = snap.TransactionCount
		if snap.IsActive != nil {
			updates["is_active"] = *snap.IsActive
		}
	}

	if err := r.db.Model(&model.Business{}).Where("id = ?", id).UpdateColumns(updates).Error; err != nil {
		logger.Error("Failed to apply chain snapshot", err, map[string]interface{}{
			"business_id": id,
		})
		return err
	}
	return nil
}
