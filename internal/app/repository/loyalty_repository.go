package repository

import (
	"errors"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrRewardCoolingDown means the reward was used inside the cooldown window.
var ErrRewardCoolingDown = errors.New("reward used within cooldown window")

type LoyaltyRepository interface {
	Create(reward *model.LoyaltyReward) error
	FindByID(id string) (*model.LoyaltyReward, error)
	FindByHolder(holder string) ([]model.LoyaltyReward, error)
	NextTokenID(businessID string) (uint64, error)
	Redeem(reward *model.LoyaltyReward, redemption *model.RewardRedemption, now, cutoff time.Time) error
	Redemptions(holder string) ([]model.RewardRedemption, error)
}

type loyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) Create(reward *model.LoyaltyReward) error {
	logger.Debug("Issuing loyalty reward", map[string]interface{}{
		"business_id": reward.BusinessID,
		"holder":      reward.HolderAddress,
		"tier":        reward.Tier,
	})
	if err := r.db.Create(reward).Error; err != nil {
		logger.Error("Failed to issue loyalty reward", err, map[string]interface{}{
			"business_id": reward.BusinessID,
		})
		return err
	}
	return nil
}

func (r *loyaltyRepository) FindByID(id string) (*model.LoyaltyReward, error) {
	var reward model.LoyaltyReward
	if err := r.db.Preload("Business").First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *loyaltyRepository) FindByHolder(holder string) ([]model.LoyaltyReward, error) {
	rewards := []model.LoyaltyReward{}
	err := r.db.Preload("Business").
		Where("holder_address = ?", holder).
		Order("created_at DESC").
		Find(&rewards).Error
	return rewards, err
}

func (r *loyaltyRepository) NextTokenID(businessID string) (uint64, error) {
	var max uint64
	err := r.db.Model(&model.LoyaltyReward{}).
		Select("COALESCE(MAX(token_id), 0)").
		Where("business_id = ?", businessID).
		Scan(&max).Error
	return max + 1, err
}

// Redeem logs the redemption and stamps LastUsedAt with now, but only if the
// reward has not been used since cutoff. It returns ErrRewardCoolingDown
// otherwise, which also covers two concurrent redemptions racing for the same
// window.
func (r *loyaltyRepository) Redeem(reward *model.LoyaltyReward, redemption *model.RewardRedemption, now, cutoff time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.LoyaltyReward{}).
			Where("id = ? AND (last_used_at IS NULL OR last_used_at <= ?)", reward.ID, cutoff).
			UpdateColumn("last_used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRewardCoolingDown
		}
		return tx.Create(redemption).Error
	})
	if err != nil {
		if !errors.Is(err, ErrRewardCoolingDown) {
			logger.Error("Failed to redeem reward", err, map[string]interface{}{
				"reward_id": reward.ID,
			})
		}
		return err
	}
	reward.LastUsedAt = &now
	return nil
}

func (r *loyaltyRepository) Redemptions(holder string) ([]model.RewardRedemption, error) {
	out := []model.RewardRedemption{}
	err := r.db.Where("holder_address = ?", holder).Order("created_at DESC").Find(&out).Error
	return out, err
}
