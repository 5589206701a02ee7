package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardTier string

const (
	TierBronze   RewardTier = "bronze"
	TierSilver   RewardTier = "silver"
	TierGold     RewardTier = "gold"
	TierPlatinum RewardTier = "platinum"
)

// LoyaltyReward is a discount token a business issued to a wallet.
type LoyaltyReward struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BusinessID         string     `gorm:"type:varchar(80);not null;uniqueIndex:idx_reward_business_token" json:"business_id"`
	TokenID            uint64     `gorm:"not null;uniqueIndex:idx_reward_business_token" json:"token_id"`
	HolderAddress      string     `gorm:"type:varchar(42);not null;index" json:"holder_address"`
	Tier               RewardTier `gorm:"type:varchar(20);not null" json:"tier"`
	DiscountPercentage int        `gorm:"not null" json:"discount_percentage"`
	IsActive           bool       `gorm:"not null" json:"is_active"`
	ImageURL           string     `gorm:"type:text" json:"image_url,omitempty"`
	Description        string     `gorm:"type:text" json:"description,omitempty"`
	Benefits           []string   `gorm:"serializer:json" json:"benefits"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
}

func (LoyaltyReward) TableName() string {
	return "loyalty_rewards"
}

func (r *LoyaltyReward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RewardRedemption logs each use of a reward.
type RewardRedemption struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	RewardID          string `gorm:"type:varchar(36);not null;index" json:"reward_id"`
	HolderAddress     string `gorm:"type:varchar(42);not null;index" json:"holder_address"`
	PurchaseAmountWei string `gorm:"type:varchar(78)" json:"purchase_amount_wei"`
	SavingsWei        string `gorm:"type:varchar(78)" json:"savings_wei"`
	Savings           string `gorm:"-" json:"savings"`
}

func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}

type IssueRewardRequest struct {
	HolderAddress      string     `json:"holder_address" binding:"required,eth_addr"`
	Tier               RewardTier `json:"tier" binding:"required,oneof=bronze silver gold platinum"`
	DiscountPercentage int        `json:"discount_percentage" binding:"required,min=1,max=100"`
	ImageURL           string     `json:"image_url" binding:"omitempty,image_url"`
	Description        string     `json:"description" binding:"max=500"`
	Benefits           []string   `json:"benefits" binding:"omitempty,max=10"`
}

type RedeemRewardRequest struct {
	PurchaseAmount string `json:"purchase_amount"`
}

// RewardStatus reports whether a reward can be used now.
type RewardStatus struct {
	RewardID       string     `json:"reward_id"`
	CanUse         bool       `json:"can_use"`
	NextUseAt      *time.Time `json:"next_use_at,omitempty"`
	SecondsToReuse int64      `json:"seconds_to_reuse"`
}

// RewardStats aggregates a wallet's rewards.
type RewardStats struct {
	TotalRewards    int    `json:"total_rewards"`
	TotalSavingsWei string `json:"total_savings_wei"`
	TotalSavings    string `json:"total_savings"`
	ActiveBenefits  int    `json:"active_benefits"`
}

type UserRewards struct {
	Rewards []LoyaltyReward `json:"rewards"`
	Stats   RewardStats     `json:"stats"`
}
