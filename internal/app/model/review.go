package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a customer rating of a business.
type Review struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BusinessID      string   `gorm:"type:varchar(80);not null;index" json:"business_id"`
	UserAddress     string   `gorm:"type:varchar(42);not null;index" json:"user_address"`
	UserName        string   `gorm:"type:varchar(50)" json:"user_name"`
	UserAvatar      string   `gorm:"type:text" json:"user_avatar,omitempty"`
	Rating          int      `gorm:"not null" json:"rating"`
	Comment         string   `gorm:"type:text" json:"comment"`
	Photos          []string `gorm:"serializer:json" json:"photos"`
	TransactionHash string   `gorm:"type:varchar(66)" json:"transaction_hash,omitempty"`
	Verified        bool     `json:"verified"`
	Helpful         int64    `gorm:"not null;default:0" json:"helpful"`

	// MarkedHelpful is filled per request for the authenticated wallet.
	MarkedHelpful bool `gorm:"-" json:"marked_helpful"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ReviewHelpfulVote records that a wallet marked a review helpful.
type ReviewHelpfulVote struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ReviewID    string `gorm:"type:varchar(36);not null;index:idx_review_helpful_user,unique" json:"review_id"`
	UserAddress string `gorm:"type:varchar(42);not null;index:idx_review_helpful_user,unique" json:"user_address"`
}

func (ReviewHelpfulVote) TableName() string {
	return "review_helpful_votes"
}

type CreateReviewRequest struct {
	Rating          int      `json:"rating" binding:"required,min=1,max=5"`
	Comment         string   `json:"comment" binding:"max=2000"`
	Photos          []string `json:"photos" binding:"omitempty,max=10,dive,image_url"`
	TransactionHash string   `json:"transaction_hash" binding:"omitempty,tx_hash"`
}

// RatingStats summarizes the ratings of one business.
type RatingStats struct {
	AverageRating      float64       `json:"average_rating"`
	TotalReviews       int64         `json:"total_reviews"`
	RatingDistribution map[int]int64 `json:"rating_distribution"`
}

// HelpfulResult is returned by a helpful toggle.
type HelpfulResult struct {
	ReviewID string `json:"review_id"`
	Helpful  bool   `json:"helpful"`
	Count    int64  `json:"count"`
}
