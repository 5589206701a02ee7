package repository

import (
	"math"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	FindByID(id string) (*model.Review, error)
	FindByBusiness(businessID string) ([]model.Review, error)
	Delete(review *model.Review) error
	ToggleHelpful(reviewID, userAddress string) (bool, int64, error)
	HelpfulReviewIDs(userAddress string, reviewIDs []string) (map[string]bool, error)
	Stats(businessID string) (*model.RatingStats, error)
	RefreshAggregates(businessID string) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create stores the review and refreshes the business aggregates in the same
// transaction.
func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review", map[string]interface{}{
		"business_id": review.BusinessID,
		"user":        review.UserAddress,
		"rating":      review.Rating,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return refreshRatingAggregates(tx, review.BusinessID)
	})
	if err != nil {
		logger.Error("Failed to create review", err, map[string]interface{}{
			"business_id": review.BusinessID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) FindByID(id string) (*model.Review, error) {
	var review model.Review
	if err := r.db.First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByBusiness(businessID string) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Delete(review *model.Review) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.ID).Delete(&model.ReviewHelpfulVote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(review).Error; err != nil {
			return err
		}
		return refreshRatingAggregates(tx, review.BusinessID)
	})
	if err != nil {
		logger.Error("Failed to delete review", err, map[string]interface{}{
			"review_id": review.ID,
		})
		return err
	}
	return nil
}

// ToggleHelpful flips the wallet's helpful vote and returns the new state and
// the review's helpful count.
func (r *reviewRepository) ToggleHelpful(reviewID, userAddress string) (bool, int64, error) {
	var helpful bool
	var count int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var review model.Review
		if err := tx.First(&review, "id = ?", reviewID).Error; err != nil {
			return err
		}

		res := tx.Where("review_id = ? AND user_address = ?", reviewID, userAddress).
			Delete(&model.ReviewHelpfulVote{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			vote := model.ReviewHelpfulVote{ReviewID: reviewID, UserAddress: userAddress}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			delta = 1
			helpful = true
		}

		if err := tx.Model(&model.Review{}).
			Where("id = ?", reviewID).
			UpdateColumn("helpful", gorm.Expr("helpful + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Model(&model.Review{}).Select("helpful").Where("id = ?", reviewID).Scan(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return helpful, count, nil
}

func (r *reviewRepository) HelpfulReviewIDs(userAddress string, reviewIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userAddress == "" || len(reviewIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.Model(&model.ReviewHelpfulVote{}).
		Where("user_address = ? AND review_id IN ?", userAddress, reviewIDs).
		Pluck("review_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *reviewRepository) Stats(businessID string) (*model.RatingStats, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := r.db.Model(&model.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("business_id = ?", businessID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &model.RatingStats{RatingDistribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, row := range rows {
		stats.RatingDistribution[row.Rating] = row.Count
		stats.TotalReviews += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = float64(sum) / float64(stats.TotalReviews)
	}
	return stats, nil
}

// RefreshAggregates recomputes the business rating columns from its reviews.
func (r *reviewRepository) RefreshAggregates(businessID string) error {
	return refreshRatingAggregates(r.db, businessID)
}

// ReputationScore maps an average rating (0..5) onto 0..100.
func ReputationScore(average float64) int {
	return int(math.Round(average * 20))
}

func refreshRatingAggregates(tx *gorm.DB, businessID string) error {
	var agg struct {
		Total   int64
		Average float64
	}
	err := tx.Model(&model.Review{}).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS average").
		Where("business_id = ?", businessID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&model.Business{}).
		Where("id = ?", businessID).
		UpdateColumns(map[string]interface{}{
			"total_reviews":    agg.Total,
			"average_rating":   agg.Average,
			"reputation_score": ReputationScore(agg.Average),
		}).Error
}
