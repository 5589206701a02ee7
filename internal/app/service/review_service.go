package service

import (
	"errors"
	"strings"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrNotReviewAuthor = errors.New("only the author can delete this review")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

type ReviewService interface {
	AddBusinessReview(businessID, userAddress string, req model.CreateReviewRequest) (*model.Review, error)
	GetBusinessReviews(businessID, viewer string) ([]model.Review, error)
	MarkReviewHelpful(reviewID, userAddress string) (*model.HelpfulResult, error)
	DeleteReview(reviewID, userAddress string) error
	GetReviewStats(businessID string) (*model.RatingStats, error)
}

type reviewService struct {
	reviewRepo      repository.ReviewRepository
	businessRepo    repository.BusinessRepository
	transactionRepo repository.TransactionRepository
	events          EventPublisher
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	transactionRepo repository.TransactionRepository,
	events EventPublisher,
) ReviewService {
	return &reviewService{
		reviewRepo:      reviewRepo,
		businessRepo:    businessRepo,
		transactionRepo: transactionRepo,
		events:          publisherOrNop(events),
	}
}

func (s *reviewService) AddBusinessReview(businessID, userAddress string, req model.CreateReviewRequest) (*model.Review, error) {
	user := chain.NormalizeAddress(userAddress)
	if user == "" {
		return nil, ErrInvalidAddress
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	exists, err := s.businessRepo.Exists(businessID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBusinessNotFound
	}

	// A review is verified when the wallet has a completed payment to the
	// business on record.
	verified, err := s.transactionRepo.HasCompletedPayment(businessID, user)
	if err != nil {
		return nil, err
	}

	photos := util.UniqueStrings(req.Photos)
	review := &model.Review{
		BusinessID:      businessID,
		UserAddress:     user,
		UserName:        util.ShortAddress(user),
		Rating:          req.Rating,
		Comment:         strings.TrimSpace(req.Comment),
		Photos:          photos,
		TransactionHash: strings.ToLower(req.TransactionHash),
		Verified:        verified,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	logger.Info("Review added", map[string]interface{}{
		"business_id": businessID,
		"review_id":   review.ID,
		"rating":      review.Rating,
		"verified":    verified,
	})
	s.events.Publish(BusinessTopic(businessID), EventReviewAdded, review)
	return review, nil
}

func (s *reviewService) GetBusinessReviews(businessID, viewer string) ([]model.Review, error) {
	reviews, err := s.reviewRepo.FindByBusiness(businessID)
	if err != nil {
		return nil, err
	}

	viewer = chain.NormalizeAddress(viewer)
	if viewer == "" || len(reviews) == 0 {
		return reviews, nil
	}

	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	marked, err := s.reviewRepo.HelpfulReviewIDs(viewer, ids)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].MarkedHelpful = marked[reviews[i].ID]
	}
	return reviews, nil
}

// MarkReviewHelpful toggles the wallet's helpful vote; repeating it undoes the
// vote instead of counting twice.
func (s *reviewService) MarkReviewHelpful(reviewID, userAddress string) (*model.HelpfulResult, error) {
	user := chain.NormalizeAddress(userAddress)
	if user == "" {
		return nil, ErrInvalidAddress
	}
	helpful, count, err := s.reviewRepo.ToggleHelpful(reviewID, user)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &model.HelpfulResult{ReviewID: reviewID, Helpful: helpful, Count: count}, nil
}

func (s *reviewService) DeleteReview(reviewID, userAddress string) error {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if !strings.EqualFold(review.UserAddress, userAddress) {
		logger.Warn("Review delete denied", map[string]interface{}{
			"review_id": reviewID,
			"caller":    userAddress,
		})
		return ErrNotReviewAuthor
	}
	return s.reviewRepo.Delete(review)
}

func (s *reviewService) GetReviewStats(businessID string) (*model.RatingStats, error) {
	return s.reviewRepo.Stats(businessID)
}
