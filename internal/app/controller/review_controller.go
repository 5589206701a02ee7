package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

// GetBusinessReviews lists reviews newest first. Signed-in viewers see which
// ones they marked helpful.
// GET /api/v1/businesses/:id/reviews
func (ctrl *ReviewController) GetBusinessReviews(c *gin.Context) {
	reviews, err := ctrl.reviewService.GetBusinessReviews(c.Param("id"), viewer(c))
	if err != nil {
		respondError(c, err, "load reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetReviewStats GET /api/v1/businesses/:id/reviews/stats
func (ctrl *ReviewController) GetReviewStats(c *gin.Context) {
	stats, err := ctrl.reviewService.GetReviewStats(c.Param("id"))
	if err != nil {
		respondError(c, err, "load review stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateReview POST /api/v1/businesses/:id/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	author, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := ctrl.reviewService.AddBusinessReview(c.Param("id"), author, req)
	if err != nil {
		respondError(c, err, "create review")
		return
	}

	log.Info("Review created", map[string]interface{}{
		"review_id":   review.ID,
		"business_id": review.BusinessID,
		"rating":      review.Rating,
	})
	c.JSON(http.StatusCreated, review)
}

// MarkHelpful toggles the caller's helpful vote
// POST /api/v1/reviews/:id/helpful
func (ctrl *ReviewController) MarkHelpful(c *gin.Context) {
	voter, ok := requireWallet(c)
	if !ok {
		return
	}

	result, err := ctrl.reviewService.MarkReviewHelpful(c.Param("id"), voter)
	if err != nil {
		respondError(c, err, "mark review helpful")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteReview DELETE /api/v1/reviews/:id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	author, ok := requireWallet(c)
	if !ok {
		return
	}

	if err := ctrl.reviewService.DeleteReview(c.Param("id"), author); err != nil {
		respondError(c, err, "delete review")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Review deleted",
	})
}
