package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/service"
	apperrors "github.com/localbase/localbase-backend/internal/errors"
	"github.com/localbase/localbase-backend/internal/middleware"
	"github.com/localbase/localbase-backend/internal/storage"
)

type serviceMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceMappings = []serviceMapping{
	{service.ErrBusinessNotFound, http.StatusNotFound, apperrors.BusinessNotFound, "Business not found"},
	{service.ErrNotBusinessOwner, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Only the business owner can do this"},
	{service.ErrBusinessIDTaken, http.StatusConflict, apperrors.BusinessAlreadyExists, "This business ID is already taken. Please choose a different ID."},
	{service.ErrInvalidBusiness, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Please check the business details"},
	{service.ErrInvalidAddress, http.StatusBadRequest, apperrors.ValidationInvalidAddress, "Invalid wallet address"},
	{service.ErrInvalidPeriod, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Period must be day, week, month or year"},

	{service.ErrReviewNotFound, http.StatusNotFound, apperrors.ReviewNotFound, "Review not found"},
	{service.ErrNotReviewAuthor, http.StatusForbidden, apperrors.AuthzAuthorOnly, "Only the author can delete this review"},
	{service.ErrInvalidRating, http.StatusBadRequest, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5"},

	{service.ErrPostNotFound, http.StatusNotFound, apperrors.PostNotFound, "Post not found"},
	{service.ErrEmptyPost, http.StatusBadRequest, apperrors.ValidationRequired, "Post content cannot be empty"},
	{service.ErrInvalidTab, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Tab must be feed, trending or local"},

	{service.ErrTransactionNotFound, http.StatusNotFound, apperrors.PaymentNotFound, "Transaction not found"},
	{service.ErrDuplicatePayment, http.StatusConflict, apperrors.PaymentDuplicate, "This transaction has already been recorded"},
	{service.ErrInvalidTxHash, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid transaction hash"},
	{service.ErrPaymentsDisabled, http.StatusConflict, apperrors.BusinessInactive, "This business does not accept Base payments"},

	{service.ErrRewardNotFound, http.StatusNotFound, apperrors.RewardNotFound, "Reward not found"},
	{service.ErrRewardInactive, http.StatusConflict, apperrors.RewardInactive, "This reward is no longer active"},
	{service.ErrRewardCoolingDown, http.StatusConflict, apperrors.RewardCooldown, "This reward was used recently. Please try again later"},
	{service.ErrNotRewardHolder, http.StatusForbidden, apperrors.RewardNotHolder, "Only the reward holder can use it"},
	{service.ErrInvalidDiscount, http.StatusBadRequest, apperrors.ValidationInvalidRange, "Discount must be between 1 and 100 percent"},

	{service.ErrNonceNotFound, http.StatusUnauthorized, apperrors.AuthNonceInvalid, "Login request expired. Please sign in again"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthSignatureInvalid, "Signature does not match the wallet"},

	{storage.ErrContentType, http.StatusBadRequest, apperrors.UploadInvalidFileType, "Only JPEG, PNG, GIF and WebP images are allowed"},
	{storage.ErrFolder, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Unknown upload folder"},
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.ValidationInvalidRange, "Images must be 5MB or smaller"},
}

// respondError writes the client-facing error for err and logs server faults.
func respondError(c *gin.Context, err error, context string) {
	for _, m := range serviceMappings {
		if errors.Is(err, m.target) {
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	info := apperrors.ParseError(err, context)
	if info.Status >= http.StatusInternalServerError {
		middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
			"operation": context,
		})
	}
	apperrors.RespondWithError(c, info.Status, info.Code, info.Message)
}

// respondBindError reports request binding failures with per-field detail.
func respondBindError(c *gin.Context, err error) {
	if fields := apperrors.ValidationFields(err); fields != nil {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
}

// requireWallet returns the signed-in wallet or writes a 401.
func requireWallet(c *gin.Context) (string, bool) {
	address, ok := middleware.GetWalletAddress(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return address, true
}

// viewer returns the signed-in wallet, or "" for guests.
func viewer(c *gin.Context) string {
	address, _ := middleware.GetWalletAddress(c)
	return address
}
