package service

import (
	"strings"
	"testing"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_AddBusinessReview(t *testing.T) {
	env := setupTestEnv(t)
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)
	svc := NewReviewService(env.reviews, env.business, env.txns, env.events)

	require.NoError(t, env.txns.Create(&model.Transaction{
		BusinessID:      "cafe-one",
		UserAddress:     buyerWallet,
		Type:            model.TransactionPayment,
		AmountWei:       "1000",
		TransactionHash: "0x" + strings.Repeat("a", 64),
		Status:          model.TransactionCompleted,
	}))

	verified, err := svc.AddBusinessReview("cafe-one", buyerWallet, model.CreateReviewRequest{Rating: 5, Comment: " Great coffee "})
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, "0x0000...00bb", verified.UserName)
	assert.Equal(t, "Great coffee", verified.Comment)

	unverified, err := svc.AddBusinessReview("cafe-one", otherWallet, model.CreateReviewRequest{Rating: 2})
	require.NoError(t, err)
	assert.False(t, unverified.Verified)

	business, err := env.business.FindByID("cafe-one")
	require.NoError(t, err)
	assert.Equal(t, int64(2), business.TotalReviews)
	assert.InDelta(t, 3.5, business.AverageRating, 0.001)
	assert.Contains(t, env.events.types(), EventReviewAdded)

	tests := []struct {
		name       string
		businessID string
		user       string
		rating     int
		wantErr    error
	}{
		{name: "unknown business", businessID: "missing", user: buyerWallet, rating: 4, wantErr: ErrBusinessNotFound},
		{name: "rating too high", businessID: "cafe-one", user: buyerWallet, rating: 6, wantErr: ErrInvalidRating},
		{name: "rating zero", businessID: "cafe-one", user: buyerWallet, rating: 0, wantErr: ErrInvalidRating},
		{name: "bad wallet", businessID: "cafe-one", user: "nope", rating: 4, wantErr: ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBusinessReview(tt.businessID, tt.user, model.CreateReviewRequest{Rating: tt.rating})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReviewService_MarkReviewHelpful(t *testing.T) {
	env := setupTestEnv(t)
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)
	svc := NewReviewService(env.reviews, env.business, env.txns, nil)

	review, err := svc.AddBusinessReview("cafe-one", buyerWallet, model.CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	first, err := svc.MarkReviewHelpful(review.ID, otherWallet)
	require.NoError(t, err)
	assert.True(t, first.Helpful)
	assert.Equal(t, int64(1), first.Count)

	reviews, err := svc.GetBusinessReviews("cafe-one", otherWallet)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.True(t, reviews[0].MarkedHelpful)

	second, err := svc.MarkReviewHelpful(review.ID, otherWallet)
	require.NoError(t, err)
	assert.False(t, second.Helpful)
	assert.Equal(t, int64(0), second.Count)

	_, err = svc.MarkReviewHelpful("missing", otherWallet)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_DeleteReview(t *testing.T) {
	env := setupTestEnv(t)
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)
	svc := NewReviewService(env.reviews, env.business, env.txns, nil)

	review, err := svc.AddBusinessReview("cafe-one", buyerWallet, model.CreateReviewRequest{Rating: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteReview(review.ID, otherWallet), ErrNotReviewAuthor)
	require.NoError(t, svc.DeleteReview(review.ID, buyerWallet))
	assert.ErrorIs(t, svc.DeleteReview(review.ID, buyerWallet), ErrReviewNotFound)

	stats, err := svc.GetReviewStats("cafe-one")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalReviews)
}
