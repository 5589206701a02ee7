package repository

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_AggregatesFollowReviews(t *testing.T) {
	testDB := setupTestDB(t)
	businesses := NewBusinessRepository(testDB)
	repo := NewReviewRepository(testDB)
	createBusiness(t, businesses, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	ratings := []int{5, 4, 4, 2}
	created := make([]*model.Review, 0, len(ratings))
	for _, rating := range ratings {
		r := &model.Review{BusinessID: "cafe", UserAddress: userB, Rating: rating, Comment: "ok"}
		require.NoError(t, repo.Create(r))
		assert.NotEmpty(t, r.ID)
		created = append(created, r)
	}

	b, err := businesses.FindByID("cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.TotalReviews)
	assert.InDelta(t, 3.75, b.AverageRating, 1e-9)
	assert.Equal(t, 75, b.ReputationScore)

	stats, err := repo.Stats("cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalReviews)
	assert.InDelta(t, 3.75, stats.AverageRating, 1e-9)
	assert.Equal(t, map[int]int64{1: 0, 2: 1, 3: 0, 4: 2, 5: 1}, stats.RatingDistribution)

	t.Run("delete recomputes", func(t *testing.T) {
		require.NoError(t, repo.Delete(created[3]))
		b, err := businesses.FindByID("cafe")
		require.NoError(t, err)
		assert.Equal(t, int64(3), b.TotalReviews)
		assert.InDelta(t, 13.0/3.0, b.AverageRating, 1e-9)
		assert.Equal(t, 87, b.ReputationScore)
	})

	t.Run("no reviews is zero", func(t *testing.T) {
		for _, r := range created[:3] {
			require.NoError(t, repo.Delete(r))
		}
		b, err := businesses.FindByID("cafe")
		require.NoError(t, err)
		assert.Zero(t, b.TotalReviews)
		assert.Zero(t, b.AverageRating)
		assert.Zero(t, b.ReputationScore)
	})
}

func TestReviewRepository_FindByBusinessNewestFirst(t *testing.T) {
	testDB := setupTestDB(t)
	businesses := NewBusinessRepository(testDB)
	repo := NewReviewRepository(testDB)
	createBusiness(t, businesses, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	old := &model.Review{BusinessID: "cafe", UserAddress: userB, Rating: 3, CreatedAt: time.Now().Add(-time.Hour)}
	recent := &model.Review{BusinessID: "cafe", UserAddress: userC, Rating: 5}
	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Create(recent))

	got, err := repo.FindByBusiness("cafe")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recent.ID, got[0].ID)
	assert.Equal(t, old.ID, got[1].ID)

	none, err := repo.FindByBusiness("missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReviewRepository_ToggleHelpful(t *testing.T) {
	testDB := setupTestDB(t)
	businesses := NewBusinessRepository(testDB)
	repo := NewReviewRepository(testDB)
	createBusiness(t, businesses, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	r := &model.Review{BusinessID: "cafe", UserAddress: userB, Rating: 4}
	require.NoError(t, repo.Create(r))

	steps := []struct {
		user        string
		wantHelpful bool
		wantCount   int64
	}{
		{userC, true, 1},
		{ownerA, true, 2},
		{userC, false, 1},
		{userC, true, 2},
		{ownerA, false, 1},
	}
	for _, step := range steps {
		helpful, count, err := repo.ToggleHelpful(r.ID, step.user)
		require.NoError(t, err)
		assert.Equal(t, step.wantHelpful, helpful)
		assert.Equal(t, step.wantCount, count)
	}

	marked, err := repo.HelpfulReviewIDs(userC, []string{r.ID})
	require.NoError(t, err)
	assert.True(t, marked[r.ID])

	marked, err = repo.HelpfulReviewIDs(ownerA, []string{r.ID})
	require.NoError(t, err)
	assert.False(t, marked[r.ID])

	_, _, err = repo.ToggleHelpful("missing", userC)
	assert.Error(t, err)
}

func TestReputationScore(t *testing.T) {
	tests := []struct {
		avg  float64
		want int
	}{
		{0, 0},
		{5, 100},
		{4.9, 98},
		{3.75, 75},
		{4.33, 87},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReputationScore(tt.avg))
	}
}
