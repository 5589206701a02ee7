package repository

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBusinessRepository_CreateAndFind(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewBusinessRepository(testDB)

	b := newBusiness("corner-bakery-x1y2", "Corner Bakery", model.CategoryFood)
	b.Photos = []string{"https://example.com/a.jpg"}
	require.NoError(t, repo.Create(b))

	found, err := repo.FindByID("corner-bakery-x1y2")
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", found.Name)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, found.Photos)
	assert.Equal(t, "09:00", found.Hours.Data()["monday"].Open)
	assert.True(t, found.IsActive)

	t.Run("duplicate id", func(t *testing.T) {
		assert.Error(t, repo.Create(newBusiness("corner-bakery-x1y2", "Other", model.CategoryFood)))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.FindByID("nope")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestBusinessRepository_FindAll(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewBusinessRepository(testDB)

	base := time.Now().Add(-time.Hour)
	createBusiness(t, repo, "cafe", "Sunrise Cafe", model.CategoryFood, base)
	createBusiness(t, repo, "gym", "Iron Gym", model.CategoryHealth, base.Add(time.Minute))
	createBusiness(t, repo, "books", "Page Turner Books", model.CategoryShopping, base.Add(2*time.Minute))
	other := newBusiness("noodles", "Noodle Bar", model.CategoryFood)
	other.Owner = userB
	other.Description = "hand-pulled NOODLES and coffee"
	other.CreatedAt = base.Add(3 * time.Minute)
	require.NoError(t, repo.Create(other))

	tests := []struct {
		name    string
		filter  BusinessFilter
		wantIDs []string
		total   int64
	}{
		{"all newest first", BusinessFilter{}, []string{"noodles", "books", "gym", "cafe"}, 4},
		{"category exact", BusinessFilter{Category: "food"}, []string{"noodles", "cafe"}, 2},
		{"category no partial match", BusinessFilter{Category: "foo"}, []string{}, 0},
		{"search name case-insensitive", BusinessFilter{Search: "IRON"}, []string{"gym"}, 1},
		{"search description", BusinessFilter{Search: "coffee"}, []string{"noodles"}, 1},
		{"search percent is literal", BusinessFilter{Search: "%"}, []string{}, 0},
		{"search underscore is literal", BusinessFilter{Search: "_"}, []string{}, 0},
		{"search underscore inside word", BusinessFilter{Search: "s_n"}, []string{}, 0},
		{"search backslash is literal", BusinessFilter{Search: `\`}, []string{}, 0},
		{"owner", BusinessFilter{Owner: userB}, []string{"noodles"}, 1},
		{"paged", BusinessFilter{Offset: 1, Limit: 2}, []string{"books", "gym"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.FindAll(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			ids := make([]string, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestBusinessRepository_DeleteRemovesReviews(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewBusinessRepository(testDB)
	reviews := NewReviewRepository(testDB)

	createBusiness(t, repo, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())
	createBusiness(t, repo, "gym", "Iron Gym", model.CategoryHealth, time.Now())

	r1 := &model.Review{BusinessID: "cafe", UserAddress: userB, Rating: 5}
	r2 := &model.Review{BusinessID: "gym", UserAddress: userB, Rating: 4}
	require.NoError(t, reviews.Create(r1))
	require.NoError(t, reviews.Create(r2))
	_, _, err := reviews.ToggleHelpful(r1.ID, userC)
	require.NoError(t, err)

	require.NoError(t, repo.Delete("cafe"))

	_, err = repo.FindByID("cafe")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	left, err := reviews.FindByBusiness("cafe")
	require.NoError(t, err)
	assert.Empty(t, left)

	var votes int64
	require.NoError(t, testDB.Model(&model.ReviewHelpfulVote{}).Count(&votes).Error)
	assert.Zero(t, votes)

	kept, err := reviews.FindByBusiness("gym")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, repo.Delete("cafe"), gorm.ErrRecordNotFound)
}

func TestBusinessRepository_Counters(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewBusinessRepository(testDB)
	createBusiness(t, repo, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	require.NoError(t, repo.IncrementTransactions("cafe"))
	require.NoError(t, repo.IncrementTransactions("cafe"))
	assert.ErrorIs(t, repo.IncrementTransactions("missing"), gorm.ErrRecordNotFound)

	b, err := repo.FindByID("cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.TotalTransactions)

	require.NoError(t, repo.SetActive("cafe", false))
	require.NoError(t, repo.MarkRegistered("cafe", "0xabc"))
	b, err = repo.FindByID("cafe")
	require.NoError(t, err)
	assert.False(t, b.IsActive)
	assert.True(t, b.OnChainRegistered)
	assert.Equal(t, "0xabc", b.RegistrationTxHash)
}

func TestBusinessRepository_ApplyChainSnapshot(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewBusinessRepository(testDB)
	createBusiness(t, repo, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	active := false
	now := time.Now()
	require.NoError(t, repo.ApplyChainSnapshot("cafe", ChainSnapshot{
		Registered:       true,
		IsActive:         &active,
		TotalReceivedWei: "1500000000000000000",
		TransactionCount: 7,
		SyncedAt:         now,
	}))

	b, err := repo.FindByID("cafe")
	require.NoError(t, err)
	assert.True(t, b.OnChainRegistered)
	assert.False(t, b.IsActive)
	assert.Equal(t, "1500000000000000000", b.TotalReceivedWei)
	assert.Equal(t, int64(7), b.OnChainTxCount)
	assert.Equal(t, int64(7), b.TotalTransactions)
	require.NotNil(t, b.LastSyncedAt)

	t.Run("unregistered leaves counters", func(t *testing.T) {
		require.NoError(t, repo.IncrementTransactions("cafe"))
		require.NoError(t, repo.ApplyChainSnapshot("cafe", ChainSnapshot{SyncedAt: time.Now()}))
		b, err := repo.FindByID("cafe")
		require.NoError(t, err)
		assert.False(t, b.OnChainRegistered)
		assert.Equal(t, int64(8), b.TotalTransactions)
	})
}
