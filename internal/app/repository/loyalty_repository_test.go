package repository

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoyaltyRepository_IssueAndRedeem(t *testing.T) {
	testDB := setupTestDB(t)
	businesses := NewBusinessRepository(testDB)
	repo := NewLoyaltyRepository(testDB)
	createBusiness(t, businesses, "cafe", "Sunrise Cafe", model.CategoryFood, time.Now())

	next, err := repo.NextTokenID("cafe")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	reward := &model.LoyaltyReward{
		BusinessID:         "cafe",
		TokenID:            next,
		HolderAddress:      userB,
		Tier:               model.TierGold,
		DiscountPercentage: 15,
		IsActive:           true,
		Benefits:           []string{"free refill", "priority seating"},
	}
	require.NoError(t, repo.Create(reward))

	next, err = repo.NextTokenID("cafe")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)

	dup := *reward
	dup.ID = ""
	assert.Error(t, repo.Create(&dup), "token ids are unique per business")

	held, err := repo.FindByHolder(userB)
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.NotNil(t, held[0].Business)
	assert.Equal(t, "Sunrise Cafe", held[0].Business.Name)
	assert.Equal(t, []string{"free refill", "priority seating"}, held[0].Benefits)

	usedAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	cutoff := usedAt.Add(-24 * time.Hour)
	require.NoError(t, repo.Redeem(reward, &model.RewardRedemption{RewardID: reward.ID, HolderAddress: userB, SavingsWei: "0"}, usedAt, cutoff))
	require.NotNil(t, reward.LastUsedAt)
	assert.True(t, reward.LastUsedAt.Equal(usedAt))

	stored, err := repo.FindByID(reward.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)
	assert.True(t, stored.LastUsedAt.Equal(usedAt), "the caller's clock is stored")

	err = repo.Redeem(reward, &model.RewardRedemption{RewardID: reward.ID, HolderAddress: userB, SavingsWei: "0"}, usedAt, cutoff)
	assert.ErrorIs(t, err, ErrRewardCoolingDown)

	redemptions, err := repo.Redemptions(userB)
	require.NoError(t, err)
	assert.Len(t, redemptions, 1)

	t.Run("cutoff after last use allows redemption", func(t *testing.T) {
		later := usedAt.Add(25 * time.Hour)
		require.NoError(t, repo.Redeem(reward, &model.RewardRedemption{RewardID: reward.ID, HolderAddress: userB, SavingsWei: "0"}, later, usedAt.Add(time.Second)))
	})
}
