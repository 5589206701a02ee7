package legacy

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceWallet = "0x00000000000000000000000000000000000000aa"
	bobWallet   = "0x00000000000000000000000000000000000000bb"
)

// Browser storage values are JSON strings, so collections arrive encoded twice.
const storageExport = `{
  "localbase_businesses": "[{\"id\":\"1\",\"name\":\"LocalCafe NTU\",\"description\":\"Best coffee\",\"category\":\"food\",\"address\":\"50 Nanyang Ave, Singapore\",\"latitude\":1.3483,\"longitude\":103.6831,\"owner\":\"0x123...\",\"isActive\":true,\"totalTransactions\":89,\"reputationScore\":98,\"acceptsBasePay\":true,\"hours\":{\"monday\":{\"open\":\"07:00\",\"close\":\"22:00\"}}},{\"name\":\"No Id\"}]",
  "localbase_posts": [
    {"id":"p1","authorAddress":"0x00000000000000000000000000000000000000AA","authorName":"alice","content":"Great #Coffee at @localcafe","timestamp":1700000000000,"likes":3,"comments":0,"tags":["Coffee","coffee"],"businessId":"1"},
    {"id":"p2","authorAddress":"0xbb","content":"Weekend meetup","timestamp":1700000100000,"likes":0,"comments":0}
  ],
  "localbase_reviews": "[{\"id\":\"r1\",\"businessId\":\"1\",\"userAddress\":\"0x00000000000000000000000000000000000000bb\",\"rating\":4,\"comment\":\"Nice\",\"timestamp\":1700000200000,\"verified\":false,\"helpful\":2},{\"id\":\"r2\",\"businessId\":\"missing\",\"rating\":5},{\"id\":\"r3\",\"businessId\":\"1\",\"rating\":9}]",
  "likes_p1": "{\"count\":5,\"users\":[\"0x00000000000000000000000000000000000000bb\"],\"lastUpdated\":1700000300000}",
  "likes_p2": "7",
  "comments_p1": "[{\"id\":\"c1\",\"author\":\"0xbbbb...bbbb\",\"content\":\"Agreed!\",\"timestamp\":1700000400000},{\"id\":\"c2\",\"content\":\"  \"}]",
  "user_likes_0x00000000000000000000000000000000000000aa": "[\"p1\",\"p2\",\"ghost\"]",
  "used_rewards_0x00000000000000000000000000000000000000bb": "{\"1\":1700000500000,\"x\":1}",
  "localbase-recent-searches": "[\"coffee\"]"
}`

func TestParse(t *testing.T) {
	dump := Parse([]byte(storageExport))
	assert.Empty(t, dump.Warnings)

	require.Len(t, dump.Businesses, 1)
	cafe := dump.Businesses[0]
	assert.Equal(t, "1", cafe.ID)
	assert.Equal(t, "0x123...", cafe.Owner)
	assert.Equal(t, int64(89), cafe.TotalTransactions)
	assert.Equal(t, "07:00", cafe.Hours.Data()["monday"].Open)
	assert.Equal(t, "09:00", cafe.Hours.Data()["sunday"].Open)

	require.Len(t, dump.Posts, 2)
	assert.Equal(t, aliceWallet, dump.Posts[0].AuthorAddress)
	assert.Equal(t, []string{"coffee"}, dump.Posts[0].Tags)
	assert.Equal(t, time.UnixMilli(1700000000000), dump.Posts[0].CreatedAt)
	require.NotNil(t, dump.Posts[0].BusinessID)

	require.Len(t, dump.Reviews, 2, "out-of-range rating is dropped")
	assert.Equal(t, "0x0000...00bb", dump.Reviews[0].UserName)

	assert.Equal(t, int64(5), dump.LikeCounts["p1"], "object like format")
	assert.Equal(t, int64(7), dump.LikeCounts["p2"], "bare number like format")
	assert.Len(t, dump.Likes, 4, "bob on p1 plus alice on p1, p2 and ghost")

	require.Len(t, dump.Comments, 1)
	assert.Equal(t, "0xbbbb...bbbb", dump.Comments[0].AuthorName)
	assert.Empty(t, dump.Comments[0].AuthorAddress)

	require.Len(t, dump.UsedRewards, 1)
	assert.Equal(t, uint64(1), dump.UsedRewards[0].TokenID)
	assert.Equal(t, bobWallet, dump.UsedRewards[0].Address)
}

func TestParse_CorruptCollectionsDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		warnings int
	}{
		{name: "not json", input: `{"localbase_businesses": [`, warnings: 1},
		{name: "not an object", input: `[1,2,3]`, warnings: 1},
		{name: "corrupt business string", input: `{"localbase_businesses": "[{oops"}`, warnings: 1},
		{name: "posts not an array", input: `{"localbase_posts": {"id":"p1"}}`, warnings: 1},
		{name: "bad like value", input: `{"likes_p1": "[1]"}`, warnings: 1},
		{name: "comments not an array", input: `{"comments_p1": 4}`, warnings: 1},
		{name: "empty export", input: `{}`, warnings: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dump := Parse([]byte(tt.input))
			assert.Len(t, dump.Warnings, tt.warnings)
			assert.Empty(t, dump.Businesses)
			assert.Empty(t, dump.Posts)
			assert.Empty(t, dump.Comments)
		})
	}
}

func TestImporter_Import(t *testing.T) {
	database, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(database)

	reward := model.LoyaltyReward{
		BusinessID:         "1",
		TokenID:            1,
		HolderAddress:      bobWallet,
		Tier:               model.TierGold,
		DiscountPercentage: 10,
		IsActive:           true,
		Benefits:           []string{"Free refill"},
	}

	importer := NewImporter(database)
	report, err := importer.Import(Parse([]byte(storageExport)))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Businesses)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 1, report.Reviews)
	assert.Equal(t, 1, report.Comments)
	assert.Equal(t, 3, report.Likes, "likes on unknown posts are skipped")
	assert.Zero(t, report.Redemptions, "no reward exists yet")

	var cafe model.Business
	require.NoError(t, database.First(&cafe, "id = ?", "1").Error)
	assert.Equal(t, int64(1), cafe.TotalReviews)
	assert.Equal(t, 4.0, cafe.AverageRating)
	assert.Equal(t, 80, cafe.ReputationScore)

	var p1 model.CommunityPost
	require.NoError(t, database.First(&p1, "id = ?", "p1").Error)
	assert.Equal(t, int64(5), p1.Likes)
	assert.Equal(t, int64(1), p1.Comments)

	// Reward usage applies once the reward exists.
	require.NoError(t, database.Create(&reward).Error)
	report, err = importer.Import(Parse([]byte(storageExport)))
	require.NoError(t, err)
	assert.Zero(t, report.Businesses)
	assert.Zero(t, report.Posts)
	assert.Zero(t, report.Reviews)
	assert.Zero(t, report.Comments)
	assert.Zero(t, report.Likes)
	assert.Equal(t, 1, report.Redemptions)

	require.NoError(t, database.First(&reward, "id = ?", reward.ID).Error)
	require.NotNil(t, reward.LastUsedAt)
	assert.True(t, reward.LastUsedAt.Equal(time.UnixMilli(1700000500000)))

	report, err = importer.Import(Parse([]byte(storageExport)))
	require.NoError(t, err)
	assert.Zero(t, report.Redemptions)
}

func TestExists(t *testing.T) {
	database, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(database)

	type unmigrated struct{ ID string }

	tests := []struct {
		name    string
		table   interface{}
		want    bool
		wantErr bool
	}{
		{name: "missing row", table: &model.Business{}},
		{name: "missing table", table: &unmigrated{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := exists(database, tt.table, "1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, found)
		})
	}
}
