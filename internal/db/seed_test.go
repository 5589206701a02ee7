package db

import (
	"testing"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaults(t *testing.T) {
	gdb, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(gdb)

	require.NoError(t, SeedDefaults(gdb))

	var businesses []model.Business
	require.NoError(t, gdb.Find(&businesses).Error)
	assert.Len(t, businesses, 4)
	for _, b := range businesses {
		assert.True(t, b.IsActive, b.ID)
		assert.True(t, b.Category.Valid(), b.ID)
		assert.Len(t, b.Hours.Data(), 7, b.ID)
	}

	var posts int64
	require.NoError(t, gdb.Model(&model.CommunityPost{}).Count(&posts).Error)
	assert.Equal(t, int64(6), posts)

	t.Run("second run leaves tables alone", func(t *testing.T) {
		require.NoError(t, SeedDefaults(gdb))

		var count int64
		require.NoError(t, gdb.Model(&model.Business{}).Count(&count).Error)
		assert.Equal(t, int64(4), count)
	})

	t.Run("seeds posts even when businesses exist", func(t *testing.T) {
		require.NoError(t, gdb.Exec("DELETE FROM community_posts").Error)
		require.NoError(t, SeedDefaults(gdb))

		var count int64
		require.NoError(t, gdb.Model(&model.CommunityPost{}).Count(&count).Error)
		assert.Equal(t, int64(6), count)
	})
}
