package service

import (
	"context"
	"strings"
	"testing"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessService_AddBusiness(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.businessService()
	ctx := context.Background()

	t.Run("applies category defaults", func(t *testing.T) {
		req := validBusinessRequest("Kopi Corner", model.CategoryFood)
		b, err := svc.AddBusiness(ctx, "0x00000000000000000000000000000000000000AA", req)
		require.NoError(t, err)

		assert.Contains(t, b.ID, "kopi-corner-")
		assert.Equal(t, ownerWallet, b.Owner)
		assert.Equal(t, "Delicious food and great service in a welcoming atmosphere.", b.Description)
		assert.Equal(t, "$$", b.PriceRange)
		assert.Equal(t, "08:00", b.Hours.Data()["monday"].Open)
		assert.Equal(t, "22:00", b.Hours.Data()["sunday"].Close)
		assert.True(t, b.IsActive)
		assert.True(t, b.OnChainRegistered)
		assert.NotEmpty(t, b.RegistrationTxHash)
		assert.Contains(t, env.events.types(), EventBusinessCreated)
	})

	t.Run("explicit id and hours", func(t *testing.T) {
		req := validBusinessRequest("Late Night Arcade", model.CategoryFun)
		req.ID = "late-night-arcade"
		req.OpenTime = "18:00"
		req.CloseTime = "02:00"
		b, err := svc.AddBusiness(ctx, ownerWallet, req)
		require.NoError(t, err)
		assert.Equal(t, "late-night-arcade", b.ID)
		assert.Equal(t, "18:00", b.Hours.Data()["friday"].Open)
		assert.Equal(t, "$$", b.PriceRange)
	})

	t.Run("name length counts characters", func(t *testing.T) {
		req := validBusinessRequest(strings.Repeat("咖", 20), model.CategoryFood)
		req.ID = "kopi-wide"
		b, err := svc.AddBusiness(ctx, ownerWallet, req)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("咖", 20), b.Name)
	})

	tests := []struct {
		name    string
		owner   string
		mutate  func(*model.CreateBusinessRequest)
		wantErr error
	}{
		{
			name:  "two character name",
			owner: ownerWallet,
			mutate: func(r *model.CreateBusinessRequest) {
				r.ID = "kopi-short"
				r.Name = "咖啡"
			},
			wantErr: ErrInvalidBusiness,
		},
		{
			name:    "taken id",
			owner:   ownerWallet,
			mutate:  func(r *model.CreateBusinessRequest) { r.ID = "late-night-arcade" },
			wantErr: ErrBusinessIDTaken,
		},
		{
			name:    "bad owner",
			owner:   "not-a-wallet",
			mutate:  func(r *model.CreateBusinessRequest) {},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "short address",
			owner:   ownerWallet,
			mutate:  func(r *model.CreateBusinessRequest) { r.Address = "Main St" },
			wantErr: ErrInvalidBusiness,
		},
		{
			name:    "unknown category",
			owner:   ownerWallet,
			mutate:  func(r *model.CreateBusinessRequest) { r.Category = "garage" },
			wantErr: ErrInvalidBusiness,
		},
		{
			name:    "bad website",
			owner:   ownerWallet,
			mutate:  func(r *model.CreateBusinessRequest) { r.Website = "ftp://nope" },
			wantErr: ErrInvalidBusiness,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBusinessRequest("Valid Name", model.CategoryShopping)
			tt.mutate(&req)
			b, err := svc.AddBusiness(ctx, tt.owner, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, b)
		})
	}
}

func TestBusinessService_ListBusinesses(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.businessService()

	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)
	env.addBusiness(t, "gadget-hub", "Gadget Hub", model.CategoryShopping)
	env.addBusiness(t, "noodle-bar", "Noodle Bar", model.CategoryFood)

	tests := []struct {
		name      string
		opts      BusinessListOptions
		wantTotal int64
	}{
		{name: "all", opts: BusinessListOptions{Category: "all"}, wantTotal: 3},
		{name: "empty category", opts: BusinessListOptions{}, wantTotal: 3},
		{name: "food only", opts: BusinessListOptions{Category: "food"}, wantTotal: 2},
		{name: "search", opts: BusinessListOptions{Search: "gadget"}, wantTotal: 1},
		{name: "no match", opts: BusinessListOptions{Search: "zzz"}, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ListBusinesses(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Len(t, result.Businesses, int(tt.wantTotal))
			assert.Equal(t, 1, result.Page)
			assert.Equal(t, defaultPageSize, result.PageSize)
		})
	}

	t.Run("paging", func(t *testing.T) {
		result, err := svc.ListBusinesses(BusinessListOptions{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Total)
		assert.Len(t, result.Businesses, 1)
	})
}

func TestBusinessService_ListNearby(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.businessService()
	ctx := context.Background()

	place := func(id string, lat, lng float64) {
		req := validBusinessRequest("Place "+id, model.CategoryServices)
		req.ID = id
		req.Latitude = lat
		req.Longitude = lng
		_, err := svc.AddBusiness(ctx, ownerWallet, req)
		require.NoError(t, err)
	}
	place("near", 1.3483, 103.6831)
	place("mid", 1.3000, 103.8000)
	place("far", 3.1390, 101.6869)
	env.addBusiness(t, "nowhere", "No Coordinates", model.CategoryServices)

	lat, lng := 1.3483, 103.6831
	result, err := svc.ListBusinesses(BusinessListOptions{Latitude: &lat, Longitude: &lng, RadiusKm: 50})
	require.NoError(t, err)
	require.Len(t, result.Businesses, 2)
	assert.Equal(t, "near", result.Businesses[0].ID)
	assert.Equal(t, "mid", result.Businesses[1].ID)
	require.NotNil(t, result.Businesses[1].DistanceKm)
	assert.Greater(t, *result.Businesses[1].DistanceKm, 5.0)
}

func TestBusinessService_OwnerOperations(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.businessService()
	ctx := context.Background()
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)

	t.Run("update by stranger", func(t *testing.T) {
		name := "Hijacked"
		_, err := svc.UpdateBusiness(otherWallet, "cafe-one", model.UpdateBusinessRequest{Name: &name})
		assert.ErrorIs(t, err, ErrNotBusinessOwner)
	})

	t.Run("update by owner", func(t *testing.T) {
		name := "Cafe Uno"
		website := "https://cafe.example.com"
		b, err := svc.UpdateBusiness(ownerWallet, "cafe-one", model.UpdateBusinessRequest{Name: &name, Website: &website})
		require.NoError(t, err)
		assert.Equal(t, "Cafe Uno", b.Name)

		stored, err := svc.GetBusinessByID("cafe-one")
		require.NoError(t, err)
		assert.Equal(t, website, stored.Website)
	})

	t.Run("toggle status", func(t *testing.T) {
		b, err := svc.ToggleBusinessStatus(ctx, ownerWallet, "cafe-one")
		require.NoError(t, err)
		assert.False(t, b.IsActive)

		info, err := env.chain.GetBusinessInfo(ctx, "cafe-one")
		require.NoError(t, err)
		assert.False(t, info.IsActive)
	})

	t.Run("my businesses", func(t *testing.T) {
		mine, err := svc.GetMyBusinesses(ownerWallet)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		none, err := svc.GetMyBusinesses(otherWallet)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteBusiness(otherWallet, "cafe-one"), ErrNotBusinessOwner)
		require.NoError(t, svc.DeleteBusiness(ownerWallet, "cafe-one"))

		_, err := svc.GetBusinessByID("cafe-one")
		assert.ErrorIs(t, err, ErrBusinessNotFound)
	})
}

func TestBusinessService_Badges(t *testing.T) {
	tests := []struct {
		name     string
		business model.Business
		want     []string
	}{
		{name: "none", business: model.Business{}, want: []string{}},
		{name: "verified", business: model.Business{Verified: true}, want: []string{"Base Verified"}},
		{name: "popular", business: model.Business{TotalTransactions: 5}, want: []string{"Popular"}},
		{name: "both", business: model.Business{Verified: true, TotalTransactions: 12}, want: []string{"Base Verified", "Popular"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := []string{}
			for _, b := range GetBusinessBadges(&tt.business) {
				labels = append(labels, b.Label)
			}
			assert.Equal(t, tt.want, labels)
		})
	}
}

func TestBusinessService_GetOnChainInfo(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.businessService()
	ctx := context.Background()
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)

	info, err := svc.GetOnChainInfo(ctx, "cafe-one")
	require.NoError(t, err)
	assert.True(t, info.Registered)
	assert.Equal(t, "mock", info.Mode)
	assert.Equal(t, "0", info.TotalReceivedWei)

	var cached model.OnChainBusiness
	hit, err := env.cache.GetJSON(ctx, onChainCacheKey("cafe-one"), &cached)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = svc.GetOnChainInfo(ctx, "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}
