package repository

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ownerA = "0x00000000000000000000000000000000000000aa"
	userB  = "0x00000000000000000000000000000000000000bb"
	userC  = "0x00000000000000000000000000000000000000cc"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func newBusiness(id, name string, category model.Category) *model.Business {
	return &model.Business{
		ID:               id,
		Owner:            ownerA,
		Name:             name,
		Description:      name + " description",
		Category:         category,
		Address:          "1 Test Street, Singapore",
		IsActive:         true,
		AcceptsBasePay:   true,
		Hours:            datatypes.NewJSONType(model.UniformHours("09:00", "18:00")),
		SocialLinks:      datatypes.NewJSONType(model.SocialLinks{}),
		TotalReceivedWei: "0",
	}
}

func createBusiness(t *testing.T, repo BusinessRepository, id, name string, category model.Category, createdAt time.Time) *model.Business {
	t.Helper()
	b := newBusiness(id, name, category)
	b.CreatedAt = createdAt
	require.NoError(t, repo.Create(b))
	return b
}
