package db

import (
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Business{},
		&model.Review{},
		&model.ReviewHelpfulVote{},
		&model.CommunityPost{},
		&model.PostLike{},
		&model.PostComment{},
		&model.Transaction{},
		&model.LoyaltyReward{},
		&model.RewardRedemption{},
	}
}

// Migrate runs database migrations and seeds the default directory when empty.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedDefaults(DB); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedDefaults inserts the default businesses and posts into empty tables.
// Tables that already hold rows are left alone.
func SeedDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Business{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		businesses := DefaultBusinesses()
		if err := db.Create(&businesses).Error; err != nil {
			logger.Error("Failed to seed businesses", err)
			return err
		}
		logger.Info("Default businesses seeded", map[string]interface{}{
			"count": len(businesses),
		})
	} else {
		logger.Debug("Businesses already seeded, skipping", map[string]interface{}{
			"existing_count": count,
		})
	}

	if err := db.Model(&model.CommunityPost{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		posts := DefaultPosts()
		if err := db.Create(&posts).Error; err != nil {
			logger.Error("Failed to seed posts", err)
			return err
		}
		logger.Info("Default posts seeded", map[string]interface{}{
			"count": len(posts),
		})
	} else {
		logger.Debug("Posts already seeded, skipping", map[string]interface{}{
			"existing_count": count,
		})
	}
	return nil
}
