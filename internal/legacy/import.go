package legacy

import (
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Report counts the rows an import actually inserted.
type Report struct {
	Businesses  int      `json:"businesses"`
	Posts       int      `json:"posts"`
	Reviews     int      `json:"reviews"`
	Comments    int      `json:"comments"`
	Likes       int      `json:"likes"`
	Redemptions int      `json:"redemptions"`
	Warnings    []string `json:"warnings,omitempty"`
}

type Importer struct {
	db *gorm.DB
}

func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// Import writes a parsed dump in one transaction. Rows whose id already
// exists are kept as stored, so importing the same dump twice is a no-op.
func (i *Importer) Import(dump *Dump) (*Report, error) {
	report := &Report{Warnings: dump.Warnings}

	err := i.db.Transaction(func(tx *gorm.DB) error {
		for idx := range dump.Businesses {
			res := insertNew(tx, &dump.Businesses[idx])
			if res.Error != nil {
				return res.Error
			}
			report.Businesses += int(res.RowsAffected)
		}

		commentCounts := make(map[string]int64)
		for _, c := range dump.Comments {
			commentCounts[c.PostID]++
		}
		for idx := range dump.Posts {
			post := &dump.Posts[idx]
			if count, ok := dump.LikeCounts[post.ID]; ok {
				post.Likes = count
			}
			if n := commentCounts[post.ID]; n > post.Comments {
				post.Comments = n
			}
			res := insertNew(tx, post)
			if res.Error != nil {
				return res.Error
			}
			report.Posts += int(res.RowsAffected)
		}

		touched := make(map[string]bool)
		for idx := range dump.Reviews {
			review := &dump.Reviews[idx]
			found, err := exists(tx, &model.Business{}, review.BusinessID)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			res := insertNew(tx, review)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				report.Reviews++
				touched[review.BusinessID] = true
			}
		}
		reviews := repository.NewReviewRepository(tx)
		for businessID := range touched {
			if err := reviews.RefreshAggregates(businessID); err != nil {
				return err
			}
		}

		for idx := range dump.Comments {
			comment := &dump.Comments[idx]
			found, err := exists(tx, &model.CommunityPost{}, comment.PostID)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			var dup int64
			err = tx.Model(&model.PostComment{}).
				Where("post_id = ? AND author_name = ? AND content = ? AND created_at = ?",
					comment.PostID, comment.AuthorName, comment.Content, comment.CreatedAt).
				Count(&dup).Error
			if err != nil {
				return err
			}
			if dup > 0 {
				continue
			}
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
			report.Comments++
		}

		for idx := range dump.Likes {
			like := &dump.Likes[idx]
			found, err := exists(tx, &model.CommunityPost{}, like.PostID)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			res := insertNew(tx, like)
			if res.Error != nil {
				return res.Error
			}
			report.Likes += int(res.RowsAffected)
		}

		for _, used := range dump.UsedRewards {
			var rewards []model.LoyaltyReward
			err := tx.Where("holder_address = ? AND token_id = ?", used.Address, used.TokenID).
				Find(&rewards).Error
			if err != nil {
				return err
			}
			for _, reward := range rewards {
				if reward.LastUsedAt != nil && !used.UsedAt.After(*reward.LastUsedAt) {
					continue
				}
				usedAt := used.UsedAt
				if err := tx.Model(&reward).Update("last_used_at", &usedAt).Error; err != nil {
					return err
				}
				redemption := model.RewardRedemption{
					CreatedAt:         usedAt,
					RewardID:          reward.ID,
					HolderAddress:     used.Address,
					PurchaseAmountWei: "0",
					SavingsWei:        "0",
				}
				if err := tx.Create(&redemption).Error; err != nil {
					return err
				}
				report.Redemptions++
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Legacy import failed", err)
		return nil, err
	}

	logger.Info("Legacy import completed", map[string]interface{}{
		"businesses":  report.Businesses,
		"posts":       report.Posts,
		"reviews":     report.Reviews,
		"comments":    report.Comments,
		"likes":       report.Likes,
		"redemptions": report.Redemptions,
		"warnings":    len(report.Warnings),
	})
	return report, nil
}

func insertNew(tx *gorm.DB, value interface{}) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value)
}

func exists(tx *gorm.DB, table interface{}, id string) (bool, error) {
	var count int64
	if err := tx.Model(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
