package repository

import (
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

type CommunityRepository interface {
	CreatePost(post *model.CommunityPost) error
	FindPostByID(id string) (*model.CommunityPost, error)
	ListPosts() ([]model.CommunityPost, error)
	ToggleLike(postID, userAddress string) (*model.LikeResult, error)
	LikedPostIDs(userAddress string) ([]string, error)
	CreateComment(comment *model.PostComment) error
	ListComments(postID string) ([]model.PostComment, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) CreatePost(post *model.CommunityPost) error {
	logger.Debug("Creating community post", map[string]interface{}{
		"author": post.AuthorAddress,
		"tags":   post.Tags,
	})
	if err := r.db.Create(post).Error; err != nil {
		logger.Error("Failed to create community post", err, map[string]interface{}{
			"author": post.AuthorAddress,
		})
		return err
	}
	return nil
}

func (r *communityRepository) FindPostByID(id string) (*model.CommunityPost, error) {
	var post model.CommunityPost
	if err := r.db.First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns every post, newest first. Tab filtering happens in the
// service because it inspects tags and content.
func (r *communityRepository) ListPosts() ([]model.CommunityPost, error) {
	posts := []model.CommunityPost{}
	if err := r.db.Order("created_at DESC").Find(&posts).Error; err != nil {
		logger.Error("Failed to list community posts", err)
		return nil, err
	}
	return posts, nil
}

// ToggleLike adds or removes the wallet's like and moves the counter by one in
// the same transaction.
func (r *communityRepository) ToggleLike(postID, userAddress string) (*model.LikeResult, error) {
	result := &model.LikeResult{PostID: postID}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var post model.CommunityPost
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_address = ?", postID, userAddress).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		expr := gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")
		if res.RowsAffected == 0 {
			like := model.PostLike{PostID: postID, UserAddress: userAddress}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			expr = gorm.Expr("likes + ?", 1)
			result.Liked = true
		}

		if err := tx.Model(&model.CommunityPost{}).
			Where("id = ?", postID).
			UpdateColumn("likes", expr).Error; err != nil {
			return err
		}
		return tx.Model(&model.CommunityPost{}).Select("likes").Where("id = ?", postID).Scan(&result.Likes).Error
	})
	if err != nil {
		logger.Error("Failed to toggle post like", err, map[string]interface{}{
			"post_id": postID,
			"user":    userAddress,
		})
		return nil, err
	}
	return result, nil
}

func (r *communityRepository) LikedPostIDs(userAddress string) ([]string, error) {
	ids := []string{}
	err := r.db.Model(&model.PostLike{}).
		Where("user_address = ?", userAddress).
		Order("created_at DESC").
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *communityRepository) CreateComment(comment *model.PostComment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.CommunityPost{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&model.CommunityPost{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments", gorm.Expr("comments + ?", 1)).
			Error
	})
}

func (r *communityRepository) ListComments(postID string) ([]model.PostComment, error) {
	comments := []model.PostComment{}
	err := r.db.Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
