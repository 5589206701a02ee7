package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedTab selects a community feed view.
type FeedTab string

const (
	FeedTabFeed     FeedTab = "feed"
	FeedTabTrending FeedTab = "trending"
	FeedTabLocal    FeedTab = "local"
)

// CommunityPost is a social post; Likes and Comments are maintained in the
// same transaction as the PostLike and PostComment rows.
type CommunityPost struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorAddress string   `gorm:"type:varchar(42);not null;index" json:"author_address"`
	AuthorName    string   `gorm:"type:varchar(50)" json:"author_name"`
	Content       string   `gorm:"type:text;not null" json:"content"`
	Images        []string `gorm:"serializer:json" json:"images"`
	BusinessID    *string  `gorm:"type:varchar(80);index" json:"business_id,omitempty"`
	BusinessName  string   `gorm:"type:varchar(50)" json:"business_name,omitempty"`
	Tags          []string `gorm:"serializer:json" json:"tags"`
	Likes         int64    `gorm:"not null;default:0" json:"likes"`
	Comments      int64    `gorm:"not null;default:0" json:"comments"`

	// Liked is filled per request for the authenticated wallet.
	Liked bool `gorm:"-" json:"liked"`
}

func (CommunityPost) TableName() string {
	return "community_posts"
}

func (p *CommunityPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Engagement is likes plus comments.
func (p *CommunityPost) Engagement() int64 {
	return p.Likes + p.Comments
}

type PostLike struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PostID      string `gorm:"type:varchar(36);not null;index:idx_post_like_user,unique" json:"post_id"`
	UserAddress string `gorm:"type:varchar(42);not null;index:idx_post_like_user,unique;index" json:"user_address"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

type PostComment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	PostID        string `gorm:"type:varchar(36);not null;index" json:"post_id"`
	AuthorAddress string `gorm:"type:varchar(42);not null" json:"author_address"`
	AuthorName    string `gorm:"type:varchar(50)" json:"author_name"`
	Content       string `gorm:"type:text;not null" json:"content"`
}

func (PostComment) TableName() string {
	return "post_comments"
}

func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CreatePostRequest struct {
	Content string   `json:"content" binding:"required,min=1,max=2000"`
	Images  []string `json:"images" binding:"omitempty,max=4,dive,image_url"`
	Tab     FeedTab  `json:"tab" binding:"omitempty,oneof=feed trending local"`
	Tags    []string `json:"tags" binding:"omitempty,max=10"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	PostID string `json:"post_id"`
	Liked  bool   `json:"liked"`
	Likes  int64  `json:"likes"`
}
