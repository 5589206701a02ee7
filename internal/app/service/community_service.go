package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post content is empty")
	ErrInvalidTab   = errors.New("invalid feed tab")
)

var localKeywords = []string{"local", "event", "meetup"}

type CommunityService interface {
	GetCommunityPosts(tab model.FeedTab, viewer string) ([]model.CommunityPost, error)
	AddCommunityPost(author string, req model.CreatePostRequest) (*model.CommunityPost, error)
	TogglePostLike(postID, userAddress string) (*model.LikeResult, error)
	AddComment(postID, author string, req model.CreateCommentRequest) (*model.PostComment, error)
	GetComments(postID string) ([]model.PostComment, error)
	GetUserLikedPostIDs(userAddress string) ([]string, error)
}

type communityService struct {
	communityRepo repository.CommunityRepository
	businessRepo  repository.BusinessRepository
	events        EventPublisher
}

func NewCommunityService(
	communityRepo repository.CommunityRepository,
	businessRepo repository.BusinessRepository,
	events EventPublisher,
) CommunityService {
	return &communityService{
		communityRepo: communityRepo,
		businessRepo:  businessRepo,
		events:        publisherOrNop(events),
	}
}

// FilterPosts applies a feed tab to posts already sorted newest first.
func FilterPosts(posts []model.CommunityPost, tab model.FeedTab) ([]model.CommunityPost, error) {
	switch tab {
	case "", model.FeedTabFeed:
		return posts, nil
	case model.FeedTabTrending:
		out := make([]model.CommunityPost, 0, len(posts))
		for _, p := range posts {
			if p.Engagement() > 0 {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Engagement() > out[j].Engagement()
		})
		return out, nil
	case model.FeedTabLocal:
		out := make([]model.CommunityPost, 0, len(posts))
		for _, p := range posts {
			if isLocalPost(&p) {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return nil, ErrInvalidTab
}

func isLocalPost(p *model.CommunityPost) bool {
	if p.BusinessID != nil && *p.BusinessID != "" {
		return true
	}
	for _, tag := range p.Tags {
		for _, kw := range localKeywords {
			if strings.Contains(tag, kw) {
				return true
			}
		}
	}
	content := strings.ToLower(p.Content)
	if strings.Contains(content, "@") {
		return true
	}
	for _, kw := range localKeywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// BuildPostTags merges tab auto-tags, hashtags and explicit tags, lower-cased
// and de-duplicated in that order.
func BuildPostTags(content string, tab model.FeedTab, extra []string) []string {
	lower := strings.ToLower(content)
	tags := []string{}
	if tab == model.FeedTabLocal {
		tags = append(tags, "local")
		if strings.Contains(lower, "event") {
			tags = append(tags, "event")
		}
		if strings.Contains(lower, "meetup") {
			tags = append(tags, "meetup")
		}
	}
	tags = append(tags, util.ExtractHashtags(content)...)
	for _, t := range extra {
		tags = append(tags, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#")))
	}
	return util.UniqueStrings(tags)
}

func (s *communityService) GetCommunityPosts(tab model.FeedTab, viewer string) ([]model.CommunityPost, error) {
	posts, err := s.communityRepo.ListPosts()
	if err != nil {
		return nil, err
	}
	posts, err = FilterPosts(posts, tab)
	if err != nil {
		return nil, err
	}

	viewer = chain.NormalizeAddress(viewer)
	if viewer == "" {
		return posts, nil
	}
	liked, err := s.communityRepo.LikedPostIDs(viewer)
	if err != nil {
		return nil, err
	}
	likedSet := make(map[string]bool, len(liked))
	for _, id := range liked {
		likedSet[id] = true
	}
	for i := range posts {
		posts[i].Liked = likedSet[posts[i].ID]
	}
	return posts, nil
}

func (s *communityService) AddCommunityPost(author string, req model.CreatePostRequest) (*model.CommunityPost, error) {
	author = chain.NormalizeAddress(author)
	if author == "" {
		return nil, ErrInvalidAddress
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyPost
	}

	post := &model.CommunityPost{
		AuthorAddress: author,
		AuthorName:    util.ShortAddress(author),
		Content:       content,
		Images:        util.UniqueStrings(req.Images),
		Tags:          BuildPostTags(content, req.Tab, req.Tags),
	}

	// Only a mention of a known business links the post to it.
	if mention := util.FirstMention(content); mention != "" {
		business, err := s.businessRepo.FindByID(mention)
		switch {
		case err == nil:
			post.BusinessID = &business.ID
			post.BusinessName = business.Name
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	if err := s.communityRepo.CreatePost(post); err != nil {
		return nil, err
	}

	logger.Info("Community post created", map[string]interface{}{
		"post_id": post.ID,
		"author":  author,
		"tags":    post.Tags,
	})
	s.events.Publish(TopicFeed, EventPostCreated, post)
	return post, nil
}

func (s *communityService) TogglePostLike(postID, userAddress string) (*model.LikeResult, error) {
	user := chain.NormalizeAddress(userAddress)
	if user == "" {
		return nil, ErrInvalidAddress
	}
	result, err := s.communityRepo.ToggleLike(postID, user)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.events.Publish(TopicFeed, EventPostLiked, result)
	return result, nil
}

func (s *communityService) AddComment(postID, author string, req model.CreateCommentRequest) (*model.PostComment, error) {
	author = chain.NormalizeAddress(author)
	if author == "" {
		return nil, ErrInvalidAddress
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyPost
	}

	comment := &model.PostComment{
		PostID:        postID,
		AuthorAddress: author,
		AuthorName:    util.ShortAddress(author),
		Content:       content,
	}
	if err := s.communityRepo.CreateComment(comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.events.Publish(TopicFeed, EventCommentAdded, comment)
	return comment, nil
}

func (s *communityService) GetComments(postID string) ([]model.PostComment, error) {
	if _, err := s.communityRepo.FindPostByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.communityRepo.ListComments(postID)
}

func (s *communityService) GetUserLikedPostIDs(userAddress string) ([]string, error) {
	user := chain.NormalizeAddress(userAddress)
	if user == "" {
		return nil, ErrInvalidAddress
	}
	return s.communityRepo.LikedPostIDs(user)
}
