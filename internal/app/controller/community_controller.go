package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/middleware"
)

type CommunityController struct {
	communityService service.CommunityService
}

func NewCommunityController(communityService service.CommunityService) *CommunityController {
	return &CommunityController{
		communityService: communityService,
	}
}

// GetPosts GET /api/v1/posts?tab=feed|trending|local
func (ctrl *CommunityController) GetPosts(c *gin.Context) {
	tab := model.FeedTab(c.DefaultQuery("tab", string(model.FeedTabFeed)))

	posts, err := ctrl.communityService.GetCommunityPosts(tab, viewer(c))
	if err != nil {
		respondError(c, err, "load posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"tab":   tab,
		"count": len(posts),
	})
}

// CreatePost POST /api/v1/posts
func (ctrl *CommunityController) CreatePost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	author, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	post, err := ctrl.communityService.AddCommunityPost(author, req)
	if err != nil {
		respondError(c, err, "create post")
		return
	}

	log.Info("Post created", map[string]interface{}{
		"post_id": post.ID,
		"tags":    post.Tags,
	})
	c.JSON(http.StatusCreated, post)
}

// ToggleLike POST /api/v1/posts/:id/like
func (ctrl *CommunityController) ToggleLike(c *gin.Context) {
	user, ok := requireWallet(c)
	if !ok {
		return
	}

	result, err := ctrl.communityService.TogglePostLike(c.Param("id"), user)
	if err != nil {
		respondError(c, err, "like post")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetComments GET /api/v1/posts/:id/comments
func (ctrl *CommunityController) GetComments(c *gin.Context) {
	comments, err := ctrl.communityService.GetComments(c.Param("id"))
	if err != nil {
		respondError(c, err, "load comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// AddComment POST /api/v1/posts/:id/comments
func (ctrl *CommunityController) AddComment(c *gin.Context) {
	author, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := ctrl.communityService.AddComment(c.Param("id"), author, req)
	if err != nil {
		respondError(c, err, "create comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetLikedPosts GET /api/v1/users/me/liked-posts
func (ctrl *CommunityController) GetLikedPosts(c *gin.Context) {
	user, ok := requireWallet(c)
	if !ok {
		return
	}

	ids, err := ctrl.communityService.GetUserLikedPostIDs(user)
	if err != nil {
		respondError(c, err, "load liked posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post_ids": ids,
	})
}
