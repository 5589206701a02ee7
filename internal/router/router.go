package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/config"
	"github.com/localbase/localbase-backend/internal/app/controller"
	"github.com/localbase/localbase-backend/internal/metrics"
	"github.com/localbase/localbase-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	businessController  *controller.BusinessController
	reviewController    *controller.ReviewController
	communityController *controller.CommunityController
	paymentController   *controller.PaymentController
	loyaltyController   *controller.LoyaltyController
	uploadController    *controller.UploadController
	wsController        *controller.WSController
	authMiddleware      *middleware.AuthMiddleware
	rateLimiter         *middleware.RateLimiter
	chainMode           string
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	businessController *controller.BusinessController,
	reviewController *controller.ReviewController,
	communityController *controller.CommunityController,
	paymentController *controller.PaymentController,
	loyaltyController *controller.LoyaltyController,
	uploadController *controller.UploadController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	chainMode string,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		businessController:  businessController,
		reviewController:    reviewController,
		communityController: communityController,
		paymentController:   paymentController,
		loyaltyController:   loyaltyController,
		uploadController:    uploadController,
		wsController:        wsController,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		chainMode:           chainMode,
		config:              cfg,
	}
}

// write guards a mutating endpoint: sign-in first so the limiter keys on the
// wallet, then the rate limit.
func (r *Router) write(handler gin.HandlerFunc) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		r.authMiddleware.Authenticate(),
		r.rateLimiter.Middleware(),
		handler,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	gin.SetMode(r.config.Server.GinMode)
	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"message":  "LocalBase API is running",
			"chain":    r.chainMode,
			"chain_id": r.config.Chain.ChainID,
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ws", r.authMiddleware.OptionalAuthenticate(), r.wsController.Connect)

	auth := r.authMiddleware.Authenticate()
	optional := r.authMiddleware.OptionalAuthenticate()

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/nonce", r.rateLimiter.Middleware(), r.authController.Nonce)
			authGroup.POST("/verify", r.rateLimiter.Middleware(), r.authController.Verify)
			authGroup.GET("/me", auth, r.authController.GetMe)
		}

		businesses := v1.Group("/businesses")
		{
			businesses.GET("", r.businessController.ListBusinesses)
			businesses.GET("/:id", r.businessController.GetBusiness)
			businesses.POST("", r.write(r.businessController.CreateBusiness)...)
			businesses.PUT("/:id", r.write(r.businessController.UpdateBusiness)...)
			businesses.DELETE("/:id", r.write(r.businessController.DeleteBusiness)...)
			businesses.POST("/:id/toggle-status", r.write(r.businessController.ToggleStatus)...)
			businesses.GET("/:id/analytics", auth, r.businessController.GetAnalytics)
			businesses.GET("/:id/onchain", r.businessController.GetOnChain)
			businesses.GET("/:id/transactions/export", auth, r.businessController.ExportTransactions)

			businesses.GET("/:id/reviews", optional, r.reviewController.GetBusinessReviews)
			businesses.GET("/:id/reviews/stats", r.reviewController.GetReviewStats)
			businesses.POST("/:id/reviews", r.write(r.reviewController.CreateReview)...)

			businesses.POST("/:id/withdraw", r.write(r.paymentController.Withdraw)...)
			businesses.GET("/:id/funds", auth, r.paymentController.GetFunds)

			businesses.POST("/:id/rewards", r.write(r.loyaltyController.IssueReward)...)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.POST("/:id/helpful", r.write(r.reviewController.MarkHelpful)...)
			reviews.DELETE("/:id", r.write(r.reviewController.DeleteReview)...)
		}

		posts := v1.Group("/posts")
		{
			posts.GET("", optional, r.communityController.GetPosts)
			posts.POST("", r.write(r.communityController.CreatePost)...)
			posts.POST("/:id/like", r.write(r.communityController.ToggleLike)...)
			posts.GET("/:id/comments", r.communityController.GetComments)
			posts.POST("/:id/comments", r.write(r.communityController.AddComment)...)
		}

		payments := v1.Group("/payments")
		{
			payments.GET("/calldata", r.paymentController.GetCallData)
			payments.POST("", r.write(r.paymentController.ProcessPayment)...)
			payments.GET("/:hash", r.paymentController.GetTransaction)
		}

		rewards := v1.Group("/rewards")
		{
			rewards.POST("/:id/redeem", r.write(r.loyaltyController.RedeemReward)...)
			rewards.GET("/:id/status", r.loyaltyController.GetRewardStatus)
		}

		users := v1.Group("/users")
		{
			users.GET("/me/businesses", auth, r.businessController.GetMyBusinesses)
			users.GET("/me/liked-posts", auth, r.communityController.GetLikedPosts)
			users.GET("/me/transactions", auth, r.paymentController.GetMyTransactions)
			users.GET("/me/rewards", auth, r.loyaltyController.GetMyRewards)
			users.GET("/:address/spending", r.paymentController.GetSpending)
		}

		upload := v1.Group("/upload")
		{
			upload.POST("/presigned-url", r.write(r.uploadController.GeneratePresignedURL)...)
		}
	}

	return router, nil
}
