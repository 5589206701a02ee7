package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/middleware"
)

type LoyaltyController struct {
	loyaltyService service.LoyaltyService
}

func NewLoyaltyController(loyaltyService service.LoyaltyService) *LoyaltyController {
	return &LoyaltyController{
		loyaltyService: loyaltyService,
	}
}

// GetMyRewards GET /api/v1/users/me/rewards
func (ctrl *LoyaltyController) GetMyRewards(c *gin.Context) {
	holder, ok := requireWallet(c)
	if !ok {
		return
	}

	rewards, err := ctrl.loyaltyService.GetUserRewards(holder)
	if err != nil {
		respondError(c, err, "load rewards")
		return
	}
	c.JSON(http.StatusOK, rewards)
}

// IssueReward mints a loyalty reward for a customer of the caller's business
// POST /api/v1/businesses/:id/rewards
func (ctrl *LoyaltyController) IssueReward(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.IssueRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reward, err := ctrl.loyaltyService.IssueReward(owner, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "issue reward")
		return
	}

	log.Info("Reward issued", map[string]interface{}{
		"reward_id":   reward.ID,
		"business_id": reward.BusinessID,
		"holder":      reward.HolderAddress,
	})
	c.JSON(http.StatusCreated, reward)
}

// RedeemReward POST /api/v1/rewards/:id/redeem
func (ctrl *LoyaltyController) RedeemReward(c *gin.Context) {
	holder, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.RedeemRewardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	redemption, err := ctrl.loyaltyService.RedeemReward(holder, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "redeem reward")
		return
	}
	c.JSON(http.StatusOK, redemption)
}

// GetRewardStatus GET /api/v1/rewards/:id/status
func (ctrl *LoyaltyController) GetRewardStatus(c *gin.Context) {
	status, err := ctrl.loyaltyService.GetRewardStatus(c.Param("id"))
	if err != nil {
		respondError(c, err, "load reward status")
		return
	}
	c.JSON(http.StatusOK, status)
}
