package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	apperrors "github.com/localbase/localbase-backend/internal/errors"
	"github.com/localbase/localbase-backend/internal/middleware"
	"github.com/localbase/localbase-backend/pkg/chain"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// Nonce issues a one-time login message for a wallet to sign
// GET /api/v1/auth/nonce?address=
func (ctrl *AuthController) Nonce(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	address := chain.NormalizeAddress(c.Query("address"))
	if address == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidAddress, "A valid wallet address is required")
		return
	}

	nonce, err := ctrl.authService.IssueNonce(c.Request.Context(), address)
	if err != nil {
		respondError(c, err, "issue nonce")
		return
	}

	log.Debug("Login nonce issued", map[string]interface{}{
		"address": address,
	})
	c.JSON(http.StatusOK, nonce)
}

// Verify exchanges a signed nonce for a session token
// POST /api/v1/auth/verify
func (ctrl *AuthController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verify request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}

	auth, err := ctrl.authService.Verify(c.Request.Context(), req)
	if err != nil {
		log.Warn("Wallet login failed", map[string]interface{}{
			"address": req.Address,
			"error":   err.Error(),
		})
		respondError(c, err, "verify signature")
		return
	}

	log.Info("Wallet login successful", map[string]interface{}{
		"address": auth.Address,
	})
	c.JSON(http.StatusOK, auth)
}

// GetMe returns the signed-in wallet
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	address, ok := requireWallet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}
