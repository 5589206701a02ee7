package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/localbase/localbase-backend/internal/errors"
	"github.com/localbase/localbase-backend/pkg/util"
)

// WalletAddressKey holds the signed-in wallet (lower-case hex) in the gin context.
const WalletAddressKey = "wallet_address"

var errBadAuthHeader = errors.New("invalid authorization header format")

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browsers use for websocket upgrades.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return c.Query("token"), nil
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadAuthHeader
	}
	return parts[1], nil
}

// Authenticate requires a valid wallet session token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := bearerToken(c)
		if err != nil {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Malformed authorization header")
			c.Abort()
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Your session expired. Please sign in again")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid session token")
			}
			c.Abort()
			return
		}

		c.Set(WalletAddressKey, claims.Address)
		log.Debug("Wallet authenticated", map[string]interface{}{
			"address": claims.Address,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets the wallet when a valid token is present and
// otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := bearerToken(c)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		c.Set(WalletAddressKey, claims.Address)
		c.Next()
	}
}

// GetWalletAddress returns the signed-in wallet, if any.
func GetWalletAddress(c *gin.Context) (string, bool) {
	v, exists := c.Get(WalletAddressKey)
	if !exists {
		return "", false
	}
	address, ok := v.(string)
	return address, ok && address != ""
}
