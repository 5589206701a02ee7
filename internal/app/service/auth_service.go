package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
	"github.com/localbase/localbase-backend/pkg/util"
)

var (
	ErrNonceNotFound      = errors.New("login nonce missing or expired")
	ErrInvalidCredentials = errors.New("signature does not match wallet")
)

type AuthService interface {
	IssueNonce(ctx context.Context, address string) (*model.NonceResponse, error)
	Verify(ctx context.Context, req model.VerifyRequest) (*model.AuthResponse, error)
}

type authService struct {
	nonces      redis.Store
	jwtSecret   string
	tokenExpiry time.Duration
	nonceExpiry time.Duration
}

func NewAuthService(
	nonces redis.Store,
	jwtSecret string,
	tokenExpiry, nonceExpiry time.Duration,
) AuthService {
	return &authService{
		nonces:      nonces,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		nonceExpiry: nonceExpiry,
	}
}

func nonceKey(address string) string { return "nonce:" + address }

// IssueNonce replaces any outstanding nonce for the wallet.
func (s *authService) IssueNonce(ctx context.Context, address string) (*model.NonceResponse, error) {
	addr := chain.NormalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	nonce := uuid.NewString()
	if err := s.nonces.Delete(ctx, nonceKey(addr)); err != nil {
		return nil, err
	}
	ok, err := s.nonces.SetNX(ctx, nonceKey(addr), nonce, s.nonceExpiry)
	if err != nil {
		logger.Error("Failed to store login nonce", err, map[string]interface{}{
			"address": addr,
		})
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent request for the same wallet.
		return nil, ErrNonceNotFound
	}

	return &model.NonceResponse{
		Address:   addr,
		Nonce:     nonce,
		Message:   util.LoginMessage(addr, nonce),
		ExpiresAt: time.Now().Add(s.nonceExpiry),
	}, nil
}

// Verify consumes the wallet's nonce and, if the signature recovers to the
// wallet, issues a session token. A nonce is usable once.
func (s *authService) Verify(ctx context.Context, req model.VerifyRequest) (*model.AuthResponse, error) {
	addr := chain.NormalizeAddress(req.Address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	nonce, ok, err := s.nonces.GetDel(ctx, nonceKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Warn("Login without a live nonce", map[string]interface{}{
			"address": addr,
		})
		return nil, ErrNonceNotFound
	}

	if err := util.VerifyPersonalSignature(addr, util.LoginMessage(addr, nonce), req.Signature); err != nil {
		logger.Warn("Login signature rejected", map[string]interface{}{
			"address": addr,
		})
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := util.GenerateToken(addr, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"address": addr,
		})
		return nil, err
	}

	logger.Info("Wallet signed in", map[string]interface{}{
		"address": addr,
	})
	return &model.AuthResponse{Token: token, ExpiresAt: expiresAt, Address: addr}, nil
}
