package service

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/redis"
	"github.com/localbase/localbase-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServiceTest(t *testing.T) AuthService {
	t.Helper()
	return NewAuthService(redis.NewMemoryStore(), "test-jwt-secret", time.Hour, 5*time.Minute)
}

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func TestAuthService_NonceLogin(t *testing.T) {
	authService := setupAuthServiceTest(t)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	nonce, err := authService.IssueNonce(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, util.LoginMessage(nonce.Address, nonce.Nonce), nonce.Message)

	signature := signMessage(t, key, nonce.Message)
	resp, err := authService.Verify(ctx, model.VerifyRequest{Address: address, Signature: signature})
	require.NoError(t, err)
	assert.Equal(t, nonce.Address, resp.Address)

	claims, err := util.ValidateToken(resp.Token, "test-jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, nonce.Address, claims.Address)

	// The nonce is single-use.
	_, err = authService.Verify(ctx, model.VerifyRequest{Address: address, Signature: signature})
	assert.ErrorIs(t, err, ErrNonceNotFound)
}

func TestAuthService_VerifyFailures(t *testing.T) {
	authService := setupAuthServiceTest(t)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	tests := []struct {
		name    string
		sign    func(n *model.NonceResponse) string
		wantErr error
	}{
		{
			name:    "Wrong signer",
			sign:    func(n *model.NonceResponse) string { return signMessage(t, other, n.Message) },
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "Stale nonce",
			sign:    func(n *model.NonceResponse) string { return signMessage(t, key, util.LoginMessage(n.Address, "old")) },
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "Garbage signature",
			sign:    func(n *model.NonceResponse) string { return "0xdeadbeef" },
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nonce, err := authService.IssueNonce(ctx, address)
			require.NoError(t, err)
			_, err = authService.Verify(ctx, model.VerifyRequest{Address: address, Signature: tt.sign(nonce)})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("No nonce issued", func(t *testing.T) {
		fresh := crypto.PubkeyToAddress(other.PublicKey).Hex()
		_, err := authService.Verify(ctx, model.VerifyRequest{Address: fresh, Signature: "0x00"})
		assert.ErrorIs(t, err, ErrNonceNotFound)
	})

	t.Run("Invalid address", func(t *testing.T) {
		_, err := authService.IssueNonce(ctx, "wallet")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}
