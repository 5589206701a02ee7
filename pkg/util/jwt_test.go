package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sessionSecret = "session-secret-for-tests"
	sessionWallet = "0x1234567890abcdef1234567890abcdef12345678"
)

func TestSessionToken(t *testing.T) {
	valid, expiresAt, err := GenerateToken(sessionWallet, sessionSecret, 15*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Second)

	anonymous, _, err := GenerateToken("", sessionSecret, time.Minute)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Address: sessionWallet}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "signed session", token: valid, secret: sessionSecret},
		{name: "other secret", token: valid, secret: "rotated", wantErr: ErrInvalidToken},
		{name: "garbage", token: "a.b.c", secret: sessionSecret, wantErr: ErrInvalidToken},
		{name: "empty", token: "", secret: sessionSecret, wantErr: ErrInvalidToken},
		{name: "no wallet claim", token: anonymous, secret: sessionSecret, wantErr: ErrInvalidToken},
		{name: "alg none", token: unsigned, secret: sessionSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sessionWallet, claims.Address)
			assert.Equal(t, sessionWallet, claims.Subject)
			assert.Equal(t, "localbase", claims.Issuer)
		})
	}
}

func TestSessionToken_Expired(t *testing.T) {
	token, _, err := GenerateToken(sessionWallet, sessionSecret, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = ValidateToken(token, sessionSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
