package model

import "time"

// NonceResponse is the one-time challenge a wallet signs to log in.
type NonceResponse struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyRequest struct {
	Address   string `json:"address" binding:"required,eth_addr"`
	Signature string `json:"signature" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Address   string    `json:"address"`
}
