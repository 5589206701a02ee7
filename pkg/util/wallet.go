package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid wallet signature")

// LoginMessage is the text a wallet signs to prove address ownership.
func LoginMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to LocalBase\n\nWallet: %s\nNonce: %s", address, nonce)
}

// VerifyPersonalSignature checks that signatureHex is address's personal_sign
// signature over message.
func VerifyPersonalSignature(address, message, signatureHex string) error {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return ErrInvalidSignature
	}
	// Wallets return v as 27/28; recovery expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !strings.EqualFold(crypto.PubkeyToAddress(*pub).Hex(), address) {
		return ErrInvalidSignature
	}
	return nil
}

// ShortAddress renders 0x1234...abcd for display names.
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
