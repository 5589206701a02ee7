package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrDisabled          = errors.New("contract integration disabled")
	ErrNoSigner          = errors.New("no operator key configured for relayed transactions")
	ErrWrongNetwork      = errors.New("connected to the wrong network")
	ErrBusinessExists    = errors.New("business already registered on-chain")
	ErrBusinessNotFound  = errors.New("business not found on-chain")
	ErrBusinessInactive  = errors.New("business is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserRejected      = errors.New("transaction rejected by user")
	ErrNotOwner          = errors.New("caller is not the business owner")
	ErrNoPayments        = errors.New("no payments to withdraw")
	ErrInvalidAmount     = errors.New("invalid payment amount")
	ErrTxNotFound        = errors.New("transaction not found")
	ErrReverted          = errors.New("transaction reverted")
	ErrEventMismatch     = errors.New("transaction does not match the expected contract event")
	ErrTimeout           = errors.New("blockchain request timed out")
	ErrNetwork           = errors.New("blockchain network error")
)

var terminal = []error{
	ErrDisabled, ErrNoSigner, ErrWrongNetwork, ErrBusinessExists, ErrBusinessNotFound,
	ErrBusinessInactive, ErrInsufficientFunds, ErrUserRejected, ErrNotOwner,
	ErrNoPayments, ErrInvalidAmount, ErrTxNotFound, ErrReverted, ErrEventMismatch,
}

type pattern struct {
	substr string
	kind   error
}

// Order matters: the first matching substring wins. Patterns are phrases so
// they cannot match inside hex hashes or addresses.
var patterns = []pattern{
	{"insufficient funds", ErrInsufficientFunds},
	{"user rejected", ErrUserRejected},
	{"user denied", ErrUserRejected},
	{"already exists", ErrBusinessExists},
	{"already registered", ErrBusinessExists},
	{"no payments to withdraw", ErrNoPayments},
	{"not business owner", ErrNotOwner},
	{"not active", ErrBusinessInactive},
	{"business not found", ErrBusinessNotFound},
	{"does not exist", ErrBusinessNotFound},
	{"execution reverted", ErrReverted},
	{"deadline exceeded", ErrTimeout},
	{"timeout", ErrTimeout},
	{"connection refused", ErrNetwork},
	{"connection reset", ErrNetwork},
	{"no such host", ErrNetwork},
	{"too many requests", ErrNetwork},
	{"502 bad gateway", ErrNetwork},
	{"503 service unavailable", ErrNetwork},
	{"unexpected eof", ErrNetwork},
	{": eof", ErrNetwork},
}

// Classify maps a raw provider or contract error onto one of the package
// sentinels. The original error stays in the chain for logging. Errors that
// match nothing are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) &&
		(httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p.substr) {
			return fmt.Errorf("%w: %w", p.kind, err)
		}
	}
	return err
}

func isClassified(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return true
	}
	for _, kind := range terminal {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a transient network condition. Rejections,
// reverts and validation failures are terminal.
func IsRetryable(err error) bool {
	err = Classify(err)
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
