package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/localbase/localbase-backend/pkg/chain"
	"gorm.io/gorm"
)

// ErrorInfo is the client-facing shape of an error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

type chainMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Ordered: the first match wins, so more specific kinds come first.
var chainMappings = []chainMapping{
	{chain.ErrDisabled, http.StatusServiceUnavailable, ChainDisabled, "Smart contract mode is disabled"},
	{chain.ErrNoSigner, http.StatusServiceUnavailable, ChainNoSigner, "Server-side signing is not configured. Please sign the transaction with your wallet"},
	{chain.ErrWrongNetwork, http.StatusBadGateway, ChainWrongNetwork, "Please switch to the Base Sepolia network"},
	{chain.ErrBusinessExists, http.StatusConflict, ChainBusinessExists, "This business ID is already registered on the blockchain. Please choose a different ID."},
	{chain.ErrBusinessNotFound, http.StatusNotFound, ChainBusinessNotFound, "Business not found on blockchain. It may need to be registered first."},
	{chain.ErrBusinessInactive, http.StatusConflict, ChainBusinessInactive, "This business is currently inactive and cannot receive payments."},
	{chain.ErrInsufficientFunds, http.StatusPaymentRequired, ChainInsufficientFunds, "Insufficient ETH balance. Please get some Base Sepolia ETH from a faucet."},
	{chain.ErrUserRejected, http.StatusBadRequest, ChainUserRejected, "Transaction was cancelled by user."},
	{chain.ErrNotOwner, http.StatusForbidden, ChainNotOwner, "Only the business owner can withdraw funds."},
	{chain.ErrNoPayments, http.StatusConflict, ChainNoPayments, "No payments available to withdraw."},
	{chain.ErrInvalidAmount, http.StatusBadRequest, ValidationInvalidAmount, "Amount must be a positive ETH value"},
	{chain.ErrTxNotFound, http.StatusNotFound, ChainTxNotFound, "Transaction not found on the network"},
	{chain.ErrEventMismatch, http.StatusUnprocessableEntity, ChainEventMismatch, "Transaction does not match the requested payment"},
	{chain.ErrReverted, http.StatusUnprocessableEntity, ChainReverted, "Transaction failed on-chain"},
	{chain.ErrTimeout, http.StatusGatewayTimeout, ChainTimeout, "The network is taking too long. Please try again"},
	{chain.ErrNetwork, http.StatusBadGateway, ChainNetwork, "Could not reach the Base network. Please try again"},
}

// ParseError turns an error into a client-safe ErrorInfo. context names the
// operation ("create business", "load reviews") and shapes fallback messages.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "Something went wrong. Please try again",
		}
	}

	for _, m := range chainMappings {
		if errors.Is(err, m.target) {
			return ErrorInfo{Status: m.status, Code: m.code, Message: m.message}
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    ValidationInvalidInput,
			Message: "Some fields are invalid",
		}
	}

	errLower := strings.ToLower(err.Error())

	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    ResourceConflict,
			Message: "Related data is missing or still in use",
		}
	}
	if strings.Contains(errLower, "not null constraint") || strings.Contains(errLower, "violates not-null") {
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}
	if strings.Contains(errLower, "check constraint") {
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    ValidationInvalidRange,
			Message: "A value is out of range",
		}
	}

	if isNetworkError(err, errLower) {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: defaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "transaction_hash"):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    PaymentDuplicate,
			Message: "This transaction has already been recorded",
		}
	case strings.Contains(errLower, "businesses.id") || strings.Contains(errLower, "businesses_pkey"):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    BusinessAlreadyExists,
			Message: "This business ID is already taken. Please choose a different ID.",
		}
	case strings.Contains(errLower, "token_id"):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    ResourceAlreadyExists,
			Message: "This reward token has already been issued",
		}
	}
	return ErrorInfo{
		Status:  http.StatusConflict,
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func isNetworkError(err error, errLower string) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout")
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "business"):
		return "Business not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	case strings.Contains(contextLower, "post"), strings.Contains(contextLower, "comment"):
		return "Post not found"
	case strings.Contains(contextLower, "payment"), strings.Contains(contextLower, "transaction"):
		return "Transaction not found"
	case strings.Contains(contextLower, "reward"):
		return "Reward not found"
	}
	return "The requested data was not found"
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"), strings.Contains(contextLower, "register"):
		return "Could not save. Please try again"
	case strings.Contains(contextLower, "update"):
		return "Could not update. Please try again"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete. Please try again"
	case strings.Contains(contextLower, "payment"), strings.Contains(contextLower, "withdraw"):
		return "Transaction failed. Please try again."
	}
	return "Something went wrong. Please try again"
}

// ParseAndRespond writes the parsed error using its own status code.
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}

// ValidationFields flattens binding errors into field -> failed tag.
func ValidationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
