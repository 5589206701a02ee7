package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	apperrors "github.com/localbase/localbase-backend/internal/errors"
	"github.com/localbase/localbase-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// GetCallData returns the payBusiness call for a wallet to sign
// GET /api/v1/payments/calldata?business_id=&amount=
func (ctrl *PaymentController) GetCallData(c *gin.Context) {
	businessID := c.Query("business_id")
	amount := c.Query("amount")
	if businessID == "" || amount == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "business_id and amount are required")
		return
	}

	call, err := ctrl.paymentService.BuildPaymentCall(businessID, amount)
	if err != nil {
		respondError(c, err, "build payment")
		return
	}
	c.JSON(http.StatusOK, call)
}

// ProcessPayment relays a payment, or records a wallet-signed one for
// confirmation when transaction_hash is set
// POST /api/v1/payments
func (ctrl *PaymentController) ProcessPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	payer, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	txn, err := ctrl.paymentService.ProcessPayment(c.Request.Context(), payer, req)
	if err != nil {
		log.Warn("Payment failed", map[string]interface{}{
			"business_id": req.BusinessID,
			"amount":      req.Amount,
			"error":       err.Error(),
		})
		respondError(c, err, "process payment")
		return
	}

	log.Info("Payment accepted", map[string]interface{}{
		"business_id": txn.BusinessID,
		"hash":        txn.TransactionHash,
		"status":      txn.Status,
	})
	status := http.StatusCreated
	if txn.Status == model.TransactionPending {
		status = http.StatusAccepted
	}
	c.JSON(status, txn)
}

// GetTransaction GET /api/v1/payments/:hash
func (ctrl *PaymentController) GetTransaction(c *gin.Context) {
	txn, err := ctrl.paymentService.GetTransaction(strings.ToLower(c.Param("hash")))
	if err != nil {
		respondError(c, err, "load transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// Withdraw POST /api/v1/businesses/:id/withdraw
func (ctrl *PaymentController) Withdraw(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.WithdrawRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	txn, err := ctrl.paymentService.Withdraw(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "withdraw payments")
		return
	}

	log.Info("Withdrawal accepted", map[string]interface{}{
		"business_id": txn.BusinessID,
		"hash":        txn.TransactionHash,
		"status":      txn.Status,
	})
	status := http.StatusOK
	if txn.Status == model.TransactionPending {
		status = http.StatusAccepted
	}
	c.JSON(status, txn)
}

// GetFunds GET /api/v1/businesses/:id/funds
func (ctrl *PaymentController) GetFunds(c *gin.Context) {
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	funds, err := ctrl.paymentService.GetFunds(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err, "load funds")
		return
	}
	c.JSON(http.StatusOK, funds)
}

// GetSpending GET /api/v1/users/:address/spending
func (ctrl *PaymentController) GetSpending(c *gin.Context) {
	spending, err := ctrl.paymentService.GetUserSpending(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err, "load spending")
		return
	}
	c.JSON(http.StatusOK, spending)
}

// GetMyTransactions GET /api/v1/users/me/transactions?limit=
func (ctrl *PaymentController) GetMyTransactions(c *gin.Context) {
	address, ok := requireWallet(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	txns, err := ctrl.paymentService.GetUserTransactions(address, limit)
	if err != nil {
		respondError(c, err, "load transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"count":        len(txns),
	})
}
