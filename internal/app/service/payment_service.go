package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	apperrors "github.com/localbase/localbase-backend/internal/errors"
	"github.com/localbase/localbase-backend/internal/metrics"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicatePayment    = errors.New("transaction hash already submitted")
	ErrInvalidTxHash       = errors.New("invalid transaction hash")
	ErrPaymentsDisabled    = errors.New("business does not accept Base payments")
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500

	// A hash the node has never seen is given up on after this long.
	unseenHashExpiry = 24 * time.Hour
)

type PaymentService interface {
	BuildPaymentCall(businessID, amount string) (*chain.CallData, error)
	ProcessPayment(ctx context.Context, payer string, req model.PaymentRequest) (*model.Transaction, error)
	GetTransaction(hash string) (*model.Transaction, error)
	Withdraw(ctx context.Context, owner, businessID string, req model.WithdrawRequest) (*model.Transaction, error)
	GetFunds(ctx context.Context, owner, businessID string) (*model.FundsSummary, error)
	GetUserSpending(ctx context.Context, address string) (*model.Spending, error)
	GetUserTransactions(address string, limit int) ([]model.Transaction, error)
	GetBusinessTransactions(owner, businessID string) ([]model.Transaction, error)
	RecheckPending(ctx context.Context, olderThan time.Time) (int, error)
	Wait()
}

type paymentService struct {
	transactionRepo repository.TransactionRepository
	businessRepo    repository.BusinessRepository
	chain           chain.Client
	cache           redis.Store
	events          EventPublisher
	receiptTimeout  time.Duration
	cacheTTL        time.Duration

	confirmations sync.WaitGroup
}

func NewPaymentService(
	transactionRepo repository.TransactionRepository,
	businessRepo repository.BusinessRepository,
	chainClient chain.Client,
	cache redis.Store,
	events EventPublisher,
	receiptTimeout, cacheTTL time.Duration,
) PaymentService {
	if receiptTimeout <= 0 {
		receiptTimeout = 2 * time.Minute
	}
	return &paymentService{
		transactionRepo: transactionRepo,
		businessRepo:    businessRepo,
		chain:           chainClient,
		cache:           cache,
		events:          publisherOrNop(events),
		receiptTimeout:  receiptTimeout,
		cacheTTL:        cacheTTL,
	}
}

func idempotencyKey(hash string) string { return "payment:" + hash }
func spendingCacheKey(addr string) string { return "spending:" + addr }

func withAmount(txn *model.Transaction) {
	if wei, err := chain.ParseWei(txn.AmountWei); err == nil {
		txn.Amount = chain.FormatEther(wei)
	}
}

func withAmounts(txns []model.Transaction) {
	for i := range txns {
		withAmount(&txns[i])
	}
}

// payableBusiness loads a business that can currently receive payments.
func (s *paymentService) payableBusiness(id string) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !business.IsActive {
		return nil, chain.ErrBusinessInactive
	}
	if !business.AcceptsBasePay {
		return nil, ErrPaymentsDisabled
	}
	return business, nil
}

func parsePositiveEther(amount string) (*big.Int, error) {
	wei, err := chain.ParseEther(amount)
	if err != nil {
		return nil, err
	}
	if wei.Sign() <= 0 {
		return nil, chain.ErrInvalidAmount
	}
	return wei, nil
}

func (s *paymentService) BuildPaymentCall(businessID, amount string) (*chain.CallData, error) {
	if _, err := s.payableBusiness(businessID); err != nil {
		return nil, err
	}
	wei, err := parsePositiveEther(amount)
	if err != nil {
		return nil, err
	}
	return s.chain.BuildPaymentCall(businessID, wei)
}

// ProcessPayment relays the payment through the operator key when no hash is
// given. With a hash, it records a pending payment and confirms the wallet's
// own transaction in the background.
func (s *paymentService) ProcessPayment(ctx context.Context, payer string, req model.PaymentRequest) (*model.Transaction, error) {
	payer = chain.NormalizeAddress(payer)
	if payer == "" {
		return nil, ErrInvalidAddress
	}
	if _, err := s.payableBusiness(req.BusinessID); err != nil {
		return nil, err
	}
	wei, err := parsePositiveEther(req.Amount)
	if err != nil {
		return nil, err
	}

	if req.TransactionHash == "" {
		return s.relayPayment(ctx, payer, wei, req)
	}
	return s.confirmSubmitted(payer, wei, req)
}

func (s *paymentService) relayPayment(ctx context.Context, payer string, wei *big.Int, req model.PaymentRequest) (*model.Transaction, error) {
	if !s.chain.CanRelay() {
		return nil, chain.ErrNoSigner
	}

	receipt, err := s.chain.PayBusiness(ctx, req.BusinessID, payer, wei)
	if err != nil && !submitted(receipt) {
		logger.Error("Relayed payment failed", err, map[string]interface{}{
			"business_id": req.BusinessID,
			"payer":       payer,
		})
		return nil, err
	}
	if err != nil {
		logger.Warn("Relayed payment awaiting inclusion", map[string]interface{}{
			"business_id": req.BusinessID,
			"tx_hash":     receipt.TxHash,
			"error":       err.Error(),
		})
	}

	txn := &model.Transaction{
		BusinessID:      req.BusinessID,
		UserAddress:     payer,
		Type:            model.TransactionPayment,
		AmountWei:       wei.String(),
		Currency:        "ETH",
		TransactionHash: strings.ToLower(receipt.TxHash),
		Status:          model.TransactionPending,
		Description:     req.Description,
		Relayed:         true,
	}
	if err := s.transactionRepo.Create(txn); err != nil {
		return nil, err
	}
	s.publishTransaction(EventPaymentPending, txn)

	switch receipt.Status {
	case chain.TxSuccess:
		s.settle(txn, receipt.BlockNumber)
	case chain.TxFailed:
		s.fail(txn, chain.ErrReverted)
	}
	withAmount(txn)
	return txn, nil
}

// submitted reports whether a failed relay still reached the mempool, in which
// case the transaction must be tracked until it settles.
func submitted(receipt *chain.Receipt) bool {
	return receipt != nil && receipt.TxHash != "" && receipt.Status == chain.TxPending
}

func (s *paymentService) confirmSubmitted(payer string, wei *big.Int, req model.PaymentRequest) (*model.Transaction, error) {
	hash := strings.ToLower(req.TransactionHash)
	if !chain.IsTxHash(hash) {
		return nil, ErrInvalidTxHash
	}

	ok, err := s.cache.SetNX(context.Background(), idempotencyKey(hash), payer, 2*s.receiptTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDuplicatePayment
	}
	if _, err := s.transactionRepo.FindByHash(hash); err == nil {
		return nil, ErrDuplicatePayment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	txn := &model.Transaction{
		BusinessID:      req.BusinessID,
		UserAddress:     payer,
		Type:            model.TransactionPayment,
		AmountWei:       wei.String(),
		Currency:        "ETH",
		TransactionHash: hash,
		Status:          model.TransactionPending,
		Description:     req.Description,
	}
	if err := s.transactionRepo.Create(txn); err != nil {
		_ = s.cache.Delete(context.Background(), idempotencyKey(hash))
		return nil, err
	}
	s.publishTransaction(EventPaymentPending, txn)

	pending := *txn
	s.confirmations.Add(1)
	go func() {
		defer s.confirmations.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.receiptTimeout)
		defer cancel()
		s.confirm(ctx, &pending)
	}()

	withAmount(txn)
	return txn, nil
}

// confirm waits for a submitted transaction and settles it. Transient errors
// leave it pending for the sync job, as does a hash the node has not seen yet.
func (s *paymentService) confirm(ctx context.Context, txn *model.Transaction) bool {
	var (
		receipt *chain.Receipt
		err     error
	)
	// Relayed transactions are sent from the operator account, so the event's
	// account is not the user on the row.
	account := txn.UserAddress
	if txn.Relayed {
		account = ""
	}
	if txn.Type == model.TransactionWithdrawal {
		receipt, err = s.chain.ConfirmWithdrawal(ctx, txn.TransactionHash, txn.BusinessID, account)
		if err == nil && receipt.Amount != nil {
			txn.AmountWei = receipt.Amount.String()
		}
	} else {
		wei, perr := chain.ParseWei(txn.AmountWei)
		if perr != nil {
			s.fail(txn, perr)
			return true
		}
		receipt, err = s.chain.ConfirmPayment(ctx, txn.TransactionHash, chain.PaymentIntent{
			BusinessID: txn.BusinessID,
			Payer:      account,
			Amount:     wei,
		})
	}
	if err != nil {
		if chain.IsRetryable(err) || errors.Is(err, context.Canceled) || awaitingBroadcast(txn, err) {
			logger.Warn("Transaction confirmation deferred", map[string]interface{}{
				"tx_hash": txn.TransactionHash,
				"error":   err.Error(),
			})
			return false
		}
		s.fail(txn, err)
		return true
	}
	s.settle(txn, receipt.BlockNumber)
	return true
}

// awaitingBroadcast reports whether a hash unknown to the node is still young
// enough to be propagating.
func awaitingBroadcast(txn *model.Transaction, err error) bool {
	return errors.Is(err, chain.ErrTxNotFound) && time.Since(txn.CreatedAt) < unseenHashExpiry
}

func (s *paymentService) settle(txn *model.Transaction, block uint64) {
	// Already settled by a concurrent confirmation; errors are logged by the
	// repository.
	if err := s.transactionRepo.Complete(txn, block); err != nil {
		return
	}
	s.invalidate(txn)
	metrics.RecordTransition(string(txn.Type), string(model.TransactionCompleted))
	logger.Info("Transaction completed", map[string]interface{}{
		"tx_hash":     txn.TransactionHash,
		"business_id": txn.BusinessID,
		"type":        txn.Type,
		"block":       block,
	})
	eventType := EventPaymentCompleted
	if txn.Type == model.TransactionWithdrawal {
		eventType = EventWithdrawalCompleted
	}
	s.publishTransaction(eventType, txn)
}

func (s *paymentService) fail(txn *model.Transaction, cause error) {
	code := apperrors.ParseError(cause, "payment").Code
	if err := s.transactionRepo.Fail(txn, code); err != nil {
		return
	}
	metrics.RecordTransition(string(txn.Type), string(model.TransactionFailed))
	logger.Warn("Transaction failed", map[string]interface{}{
		"tx_hash": txn.TransactionHash,
		"code":    code,
		"error":   cause.Error(),
	})
	s.publishTransaction(EventPaymentFailed, txn)
}

func (s *paymentService) invalidate(txn *model.Transaction) {
	ctx := context.Background()
	keys := []string{onChainCacheKey(txn.BusinessID)}
	if txn.Type == model.TransactionPayment {
		keys = append(keys, spendingCacheKey(txn.UserAddress))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Failed to invalidate cache", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func (s *paymentService) publishTransaction(eventType string, txn *model.Transaction) {
	snapshot := *txn
	withAmount(&snapshot)
	s.events.Publish(BusinessTopic(txn.BusinessID), eventType, &snapshot)
	s.events.Publish(AddressTopic(txn.UserAddress), eventType, &snapshot)
}

func (s *paymentService) GetTransaction(hash string) (*model.Transaction, error) {
	txn, err := s.transactionRepo.FindByHash(strings.ToLower(hash))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	withAmount(txn)
	return txn, nil
}

func (s *paymentService) ownedBusiness(owner, businessID string) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(business.Owner, owner) {
		return nil, ErrNotBusinessOwner
	}
	return business, nil
}

// Withdraw pays out a business's balance. With a hash, the owner's own
// withdrawPayments transaction is verified; otherwise the operator relays it,
// which only succeeds where the operator is the on-chain owner.
func (s *paymentService) Withdraw(ctx context.Context, owner, businessID string, req model.WithdrawRequest) (*model.Transaction, error) {
	owner = chain.NormalizeAddress(owner)
	if owner == "" {
		return nil, ErrInvalidAddress
	}
	if _, err := s.ownedBusiness(owner, businessID); err != nil {
		return nil, err
	}

	var (
		receipt *chain.Receipt
		err     error
		relayed bool
	)
	if req.TransactionHash != "" {
		hash := strings.ToLower(req.TransactionHash)
		if !chain.IsTxHash(hash) {
			return nil, ErrInvalidTxHash
		}
		ok, err := s.cache.SetNX(ctx, idempotencyKey(hash), owner, 2*s.receiptTimeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicatePayment
		}
		confirmCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
		defer cancel()
		receipt, err = s.chain.ConfirmWithdrawal(confirmCtx, hash, businessID, owner)
		if err != nil {
			_ = s.cache.Delete(ctx, idempotencyKey(hash))
			return nil, err
		}
	} else {
		if !s.chain.CanRelay() {
			return nil, chain.ErrNoSigner
		}
		receipt, err = s.chain.WithdrawPayments(ctx, businessID)
		if err != nil && !submitted(receipt) {
			logger.Error("Withdrawal failed", err, map[string]interface{}{
				"business_id": businessID,
			})
			return nil, err
		}
		if err != nil {
			logger.Warn("Withdrawal awaiting inclusion", map[string]interface{}{
				"business_id": businessID,
				"tx_hash":     receipt.TxHash,
				"error":       err.Error(),
			})
		}
		relayed = true
	}

	amount := "0"
	if receipt.Amount != nil {
		amount = receipt.Amount.String()
	}
	txn := &model.Transaction{
		BusinessID:      businessID,
		UserAddress:     owner,
		Type:            model.TransactionWithdrawal,
		AmountWei:       amount,
		Currency:        "ETH",
		TransactionHash: strings.ToLower(receipt.TxHash),
		Status:          model.TransactionPending,
		Relayed:         relayed,
	}
	if err := s.transactionRepo.Create(txn); err != nil {
		return nil, err
	}
	if receipt.Status == chain.TxFailed {
		s.fail(txn, chain.ErrReverted)
	} else if receipt.Status == chain.TxSuccess {
		s.settle(txn, receipt.BlockNumber)
	}
	withAmount(txn)
	return txn, nil
}

func (s *paymentService) GetFunds(ctx context.Context, owner, businessID string) (*model.FundsSummary, error) {
	if _, err := s.ownedBusiness(owner, businessID); err != nil {
		return nil, err
	}

	received := big.NewInt(0)
	var count int64
	info, err := s.chain.GetBusinessInfo(ctx, businessID)
	switch {
	case err == nil:
		if info.TotalReceived != nil {
			received = info.TotalReceived
		}
		count = int64(info.TransactionCount)
	case errors.Is(err, chain.ErrBusinessNotFound):
	default:
		return nil, err
	}

	withdrawals, err := s.transactionRepo.List(repository.TransactionFilter{
		BusinessID: businessID,
		Type:       model.TransactionWithdrawal,
		Status:     model.TransactionCompleted,
	})
	if err != nil {
		return nil, err
	}
	withdrawn := big.NewInt(0)
	for _, w := range withdrawals {
		if wei, err := chain.ParseWei(w.AmountWei); err == nil {
			withdrawn.Add(withdrawn, wei)
		}
	}

	// The contract resets totalReceived on withdrawal, so it is the balance.
	available := received
	return &model.FundsSummary{
		BusinessID:       businessID,
		TotalReceivedWei: received.String(),
		TotalReceived:    chain.FormatEther(received),
		WithdrawnWei:     withdrawn.String(),
		AvailableWei:     available.String(),
		Available:        chain.FormatEther(available),
		TransactionCount: count,
	}, nil
}

// GetUserSpending reads the contract's lifetime spend for a wallet through a
// short-lived cache.
func (s *paymentService) GetUserSpending(ctx context.Context, address string) (*model.Spending, error) {
	addr := chain.NormalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	var cached model.Spending
	if hit, err := s.cache.GetJSON(ctx, spendingCacheKey(addr), &cached); err == nil && hit {
		return &cached, nil
	}

	total, err := s.chain.GetUserTotalSpent(ctx, addr)
	if err != nil {
		return nil, err
	}
	spending := &model.Spending{
		Address:  addr,
		TotalWei: total.String(),
		Total:    chain.FormatEther(total),
		Source:   s.chain.Mode(),
	}
	if err := s.cache.SetJSON(ctx, spendingCacheKey(addr), spending, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache spending", map[string]interface{}{
			"address": addr,
			"error":   err.Error(),
		})
	}
	return spending, nil
}

func (s *paymentService) GetUserTransactions(address string, limit int) ([]model.Transaction, error) {
	addr := chain.NormalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	txns, err := s.transactionRepo.List(repository.TransactionFilter{UserAddress: addr, Limit: limit})
	if err != nil {
		return nil, err
	}
	withAmounts(txns)
	return txns, nil
}

func (s *paymentService) GetBusinessTransactions(owner, businessID string) ([]model.Transaction, error) {
	if _, err := s.ownedBusiness(owner, businessID); err != nil {
		return nil, err
	}
	txns, err := s.transactionRepo.List(repository.TransactionFilter{BusinessID: businessID})
	if err != nil {
		return nil, err
	}
	withAmounts(txns)
	return txns, nil
}

// RecheckPending retries confirmation of transactions still pending since before
// olderThan and returns how many were settled.
func (s *paymentService) RecheckPending(ctx context.Context, olderThan time.Time) (int, error) {
	pending, err := s.transactionRepo.Pending(olderThan)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range pending {
		txn := &pending[i]
		if txn.TransactionHash == "" {
			continue
		}
		confirmCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
		if s.confirm(confirmCtx, txn) {
			settled++
		}
		cancel()
		if ctx.Err() != nil {
			break
		}
	}
	return settled, nil
}

// Wait blocks until background confirmations have finished.
func (s *paymentService) Wait() {
	s.confirmations.Wait()
}
