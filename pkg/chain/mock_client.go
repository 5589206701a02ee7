package chain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/localbase/localbase-backend/pkg/logger"
)

// MockOperator is the owner recorded for businesses registered in mock mode.
const MockOperator = "0x000000000000000000000000000000000000b45e"

type mockBusiness struct {
	info BusinessInfo
}

// MockClient simulates the payment contract in memory. Writes return random
// transaction hashes after a configurable latency. Payments to businesses it
// has never seen register them on the fly, so a freshly seeded directory is
// payable without an on-chain registration step.
type MockClient struct {
	mu         sync.Mutex
	opts       Options
	businesses map[string]*mockBusiness
	spent      map[string]*big.Int
	receipts   map[string]*Receipt
	block      uint64
}

func NewMockClient(opts Options) *MockClient {
	if opts.ContractAddress == "" {
		opts.ContractAddress = "0xf80B102B28D174b1B90B15a8c496903Aa589e181"
	}
	if opts.ChainID == 0 {
		opts.ChainID = 84532
	}
	return &MockClient{
		opts:       opts,
		businesses: make(map[string]*mockBusiness),
		spent:      make(map[string]*big.Int),
		receipts:   make(map[string]*Receipt),
		block:      1,
	}
}

func (m *MockClient) Mode() string   { return "mock" }
func (m *MockClient) ChainID() int64 { return m.opts.ChainID }
func (m *MockClient) CanRelay() bool { return true }

func (m *MockClient) VerifyChain(ctx context.Context) error {
	return ctx.Err()
}

func (m *MockClient) wait(ctx context.Context) error {
	if m.opts.MockLatency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.opts.MockLatency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Classify(ctx.Err())
	case <-t.C:
		return nil
	}
}

func randomHash() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("chain: reading random bytes: %v", err))
	}
	return "0x" + hex.EncodeToString(b[:])
}

func (m *MockClient) BusinessExists(ctx context.Context, businessID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, Classify(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.businesses[businessID]
	return ok, nil
}

func (m *MockClient) GetBusinessInfo(ctx context.Context, businessID string) (*BusinessInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.businesses[businessID]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	info := b.info
	info.TotalReceived = new(big.Int).Set(b.info.TotalReceived)
	return &info, nil
}

func (m *MockClient) GetUserTotalSpent(ctx context.Context, user string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}
	addr := NormalizeAddress(user)
	if addr == "" {
		return nil, fmt.Errorf("invalid address %q", user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.spent[addr]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m *MockClient) register(businessID, name string) *mockBusiness {
	b := &mockBusiness{
		info: BusinessInfo{
			Owner:         MockOperator,
			Name:          name,
			IsActive:      true,
			TotalReceived: big.NewInt(0),
		},
	}
	m.businesses[businessID] = b
	return b
}

func (m *MockClient) record(businessID, account string, amount *big.Int) *Receipt {
	m.block++
	r := &Receipt{
		TxHash:      randomHash(),
		Status:      TxSuccess,
		BlockNumber: m.block,
		BusinessID:  businessID,
		Account:     account,
		Amount:      amount,
	}
	m.receipts[r.TxHash] = r
	return r
}

func (m *MockClient) RegisterBusiness(ctx context.Context, businessID, name string) (*Receipt, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[businessID]; ok {
		return nil, ErrBusinessExists
	}
	m.register(businessID, name)
	logger.Info("Mock business registered", map[string]interface{}{
		"business_id": businessID,
	})
	return m.record(businessID, MockOperator, nil), nil
}

// applyPayment must be called with m.mu held.
func (m *MockClient) applyPayment(businessID, payer string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b, ok := m.businesses[businessID]
	if !ok {
		b = m.register(businessID, businessID)
	}
	if !b.info.IsActive {
		return ErrBusinessInactive
	}
	b.info.TotalReceived = new(big.Int).Add(b.info.TotalReceived, amount)
	b.info.TransactionCount++
	if payer != "" {
		prev, ok := m.spent[payer]
		if !ok {
			prev = big.NewInt(0)
		}
		m.spent[payer] = new(big.Int).Add(prev, amount)
	}
	return nil
}

func (m *MockClient) PayBusiness(ctx context.Context, businessID, payer string, amount *big.Int) (*Receipt, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	payer = NormalizeAddress(payer)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.applyPayment(businessID, payer, amount); err != nil {
		return nil, err
	}
	return m.record(businessID, payer, new(big.Int).Set(amount)), nil
}

// withdraw pays out and resets totalReceived the way the contract does. It must
// be called with m.mu held.
func (m *MockClient) withdraw(businessID string) (*big.Int, error) {
	b, ok := m.businesses[businessID]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	if b.info.TotalReceived.Sign() <= 0 {
		return nil, ErrNoPayments
	}
	amount := b.info.TotalReceived
	b.info.TotalReceived = big.NewInt(0)
	return amount, nil
}

func (m *MockClient) WithdrawPayments(ctx context.Context, businessID string) (*Receipt, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	amount, err := m.withdraw(businessID)
	if err != nil {
		return nil, err
	}
	return m.record(businessID, m.businesses[businessID].info.Owner, amount), nil
}

func (m *MockClient) ToggleBusinessStatus(ctx context.Context, businessID string) (*Receipt, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.businesses[businessID]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	b.info.IsActive = !b.info.IsActive
	return m.record(businessID, b.info.Owner, nil), nil
}

func (m *MockClient) BuildPaymentCall(businessID string, amount *big.Int) (*CallData, error) {
	return buildPaymentCall(m.opts.ContractAddress, m.opts.ChainID, businessID, amount)
}

// ConfirmPayment accepts any well-formed hash. A hash seen before returns the
// stored receipt without applying the payment twice.
func (m *MockClient) ConfirmPayment(ctx context.Context, txHash string, want PaymentIntent) (*Receipt, error) {
	if !IsTxHash(txHash) {
		return nil, ErrTxNotFound
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	key := strings.ToLower(txHash)
	payer := NormalizeAddress(want.Payer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receipts[key]; ok {
		if r.BusinessID != want.BusinessID || (want.Amount != nil && r.Amount != nil && r.Amount.Cmp(want.Amount) != 0) {
			return nil, ErrEventMismatch
		}
		return r, nil
	}
	if err := m.applyPayment(want.BusinessID, payer, want.Amount); err != nil {
		return nil, err
	}
	m.block++
	r := &Receipt{
		TxHash:      key,
		Status:      TxSuccess,
		BlockNumber: m.block,
		BusinessID:  want.BusinessID,
		Account:     payer,
		Amount:      new(big.Int).Set(want.Amount),
	}
	m.receipts[key] = r
	return r, nil
}

func (m *MockClient) ConfirmWithdrawal(ctx context.Context, txHash, businessID, owner string) (*Receipt, error) {
	if !IsTxHash(txHash) {
		return nil, ErrTxNotFound
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	key := strings.ToLower(txHash)

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receipts[key]; ok {
		if r.BusinessID != businessID {
			return nil, ErrEventMismatch
		}
		return r, nil
	}
	amount, err := m.withdraw(businessID)
	if err != nil {
		return nil, err
	}
	m.block++
	r := &Receipt{
		TxHash:      key,
		Status:      TxSuccess,
		BlockNumber: m.block,
		BusinessID:  businessID,
		Account:     NormalizeAddress(owner),
		Amount:      amount,
	}
	m.receipts[key] = r
	return r, nil
}

func buildPaymentCall(contract string, chainID int64, businessID string, amount *big.Int) (*CallData, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	data, err := paymentABI.Pack(MethodPayBusiness, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payBusiness call: %w", err)
	}
	return &CallData{
		To:      contract,
		Value:   amount.String(),
		Data:    hexutil.Encode(data),
		ChainID: chainID,
	}, nil
}
