package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/localbase/localbase-backend/config"
)

// TxStatus mirrors the lifecycle of a submitted contract write.
type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// BusinessInfo is the on-chain view of a registered business.
type BusinessInfo struct {
	Owner            string   `json:"owner"`
	Name             string   `json:"name"`
	IsActive         bool     `json:"is_active"`
	TotalReceived    *big.Int `json:"total_received"`
	TransactionCount uint64   `json:"transaction_count"`
}

// TotalReceivedEther formats TotalReceived in ether.
func (b *BusinessInfo) TotalReceivedEther() string {
	return FormatEther(b.TotalReceived)
}

// Receipt is a contract write matched against the event it emitted. Relayed
// writes that time out waiting for inclusion come back with TxPending.
type Receipt struct {
	TxHash      string   `json:"tx_hash"`
	Status      TxStatus `json:"status"`
	BlockNumber uint64   `json:"block_number"`
	BusinessID  string   `json:"business_id"`
	Account     string   `json:"account"`
	Amount      *big.Int `json:"amount"`
}

// PaymentIntent is what a client claims a submitted payBusiness transaction did.
type PaymentIntent struct {
	BusinessID string
	Payer      string
	Amount     *big.Int
}

// CallData is an unsigned contract call for a browser wallet to sign.
type CallData struct {
	To      string `json:"to"`
	Value   string `json:"value"`
	Data    string `json:"data"`
	ChainID int64  `json:"chain_id"`
}

// Client is the single contract gateway. Real and mock implementations share
// the error vocabulary in errors.go.
type Client interface {
	Mode() string
	ChainID() int64
	CanRelay() bool
	VerifyChain(ctx context.Context) error

	BusinessExists(ctx context.Context, businessID string) (bool, error)
	GetBusinessInfo(ctx context.Context, businessID string) (*BusinessInfo, error)
	GetUserTotalSpent(ctx context.Context, user string) (*big.Int, error)

	RegisterBusiness(ctx context.Context, businessID, name string) (*Receipt, error)
	PayBusiness(ctx context.Context, businessID, payer string, amount *big.Int) (*Receipt, error)
	WithdrawPayments(ctx context.Context, businessID string) (*Receipt, error)
	ToggleBusinessStatus(ctx context.Context, businessID string) (*Receipt, error)

	BuildPaymentCall(businessID string, amount *big.Int) (*CallData, error)
	ConfirmPayment(ctx context.Context, txHash string, want PaymentIntent) (*Receipt, error)
	ConfirmWithdrawal(ctx context.Context, txHash, businessID, owner string) (*Receipt, error)
}

// Options configures either client implementation.
type Options struct {
	ContractAddress string
	RPCURL          string
	ChainID         int64
	OperatorKey     string
	CallTimeout     time.Duration
	ReceiptTimeout  time.Duration
	MockLatency     time.Duration
	ViewRetries     int
}

func OptionsFromConfig(cfg *config.ChainConfig) Options {
	return Options{
		ContractAddress: cfg.ContractAddress,
		RPCURL:          cfg.RPCURL,
		ChainID:         cfg.ChainID,
		OperatorKey:     cfg.OperatorKey,
		CallTimeout:     cfg.CallTimeout,
		ReceiptTimeout:  cfg.ReceiptTimeout,
		MockLatency:     cfg.MockLatency,
		ViewRetries:     cfg.ViewRetries,
	}
}

// New returns the real client when useRealContract is set, the mock otherwise.
func New(ctx context.Context, useRealContract bool, opts Options) (Client, error) {
	if !useRealContract {
		return NewMockClient(opts), nil
	}
	return Dial(ctx, opts)
}

// NormalizeAddress lower-cases a hex address; it returns "" if s is not one.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ""
	}
	return strings.ToLower(common.HexToAddress(s).Hex())
}

// IsTxHash reports whether s looks like a 32-byte hex transaction hash.
func IsTxHash(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return false
	}
	for _, c := range s[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// businessTopic is the indexed topic value for a string businessId.
func businessTopic(businessID string) common.Hash {
	return crypto.Keccak256Hash([]byte(businessID))
}
