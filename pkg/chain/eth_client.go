package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/localbase/localbase-backend/pkg/logger"
)

// businessTuple matches the getBusinessInfo struct output.
type businessTuple struct {
	Owner            common.Address
	Name             string
	IsActive         bool
	TotalReceived    *big.Int
	TransactionCount *big.Int
}

// EthClient talks to the deployed contract over JSON-RPC.
type EthClient struct {
	rpc      *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	opts     Options
}

// Dial connects to the RPC endpoint and binds the payment contract.
func Dial(ctx context.Context, opts Options) (*EthClient, error) {
	if !common.IsHexAddress(opts.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", opts.ContractAddress)
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}
	if opts.ViewRetries <= 0 {
		opts.ViewRetries = 1
	}

	rpc, err := ethclient.DialContext(ctx, opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", opts.RPCURL, Classify(err))
	}

	address := common.HexToAddress(opts.ContractAddress)
	c := &EthClient{
		rpc:      rpc,
		contract: bind.NewBoundContract(address, paymentABI, rpc, rpc, rpc),
		address:  address,
		chainID:  big.NewInt(opts.ChainID),
		opts:     opts,
	}

	if opts.OperatorKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.OperatorKey, "0x"))
		if err != nil {
			rpc.Close()
			return nil, fmt.Errorf("invalid operator key: %w", err)
		}
		c.key = key
		logger.Info("Contract relayer enabled", map[string]interface{}{
			"operator": crypto.PubkeyToAddress(key.PublicKey).Hex(),
		})
	}

	logger.Info("Connected to payment contract", map[string]interface{}{
		"rpc_url":  opts.RPCURL,
		"contract": address.Hex(),
		"chain_id": opts.ChainID,
	})
	return c, nil
}

func (c *EthClient) Close() {
	c.rpc.Close()
}

func (c *EthClient) Mode() string   { return "onchain" }
func (c *EthClient) ChainID() int64 { return c.opts.ChainID }
func (c *EthClient) CanRelay() bool { return c.key != nil }

func (c *EthClient) VerifyChain(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	id, err := c.rpc.ChainID(callCtx)
	if err != nil {
		return Classify(err)
	}
	if id.Cmp(c.chainID) != 0 {
		return fmt.Errorf("%w: expected chain %s, got %s", ErrWrongNetwork, c.chainID, id)
	}
	return nil
}

// view runs a read-only call, retrying transient failures with linear backoff.
func (c *EthClient) view(ctx context.Context, method string, out *[]interface{}, args ...interface{}) error {
	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		err := c.contract.Call(&bind.CallOpts{Context: callCtx}, out, method, args...)
		cancel()
		if err == nil {
			return nil
		}

		err = Classify(err)
		if !IsRetryable(err) || attempt >= c.opts.ViewRetries {
			return err
		}
		logger.Warn("Retrying contract call", map[string]interface{}{
			"method":  method,
			"attempt": attempt,
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return Classify(ctx.Err())
		case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
		}
	}
}

func (c *EthClient) BusinessExists(ctx context.Context, businessID string) (bool, error) {
	var out []interface{}
	if err := c.view(ctx, MethodBusinessExists, &out, businessID); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *EthClient) GetBusinessInfo(ctx context.Context, businessID string) (*BusinessInfo, error) {
	var out []interface{}
	if err := c.view(ctx, MethodGetBusinessInfo, &out, businessID); err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(businessTuple)).(*businessTuple)
	if t.Owner == (common.Address{}) {
		return nil, ErrBusinessNotFound
	}
	return &BusinessInfo{
		Owner:            strings.ToLower(t.Owner.Hex()),
		Name:             t.Name,
		IsActive:         t.IsActive,
		TotalReceived:    t.TotalReceived,
		TransactionCount: t.TransactionCount.Uint64(),
	}, nil
}

func (c *EthClient) GetUserTotalSpent(ctx context.Context, user string) (*big.Int, error) {
	if !common.IsHexAddress(user) {
		return nil, fmt.Errorf("invalid address %q", user)
	}
	var out []interface{}
	if err := c.view(ctx, MethodGetUserTotalSpent, &out, common.HexToAddress(user)); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// transact signs with the operator key, submits, and waits for inclusion.
func (c *EthClient) transact(ctx context.Context, event, businessID string, value *big.Int, method string, args ...interface{}) (*Receipt, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	auth.Context = ctx
	auth.Value = value

	tx, err := c.contract.Transact(auth, method, args...)
	if err != nil {
		return nil, Classify(err)
	}
	logger.Info("Contract transaction submitted", map[string]interface{}{
		"method":  method,
		"tx_hash": tx.Hash().Hex(),
	})

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ReceiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.rpc, tx)
	if err != nil {
		return &Receipt{TxHash: tx.Hash().Hex(), Status: TxPending, BusinessID: businessID}, Classify(err)
	}
	return c.matchEvent(receipt, event, businessID)
}

func (c *EthClient) RegisterBusiness(ctx context.Context, businessID, name string) (*Receipt, error) {
	exists, err := c.BusinessExists(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBusinessExists
	}
	return c.transact(ctx, EventBusinessRegistered, businessID, nil, MethodRegisterBusiness, businessID, name)
}

// PayBusiness relays a payment from the operator account; payer is recorded
// off-chain only since the contract credits msg.sender.
func (c *EthClient) PayBusiness(ctx context.Context, businessID, payer string, amount *big.Int) (*Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	info, err := c.GetBusinessInfo(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !info.IsActive {
		return nil, ErrBusinessInactive
	}
	return c.transact(ctx, EventPaymentMade, businessID, amount, MethodPayBusiness, businessID)
}

func (c *EthClient) WithdrawPayments(ctx context.Context, businessID string) (*Receipt, error) {
	return c.transact(ctx, EventPaymentWithdrawn, businessID, nil, MethodWithdrawPayments, businessID)
}

func (c *EthClient) ToggleBusinessStatus(ctx context.Context, businessID string) (*Receipt, error) {
	return c.transact(ctx, "", businessID, nil, MethodToggleBusinessStatus, businessID)
}

func (c *EthClient) BuildPaymentCall(businessID string, amount *big.Int) (*CallData, error) {
	return buildPaymentCall(c.address.Hex(), c.opts.ChainID, businessID, amount)
}

// hashPollInterval spaces lookups of a hash the node has not seen yet.
var hashPollInterval = time.Second

// waitForHash waits for a client-submitted transaction to be mined. A hash the
// node does not know yet is polled until the receipt timeout runs out.
func (c *EthClient) waitForHash(ctx context.Context, txHash string) (*types.Receipt, error) {
	if !IsTxHash(txHash) {
		return nil, ErrTxNotFound
	}
	hash := common.HexToHash(txHash)

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ReceiptTimeout)
	defer cancel()

	var tx *types.Transaction
	for tx == nil {
		lookupCtx, lookupCancel := context.WithTimeout(waitCtx, c.opts.CallTimeout)
		found, _, err := c.rpc.TransactionByHash(lookupCtx, hash)
		lookupCancel()
		switch {
		case err == nil:
			tx = found
			continue
		case waitCtx.Err() != nil && ctx.Err() == nil:
			return nil, ErrTxNotFound
		case !errors.Is(err, ethereum.NotFound):
			return nil, Classify(err)
		}

		timer := time.NewTimer(hashPollInterval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, ErrTxNotFound
		case <-timer.C:
		}
	}
	if tx.To() == nil || *tx.To() != c.address {
		return nil, fmt.Errorf("%w: transaction is not addressed to the payment contract", ErrEventMismatch)
	}

	receipt, err := bind.WaitMined(waitCtx, c.rpc, tx)
	if err != nil {
		return nil, Classify(err)
	}
	return receipt, nil
}

func (c *EthClient) ConfirmPayment(ctx context.Context, txHash string, want PaymentIntent) (*Receipt, error) {
	receipt, err := c.waitForHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	r, err := c.matchEvent(receipt, EventPaymentMade, want.BusinessID)
	if err != nil {
		return r, err
	}
	if want.Payer != "" && !strings.EqualFold(r.Account, want.Payer) {
		return r, fmt.Errorf("%w: paid by %s", ErrEventMismatch, r.Account)
	}
	if want.Amount != nil && r.Amount.Cmp(want.Amount) != 0 {
		return r, fmt.Errorf("%w: paid %s wei", ErrEventMismatch, r.Amount)
	}
	return r, nil
}

func (c *EthClient) ConfirmWithdrawal(ctx context.Context, txHash, businessID, owner string) (*Receipt, error) {
	receipt, err := c.waitForHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	r, err := c.matchEvent(receipt, EventPaymentWithdrawn, businessID)
	if err != nil {
		return r, err
	}
	if owner != "" && !strings.EqualFold(r.Account, owner) {
		return r, fmt.Errorf("%w: withdrawn by %s", ErrEventMismatch, r.Account)
	}
	return r, nil
}

// matchEvent finds the contract event for businessID in a mined receipt. An
// empty event name only checks the receipt status.
func (c *EthClient) matchEvent(receipt *types.Receipt, event, businessID string) (*Receipt, error) {
	r := &Receipt{
		TxHash:      receipt.TxHash.Hex(),
		Status:      TxSuccess,
		BlockNumber: receipt.BlockNumber.Uint64(),
		BusinessID:  businessID,
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		r.Status = TxFailed
		return r, ErrReverted
	}
	if event == "" {
		return r, nil
	}

	ev := paymentABI.Events[event]
	topic := businessTopic(businessID)
	for _, lg := range receipt.Logs {
		if lg.Address != c.address || len(lg.Topics) != 3 {
			continue
		}
		if lg.Topics[0] != ev.ID || lg.Topics[1] != topic {
			continue
		}
		r.Account = strings.ToLower(common.BytesToAddress(lg.Topics[2].Bytes()).Hex())
		if event == EventBusinessRegistered {
			return r, nil
		}
		values, err := ev.Inputs.NonIndexed().Unpack(lg.Data)
		if err != nil || len(values) != 1 {
			return r, fmt.Errorf("%w: undecodable %s log", ErrEventMismatch, event)
		}
		amount, ok := values[0].(*big.Int)
		if !ok {
			return r, fmt.Errorf("%w: unexpected %s amount type", ErrEventMismatch, event)
		}
		r.Amount = amount
		return r, nil
	}
	return r, fmt.Errorf("%w: no %s event for %s", ErrEventMismatch, event, businessID)
}
