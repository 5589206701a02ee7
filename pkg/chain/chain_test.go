package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Whole ether", input: "1", want: "1000000000000000000"},
		{name: "Fraction", input: "0.01", want: "10000000000000000"},
		{name: "Smallest unit", input: "0.000000000000000001", want: "1"},
		{name: "Whitespace", input: " 0.5 ", want: "500000000000000000"},
		{name: "Too many decimals", input: "0.0000000000000000001", wantErr: true},
		{name: "Negative", input: "-1", wantErr: true},
		{name: "Not a number", input: "abc", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, err := ParseEther(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, wei.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	wei, ok := new(big.Int).SetString("10000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "0.01", FormatEther(wei))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))

	back, err := ParseEther(FormatEther(wei))
	require.NoError(t, err)
	assert.Equal(t, 0, back.Cmp(wei))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		raw       string
		want      error
		retryable bool
	}{
		{raw: "insufficient funds for gas * price + value", want: ErrInsufficientFunds},
		{raw: "User rejected the request.", want: ErrUserRejected},
		{raw: "execution reverted: Business already exists", want: ErrBusinessExists},
		{raw: "execution reverted: Business not active", want: ErrBusinessInactive},
		{raw: "execution reverted: No payments to withdraw", want: ErrNoPayments},
		{raw: "execution reverted: Not business owner", want: ErrNotOwner},
		{raw: "execution reverted", want: ErrReverted},
		{raw: "dial tcp: connection refused", want: ErrNetwork, retryable: true},
		{raw: "429 Too Many Requests", want: ErrNetwork, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := Classify(errors.New(tt.raw))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Contains(t, err.Error(), tt.raw)
		})
	}
}

func TestClassify_TypedNetworkErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "bare EOF", err: io.EOF, retryable: true},
		{name: "wrapped unexpected EOF", err: fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), retryable: true},
		{name: "post EOF", err: errors.New(`Post "https://sepolia.base.org": EOF`), retryable: true},
		{name: "rate limited", err: rpc.HTTPError{StatusCode: 429, Status: "429"}, retryable: true},
		{name: "gateway down", err: rpc.HTTPError{StatusCode: 503, Status: "503"}, retryable: true},
		{name: "bad request", err: rpc.HTTPError{StatusCode: 400, Status: "400"}},
		{name: "429 inside a hash", err: errors.New("unknown tx 0xbeef4290eof1")},
		{name: "eof inside a word", err: errors.New("geofence rejected")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.Nil(t, Classify(nil))

	unknown := errors.New("something odd")
	assert.Equal(t, unknown, Classify(unknown))
	assert.False(t, IsRetryable(unknown))

	wrapped := fmt.Errorf("pay: %w", ErrNoPayments)
	assert.Equal(t, wrapped, Classify(wrapped))

	assert.ErrorIs(t, Classify(context.DeadlineExceeded), ErrTimeout)
	assert.True(t, IsRetryable(context.DeadlineExceeded))
}

func TestBuildPaymentCall(t *testing.T) {
	client := NewMockClient(Options{})
	amount := big.NewInt(1e16)

	call, err := client.BuildPaymentCall("localcafe-ntu", amount)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", call.Value)
	assert.Equal(t, int64(84532), call.ChainID)

	data, err := hexutil.Decode(call.Data)
	require.NoError(t, err)
	method := ContractABI().Methods[MethodPayBusiness]
	assert.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, "localcafe-ntu", args[0])

	_, err = client.BuildPaymentCall("localcafe-ntu", big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMockClient_PaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient(Options{})
	payer := "0x1234567890AbcdEF1234567890aBcdef12345678"

	receipt, err := client.RegisterBusiness(ctx, "techmart-base", "TechMart Base")
	require.NoError(t, err)
	assert.True(t, IsTxHash(receipt.TxHash))

	_, err = client.RegisterBusiness(ctx, "techmart-base", "TechMart Base")
	assert.ErrorIs(t, err, ErrBusinessExists)

	receipt, err = client.PayBusiness(ctx, "techmart-base", payer, big.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, TxSuccess, receipt.Status)

	info, err := client.GetBusinessInfo(ctx, "techmart-base")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.TransactionCount)
	assert.Equal(t, "500", info.TotalReceived.String())

	spent, err := client.GetUserTotalSpent(ctx, payer)
	require.NoError(t, err)
	assert.Equal(t, "500", spent.String())

	receipt, err = client.WithdrawPayments(ctx, "techmart-base")
	require.NoError(t, err)
	assert.Equal(t, "500", receipt.Amount.String())

	_, err = client.WithdrawPayments(ctx, "techmart-base")
	assert.ErrorIs(t, err, ErrNoPayments)

	info, err = client.GetBusinessInfo(ctx, "techmart-base")
	require.NoError(t, err)
	assert.Equal(t, "0", info.TotalReceived.String())
	assert.Equal(t, uint64(1), info.TransactionCount)

	_, err = client.ToggleBusinessStatus(ctx, "techmart-base")
	require.NoError(t, err)
	_, err = client.PayBusiness(ctx, "techmart-base", payer, big.NewInt(1))
	assert.ErrorIs(t, err, ErrBusinessInactive)
}

func TestMockClient_ConfirmPaymentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient(Options{})
	hash := "0x" + strings.Repeat("ab", 32)
	intent := PaymentIntent{BusinessID: "wellness-spa", Payer: "0x1234567890abcdef1234567890abcdef12345678", Amount: big.NewInt(42)}

	first, err := client.ConfirmPayment(ctx, hash, intent)
	require.NoError(t, err)
	second, err := client.ConfirmPayment(ctx, hash, intent)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := client.GetBusinessInfo(ctx, "wellness-spa")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.TransactionCount)

	_, err = client.ConfirmPayment(ctx, "0x1234", intent)
	assert.ErrorIs(t, err, ErrTxNotFound)

	intent.BusinessID = "other"
	_, err = client.ConfirmPayment(ctx, hash, intent)
	assert.ErrorIs(t, err, ErrEventMismatch)
}

func TestMockClient_LatencyHonorsContext(t *testing.T) {
	client := NewMockClient(Options{MockLatency: 1 << 40})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.RegisterBusiness(ctx, "slow", "Slow")
	assert.Error(t, err)
}

func TestEthClient_MatchEvent(t *testing.T) {
	contract := common.HexToAddress("0xf80B102B28D174b1B90B15a8c496903Aa589e181")
	customer := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	c := &EthClient{address: contract}

	ev := ContractABI().Events[EventPaymentMade]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(777))
	require.NoError(t, err)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: big.NewInt(99),
		Logs: []*types.Log{{
			Address: contract,
			Topics: []common.Hash{
				ev.ID,
				businessTopic("localcafe-ntu"),
				common.BytesToHash(customer.Bytes()),
			},
			Data: data,
		}},
	}

	r, err := c.matchEvent(receipt, EventPaymentMade, "localcafe-ntu")
	require.NoError(t, err)
	assert.Equal(t, "777", r.Amount.String())
	assert.Equal(t, strings.ToLower(customer.Hex()), r.Account)
	assert.Equal(t, uint64(99), r.BlockNumber)

	_, err = c.matchEvent(receipt, EventPaymentMade, "someone-else")
	assert.ErrorIs(t, err, ErrEventMismatch)

	receipt.Status = types.ReceiptStatusFailed
	r, err = c.matchEvent(receipt, EventPaymentMade, "localcafe-ntu")
	assert.ErrorIs(t, err, ErrReverted)
	assert.Equal(t, TxFailed, r.Status)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678",
		NormalizeAddress("0x1234567890ABCDEF1234567890abcdef12345678"))
	assert.Equal(t, "", NormalizeAddress("not-an-address"))
}

// chainIDServer answers eth_chainId with 84532 (Base Sepolia).
func chainIDServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Method != "eth_chainId" {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x14a34"}`, req.ID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEthClient_VerifyChain(t *testing.T) {
	srv := chainIDServer(t)

	tests := []struct {
		name    string
		chainID int64
		wantErr error
	}{
		{name: "Base Sepolia", chainID: 84532},
		{name: "mainnet configured", chainID: 1, wantErr: ErrWrongNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Dial(context.Background(), Options{
				RPCURL:          srv.URL,
				ContractAddress: "0xf80B102B28D174b1B90B15a8c496903Aa589e181",
				ChainID:         tt.chainID,
			})
			require.NoError(t, err)
			defer client.Close()

			err = client.VerifyChain(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMockClient_VerifyChain(t *testing.T) {
	client := NewMockClient(Options{})
	assert.NoError(t, client.VerifyChain(context.Background()))
	assert.Equal(t, int64(84532), client.ChainID())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, client.VerifyChain(ctx))
}

func TestEthClient_ConfirmPaymentPollsUnknownHash(t *testing.T) {
	prev := hashPollInterval
	hashPollInterval = 10 * time.Millisecond
	t.Cleanup(func() { hashPollInterval = prev })

	var lookups atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Method == "eth_getTransactionByHash" {
			lookups.Add(1)
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":null}`, req.ID)
	}))
	t.Cleanup(srv.Close)

	client, err := Dial(context.Background(), Options{
		RPCURL:          srv.URL,
		ContractAddress: "0xf80B102B28D174b1B90B15a8c496903Aa589e181",
		ChainID:         84532,
		ReceiptTimeout:  150 * time.Millisecond,
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.ConfirmPayment(context.Background(), "0x"+strings.Repeat("cd", 32), PaymentIntent{BusinessID: "cafe-one"})
	assert.ErrorIs(t, err, ErrTxNotFound)
	assert.Greater(t, lookups.Load(), int32(1))
}
