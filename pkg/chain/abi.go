package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// PaymentABI is the JSON ABI of the LocalBasePayment contract.
const PaymentABI = `[
  {"type":"function","name":"businessExists","stateMutability":"view",
   "inputs":[{"name":"","type":"string"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"businesses","stateMutability":"view",
   "inputs":[{"name":"","type":"string"}],
   "outputs":[
     {"name":"owner","type":"address"},
     {"name":"name","type":"string"},
     {"name":"isActive","type":"bool"},
     {"name":"totalReceived","type":"uint256"},
     {"name":"transactionCount","type":"uint256"}]},
  {"type":"function","name":"getBusinessInfo","stateMutability":"view",
   "inputs":[{"name":"businessId","type":"string"}],
   "outputs":[{"name":"","type":"tuple","internalType":"struct LocalBasePayment.Business","components":[
     {"name":"owner","type":"address"},
     {"name":"name","type":"string"},
     {"name":"isActive","type":"bool"},
     {"name":"totalReceived","type":"uint256"},
     {"name":"transactionCount","type":"uint256"}]}]},
  {"type":"function","name":"getUserTotalSpent","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"payBusiness","stateMutability":"payable",
   "inputs":[{"name":"businessId","type":"string"}],"outputs":[]},
  {"type":"function","name":"registerBusiness","stateMutability":"nonpayable",
   "inputs":[{"name":"businessId","type":"string"},{"name":"name","type":"string"}],"outputs":[]},
  {"type":"function","name":"toggleBusinessStatus","stateMutability":"nonpayable",
   "inputs":[{"name":"businessId","type":"string"}],"outputs":[]},
  {"type":"function","name":"userSpent","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"withdrawPayments","stateMutability":"nonpayable",
   "inputs":[{"name":"businessId","type":"string"}],"outputs":[]},
  {"type":"event","name":"BusinessRegistered","anonymous":false,"inputs":[
     {"name":"businessId","type":"string","indexed":true},
     {"name":"owner","type":"address","indexed":true},
     {"name":"name","type":"string","indexed":false}]},
  {"type":"event","name":"PaymentMade","anonymous":false,"inputs":[
     {"name":"businessId","type":"string","indexed":true},
     {"name":"customer","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"PaymentWithdrawn","anonymous":false,"inputs":[
     {"name":"businessId","type":"string","indexed":true},
     {"name":"owner","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]}
]`

// Contract method and event names.
const (
	MethodBusinessExists       = "businessExists"
	MethodGetBusinessInfo      = "getBusinessInfo"
	MethodGetUserTotalSpent    = "getUserTotalSpent"
	MethodPayBusiness          = "payBusiness"
	MethodRegisterBusiness     = "registerBusiness"
	MethodToggleBusinessStatus = "toggleBusinessStatus"
	MethodWithdrawPayments     = "withdrawPayments"

	EventBusinessRegistered = "BusinessRegistered"
	EventPaymentMade        = "PaymentMade"
	EventPaymentWithdrawn   = "PaymentWithdrawn"
)

var paymentABI = mustParseABI(PaymentABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid payment ABI: " + err.Error())
	}
	return parsed
}

// ContractABI returns the parsed LocalBasePayment ABI.
func ContractABI() abi.ABI {
	return paymentABI
}
