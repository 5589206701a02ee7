package model

import "time"

// OnChainBusiness is the contract's record of a business as served by the API.
type OnChainBusiness struct {
	BusinessID       string    `json:"business_id"`
	Registered       bool      `json:"registered"`
	Owner            string    `json:"owner,omitempty"`
	Name             string    `json:"name,omitempty"`
	IsActive         bool      `json:"is_active"`
	TotalReceivedWei string    `json:"total_received_wei"`
	TotalReceived    string    `json:"total_received"`
	TransactionCount uint64    `json:"transaction_count"`
	Mode             string    `json:"mode"`
	FetchedAt        time.Time `json:"fetched_at"`
}
