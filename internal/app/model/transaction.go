package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionPayment    TransactionType = "payment"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus moves pending -> completed | failed, never backwards.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is the local record of a contract payment or withdrawal.
type Transaction struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BusinessID      string            `gorm:"type:varchar(80);not null;index" json:"business_id"`
	UserAddress     string            `gorm:"type:varchar(42);not null;index" json:"user_address"`
	Type            TransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	AmountWei       string            `gorm:"type:varchar(78);not null" json:"amount_wei"`
	Amount          string            `gorm:"-" json:"amount"`
	Currency        string            `gorm:"type:varchar(10);not null;default:'ETH'" json:"currency"`
	TransactionHash string            `gorm:"type:varchar(66);uniqueIndex" json:"transaction_hash"`
	Status          TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureCode     string            `gorm:"type:varchar(50)" json:"failure_code,omitempty"`
	Description     string            `gorm:"type:varchar(255)" json:"description,omitempty"`
	BlockNumber     uint64            `json:"block_number,omitempty"`
	Relayed         bool              `json:"relayed"`
	ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// PaymentRequest either relays a payment (no hash) or confirms a wallet-signed
// payBusiness transaction (hash set).
type PaymentRequest struct {
	BusinessID      string `json:"business_id" binding:"required,business_id"`
	Amount          string `json:"amount" binding:"required"`
	TransactionHash string `json:"transaction_hash" binding:"omitempty,tx_hash"`
	Description     string `json:"description" binding:"max=255"`
}

type WithdrawRequest struct {
	TransactionHash string `json:"transaction_hash" binding:"omitempty,tx_hash"`
}

// Spending is a wallet's lifetime spend as reported by the contract.
type Spending struct {
	Address  string `json:"address"`
	TotalWei string `json:"total_wei"`
	Total    string `json:"total"`
	Source   string `json:"source"`
}

// FundsSummary is what an owner can withdraw.
type FundsSummary struct {
	BusinessID       string `json:"business_id"`
	TotalReceivedWei string `json:"total_received_wei"`
	TotalReceived    string `json:"total_received"`
	WithdrawnWei     string `json:"withdrawn_wei"`
	AvailableWei     string `json:"available_wei"`
	Available        string `json:"available"`
	TransactionCount int64  `json:"transaction_count"`
}
