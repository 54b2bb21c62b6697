package models

import (
	"time"
)

// TransactionStatus is the lifecycle state of a conversion request.
// Transitions are admin-driven and validated by CanTransitionTo; handlers
// and services must never compare raw strings against a status.
type TransactionStatus string

const (
	StatusPending         TransactionStatus = "pending"
	StatusPaymentReceived TransactionStatus = "payment_received"
	StatusUSDTSent        TransactionStatus = "usdt_sent"
	StatusCompleted       TransactionStatus = "completed"
	StatusFailed          TransactionStatus = "failed"
)

// AllStatuses lists every valid lifecycle state.
var AllStatuses = []TransactionStatus{
	StatusPending,
	StatusPaymentReceived,
	StatusUSDTSent,
	StatusCompleted,
	StatusFailed,
}

// Valid reports whether s is a known lifecycle state.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaymentReceived, StatusUSDTSent, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsSuccess is the single canonical "did the conversion finish" predicate.
// Only completed counts; usdt_sent still awaits final confirmation.
func (s TransactionStatus) IsSuccess() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// Any non-terminal state may be failed (admin rejection or deadline expiry)
// or completed (admin shortcut); forward progress is otherwise strictly
// pending -> payment_received -> usdt_sent -> completed.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == StatusFailed || next == StatusCompleted {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusPaymentReceived || next == StatusUSDTSent
	case StatusPaymentReceived:
		return next == StatusUSDTSent
	}
	return false
}

// Transaction is one GBP to USDT conversion request. The exchange rate and
// fee breakdown are frozen at creation and never recomputed.
type Transaction struct {
	ID               uint              `gorm:"primarykey" json:"-"`
	PublicID         string            `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	UserID           uint              `gorm:"not null;index" json:"user_id"`
	GBPAmount        float64           `gorm:"not null" json:"gbp_amount"`
	USDTAmount       float64           `gorm:"not null" json:"usdt_amount"`
	ExchangeRate     float64           `gorm:"not null" json:"exchange_rate"`
	BridgePayFee     float64           `gorm:"not null" json:"bridgepay_fee"`
	NetworkFee       float64           `gorm:"not null" json:"network_fee"`
	TotalFees        float64           `gorm:"not null" json:"total_fees"`
	WalletAddress    string            `gorm:"not null" json:"wallet_address"`
	PaymentReference string            `gorm:"uniqueIndex;not null" json:"payment_reference"`
	Status           TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentDeadline  time.Time         `gorm:"not null" json:"payment_deadline"`
	TransactionHash  string            `json:"transaction_hash,omitempty"`
	AdminNotes       string            `json:"admin_notes,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
