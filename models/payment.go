package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodUPI    PaymentMethod = "upi"
	MethodOnline PaymentMethod = "online"
)

// PaymentMethods lists the accepted methods
var PaymentMethods = []PaymentMethod{MethodCash, MethodUPI, MethodOnline}

// NormalizePaymentMethod maps an empty or unknown method to cash
func NormalizePaymentMethod(raw string) PaymentMethod {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if method.Valid() {
		return method
	}
	return MethodCash
}

// Valid reports whether m is one of the accepted methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodOnline:
		return true
	}
	return false
}

// Payment is one receipt against an order. Rows are append-only.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"not null;index" json:"payment_date"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null;default:'cash'" json:"payment_method"`
	Note          *string         `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
