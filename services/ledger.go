package services

import (
	"context"
	"errors"
	"time"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentOrder is the presentation order of a ledger: newest payment first, later insert first on ties
const paymentOrder = "payment_date DESC, id DESC"

// MethodTotals is the fixed cash/upi/online tally used by every view of payments
type MethodTotals struct {
	Cash   decimal.Decimal `json:"cash"`
	UPI    decimal.Decimal `json:"upi"`
	Online decimal.Decimal `json:"online"`
}

// Add credits amount to the bucket for method. Unknown methods count as cash.
func (m *MethodTotals) Add(method models.PaymentMethod, amount decimal.Decimal) {
	switch models.NormalizePaymentMethod(string(method)) {
	case models.MethodUPI:
		m.UPI = m.UPI.Add(amount)
	case models.MethodOnline:
		m.Online = m.Online.Add(amount)
	default:
		m.Cash = m.Cash.Add(amount)
	}
}

// Merge adds every bucket of other into m
func (m *MethodTotals) Merge(other MethodTotals) {
	m.Cash = m.Cash.Add(other.Cash)
	m.UPI = m.UPI.Add(other.UPI)
	m.Online = m.Online.Add(other.Online)
}

// Total is the sum of all buckets
func (m MethodTotals) Total() decimal.Decimal {
	return m.Cash.Add(m.UPI).Add(m.Online)
}

// TallyByMethod groups payments into the three method buckets
func TallyByMethod(payments []models.Payment) MethodTotals {
	var totals MethodTotals
	for _, p := range payments {
		totals.Add(p.PaymentMethod, p.Amount)
	}
	return totals
}

// SumPayments returns the total received across payments
func SumPayments(payments []models.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// ComputeBalance is the single definition of an order's outstanding amount:
// total minus everything received, floored at zero. Overpayment is allowed.
func ComputeBalance(total decimal.Decimal, payments []models.Payment) decimal.Decimal {
	balance := total.Sub(SumPayments(payments))
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Derive fills the order's paid amount and balance from its loaded payments
func Derive(order *models.Order) {
	order.PaidAmount = SumPayments(order.Payments)
	order.Balance = ComputeBalance(order.TotalAmount, order.Payments)
}

// PaymentInput describes one receipt to append to a ledger
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"payment_date"`
	Method string          `json:"payment_method"`
	Note   string          `json:"note"`
}

// LedgerSummary is the per-order balance view
type LedgerSummary struct {
	OrderID     uint             `json:"order_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	PaidAmount  decimal.Decimal  `json:"paid_amount"`
	Balance     decimal.Decimal  `json:"balance"`
	Totals      MethodTotals     `json:"totals"`
	Payments    []models.Payment `json:"payments"`
}

// LedgerService appends payments to orders and derives balances
type LedgerService struct {
	db     *gorm.DB
	events EventPublisher
	Now    func() time.Time
}

// NewLedgerService creates a ledger service
func NewLedgerService(db *gorm.DB, events EventPublisher) *LedgerService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &LedgerService{db: db, events: events, Now: time.Now}
}

// AddPayment appends a payment and returns the order's balance recomputed after the insert
func (s *LedgerService) AddPayment(ctx context.Context, orderID uint, in PaymentInput) (decimal.Decimal, error) {
	if !in.Amount.IsPositive() {
		return decimal.Zero, validationError("Payment amount must be greater than zero")
	}
	method, err := parseMethod(in.Method)
	if err != nil {
		return decimal.Zero, err
	}

	paidAt := s.Now()
	if in.Date != nil && !in.Date.IsZero() {
		paidAt = *in.Date
	}

	var order models.Order
	var balance decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findOrder(tx, orderID, &order); err != nil {
			return err
		}

		payment := models.Payment{
			OrderID:       order.ID,
			Amount:        in.Amount,
			PaymentDate:   paidAt,
			PaymentMethod: method,
			Note:          optionalString(in.Note),
		}
		if err := recordPayment(tx, &payment); err != nil {
			return err
		}

		balance, err = balanceOf(tx, &order)
		return err
	})
	if err != nil {
		return decimal.Zero, asServiceError(err, "Failed to record payment")
	}

	utils.PaymentsRecordedTotal.WithLabelValues(string(method)).Inc()
	publishBestEffort(ctx, s.events, OrderEvent{
		Type:       EventPaymentAdded,
		OrderID:    order.ID,
		Token:      order.Token,
		Status:     order.Status,
		Amount:     in.Amount,
		Balance:    balance,
		OccurredAt: s.Now(),
	})

	return balance, nil
}

// Balance recomputes an order's balance from its full ledger
func (s *LedgerService) Balance(ctx context.Context, orderID uint) (decimal.Decimal, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := findOrder(db, orderID, &order); err != nil {
		return decimal.Zero, asServiceError(err, "Failed to load order")
	}
	balance, err := balanceOf(db, &order)
	if err != nil {
		return decimal.Zero, asServiceError(err, "Failed to load payments")
	}
	return balance, nil
}

// Summary returns the order's payments in presentation order with derived totals
func (s *LedgerService) Summary(ctx context.Context, orderID uint) (*LedgerSummary, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := findOrder(db, orderID, &order); err != nil {
		return nil, asServiceError(err, "Failed to load order")
	}
	payments, err := loadPayments(db, order.ID)
	if err != nil {
		return nil, asServiceError(err, "Failed to load payments")
	}

	return &LedgerSummary{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		PaidAmount:  SumPayments(payments),
		Balance:     ComputeBalance(order.TotalAmount, payments),
		Totals:      TallyByMethod(payments),
		Payments:    payments,
	}, nil
}

func parseMethod(raw string) (models.PaymentMethod, error) {
	if raw == "" {
		return models.MethodCash, nil
	}
	method := models.PaymentMethod(raw)
	if !method.Valid() {
		return "", validationError("Invalid payment method %q, must be one of cash, upi, online", raw)
	}
	return method, nil
}

func findOrder(db *gorm.DB, orderID uint, order *models.Order) error {
	if err := db.First(order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("ORDER_NOT_FOUND", "Order not found")
		}
		return err
	}
	return nil
}

func recordPayment(tx *gorm.DB, payment *models.Payment) error {
	return tx.Create(payment).Error
}

func loadPayments(db *gorm.DB, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := db.Where("order_id = ?", orderID).Order(paymentOrder).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// balanceOf always reads the ledger fresh; there is no stored balance to go stale
func balanceOf(db *gorm.DB, order *models.Order) (decimal.Decimal, error) {
	payments, err := loadPayments(db, order.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeBalance(order.TotalAmount, payments), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
