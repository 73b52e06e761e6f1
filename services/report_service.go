package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report names used in metrics and logs
const (
	ReportDailyCollections = "daily_collections"
	ReportDailySummary     = "daily_summary"
	ReportOrdersExport     = "orders_export"
)

// DateRange is an inclusive span of calendar days
type DateRange struct {
	From models.Date `json:"from"`
	To   models.Date `json:"to"`
}

// MonthOf returns the calendar month containing t
func MonthOf(t time.Time) DateRange {
	first := models.NewDate(t.Year(), t.Month(), 1)
	last := models.NewDate(t.Year(), t.Month()+1, 1).AddDays(-1)
	return DateRange{From: first, To: last}
}

// CollectionPayment is one payment inside a collections breakdown
type CollectionPayment struct {
	Amount decimal.Decimal      `json:"amount"`
	Method models.PaymentMethod `json:"method"`
}

// CollectionOrder is the compact per-order line of a collections group
type CollectionOrder struct {
	ID           uint                `json:"id"`
	Token        string              `json:"token"`
	CustomerName string              `json:"customer_name"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	PaidAmount   decimal.Decimal     `json:"paid_amount"`
	Balance      decimal.Decimal     `json:"balance"`
	Payments     []CollectionPayment `json:"payments"`
}

// DailyCollection groups the delivered orders of one day
type DailyCollection struct {
	Date           models.Date       `json:"date"`
	TotalCollected decimal.Decimal   `json:"total_collected"`
	CashTotal      decimal.Decimal   `json:"cash_total"`
	UPITotal       decimal.Decimal   `json:"upi_total"`
	OnlineTotal    decimal.Decimal   `json:"online_total"`
	OrdersCount    int               `json:"orders_count"`
	Orders         []CollectionOrder `json:"orders"`
}

// CollectionsReport is the daily-collections response
type CollectionsReport struct {
	Range       DateRange         `json:"range"`
	Collections []DailyCollection `json:"collections"`
	Totals      MethodTotals      `json:"totals"`
}

// DailySummary holds the dashboard statistics of a filtered order set.
// FullPayments is counted exactly like DuesCleared.
type DailySummary struct {
	TotalOrders     int             `json:"total_orders"`
	TotalCollection decimal.Decimal `json:"total_collection"`
	TotalPending    decimal.Decimal `json:"total_pending"`
	DuesCleared     int             `json:"dues_cleared"`
	PartialPayments int             `json:"partial_payments"`
	FullPayments    int             `json:"full_payments"`
}

// ReportService aggregates orders and payments for reporting
type ReportService struct {
	db      *gorm.DB
	maxRows int64
	Now     func() time.Time
}

// NewReportService creates a report service that refuses result sets above maxRows orders
func NewReportService(db *gorm.DB, maxRows int) *ReportService {
	return &ReportService{db: db, maxRows: int64(maxRows), Now: time.Now}
}

// DailyCollections groups delivered orders by actual delivery day within rng, newest day
// first unless ascending. A nil rng means the current calendar month.
func (s *ReportService) DailyCollections(ctx context.Context, rng *DateRange, ascending bool) (*CollectionsReport, error) {
	span := MonthOf(s.Now())
	if rng != nil {
		span = *rng
	}
	if span.From.IsZero() || span.To.IsZero() {
		return nil, validationError("Both start and end dates are required")
	}
	if span.To.Before(span.From) {
		return nil, validationError("Date range end %s is before start %s", span.To, span.From)
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.StatusDelivered).
		Where("actual_delivery_date IS NOT NULL").
		Where("actual_delivery_date >= ? AND actual_delivery_date <= ?", span.From, span.To)
	if err := s.guard(query, ReportDailyCollections); err != nil {
		return nil, err
	}

	var orders []models.Order
	err := query.
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order(paymentOrder) }).
		Order("actual_delivery_date ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, internalError("Failed to load delivered orders", err)
	}

	report := GroupCollections(orders, ascending)
	report.Range = span
	return report, nil
}

// GroupCollections buckets delivered orders by the date part of their actual delivery date
func GroupCollections(orders []models.Order, ascending bool) *CollectionsReport {
	groups := make(map[string]*DailyCollection)
	var keys []string
	var grand MethodTotals

	for i := range orders {
		order := &orders[i]
		if order.ActualDeliveryDate == nil || order.ActualDeliveryDate.IsZero() {
			continue
		}

		key := order.ActualDeliveryDate.String()
		group, ok := groups[key]
		if !ok {
			group = &DailyCollection{Date: *order.ActualDeliveryDate, Orders: []CollectionOrder{}}
			groups[key] = group
			keys = append(keys, key)
		}

		Derive(order)
		totals := TallyByMethod(order.Payments)
		grand.Merge(totals)

		group.TotalCollected = group.TotalCollected.Add(totals.Total())
		group.CashTotal = group.CashTotal.Add(totals.Cash)
		group.UPITotal = group.UPITotal.Add(totals.UPI)
		group.OnlineTotal = group.OnlineTotal.Add(totals.Online)
		group.OrdersCount++
		group.Orders = append(group.Orders, collectionOrder(order))
	}

	// YYYY-MM-DD keys sort chronologically as strings
	sort.Strings(keys)
	if !ascending {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}

	collections := make([]DailyCollection, 0, len(keys))
	for _, key := range keys {
		collections = append(collections, *groups[key])
	}
	return &CollectionsReport{Collections: collections, Totals: grand}
}

func collectionOrder(order *models.Order) CollectionOrder {
	payments := make([]CollectionPayment, 0, len(order.Payments))
	for _, p := range order.Payments {
		payments = append(payments, CollectionPayment{
			Amount: p.Amount,
			Method: models.NormalizePaymentMethod(string(p.PaymentMethod)),
		})
	}
	return CollectionOrder{
		ID:           order.ID,
		Token:        order.Token,
		CustomerName: order.CustomerName,
		TotalAmount:  order.TotalAmount,
		PaidAmount:   order.PaidAmount,
		Balance:      order.Balance,
		Payments:     payments,
	}
}

// DailySummary computes dashboard statistics over the orders matching filter
func (s *ReportService) DailySummary(ctx context.Context, filter OrderFilter) (*DailySummary, error) {
	orders, err := s.filteredOrders(ctx, filter, ReportDailySummary)
	if err != nil {
		return nil, err
	}
	summary := Summarize(orders)
	return &summary, nil
}

// Summarize computes dashboard statistics over an already filtered order set.
// Orders must have their payments loaded.
func Summarize(orders []models.Order) DailySummary {
	summary := DailySummary{
		TotalOrders:     len(orders),
		TotalCollection: decimal.Zero,
		TotalPending:    decimal.Zero,
	}

	for i := range orders {
		order := &orders[i]
		Derive(order)

		switch {
		case order.Status == models.StatusDelivered:
			summary.TotalCollection = summary.TotalCollection.Add(order.TotalAmount)
		case !order.Status.Settled():
			summary.TotalPending = summary.TotalPending.Add(order.TotalAmount)
		}

		if order.Balance.IsZero() {
			summary.DuesCleared++
			summary.FullPayments++
		} else if order.PaidAmount.IsPositive() {
			summary.PartialPayments++
		}
	}
	return summary
}

// ExportHeader is the column order of ExportRows
var ExportHeader = []string{
	"ID", "Token", "Bill Number", "Customer", "Entry Date", "Delivery Date", "Actual Delivery Date",
	"Status", "Total Amount", "Paid Amount", "Balance", "Remarks",
}

// ExportRows returns the header and one row per order matching filter, for a CSV sink
func (s *ReportService) ExportRows(ctx context.Context, filter OrderFilter) ([][]string, error) {
	orders, err := s.filteredOrders(ctx, filter, ReportOrdersExport)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(orders)+1)
	rows = append(rows, ExportHeader)
	for i := range orders {
		order := &orders[i]
		Derive(order)
		rows = append(rows, []string{
			strconv.FormatUint(uint64(order.ID), 10),
			order.Token,
			order.BillNumber,
			order.CustomerName,
			order.EntryDate.String(),
			dateString(order.DeliveryDate),
			dateString(order.ActualDeliveryDate),
			string(order.Status),
			order.TotalAmount.StringFixed(2),
			order.PaidAmount.StringFixed(2),
			order.Balance.StringFixed(2),
			order.Remarks,
		})
	}
	return rows, nil
}

func (s *ReportService) filteredOrders(ctx context.Context, filter OrderFilter, report string) ([]models.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(filter.scope)
	if err := s.guard(query, report); err != nil {
		return nil, err
	}

	var orders []models.Order
	err := query.
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order(paymentOrder) }).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, internalError("Failed to load orders", err)
	}
	return orders, nil
}

// guard counts the matching orders and rejects the request before loading them when
// there are more than the ceiling allows. A ceiling of zero disables the check.
func (s *ReportService) guard(query *gorm.DB, report string) error {
	if s.maxRows <= 0 {
		return nil
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return internalError("Failed to count orders", err)
	}
	if count > s.maxRows {
		utils.ReportsRejectedTotal.WithLabelValues(report).Inc()
		utils.GetLogger().Warn("report rejected for size",
			zap.String("report", report),
			zap.Int64("rows", count),
			zap.Int64("limit", s.maxRows),
		)
		return tooLargeError(count, s.maxRows)
	}
	return nil
}

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
