package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ReportServiceTestSuite seeds orders through the order service and aggregates them
type ReportServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	orders  *OrderService
	reports *ReportService
	seq     int
}

func (s *ReportServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	local := NewLocalStorage(s.T().TempDir())
	s.orders = NewOrderService(s.db, NewImageService(local, local, LegacyPolicy{}, ""), nil)
	s.reports = NewReportService(s.db, 100)
	now := func() time.Time { return time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC) }
	s.orders.Now = now
	s.reports.Now = now
	s.seq = 0
}

func (s *ReportServiceTestSuite) order(total, advance string) *models.Order {
	s.seq++
	in := OrderInput{
		Token:        "R-" + strconv.Itoa(s.seq),
		CustomerName: "Customer",
		TotalAmount:  testutil.Money(s.T(), total),
	}
	if advance != "" {
		in.AdvanceAmount = testutil.Money(s.T(), advance)
	}
	order, err := s.orders.Create(s.ctx, nil, in)
	s.Require().NoError(err)
	return order
}

func (s *ReportServiceTestSuite) deliverOn(order *models.Order, day models.Date, amount, method string) {
	change := StatusChange{Status: "delivered", ActualDeliveryDate: &day, PaymentMethod: method}
	if amount != "" {
		change.PaymentAmount = testutil.Money(s.T(), amount)
	}
	_, err := s.orders.SetStatus(s.ctx, order.ID, nil, change)
	s.Require().NoError(err)
}

func (s *ReportServiceTestSuite) TestDailyCollections_GroupsByDeliveryDay() {
	jan10 := models.NewDate(2024, time.January, 10)
	s.deliverOn(s.order("100", ""), jan10, "100", "cash")
	s.deliverOn(s.order("50", ""), jan10, "50", "upi")
	s.deliverOn(s.order("300", ""), jan10, "200", "cash")

	report, err := s.reports.DailyCollections(s.ctx, &DateRange{From: jan10, To: jan10}, false)
	s.Require().NoError(err)

	s.Require().Len(report.Collections, 1)
	day := report.Collections[0]
	s.Equal("2024-01-10", day.Date.String())
	s.Equal("350", day.TotalCollected.String())
	s.Equal("300", day.CashTotal.String())
	s.Equal("50", day.UPITotal.String())
	s.True(day.OnlineTotal.IsZero())
	s.Equal(3, day.OrdersCount)
	s.Require().Len(day.Orders, 3)
	s.Equal("100", day.Orders[2].Balance.String())
	s.Equal(models.MethodCash, day.Orders[2].Payments[0].Method)

	s.Equal("350", report.Totals.Total().String())
}

func (s *ReportServiceTestSuite) TestDailyCollections_CountsEveryPaymentOfTheOrder() {
	order := s.order("500", "200")
	s.deliverOn(order, models.NewDate(2024, time.January, 12), "300", "online")

	report, err := s.reports.DailyCollections(s.ctx, nil, false)
	s.Require().NoError(err)

	s.Require().Len(report.Collections, 1)
	s.Equal("500", report.Collections[0].TotalCollected.String(), "the advance is counted on the delivery day")
	s.Equal("200", report.Collections[0].CashTotal.String())
	s.Equal("300", report.Collections[0].OnlineTotal.String())
}

func (s *ReportServiceTestSuite) TestDailyCollections_OrderingAndDefaultRange() {
	s.deliverOn(s.order("100", ""), models.NewDate(2024, time.January, 3), "100", "cash")
	s.deliverOn(s.order("200", ""), models.NewDate(2024, time.January, 17), "200", "upi")
	s.deliverOn(s.order("400", ""), models.NewDate(2023, time.December, 31), "400", "cash")

	pendingAgain := s.order("800", "")
	s.deliverOn(pendingAgain, models.NewDate(2024, time.January, 5), "800", "cash")
	_, err := s.orders.SetStatus(s.ctx, pendingAgain.ID, nil, StatusChange{Status: "pending"})
	s.Require().NoError(err)

	report, err := s.reports.DailyCollections(s.ctx, nil, false)
	s.Require().NoError(err)
	s.Equal("2024-01-01", report.Range.From.String())
	s.Equal("2024-01-31", report.Range.To.String())
	s.Require().Len(report.Collections, 2, "only delivered orders inside the current month")
	s.Equal("2024-01-17", report.Collections[0].Date.String())
	s.Equal("2024-01-03", report.Collections[1].Date.String())
	s.Equal("300", report.Totals.Total().String())

	ascending, err := s.reports.DailyCollections(s.ctx, &DateRange{
		From: models.NewDate(2023, time.December, 1),
		To:   models.NewDate(2024, time.January, 31),
	}, true)
	s.Require().NoError(err)
	s.Require().Len(ascending.Collections, 3)
	s.Equal("2023-12-31", ascending.Collections[0].Date.String())
	s.Equal("2024-01-17", ascending.Collections[2].Date.String())
	s.Equal("500", ascending.Totals.Cash.String())
	s.Equal("200", ascending.Totals.UPI.String())
}

func (s *ReportServiceTestSuite) TestDailyCollections_EmptyRange() {
	report, err := s.reports.DailyCollections(s.ctx, nil, false)
	s.Require().NoError(err)
	s.NotNil(report.Collections)
	s.Empty(report.Collections)
	s.True(report.Totals.Cash.IsZero())
	s.True(report.Totals.UPI.IsZero())
	s.True(report.Totals.Online.IsZero())
}

func (s *ReportServiceTestSuite) TestDailyCollections_RejectsBadRanges() {
	jan10 := models.NewDate(2024, time.January, 10)

	_, err := s.reports.DailyCollections(s.ctx, &DateRange{From: jan10}, false)
	s.ErrorIs(err, ErrValidation)

	_, err = s.reports.DailyCollections(s.ctx, &DateRange{From: jan10, To: jan10.AddDays(-1)}, false)
	s.ErrorIs(err, ErrValidation)
}

func (s *ReportServiceTestSuite) TestGuard_RejectsOversizedResultsBeforeLoading() {
	jan10 := models.NewDate(2024, time.January, 10)
	for i := 0; i < 3; i++ {
		s.deliverOn(s.order("100", ""), jan10, "100", "cash")
	}

	var loads int
	err := s.db.Callback().Query().Before("gorm:query").Register("test:count_order_loads", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*[]models.Order); ok {
			loads++
		}
	})
	s.Require().NoError(err)

	limited := NewReportService(s.db, 2)
	limited.Now = s.reports.Now

	_, err = limited.DailyCollections(s.ctx, nil, false)
	s.ErrorIs(err, ErrTooLarge)
	_, err = limited.DailySummary(s.ctx, OrderFilter{})
	s.ErrorIs(err, ErrTooLarge)
	_, err = limited.ExportRows(s.ctx, OrderFilter{})
	s.ErrorIs(err, ErrTooLarge)
	s.Zero(loads, "rejected reports never load order rows")

	narrowed, err := limited.DailySummary(s.ctx, OrderFilter{Search: "R-1"})
	s.Require().NoError(err)
	s.Equal(1, narrowed.TotalOrders)

	unlimited := NewReportService(s.db, 0)
	unlimited.Now = s.reports.Now
	report, err := unlimited.DailyCollections(s.ctx, nil, false)
	s.Require().NoError(err)
	s.Equal(3, report.Collections[0].OrdersCount)
}

func (s *ReportServiceTestSuite) TestDailySummary() {
	jan10 := models.NewDate(2024, time.January, 10)
	s.deliverOn(s.order("500", "100"), jan10, "400", "cash") // delivered, cleared
	s.deliverOn(s.order("300", ""), jan10, "100", "upi")     // delivered, partial
	s.order("200", "50")                                     // pending, partial
	s.order("150", "")                                       // pending, unpaid
	transferred := s.order("250", "250")
	_, err := s.orders.SetStatus(s.ctx, transferred.ID, nil, StatusChange{Status: "transferred"})
	s.Require().NoError(err)

	summary, err := s.reports.DailySummary(s.ctx, OrderFilter{})
	s.Require().NoError(err)

	s.Equal(5, summary.TotalOrders)
	s.Equal("800", summary.TotalCollection.String())
	s.Equal("350", summary.TotalPending.String())
	s.Equal(2, summary.DuesCleared)
	s.Equal(2, summary.FullPayments)
	s.Equal(2, summary.PartialPayments)

	delivered, err := s.reports.DailySummary(s.ctx, OrderFilter{Status: "delivered", Date: &jan10})
	s.Require().NoError(err)
	s.Equal(0, delivered.TotalOrders, "delivery_date is unset on these orders")

	_, err = s.reports.DailySummary(s.ctx, OrderFilter{Status: "archived"})
	s.ErrorIs(err, ErrValidation)
}

func (s *ReportServiceTestSuite) TestSummarize_Empty() {
	summary := Summarize(nil)
	s.Zero(summary.TotalOrders)
	s.True(summary.TotalCollection.IsZero())
	s.True(summary.TotalPending.IsZero())
	s.Zero(summary.DuesCleared)
	s.Zero(summary.PartialPayments)
}

func (s *ReportServiceTestSuite) TestExportRows() {
	order := s.order("500", "125.5")

	rows, err := s.reports.ExportRows(s.ctx, OrderFilter{})
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(ExportHeader, rows[0])

	row := rows[1]
	s.Len(row, len(ExportHeader))
	s.Equal(order.Token, row[1])
	s.Equal("2024-01-20", row[4])
	s.Equal("", row[5])
	s.Equal("pending", row[7])
	s.Equal("500.00", row[8])
	s.Equal("125.50", row[9])
	s.Equal("374.50", row[10])
}

func (s *ReportServiceTestSuite) TestMonthOf() {
	rng := MonthOf(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC))
	s.Equal("2024-02-01", rng.From.String())
	s.Equal("2024-02-29", rng.To.String())

	rng = MonthOf(time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC))
	s.Equal("2023-12-01", rng.From.String())
	s.Equal("2023-12-31", rng.To.String())
}

func TestReportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}
