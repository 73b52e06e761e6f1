package services

import (
	"strings"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"gorm.io/gorm"
)

// Date columns an order filter can match on
const (
	DateFieldDelivery = "delivery"
	DateFieldEntry    = "entry"
)

// OrderFilter narrows an order listing, summary or export
type OrderFilter struct {
	Status    string
	Date      *models.Date // exact day, overrides From/To
	From      *models.Date
	To        *models.Date
	DateField string // delivery (default) or entry
	Search    string // token, bill number or customer name
}

// Validate rejects unknown statuses and date fields before any query runs
func (f OrderFilter) Validate() error {
	if f.Status != "" {
		if _, err := models.ParseOrderStatus(f.Status); err != nil {
			return validationError("%s", err.Error())
		}
	}
	switch f.DateField {
	case "", DateFieldDelivery, DateFieldEntry:
	default:
		return validationError("Invalid date field %q, must be delivery or entry", f.DateField)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return validationError("Date range end %s is before start %s", f.To, f.From)
	}
	return nil
}

func (f OrderFilter) dateColumn() string {
	if f.DateField == DateFieldEntry {
		return "entry_date"
	}
	return "delivery_date"
}

// scope applies the filter to a query on orders
func (f OrderFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		status, _ := models.ParseOrderStatus(f.Status)
		db = db.Where("status = ?", status)
	}

	column := f.dateColumn()
	switch {
	case f.Date != nil:
		db = db.Where(column+" = ?", *f.Date)
	default:
		if f.From != nil {
			db = db.Where(column+" >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where(column+" <= ?", *f.To)
		}
	}

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		db = db.Where("(LOWER(token) LIKE ? OR LOWER(bill_number) LIKE ? OR LOWER(customer_name) LIKE ?)", like, like, like)
	}
	return db
}
