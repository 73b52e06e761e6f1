package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order represents one tailoring job from intake to hand-off
type Order struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Token              string            `gorm:"size:64;not null;uniqueIndex" json:"token"`
	BillNumber         string            `gorm:"size:64;not null;uniqueIndex" json:"bill_number"`
	CustomerName       string            `gorm:"size:255" json:"customer_name"`
	TotalAmount        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Measurements       datatypes.JSONMap `json:"measurements"` // opaque, never interpreted server-side
	DeliveryDate       *Date             `gorm:"type:date;index" json:"delivery_date"`
	EntryDate          Date              `gorm:"type:date;not null;index" json:"entry_date"`
	ActualDeliveryDate *Date             `gorm:"type:date;index" json:"actual_delivery_date"` // only meaningful while delivered
	Status             OrderStatus       `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Remarks            string            `gorm:"type:text" json:"remarks"`
	CreatedBy          *uint             `gorm:"index" json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	// Derived from Payments on every read, never persisted
	PaidAmount decimal.Decimal `gorm:"-" json:"paid_amount"`
	Balance    decimal.Decimal `gorm:"-" json:"balance"`

	Images   []OrderImage `gorm:"foreignKey:OrderID" json:"images"`
	Payments []Payment    `gorm:"foreignKey:OrderID" json:"payments"`
	Logs     []OrderLog   `gorm:"foreignKey:OrderID" json:"logs"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
