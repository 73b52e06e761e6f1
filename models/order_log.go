package models

import (
	"strings"
	"time"
)

// OrderLog is one immutable audit entry on an order
type OrderLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	UserID    *uint     `gorm:"index" json:"user_id"` // acting operator, nil for system actions
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Note      *string   `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderLog model
func (OrderLog) TableName() string {
	return "order_logs"
}

// IsStatusChange reports whether the entry belongs on the status timeline
func (l OrderLog) IsStatusChange() bool {
	return strings.HasPrefix(l.Action, StatusChangedPrefix)
}
