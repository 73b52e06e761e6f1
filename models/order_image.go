package models

import (
	"encoding/json"
	"time"
)

// OrderImage is one reference photo attached to an order.
// Filename holds either a storage-relative path or an absolute URL.
type OrderImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Filename  string    `gorm:"size:1024;not null" json:"filename"`
	Mime      string    `gorm:"size:128" json:"mime"` // as declared on upload
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL  string   `gorm:"-" json:"url"`
	URLs []string `gorm:"-" json:"urls,omitempty"`

	// Legacy images are discovered on disk and have no row
	IsLegacy bool   `gorm:"-" json:"is_legacy,omitempty"`
	LegacyID string `gorm:"-" json:"-"`
}

// TableName specifies the table name for the OrderImage model
func (OrderImage) TableName() string {
	return "order_images"
}

// MarshalJSON renders legacy images with their synthetic string id in place of the numeric one
func (img OrderImage) MarshalJSON() ([]byte, error) {
	type plain OrderImage
	if !img.IsLegacy {
		return json.Marshal(plain(img))
	}
	return json.Marshal(struct {
		plain
		ID string `json:"id"`
	}{plain: plain(img), ID: img.LegacyID})
}
