package services

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kendall-kelly/tailor-orders-api/config"
	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
)

// LegacyPolicy decides which orders may surface photos found on disk without an
// order_images row. Off unless enabled, and then only for allow-listed ids or ids
// at or below the ceiling.
type LegacyPolicy struct {
	Enabled    bool
	OrderIDs   map[uint]struct{}
	MaxOrderID uint
	Dir        string // relative to the local storage root; files live in <Dir>/<order id>/
	Limit      int
}

// NewLegacyPolicy builds the policy from configuration
func NewLegacyPolicy(cfg config.LegacyImagesConfig) LegacyPolicy {
	ids := make(map[uint]struct{}, len(cfg.OrderIDs))
	for _, id := range cfg.OrderIDs {
		ids[id] = struct{}{}
	}
	return LegacyPolicy{
		Enabled:    cfg.Enabled,
		OrderIDs:   ids,
		MaxOrderID: cfg.MaxOrderID,
		Dir:        cfg.Dir,
		Limit:      cfg.Limit,
	}
}

// Eligible reports whether orderID may use the legacy fallback
func (p LegacyPolicy) Eligible(orderID uint) bool {
	if !p.Enabled || orderID == 0 {
		return false
	}
	if _, ok := p.OrderIDs[orderID]; ok {
		return true
	}
	return p.MaxOrderID > 0 && orderID <= p.MaxOrderID
}

// scanLegacyImages lists up to limit image files in the order's legacy directory,
// sorted by filename, as read-only image records.
func scanLegacyImages(local *LocalStorage, dir string, orderID uint, limit int) ([]models.OrderImage, error) {
	if limit <= 0 {
		return nil, nil
	}

	relDir := path.Join(NormalizeReference(dir), strconv.FormatUint(uint64(orderID), 10))
	fullDir := filepath.Join(local.Root(), filepath.FromSlash(relDir))

	// os.ReadDir returns entries sorted by filename
	entries, err := os.ReadDir(fullDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read legacy image directory: %w", err)
	}

	var images []models.OrderImage
	for _, entry := range entries {
		if len(images) == limit {
			break
		}
		if !entry.Type().IsRegular() || !utils.IsImageFilename(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		images = append(images, models.OrderImage{
			OrderID:   orderID,
			Filename:  path.Join(relDir, entry.Name()),
			Mime:      mime.TypeByExtension(strings.ToLower(filepath.Ext(entry.Name()))),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
			UpdatedAt: info.ModTime(),
			IsLegacy:  true,
			LegacyID:  fmt.Sprintf("legacy-%d-%s", orderID, entry.Name()),
		})
	}
	return images, nil
}
