package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"go.uber.org/zap"
)

// UploadedFile is one image received from a client
type UploadedFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// ImageService stores, resolves and removes order photos across every storage generation
type ImageService struct {
	primary StorageBackend
	local   *LocalStorage
	legacy  LegacyPolicy
	appURL  string
}

// NewImageService creates an image service. primary receives new uploads; local always
// serves and deletes relative references left by earlier deployments.
func NewImageService(primary StorageBackend, local *LocalStorage, legacy LegacyPolicy, appURL string) *ImageService {
	if primary == nil {
		primary = local
	}
	return &ImageService{
		primary: primary,
		local:   local,
		legacy:  legacy,
		appURL:  strings.TrimRight(appURL, "/"),
	}
}

// Backend returns the name of the backend receiving uploads
func (s *ImageService) Backend() string {
	return s.primary.Name()
}

// Store writes the file's bytes under orders/<orderID>/ and returns an unsaved image row
// referencing them.
func (s *ImageService) Store(ctx context.Context, orderID uint, file UploadedFile) (models.OrderImage, error) {
	if len(file.Content) == 0 {
		return models.OrderImage{}, validationError("Image %q is empty", file.Name)
	}

	key := fmt.Sprintf("orders/%d/%s%s", orderID, uuid.NewString(), extensionFor(file))
	ref, err := s.primary.Put(ctx, key, file.Content, file.ContentType)
	if err != nil {
		return models.OrderImage{}, storageError("Failed to store image", err)
	}

	return models.OrderImage{
		OrderID:  orderID,
		Filename: ref,
		Mime:     file.ContentType,
		Size:     int64(len(file.Content)),
	}, nil
}

// Delete removes the bytes behind ref. Failures are logged and swallowed: a dangling
// file is preferable to a failed order deletion.
func (s *ImageService) Delete(ctx context.Context, ref string) {
	if strings.TrimSpace(ref) == "" {
		return
	}

	backend := StorageBackend(s.local)
	if IsAbsoluteURL(ref) {
		if s.primary.Name() == BackendLocal {
			// remote object from a previous deployment; nothing configured can remove it
			utils.GetLogger().Debug("skipping delete of remote image without remote storage", zap.String("reference", ref))
			return
		}
		backend = s.primary
	}

	if err := backend.Delete(ctx, ref); err != nil {
		utils.StorageDeleteFailuresTotal.WithLabelValues(backend.Name()).Inc()
		utils.GetLogger().Warn("failed to delete stored image",
			zap.String("backend", backend.Name()),
			zap.String("reference", ref),
			zap.Error(err),
		)
	}
}

// Present fills the image's candidate URLs; URL is the most specific one
func (s *ImageService) Present(img *models.OrderImage) {
	candidates := CandidatePaths(img.Filename)
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if s.appURL != "" && strings.HasPrefix(c, "/") && !IsAbsoluteURL(c) {
			c = s.appURL + c
		}
		urls = append(urls, c)
	}

	img.URLs = urls
	img.URL = ""
	if len(urls) > 0 {
		img.URL = urls[0]
	}
}

// ForOrder returns the images to show for an order: its stored images, or, when it has
// none and the legacy policy allows, up to the configured number of files found on disk.
func (s *ImageService) ForOrder(orderID uint, images []models.OrderImage) []models.OrderImage {
	if len(images) == 0 {
		images = s.LegacyFallback(orderID, s.legacy.Limit)
	}
	for i := range images {
		s.Present(&images[i])
	}
	if images == nil {
		images = []models.OrderImage{}
	}
	return images
}

// LegacyFallback synthesizes read-only image records from the order's legacy directory.
// Callers must only use it for orders without stored images.
func (s *ImageService) LegacyFallback(orderID uint, limit int) []models.OrderImage {
	if !s.legacy.Eligible(orderID) {
		return nil
	}

	images, err := scanLegacyImages(s.local, s.legacy.Dir, orderID, limit)
	if err != nil {
		utils.GetLogger().Warn("failed to scan legacy images", zap.Uint("order_id", orderID), zap.Error(err))
		return nil
	}
	return images
}

func extensionFor(file UploadedFile) string {
	if ext := strings.ToLower(filepath.Ext(file.Name)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(file.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}
