package services

import (
	"path"
	"strings"
)

// Prefixes that older deployments wrote in front of the storage-relative path.
// They are stripped repeatedly, so "public/storage/uploads/x.jpg" becomes "uploads/x.jpg".
var redundantPrefixes = []string{"public/", "storage/", "app/public/"}

// IsAbsoluteURL reports whether ref already points at a remote object
func IsAbsoluteURL(ref string) bool {
	ref = strings.TrimSpace(ref)
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "//")
}

// NormalizeReference turns any historical relative image reference into a clean
// storage-relative path such as "uploads/orders/7/x.jpg". It returns "" for references
// that are empty or escape the storage root.
func NormalizeReference(ref string) string {
	p := strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/")
	p = strings.TrimLeft(p, "/")

	for stripped := true; stripped; {
		stripped = false
		for _, prefix := range redundantPrefixes {
			if strings.HasPrefix(p, prefix) {
				p = strings.TrimLeft(strings.TrimPrefix(p, prefix), "/")
				stripped = true
			}
		}
	}

	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return ""
	}
	return p
}

// CandidatePaths lists the URLs an image reference may be served from, most specific first.
// Absolute URLs are returned unchanged. The function does no I/O.
func CandidatePaths(ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if IsAbsoluteURL(ref) {
		return []string{ref}
	}

	rel := NormalizeReference(ref)
	if rel == "" {
		return nil
	}

	candidates := []string{"/storage/" + rel, "/" + rel}
	if !strings.HasPrefix(rel, "uploads/") {
		candidates = append(candidates, "/storage/uploads/"+rel, "/uploads/"+rel)
	}
	return dedupe(candidates)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
