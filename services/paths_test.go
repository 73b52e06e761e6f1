package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReference(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "clean", ref: "uploads/orders/7/x.jpg", want: "uploads/orders/7/x.jpg"},
		{name: "leading slash", ref: "/uploads/orders/7/x.jpg", want: "uploads/orders/7/x.jpg"},
		{name: "storage prefix", ref: "storage/uploads/x.jpg", want: "uploads/x.jpg"},
		{name: "public storage prefix", ref: "public/storage/uploads/x.jpg", want: "uploads/x.jpg"},
		{name: "app public prefix", ref: "app/public/orders/1/a.png", want: "orders/1/a.png"},
		{name: "backslashes", ref: "uploads\\orders\\7\\x.jpg", want: "uploads/orders/7/x.jpg"},
		{name: "surrounding whitespace", ref: "  orders/7/x.jpg ", want: "orders/7/x.jpg"},
		{name: "dot segments collapse", ref: "uploads/./orders/../x.jpg", want: "uploads/x.jpg"},
		{name: "escapes root", ref: "../etc/passwd", want: ""},
		{name: "escapes after prefix", ref: "storage/../../secret.jpg", want: ""},
		{name: "empty", ref: "", want: ""},
		{name: "prefix only", ref: "public/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeReference(tt.ref))
		})
	}
}

func TestCandidatePaths(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want []string
	}{
		{
			name: "current upload path",
			ref:  "uploads/orders/7/x.jpg",
			want: []string{"/storage/uploads/orders/7/x.jpg", "/uploads/orders/7/x.jpg"},
		},
		{
			name: "bare path from older deployments",
			ref:  "orders/7/x.jpg",
			want: []string{
				"/storage/orders/7/x.jpg",
				"/orders/7/x.jpg",
				"/storage/uploads/orders/7/x.jpg",
				"/uploads/orders/7/x.jpg",
			},
		},
		{
			name: "public storage prefix",
			ref:  "/public/storage/uploads/orders/7/x.jpg",
			want: []string{"/storage/uploads/orders/7/x.jpg", "/uploads/orders/7/x.jpg"},
		},
		{
			name: "windows separators",
			ref:  "uploads\\orders\\7\\x.jpg",
			want: []string{"/storage/uploads/orders/7/x.jpg", "/uploads/orders/7/x.jpg"},
		},
		{
			name: "absolute https passes through",
			ref:  "https://cdn.example.com/orders/7/x.jpg",
			want: []string{"https://cdn.example.com/orders/7/x.jpg"},
		},
		{
			name: "protocol relative passes through",
			ref:  "//cdn.example.com/x.jpg",
			want: []string{"//cdn.example.com/x.jpg"},
		},
		{name: "empty", ref: "  ", want: nil},
		{name: "traversal", ref: "../x.jpg", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidatePaths(tt.ref))
		})
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, IsAbsoluteURL("http://example.com/a.jpg"))
	assert.True(t, IsAbsoluteURL(" https://example.com/a.jpg"))
	assert.True(t, IsAbsoluteURL("//example.com/a.jpg"))
	assert.False(t, IsAbsoluteURL("/uploads/a.jpg"))
	assert.False(t, IsAbsoluteURL("uploads/a.jpg"))
}
