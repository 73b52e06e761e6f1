package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain pins GO_ENV to "test" so nothing in this package can pick up development settings
func TestMain(m *testing.M) {
	if err := os.Setenv("GO_ENV", "test"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set GO_ENV=test: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
