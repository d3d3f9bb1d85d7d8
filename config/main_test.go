package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run the config tests outside GO_ENV=test. The tests
// rewrite DATABASE_URL and friends in the process environment.
func TestMain(m *testing.M) {
	switch env := os.Getenv("GO_ENV"); env {
	case "":
		os.Setenv("GO_ENV", "test")
	case "test":
	default:
		fmt.Fprintf(os.Stderr, "config tests must run with GO_ENV=test (got %q)\n", env)
		os.Exit(1)
	}
	os.Exit(m.Run())
}
