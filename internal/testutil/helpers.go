package testutil

import (
	"os"
	"runtime"
	"testing"
)

// RequireWindows skips the test unless it is running on Windows with the
// PALISADE_HOST_TEST environment variable set. This ensures that tests
// touching the real firewall rule store only run on hosts prepared for it.
func RequireWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "windows" {
		t.Skip("Skipping test: requires a Windows host")
	}
	if os.Getenv("PALISADE_HOST_TEST") == "" {
		t.Skip("Skipping test: requires PALISADE_HOST_TEST environment")
	}
}
