//go:build !windows

package service

import (
	"context"
	"fmt"
	"runtime"
)

// ErrUnsupported is returned when firewall service control is attempted
// off Windows.
var ErrUnsupported = fmt.Errorf("firewall service control not supported on %s", runtime.GOOS)

// StubManager satisfies Manager on platforms without the Windows Firewall.
type StubManager struct{}

// NewManager creates the platform manager (stub off Windows).
func NewManager() Manager {
	return &StubManager{}
}

func (m *StubManager) SetServiceRunning(ctx context.Context, running bool) (bool, error) {
	return false, ErrUnsupported
}

func (m *StubManager) SetProfileEnabled(profile string, enabled bool) (bool, error) {
	return false, ErrUnsupported
}

func (m *StubManager) Status(ctx context.Context) (*Status, error) {
	return nil, ErrUnsupported
}
