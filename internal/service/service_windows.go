//go:build windows

package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/windows/registry"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"grimm.is/palisade/internal/logging"
)

// firewallPolicyKey is the persisted policy store root under HKLM.
const firewallPolicyKey = `SYSTEM\CurrentControlSet\Services\SharedAccess\Parameters\FirewallPolicy`

// enableFirewallValue is the per-profile on/off dword.
const enableFirewallValue = "EnableFirewall"

// WindowsManager manages the firewall service through the service control
// manager and the profile flags through the registry.
type WindowsManager struct {
	log *logging.Logger
}

// NewManager creates the platform manager.
func NewManager() Manager {
	return &WindowsManager{log: logging.WithComponent("service")}
}

// SetServiceRunning converges the service to the wanted state. The start
// type is aligned first (automatic when running, disabled when stopped) so
// the state survives a reboot.
func (m *WindowsManager) SetServiceRunning(ctx context.Context, running bool) (bool, error) {
	conn, err := mgr.Connect()
	if err != nil {
		return false, fmt.Errorf("connecting to service manager: %w", err)
	}
	defer conn.Disconnect()

	s, err := conn.OpenService(ServiceName)
	if err != nil {
		return false, fmt.Errorf("opening service %s: %w", ServiceName, err)
	}
	defer s.Close()

	target, startType := "stopped", uint32(mgr.StartDisabled)
	if running {
		target, startType = "running", uint32(mgr.StartAutomatic)
	}

	cfgChanged, err := m.setStartType(s, startType)
	if err != nil {
		return false, err
	}

	st, err := s.Query()
	if err != nil {
		return false, fmt.Errorf("querying service %s: %w", ServiceName, err)
	}

	if running {
		if st.State == svc.Running {
			return cfgChanged, nil
		}
		if err := s.Start(); err != nil {
			return false, fmt.Errorf("starting service %s: %w", ServiceName, err)
		}
		if err := m.waitForState(ctx, s, svc.Running); err != nil {
			return false, err
		}
	} else {
		if st.State == svc.Stopped {
			return cfgChanged, nil
		}
		if _, err := s.Control(svc.Stop); err != nil {
			return false, fmt.Errorf("stopping service %s: %w", ServiceName, err)
		}
		if err := m.waitForState(ctx, s, svc.Stopped); err != nil {
			return false, err
		}
	}

	m.log.Info("service state changed", "service", ServiceName, "state", target)
	m.log.Audit("service."+target, "service:"+ServiceName, nil)
	return true, nil
}

// SetProfileEnabled writes the profile's EnableFirewall dword. The current
// value is read first; a matching value is left untouched.
func (m *WindowsManager) SetProfileEnabled(profile string, enabled bool) (bool, error) {
	subkey, ok := ProfileKey(profile)
	if !ok {
		return false, fmt.Errorf("unknown profile %q", profile)
	}

	k, err := registry.OpenKey(registry.LOCAL_MACHINE,
		firewallPolicyKey+`\`+subkey, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return false, fmt.Errorf("opening profile key %s: %w", subkey, err)
	}
	defer k.Close()

	var want uint64
	if enabled {
		want = 1
	}

	if cur, _, err := k.GetIntegerValue(enableFirewallValue); err == nil && cur == want {
		return false, nil
	}

	if err := k.SetDWordValue(enableFirewallValue, uint32(want)); err != nil {
		return false, fmt.Errorf("writing %s for %s: %w", enableFirewallValue, subkey, err)
	}

	m.log.Info("profile toggled", "profile", profile, "enabled", enabled)
	return true, nil
}

// Status reads the service state and every profile flag.
func (m *WindowsManager) Status(ctx context.Context) (*Status, error) {
	conn, err := mgr.Connect()
	if err != nil {
		return nil, fmt.Errorf("connecting to service manager: %w", err)
	}
	defer conn.Disconnect()

	s, err := conn.OpenService(ServiceName)
	if err != nil {
		return nil, fmt.Errorf("opening service %s: %w", ServiceName, err)
	}
	defer s.Close()

	st, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("querying service %s: %w", ServiceName, err)
	}

	status := &Status{
		Running:  st.State == svc.Running,
		Profiles: make(map[string]bool, len(profileKeys)),
	}

	for name, subkey := range profileKeys {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE,
			firewallPolicyKey+`\`+subkey, registry.QUERY_VALUE)
		if err != nil {
			return nil, fmt.Errorf("opening profile key %s: %w", subkey, err)
		}
		v, _, err := k.GetIntegerValue(enableFirewallValue)
		k.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s for %s: %w", enableFirewallValue, subkey, err)
		}
		status.Profiles[name] = v == 1
	}

	return status, nil
}

// setStartType aligns the service start type, reporting whether it wrote.
func (m *WindowsManager) setStartType(s *mgr.Service, startType uint32) (bool, error) {
	cfg, err := s.Config()
	if err != nil {
		return false, fmt.Errorf("reading service config: %w", err)
	}
	if cfg.StartType == startType {
		return false, nil
	}
	cfg.StartType = startType
	if err := s.UpdateConfig(cfg); err != nil {
		return false, fmt.Errorf("updating service start type: %w", err)
	}
	m.log.Debug("start type updated", "service", ServiceName, "start_type", startType)
	return true, nil
}

// waitForState polls until the service reaches the wanted state or the
// context expires.
func (m *WindowsManager) waitForState(ctx context.Context, s *mgr.Service, want svc.State) error {
	for {
		st, err := s.Query()
		if err != nil {
			return fmt.Errorf("querying service %s: %w", ServiceName, err)
		}
		if st.State == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for service %s: %w", ServiceName, ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}
