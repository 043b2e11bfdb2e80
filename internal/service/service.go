// Package service controls the host firewall service (the master switch)
// and the per-profile enable flags. It carries no convergence logic; the
// apply path decides what to set and this package only reads and writes
// host state.
package service

import "context"

// ServiceName is the Windows Firewall service.
const ServiceName = "MpsSvc"

// profileKeys maps config profile names to the registry subkeys the
// policy store uses. The private profile persists as "Standard".
var profileKeys = map[string]string{
	"domain":   "DomainProfile",
	"public":   "PublicProfile",
	"standard": "StandardProfile",
}

// ProfileKey returns the registry subkey for a profile name.
func ProfileKey(profile string) (string, bool) {
	k, ok := profileKeys[profile]
	return k, ok
}

// Status is the observed state of the firewall service and its profiles.
type Status struct {
	Running  bool            `json:"running"`
	Profiles map[string]bool `json:"profiles"`
}

// Manager reads and writes the firewall service state. Setters report
// whether they changed anything so runs can distinguish convergence from
// no-ops.
type Manager interface {
	SetServiceRunning(ctx context.Context, running bool) (changed bool, err error)
	SetProfileEnabled(profile string, enabled bool) (changed bool, err error)
	Status(ctx context.Context) (*Status, error)
}
