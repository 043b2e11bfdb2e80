package config

import "strings"

// Service ensure values for the firewall block.
const (
	EnsureRunning = "running"
	EnsureStopped = "stopped"
)

// ProfileNames are the network profiles the host firewall distinguishes.
// "standard" is the private profile's name in the persisted policy store.
var ProfileNames = []string{"domain", "public", "standard"}

// Config is the root of a Palisade configuration file.
type Config struct {
	Firewall *FirewallBlock `hcl:"firewall,block"`
	Profiles []ProfileBlock `hcl:"profile,block"`
	Rules    []RuleBlock    `hcl:"rule,block"`
}

// FirewallBlock is the master switch for the host firewall service.
type FirewallBlock struct {
	Ensure string `hcl:"ensure,optional"` // running | stopped
}

// ProfileBlock enables or disables the firewall for one network profile.
type ProfileBlock struct {
	Name    string `hcl:"name,label"`
	Enabled bool   `hcl:"enabled"`
}

// RuleBlock is one rule of the catalog as written in HCL. Fields are kept
// flat and loosely typed here; the firewall package owns the semantic
// model and its validation.
type RuleBlock struct {
	Name          string `hcl:"name,label"`
	Ensure        string `hcl:"ensure,optional"` // present | absent
	DisplayName   string `hcl:"display_name,optional"`
	Direction     string `hcl:"direction,optional"` // in | out
	Action        string `hcl:"action,optional"`    // allow | block
	Enabled       *bool  `hcl:"enabled,optional"`   // default true
	Protocol      string `hcl:"protocol,optional"`  // tcp | udp | icmpv4 | icmpv6
	LocalPort     string `hcl:"local_port,optional"`
	Program       string `hcl:"program,optional"`
	RemoteIP      string `hcl:"remote_ip,optional"`
	Description   string `hcl:"description,optional"`
	EdgeTraversal bool   `hcl:"edge_traversal,optional"`
	Update        string `hcl:"update,optional"` // update | recreate
}

// Normalize lowercases enum-valued fields and fills container-level
// defaults. Rule-level defaulting lives with the rule model.
func (c *Config) Normalize() {
	if c.Firewall != nil {
		c.Firewall.Ensure = strings.ToLower(strings.TrimSpace(c.Firewall.Ensure))
		if c.Firewall.Ensure == "" {
			c.Firewall.Ensure = EnsureRunning
		}
	}
	for i := range c.Profiles {
		c.Profiles[i].Name = strings.ToLower(strings.TrimSpace(c.Profiles[i].Name))
	}
}

// EffectiveDisplayName returns the host-store identity of a rule block,
// falling back to the catalog name when display_name is omitted.
func (b *RuleBlock) EffectiveDisplayName() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.Name
}

// FindRule returns the rule block with the given catalog name, or nil.
func (c *Config) FindRule(name string) *RuleBlock {
	for i := range c.Rules {
		if c.Rules[i].Name == name {
			return &c.Rules[i]
		}
	}
	return nil
}
