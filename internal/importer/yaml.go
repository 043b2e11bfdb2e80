// Package importer builds Palisade configurations from outside sources: a
// YAML rule inventory or the live rule store of a host. The output is a
// config.Config ready to serialize as HCL. Conversion is permissive where
// it can be; field-level problems are left for config validation to report,
// and only entries that cannot convert at all are dropped, each with a
// warning.
package importer

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"grimm.is/palisade/internal/config"
)

// Inventory is the YAML rule inventory accepted by "import --input". It
// mirrors the HCL surface with looser typing: booleans may be written as
// yes/no (bare or quoted) and ports as bare integers, the way exported
// inventory data usually arrives.
type Inventory struct {
	Firewall *InventoryFirewall  `yaml:"firewall,omitempty"`
	Profiles map[string]FlexBool `yaml:"profiles,omitempty"`
	Rules    []InventoryRule     `yaml:"rules"`
}

// InventoryFirewall is the service master switch entry.
type InventoryFirewall struct {
	Ensure string `yaml:"ensure"`
}

// InventoryRule is one rule entry of the inventory.
type InventoryRule struct {
	Name          string     `yaml:"name"`
	Ensure        string     `yaml:"ensure,omitempty"`
	DisplayName   string     `yaml:"display_name,omitempty"`
	Direction     string     `yaml:"direction,omitempty"`
	Action        string     `yaml:"action,omitempty"`
	Enabled       FlexBool   `yaml:"enabled,omitempty"`
	Protocol      string     `yaml:"protocol,omitempty"`
	LocalPort     PortString `yaml:"local_port,omitempty"`
	Program       string     `yaml:"program,omitempty"`
	RemoteIP      string     `yaml:"remote_ip,omitempty"`
	Description   string     `yaml:"description,omitempty"`
	EdgeTraversal FlexBool   `yaml:"edge_traversal,omitempty"`
	Update        string     `yaml:"update,omitempty"`
}

// FlexBool is a tri-state boolean. It accepts native YAML booleans as well
// as quoted yes/no strings; Set distinguishes an explicit value from an
// omitted key.
type FlexBool struct {
	Set   bool
	Value bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *FlexBool) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		return nil
	case bool:
		b.Set, b.Value = true, v
		return nil
	case string:
		parsed, err := parseBoolWord(v)
		if err != nil {
			return err
		}
		b.Set, b.Value = true, parsed
		return nil
	default:
		return fmt.Errorf("cannot parse %v as a boolean", raw)
	}
}

func parseBoolWord(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "on":
		return true, nil
	case "no", "false", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q (want yes/no or true/false)", s)
	}
}

// PortString is a port spec that accepts both strings and bare integers.
type PortString string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PortString) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*p = PortString(s)
		return nil
	}
	var n int
	if err := unmarshal(&n); err == nil {
		*p = PortString(strconv.Itoa(n))
		return nil
	}
	return fmt.Errorf("local_port must be a port spec string or an integer")
}

// LoadInventory parses a YAML rule inventory. Unknown keys are rejected so
// a typoed field name fails instead of silently dropping the setting.
func LoadInventory(data []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.UnmarshalStrict(data, &inv); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	return &inv, nil
}

// LoadInventoryFile reads and parses a YAML rule inventory from disk.
func LoadInventoryFile(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return LoadInventory(data)
}

// ToConfig converts the inventory into a configuration. Entries that cannot
// become a config block at all are skipped with a warning; everything else
// is carried through for config validation to judge.
func (inv *Inventory) ToConfig() (*config.Config, []string) {
	cfg := &config.Config{}
	var warnings []string

	if inv.Firewall != nil {
		cfg.Firewall = &config.FirewallBlock{Ensure: inv.Firewall.Ensure}
	}

	// Map order is not stable; sort so repeated imports produce identical
	// output.
	profileNames := make([]string, 0, len(inv.Profiles))
	for name := range inv.Profiles {
		profileNames = append(profileNames, name)
	}
	sort.Strings(profileNames)
	for _, name := range profileNames {
		flag := inv.Profiles[name]
		if !flag.Set {
			warnings = append(warnings, fmt.Sprintf("profile %q has no value; skipped", name))
			continue
		}
		cfg.Profiles = append(cfg.Profiles, config.ProfileBlock{
			Name:    strings.ToLower(strings.TrimSpace(name)),
			Enabled: flag.Value,
		})
	}

	for i, r := range inv.Rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("rules[%d]: missing name; skipped", i))
			continue
		}

		block := config.RuleBlock{
			Name:        name,
			Ensure:      r.Ensure,
			DisplayName: r.DisplayName,
			Direction:   r.Direction,
			Action:      r.Action,
			Protocol:    r.Protocol,
			LocalPort:   string(r.LocalPort),
			Program:     r.Program,
			RemoteIP:    r.RemoteIP,
			Description: r.Description,
			Update:      r.Update,
		}
		if r.Enabled.Set {
			v := r.Enabled.Value
			block.Enabled = &v
		}
		if r.EdgeTraversal.Set {
			block.EdgeTraversal = r.EdgeTraversal.Value
		}
		cfg.Rules = append(cfg.Rules, block)
	}

	cfg.Normalize()
	return cfg, warnings
}
