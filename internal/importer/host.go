package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/logging"
)

// HostEnumerator lists every firewall rule on the host.
type HostEnumerator interface {
	ProbeAll(ctx context.Context) ([]*firewall.ObservedRule, error)
}

// FromHost builds a configuration from the live rule store. Host rules the
// catalog model cannot express, such as rules matching any protocol with no
// program or rules for protocols like IGMP, are dropped with a warning
// rather than imported wrong.
func FromHost(ctx context.Context, host HostEnumerator) (*config.Config, []string, error) {
	observed, err := host.ProbeAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	log := logging.WithComponent("import")
	cfg := &config.Config{}
	var warnings []string
	taken := map[string]bool{}

	for _, obs := range observed {
		block, warns := ruleFromObserved(obs, taken)
		warnings = append(warnings, warns...)
		if block != nil {
			cfg.Rules = append(cfg.Rules, *block)
		}
	}

	log.Info("host rules imported",
		"observed", len(observed), "imported", len(cfg.Rules), "skipped", len(observed)-len(cfg.Rules))
	return cfg, warnings, nil
}

// ruleFromObserved converts one probed rule into a config block, minting a
// unique catalog name from its display name. A nil block means the rule was
// skipped; the warnings say why.
func ruleFromObserved(obs *firewall.ObservedRule, taken map[string]bool) (*config.RuleBlock, []string) {
	var warnings []string

	if strings.TrimSpace(obs.Name) == "" {
		return nil, []string{"host rule with an empty name skipped"}
	}

	direction, err := firewall.DirectionName(obs.Direction)
	if err != nil {
		return nil, []string{fmt.Sprintf("rule %q: %v; skipped", obs.Name, err)}
	}
	action, err := firewall.ActionName(obs.Action)
	if err != nil {
		return nil, []string{fmt.Sprintf("rule %q: %v; skipped", obs.Name, err)}
	}

	// Resolve the selector before anything is reserved; an inexpressible
	// rule must not burn a catalog name.
	var program, protocol, localPort string
	hasProgram := obs.Program != "" && !strings.EqualFold(obs.Program, "any")
	switch {
	case hasProgram:
		program = obs.Program
		if obs.Protocol != firewall.NativeProtocolAny {
			warnings = append(warnings, fmt.Sprintf(
				"rule %q: host sets both a program and a protocol; only the program selector was imported", obs.Name))
		}
	case obs.Protocol != firewall.NativeProtocolAny:
		proto, err := firewall.ProtocolName(obs.Protocol)
		if err != nil {
			return nil, append(warnings, fmt.Sprintf("rule %q: %v; skipped", obs.Name, err))
		}
		protocol = string(proto)
		if proto == firewall.ProtocolTCP || proto == firewall.ProtocolUDP {
			localPort = obs.LocalPort
		}
	default:
		return nil, append(warnings, fmt.Sprintf(
			"rule %q: matches any protocol with no program; not expressible as a catalog selector, skipped", obs.Name))
	}

	block := &config.RuleBlock{
		Name:          uniqueSlug(obs.Name, taken),
		Direction:     string(direction),
		Action:        string(action),
		Protocol:      protocol,
		LocalPort:     localPort,
		Program:       program,
		Description:   obs.Description,
		EdgeTraversal: obs.EdgeTraversal,
	}
	if block.Name != obs.Name {
		block.DisplayName = obs.Name
	}
	if !obs.Enabled {
		disabled := false
		block.Enabled = &disabled
	}
	if obs.RemoteIP != "*" {
		block.RemoteIP = obs.RemoteIP
	}

	return block, warnings
}

var slugStripRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// uniqueSlug derives a catalog name from a display name and reserves it.
// Display names are free text; catalog names are restricted identifiers,
// so colliding slugs get a numeric suffix.
func uniqueSlug(displayName string, taken map[string]bool) string {
	slug := strings.ToLower(strings.TrimSpace(displayName))
	slug = slugStripRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 64 {
		slug = strings.Trim(slug[:64], "-")
	}
	if slug == "" {
		slug = "rule"
	}

	candidate := slug
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
	taken[candidate] = true
	return candidate
}
