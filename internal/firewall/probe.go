package firewall

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// noRulesMarker is what the host tool prints (with exit status 1) when no
// rule carries the queried name. Only this marker is treated as not-found;
// any other failure is a ProbeError.
const noRulesMarker = "No rules match"

// Prober reads the current state of a rule from the host by display name.
// found=false with a nil error means the host has no rule with that name.
type Prober interface {
	Probe(ctx context.Context, displayName string) (*ObservedRule, bool, error)
}

// NetshProber queries rules via "netsh advfirewall firewall show rule" and
// parses the verbose key/value output. It never mutates host state.
type NetshProber struct {
	runner CommandRunner
	log    *logging.Logger
}

// NewNetshProber creates a prober over the given command runner.
func NewNetshProber(runner CommandRunner) *NetshProber {
	return &NetshProber{
		runner: runner,
		log:    logging.WithComponent("probe"),
	}
}

// Probe implements Prober.
func (p *NetshProber) Probe(ctx context.Context, displayName string) (*ObservedRule, bool, error) {
	start := time.Now()
	out, err := p.runner.Output(ctx, netshExe, ShowRuleArgs(displayName)...)
	metrics.Get().RecordCommand("show", time.Since(start).Seconds(), err)

	if err != nil {
		if bytes.Contains(out, []byte(noRulesMarker)) {
			p.log.Debug("rule not found", "name", displayName)
			return nil, false, nil
		}
		return nil, false, &ProbeError{
			Name: displayName,
			Err:  fmt.Errorf("show rule: %w: %s", err, strings.TrimSpace(string(out))),
		}
	}

	obs, err := parseShowRule(out)
	if err != nil {
		return nil, false, &ProbeError{Name: displayName, Err: err}
	}

	p.log.Debug("rule found", "name", obs.Name, "protocol", obs.Protocol, "port", obs.LocalPort)
	return obs, true, nil
}

// ProbeAll enumerates every rule on the host. A host with zero rules is
// returned as an empty slice, not an error.
func (p *NetshProber) ProbeAll(ctx context.Context) ([]*ObservedRule, error) {
	start := time.Now()
	out, err := p.runner.Output(ctx, netshExe, ShowAllRulesArgs()...)
	metrics.Get().RecordCommand("show", time.Since(start).Seconds(), err)

	if err != nil {
		if bytes.Contains(out, []byte(noRulesMarker)) {
			return nil, nil
		}
		return nil, &ProbeError{
			Name: "all",
			Err:  fmt.Errorf("show all rules: %w: %s", err, strings.TrimSpace(string(out))),
		}
	}

	rules, err := parseShowRules(out)
	if err != nil {
		return nil, &ProbeError{Name: "all", Err: err}
	}

	p.log.Debug("host rules enumerated", "count", len(rules))
	return rules, nil
}

// newObservedRule returns an ObservedRule with the defaults the host tool
// leaves implicit in its verbose output.
func newObservedRule() *ObservedRule {
	return &ObservedRule{
		NativeRule: NativeRule{
			Protocol:  NativeProtocolAny,
			LocalPort: "any",
			RemoteIP:  "*",
		},
	}
}

// setObservedField applies one parsed key/value line to obs. The returned
// bool reports whether the key is one the parser tracks; RemotePort,
// InterfaceTypes, Security, Rule source and future fields are not compared
// and are skipped.
func setObservedField(obs *ObservedRule, key, value string) (bool, error) {
	var err error
	switch key {
	case "Enabled":
		obs.Enabled, err = DecodeBool("enabled", value)
	case "Direction":
		obs.Direction, err = DecodeDirection(value)
	case "Action":
		obs.Action, err = DecodeAction(value)
	case "Protocol":
		obs.Protocol, err = DecodeProtocol(value)
	case "LocalPort":
		obs.LocalPort = CanonicalPort(value)
	case "RemoteIP":
		obs.RemoteIP = CanonicalRemoteIP(value)
	case "Description":
		obs.Description = value
	case "Edge traversal":
		obs.EdgeTraversal, err = DecodeBool("edge_traversal", value)
	case "Profiles":
		obs.Profiles = value
	case "Program":
		obs.Program = value
	case "LocalIP":
		obs.LocalIP = value
	case "Grouping":
		obs.Grouping = value
	default:
		return false, nil
	}
	return true, err
}

// requiredShowFields must appear in every rule block; their absence means
// the output is not the verbose rule listing we asked for.
var requiredShowFields = []string{"Rule Name", "Enabled", "Direction", "Action"}

// parseShowRule parses the verbose show output for a single rule. The host
// store enforces name uniqueness, so only the first rule block is read; a
// second block would mean the query matched more than asked for and is
// ignored rather than treated as an error.
func parseShowRule(out []byte) (*ObservedRule, error) {
	obs := newObservedRule()

	var (
		inRule  bool
		seen    = map[string]bool{}
		scanner = bufio.NewScanner(bytes.NewReader(out))
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			// ICMP type/code table rows and the trailing "Ok." have no
			// colon and carry nothing we compare.
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "Rule Name" {
			if inRule {
				break
			}
			inRule = true
			obs.Name = value
			seen[key] = true
			continue
		}
		if !inRule {
			continue
		}

		tracked, err := setObservedField(obs, key, value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		if tracked {
			seen[key] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading show output: %w", err)
	}

	for _, required := range requiredShowFields {
		if !seen[required] {
			return nil, fmt.Errorf("show output missing %s field", required)
		}
	}

	return obs, nil
}

// parseShowRules parses verbose show output holding any number of rule
// blocks, as printed by "show rule name=all". Every block must be complete;
// one malformed rule fails the whole enumeration rather than silently
// dropping it.
func parseShowRules(out []byte) ([]*ObservedRule, error) {
	var (
		rules   []*ObservedRule
		current *ObservedRule
		seen    map[string]bool
		scanner = bufio.NewScanner(bytes.NewReader(out))
	)

	finish := func() error {
		if current == nil {
			return nil
		}
		for _, required := range requiredShowFields {
			if !seen[required] {
				return fmt.Errorf("rule %q: show output missing %s field", current.Name, required)
			}
		}
		rules = append(rules, current)
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "Rule Name" {
			if err := finish(); err != nil {
				return nil, err
			}
			current = newObservedRule()
			current.Name = value
			seen = map[string]bool{"Rule Name": true}
			continue
		}
		if current == nil {
			continue
		}

		tracked, err := setObservedField(current, key, value)
		if err != nil {
			return nil, fmt.Errorf("rule %q: parsing %s: %w", current.Name, key, err)
		}
		if tracked {
			seen[key] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading show output: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}

	return rules, nil
}
