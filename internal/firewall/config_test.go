package firewall

import (
	"errors"
	"strings"
	"testing"

	"grimm.is/palisade/internal/config"
)

func TestRuleFromBlock_PortProtocol(t *testing.T) {
	r := RuleFromBlock(config.RuleBlock{
		Name:      "allow-winrm",
		Direction: "IN",
		Action:    "Allow",
		Protocol:  "TCP",
		LocalPort: "5985",
		RemoteIP:  "10.0.0.0/8",
	})

	if r.SelectorKind() != SelectorPortProtocol {
		t.Fatalf("SelectorKind() = %v, want port/protocol", r.SelectorKind())
	}
	if r.PortProtocol.Protocol != ProtocolTCP || r.PortProtocol.LocalPort != "5985" {
		t.Errorf("selector = %+v", r.PortProtocol)
	}
	if r.Direction != DirectionIn || r.Action != ActionAllow {
		t.Errorf("enums not normalized: %+v", r)
	}
	if !r.Enabled {
		t.Error("Enabled = false, want default true")
	}
	if r.Ensure != EnsurePresent {
		t.Errorf("Ensure = %q, want default present", r.Ensure)
	}
	if r.DisplayName != "allow-winrm" {
		t.Errorf("DisplayName = %q, want fallback to name", r.DisplayName)
	}
}

func TestRuleFromBlock_Program(t *testing.T) {
	r := RuleFromBlock(config.RuleBlock{
		Name:      "block-scanner",
		Direction: "out",
		Action:    "block",
		Program:   `C:\Tools\scanner.exe`,
	})

	if r.SelectorKind() != SelectorProgram {
		t.Fatalf("SelectorKind() = %v, want program", r.SelectorKind())
	}
	if r.Program.Path != `C:\Tools\scanner.exe` {
		t.Errorf("Path = %q", r.Program.Path)
	}
}

func TestRuleFromBlock_ExplicitDisable(t *testing.T) {
	disabled := false
	r := RuleFromBlock(config.RuleBlock{
		Name:     "r",
		Protocol: "tcp", LocalPort: "80",
		Enabled: &disabled,
	})
	if r.Enabled {
		t.Error("Enabled = true, want explicit false preserved")
	}
}

func TestRuleFromBlock_BothSelectorsPreserved(t *testing.T) {
	// A block populating both selector sides converts to SelectorBoth so
	// validation can reject it; conversion never silently drops a side.
	r := RuleFromBlock(config.RuleBlock{
		Name:     "confused",
		Protocol: "tcp", LocalPort: "80",
		Program: `C:\app.exe`,
	})
	if r.SelectorKind() != SelectorBoth {
		t.Errorf("SelectorKind() = %v, want both", r.SelectorKind())
	}
}

func TestRuleFromBlock_LocalPortAloneBuildsSelector(t *testing.T) {
	r := RuleFromBlock(config.RuleBlock{Name: "r", LocalPort: "80"})
	if r.SelectorKind() != SelectorPortProtocol {
		t.Errorf("SelectorKind() = %v, want port/protocol with empty protocol", r.SelectorKind())
	}
}

func TestRulesFromConfig_Valid(t *testing.T) {
	cfg := &config.Config{
		Rules: []config.RuleBlock{
			{Name: "allow-http", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "80"},
			{Name: "stale", Ensure: "absent", DisplayName: "Old Rule"},
		},
	}

	rules, err := RulesFromConfig(cfg)
	if err != nil {
		t.Fatalf("RulesFromConfig() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	if rules[0].Name != "allow-http" || rules[1].Name != "stale" {
		t.Errorf("rules out of config order: %v, %v", rules[0].Name, rules[1].Name)
	}
}

func TestRulesFromConfig_AggregatesFailures(t *testing.T) {
	cfg := &config.Config{
		Rules: []config.RuleBlock{
			{Name: "bad-port", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "70000"},
			{Name: "good", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "80"},
			{Name: "bad-action", Direction: "in", Action: "drop", Protocol: "tcp", LocalPort: "81"},
		},
	}

	_, err := RulesFromConfig(cfg)
	if err == nil {
		t.Fatal("RulesFromConfig() = nil error")
	}

	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("len(errors) = %d, want 2 (both bad rules reported): %v", len(verrs), verrs)
	}
	if !strings.Contains(verrs[0].Field, "rule[bad-port]") {
		t.Errorf("Field = %q, want rule[bad-port] prefix", verrs[0].Field)
	}
	if !strings.Contains(verrs[1].Field, "rule[bad-action]") {
		t.Errorf("Field = %q, want rule[bad-action] prefix", verrs[1].Field)
	}
}
