package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantErrs int
	}{
		{
			name: "valid config",
			cfg: Config{
				Firewall: &FirewallBlock{Ensure: EnsureRunning},
				Profiles: []ProfileBlock{
					{Name: "domain", Enabled: true},
					{Name: "public", Enabled: false},
				},
				Rules: []RuleBlock{
					{Name: "allow-http", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "80"},
					{Name: "allow-https", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "443"},
				},
			},
			wantErrs: 0,
		},
		{
			name:     "empty config",
			cfg:      Config{},
			wantErrs: 0,
		},
		{
			name: "bad firewall ensure",
			cfg: Config{
				Firewall: &FirewallBlock{Ensure: "paused"},
			},
			wantErrs: 1,
		},
		{
			name: "unknown profile",
			cfg: Config{
				Profiles: []ProfileBlock{{Name: "hyperborean", Enabled: true}},
			},
			wantErrs: 1,
		},
		{
			name: "duplicate profile",
			cfg: Config{
				Profiles: []ProfileBlock{
					{Name: "public", Enabled: true},
					{Name: "public", Enabled: false},
				},
			},
			wantErrs: 1,
		},
		{
			name: "duplicate rule name",
			cfg: Config{
				Rules: []RuleBlock{
					{Name: "dup", DisplayName: "First"},
					{Name: "dup", DisplayName: "Second"},
				},
			},
			wantErrs: 1,
		},
		{
			name: "duplicate display name across rules",
			cfg: Config{
				Rules: []RuleBlock{
					{Name: "one", DisplayName: "Shared Name"},
					{Name: "two", DisplayName: "Shared Name"},
				},
			},
			wantErrs: 1,
		},
		{
			name: "display name collides with bare rule name",
			cfg: Config{
				Rules: []RuleBlock{
					{Name: "collide"},
					{Name: "other", DisplayName: "collide"},
				},
			},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.cfg.Validate()
			got := 0
			for _, e := range errs {
				if e.Severity != SeverityWarning {
					got++
				}
			}
			if got != tt.wantErrs {
				t.Errorf("got %d errors, want %d: %v", got, tt.wantErrs, errs)
			}
		})
	}
}

func TestValidate_RecreateIsWarningOnly(t *testing.T) {
	cfg := Config{
		Rules: []RuleBlock{
			{Name: "r", Direction: "in", Action: "allow", Protocol: "tcp", LocalPort: "80", Update: "recreate"},
		},
	}
	errs := cfg.Validate()
	if len(errs) != 1 {
		t.Fatalf("got %d entries, want 1 warning: %v", len(errs), errs)
	}
	if errs[0].Severity != SeverityWarning {
		t.Errorf("Severity = %q, want warning", errs[0].Severity)
	}
	if errs.HasErrors() {
		t.Error("HasErrors() = true, want false for warning-only result")
	}
	if len(errs.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want the single warning", errs.Warnings())
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "rule[x].name", Message: "boom"}
	if got := err.Error(); got != "rule[x].name: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}
	got := errs.Error()
	if !strings.Contains(got, "a: first") || !strings.Contains(got, "; ") {
		t.Errorf("Error() = %q, want joined messages", got)
	}

	var empty ValidationErrors
	if empty.Error() != "no validation errors" {
		t.Errorf("empty Error() = %q", empty.Error())
	}
}
