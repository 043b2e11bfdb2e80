package firewall

import (
	"encoding/json"
	"testing"
)

func TestNewRunReport(t *testing.T) {
	r := NewRunReport("apply", "/etc/palisade/palisade.hcl")

	if r.ID == "" {
		t.Error("ID is empty")
	}
	if r.Mode != "apply" {
		t.Errorf("Mode = %q", r.Mode)
	}
	if r.ConfigPath != "/etc/palisade/palisade.hcl" {
		t.Errorf("ConfigPath = %q", r.ConfigPath)
	}
	if r.StartedAt.IsZero() {
		t.Error("StartedAt is zero")
	}

	r2 := NewRunReport("dry-run", "")
	if r.ID == r2.ID {
		t.Error("run IDs repeat")
	}
}

func TestRunReport_FinishAndDuration(t *testing.T) {
	r := NewRunReport("apply", "")
	r.Finish()
	if r.FinishedAt.IsZero() {
		t.Error("FinishedAt is zero after Finish")
	}
	if r.Duration() < 0 {
		t.Errorf("Duration() = %v, want >= 0", r.Duration())
	}
}

func TestRunReport_Tallies(t *testing.T) {
	r := NewRunReport("apply", "")
	r.Rules = []*RuleOutcome{
		{Name: "a", Effect: EffectCreate},
		{Name: "b", Effect: EffectNoop},
		{Name: "c", Effect: EffectNoop},
		{Name: "d", Effect: EffectUpdate, Error: "set failed"},
		{Name: "e", Effect: EffectDelete},
	}

	if got := r.FailedRules(); got != 1 {
		t.Errorf("FailedRules() = %d, want 1", got)
	}

	want := RunSummary{Created: 1, Updated: 0, Deleted: 1, Unchanged: 2, Failed: 1}
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}

func TestRuleOutcome_Failed(t *testing.T) {
	ok := &RuleOutcome{Name: "a"}
	if ok.Failed() {
		t.Error("Failed() = true without error")
	}
	bad := &RuleOutcome{Name: "b", Error: "boom"}
	if !bad.Failed() {
		t.Error("Failed() = false with error")
	}
}

func TestRunReport_JSONRoundTrip(t *testing.T) {
	r := NewRunReport("apply", "c.hcl")
	r.Service = &ServiceOutcome{Ensure: "running", Changed: true}
	r.Profiles = []ProfileOutcome{{Profile: "public", Enabled: true, Changed: false}}
	r.Rules = []*RuleOutcome{{
		Name:        "allow-http",
		DisplayName: "Allow HTTP",
		Effect:      EffectCreate,
		Commands:    []string{"netsh advfirewall firewall add rule name=Allow HTTP dir=in action=allow"},
		State:       "converged",
	}}
	r.Finish()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back RunReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.ID != r.ID || back.Mode != r.Mode {
		t.Errorf("identity lost: %+v", back)
	}
	if len(back.Rules) != 1 || back.Rules[0].Effect != EffectCreate {
		t.Errorf("rules lost: %+v", back.Rules)
	}
	if back.Service == nil || !back.Service.Changed {
		t.Errorf("service outcome lost: %+v", back.Service)
	}
}
