package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/service"
)

func applyRule() *firewall.Rule {
	return &firewall.Rule{
		Name:         "allow-http",
		DisplayName:  "Allow HTTP",
		Direction:    firewall.DirectionIn,
		Action:       firewall.ActionAllow,
		Enabled:      true,
		PortProtocol: &firewall.PortProtocol{Protocol: firewall.ProtocolTCP, LocalPort: "80"},
	}
}

func TestConverge_DryRunTouchesNothing(t *testing.T) {
	cfg := &config.Config{
		Firewall: &config.FirewallBlock{Ensure: config.EnsureRunning},
		Profiles: []config.ProfileBlock{{Name: "public", Enabled: true}},
	}

	prober := new(firewall.MockProber)
	prober.On("Probe", mock.Anything, "Allow HTTP").Return(nil, false, nil)
	runner := new(firewall.MockCommandRunner)
	mgr := new(service.MockManager)

	report := firewall.NewRunReport("dry-run", "test.hcl")
	deps := convergeDeps{runner: runner, prober: prober, mgr: mgr, dryRun: true}

	err := converge(context.Background(), cfg, []*firewall.Rule{applyRule()}, report, deps)
	if err != nil {
		t.Fatalf("converge() error = %v", err)
	}

	if len(mgr.Calls) != 0 {
		t.Errorf("dry run called the service manager: %v", mgr.Calls)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("dry run executed commands: %v", runner.Calls)
	}

	if report.Service == nil || report.Service.Ensure != config.EnsureRunning {
		t.Errorf("Service outcome = %+v", report.Service)
	}
	if len(report.Profiles) != 1 || report.Profiles[0].Profile != "public" {
		t.Errorf("Profiles = %+v", report.Profiles)
	}

	if len(report.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(report.Rules))
	}
	outcome := report.Rules[0]
	if outcome.Effect != firewall.EffectCreate || outcome.State != "planned" {
		t.Errorf("outcome = %+v, want planned create", outcome)
	}
	if len(outcome.Commands) != 1 ||
		!strings.HasPrefix(outcome.Commands[0], "netsh advfirewall firewall add rule") {
		t.Errorf("Commands = %q", outcome.Commands)
	}
}

func TestConverge_ServiceFailureAbortsRun(t *testing.T) {
	cfg := &config.Config{
		Firewall: &config.FirewallBlock{Ensure: config.EnsureRunning},
		Profiles: []config.ProfileBlock{{Name: "public", Enabled: true}},
	}

	mgr := new(service.MockManager)
	mgr.On("SetServiceRunning", mock.Anything, true).
		Return(false, errors.New("access denied")).Once()

	prober := new(firewall.MockProber)
	runner := new(firewall.MockCommandRunner)

	report := firewall.NewRunReport("apply", "test.hcl")
	deps := convergeDeps{runner: runner, prober: prober, mgr: mgr}

	err := converge(context.Background(), cfg, []*firewall.Rule{applyRule()}, report, deps)
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("converge() error = %v, want service failure", err)
	}

	if report.Service == nil || report.Service.Error == "" {
		t.Errorf("Service outcome = %+v, want recorded error", report.Service)
	}
	if len(report.Profiles) != 0 || len(report.Rules) != 0 {
		t.Errorf("run continued past the service failure: profiles=%d rules=%d",
			len(report.Profiles), len(report.Rules))
	}
	mgr.AssertExpectations(t)
}

func TestConverge_ProfileFailureIsRecordedAndRunContinues(t *testing.T) {
	cfg := &config.Config{
		Profiles: []config.ProfileBlock{
			{Name: "domain", Enabled: true},
			{Name: "public", Enabled: false},
		},
	}

	mgr := new(service.MockManager)
	mgr.On("SetProfileEnabled", "domain", true).
		Return(false, errors.New("registry access denied")).Once()
	mgr.On("SetProfileEnabled", "public", false).Return(true, nil).Once()

	prober := new(firewall.MockProber)
	prober.On("Probe", mock.Anything, "Old Rule").Return(nil, false, nil)
	runner := new(firewall.MockCommandRunner)

	stale := &firewall.Rule{Name: "stale", Ensure: firewall.EnsureAbsent, DisplayName: "Old Rule"}

	report := firewall.NewRunReport("apply", "test.hcl")
	deps := convergeDeps{runner: runner, prober: prober, mgr: mgr}

	if err := converge(context.Background(), cfg, []*firewall.Rule{stale}, report, deps); err != nil {
		t.Fatalf("converge() error = %v, profile failures must not abort", err)
	}

	if len(report.Profiles) != 2 {
		t.Fatalf("len(Profiles) = %d, want 2", len(report.Profiles))
	}
	if report.Profiles[0].Error == "" {
		t.Error("domain failure not recorded")
	}
	if report.Profiles[1].Error != "" || !report.Profiles[1].Changed {
		t.Errorf("public outcome = %+v", report.Profiles[1])
	}

	if len(report.Rules) != 1 || report.Rules[0].Failed() {
		t.Errorf("Rules = %+v, want converged noop", report.Rules)
	}

	if err := runFailures(report); err == nil ||
		!strings.Contains(err.Error(), "1 of 2 profiles") {
		t.Errorf("runFailures() = %v, want profile failure", err)
	}
	mgr.AssertExpectations(t)
}

func TestConverge_RuleFailureIsIsolated(t *testing.T) {
	ruleA := applyRule()
	ruleA.Name = "rule-a"
	ruleA.DisplayName = "Rule A"

	ruleB := &firewall.Rule{Name: "rule-b", Ensure: firewall.EnsureAbsent, DisplayName: "Rule B"}

	prober := new(firewall.MockProber)
	prober.On("Probe", mock.Anything, "Rule A").
		Return(nil, false, errors.New("query failed"))
	prober.On("Probe", mock.Anything, "Rule B").Return(nil, false, nil)
	runner := new(firewall.MockCommandRunner)
	mgr := new(service.MockManager)

	report := firewall.NewRunReport("apply", "test.hcl")
	deps := convergeDeps{runner: runner, prober: prober, mgr: mgr}

	err := converge(context.Background(), &config.Config{}, []*firewall.Rule{ruleA, ruleB}, report, deps)
	if err != nil {
		t.Fatalf("converge() error = %v, rule failures must not abort", err)
	}

	if len(report.Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(report.Rules))
	}
	if !report.Rules[0].Failed() || report.Rules[0].State != "failed" {
		t.Errorf("rule A outcome = %+v, want failed", report.Rules[0])
	}
	if report.Rules[1].Failed() || report.Rules[1].Effect != firewall.EffectNoop {
		t.Errorf("rule B outcome = %+v, want clean noop", report.Rules[1])
	}

	if err := runFailures(report); err == nil ||
		!strings.Contains(err.Error(), "1 of 2 rules") {
		t.Errorf("runFailures() = %v, want rule failure", err)
	}
}

func TestRunFailures_CleanRun(t *testing.T) {
	report := firewall.NewRunReport("apply", "test.hcl")
	report.Profiles = []firewall.ProfileOutcome{{Profile: "public", Enabled: true, Changed: true}}
	report.Rules = []*firewall.RuleOutcome{{Name: "a", Effect: firewall.EffectCreate, State: "converged"}}

	if err := runFailures(report); err != nil {
		t.Errorf("runFailures() = %v, want nil", err)
	}
}

func TestRunApply_UsageAndMissingConfig(t *testing.T) {
	if err := RunApply("", false, ""); err == nil {
		t.Error("RunApply(\"\") error = nil, want usage error")
	}
	if err := RunApply("/nonexistent/palisade.hcl", true, ""); err == nil {
		t.Error("RunApply() with missing file error = nil, want load failure")
	}
}
