package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
	"grimm.is/palisade/internal/service"
)

// convergeDeps are the host-facing seams an apply run goes through.
type convergeDeps struct {
	runner firewall.CommandRunner
	prober firewall.Prober
	mgr    service.Manager
	dryRun bool
}

// RunApply converges the host toward the configuration: service state,
// then profile flags, then rules in config order. Dry-run mode plans and
// reports but never mutates. The run report is persisted either way; the
// Mode field records which kind of run it was.
func RunApply(configFile string, dryRun bool, metricsPath string) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s apply [-n|--dry-run] <config-file>", brand.BinaryName)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, rules, err := loadRules(configFile)
	if err != nil {
		return err
	}

	mode := "apply"
	if dryRun {
		mode = "dry-run"
	}
	report := firewall.NewRunReport(mode, configFile)

	runner := firewall.DefaultCommandRunner
	deps := convergeDeps{
		runner: runner,
		prober: firewall.NewNetshProber(runner),
		mgr:    service.NewManager(),
		dryRun: dryRun,
	}

	runErr := converge(ctx, cfg, rules, report, deps)
	report.Finish()
	metrics.Get().RecordRun(mode, len(rules), report.Duration().Seconds())

	saveReport(report)
	printRunSummary(report)

	if metricsPath != "" {
		if werr := metrics.WriteTextfile(metricsPath); werr != nil {
			logging.Warn("metrics textfile write failed", "path", metricsPath, "error", werr)
		}
	}

	if runErr != nil {
		return runErr
	}
	return runFailures(report)
}

// converge walks the run in order: master switch, profile flags, rules.
// A service failure aborts the run (rule commands need the service); a
// profile or rule failure is recorded and the run continues.
func converge(ctx context.Context, cfg *config.Config, rules []*firewall.Rule, report *firewall.RunReport, deps convergeDeps) error {
	m := metrics.Get()
	log := logging.WithComponent("run")

	if cfg.Firewall != nil {
		outcome := &firewall.ServiceOutcome{Ensure: cfg.Firewall.Ensure}
		report.Service = outcome

		if deps.dryRun {
			Printer.Printf("firewall service: would ensure %s\n", cfg.Firewall.Ensure)
		} else {
			wantRunning := cfg.Firewall.Ensure == config.EnsureRunning
			changed, err := deps.mgr.SetServiceRunning(ctx, wantRunning)
			m.RecordServiceTransition(cfg.Firewall.Ensure, err)
			outcome.Changed = changed
			if err != nil {
				outcome.Error = err.Error()
				return fmt.Errorf("firewall service: %w", err)
			}
			if changed {
				log.Info("firewall service converged", "ensure", cfg.Firewall.Ensure)
			}
		}
	}

	for _, p := range cfg.Profiles {
		outcome := firewall.ProfileOutcome{Profile: p.Name, Enabled: p.Enabled}

		if deps.dryRun {
			Printer.Printf("profile %s: would set enabled=%s\n", p.Name, yesNo(p.Enabled))
		} else {
			changed, err := deps.mgr.SetProfileEnabled(p.Name, p.Enabled)
			m.RecordProfileToggle(p.Name, err)
			outcome.Changed = changed
			if err != nil {
				outcome.Error = err.Error()
				log.Error("profile toggle failed", "profile", p.Name, "error", err)
			} else if changed {
				log.Info("profile converged", "profile", p.Name, "enabled", p.Enabled)
			}
		}

		report.Profiles = append(report.Profiles, outcome)
	}

	engine := firewall.NewEngine(deps.prober)
	applier := firewall.NewApplier(deps.runner, deps.prober)

	for _, r := range rules {
		plan, err := engine.Plan(ctx, r)
		if err != nil {
			m.RecordFailure("plan")
			log.Error("planning failed", "rule", r.Name, "error", err)
			report.Rules = append(report.Rules, &firewall.RuleOutcome{
				Name:        r.Name,
				DisplayName: r.DisplayName,
				Effect:      firewall.EffectNoop,
				State:       firewall.StateFailed.String(),
				Error:       err.Error(),
			})
			continue
		}

		if deps.dryRun {
			outcome := plan.PredictedOutcome()
			printDryRunOutcome(outcome)
			report.Rules = append(report.Rules, outcome)
			continue
		}

		report.Rules = append(report.Rules, applier.Apply(ctx, plan))
	}

	return nil
}

func printDryRunOutcome(o *firewall.RuleOutcome) {
	Printer.Printf("rule %s: would %s\n", o.Name, effectVerb(o.Effect))
	for _, c := range o.Commands {
		Printer.Printf("  %s\n", c)
	}
}

func effectVerb(e firewall.Effect) string {
	switch e {
	case firewall.EffectCreate:
		return "create"
	case firewall.EffectUpdate:
		return "update"
	case firewall.EffectDelete:
		return "delete"
	default:
		return "leave unchanged"
	}
}

// saveReport persists the run report. Reporting is best effort: a state
// store problem is logged, never allowed to fail an otherwise good run.
func saveReport(report *firewall.RunReport) {
	runs, closeStore, err := openRunsStore()
	if err != nil {
		logging.Warn("run report not persisted", "error", err)
		return
	}
	defer closeStore()

	if err := runs.SaveReport(report.ID, report); err != nil {
		logging.Warn("run report not persisted", "id", report.ID, "error", err)
	}
}

func printRunSummary(report *firewall.RunReport) {
	s := report.Summary()

	verb := "Apply"
	if report.Mode == "dry-run" {
		verb = "Dry run"
	}

	Printer.Printf("\n%s complete: %d created, %d updated, %d deleted, %d unchanged, %d failed (took %s)\n",
		verb, s.Created, s.Updated, s.Deleted, s.Unchanged, s.Failed,
		report.Duration().Round(time.Millisecond))
}

// runFailures turns recorded profile and rule failures into a nonzero
// exit for the run.
func runFailures(report *firewall.RunReport) error {
	failedProfiles := 0
	for _, p := range report.Profiles {
		if p.Error != "" {
			failedProfiles++
		}
	}

	failedRules := report.FailedRules()
	if failedProfiles == 0 && failedRules == 0 {
		return nil
	}

	parts := []string{}
	if failedProfiles > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d profiles", failedProfiles, len(report.Profiles)))
	}
	if failedRules > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d rules", failedRules, len(report.Rules)))
	}
	return fmt.Errorf("%s failed to converge", strings.Join(parts, " and "))
}
