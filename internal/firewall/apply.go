package firewall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// Applier executes convergence plans. Every guard is re-evaluated against
// the host immediately before its command runs (read-then-act); the
// planning-time probe is never trusted at execution time.
type Applier struct {
	runner CommandRunner
	prober Prober
	log    *logging.Logger
}

// NewApplier creates an applier over the given runner and prober.
func NewApplier(runner CommandRunner, prober Prober) *Applier {
	return &Applier{
		runner: runner,
		prober: prober,
		log:    logging.WithComponent("apply"),
	}
}

// Apply converges one rule. Failures are recorded in the outcome and abort
// that rule only; there is no retry and no rollback. A delete whose rule is
// already gone is a no-op, never an error.
func (a *Applier) Apply(ctx context.Context, plan *Plan) *RuleOutcome {
	r := plan.Rule
	m := metrics.Get()

	outcome := &RuleOutcome{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Effect:      EffectNoop,
	}

	state := StateUnchecked
	defer func() {
		outcome.State = state.String()
	}()

	for _, step := range plan.Steps {
		fire, err := a.evalGuard(ctx, step.Guard)
		if err != nil {
			state = StateFailed
			outcome.Error = err.Error()
			m.RecordFailure("probe")
			a.log.Error("guard evaluation failed",
				"rule", r.Name, "guard", string(step.Guard.Kind), "error", err)
			return outcome
		}
		state = advanceState(state, step.Guard.Kind)
		m.RecordGuardCheck(string(step.Guard.Kind), fire)

		if !fire {
			a.log.Debug("guard satisfied, skipping",
				"rule", r.Name, "op", step.Op, "guard", string(step.Guard.Kind))
			continue
		}

		start := time.Now()
		err = a.runner.Run(ctx, netshExe, step.Args...)
		m.RecordCommand(step.Op, time.Since(start).Seconds(), err)
		if err != nil {
			state = StateFailed
			execErr := &ExecError{Op: step.Op, Name: r.DisplayName, Err: err}
			outcome.Error = execErr.Error()
			m.RecordFailure("apply")
			a.log.Error("command failed", "rule", r.Name, "op", step.Op, "error", err)
			return outcome
		}

		outcome.Commands = append(outcome.Commands,
			netshExe+" "+strings.Join(step.Args, " "))
		mergeEffect(outcome, step.Op)
		a.log.Info("rule mutated", "rule", r.Name, "op", step.Op)
		a.log.Audit("rule."+step.Op, "rule:"+r.Name, map[string]any{
			"display_name": r.DisplayName,
		})
	}

	state = StateConverged
	m.RecordEffect(string(outcome.Effect))
	return outcome
}

// evalGuard probes the host and reports whether the guarded command still
// needs to run. A satisfied guard means the host already matches.
func (a *Applier) evalGuard(ctx context.Context, g Guard) (bool, error) {
	obs, found, err := a.prober.Probe(ctx, g.DisplayName)
	if err != nil {
		return false, err
	}

	switch g.Kind {
	case GuardExistence:
		return !found, nil
	case GuardAbsence:
		return found, nil
	case GuardDetail:
		return !(found && g.Desired.Equal(&obs.NativeRule)), nil
	default:
		return false, fmt.Errorf("unknown guard kind %q", g.Kind)
	}
}

func advanceState(s ConvergeState, kind GuardKind) ConvergeState {
	switch kind {
	case GuardExistence, GuardAbsence:
		if s < StateExistenceChecked {
			return StateExistenceChecked
		}
	case GuardDetail:
		if s < StateDetailChecked {
			return StateDetailChecked
		}
	}
	return s
}

// mergeEffect folds an executed op into the outcome's effect. A rule that
// was created and then immediately adjusted still reports as created.
func mergeEffect(o *RuleOutcome, op string) {
	switch op {
	case "add":
		o.Effect = EffectCreate
	case "set":
		if o.Effect != EffectCreate {
			o.Effect = EffectUpdate
		}
	case "delete":
		o.Effect = EffectDelete
	}
}
