package firewall

import (
	"context"
	"fmt"
	"strings"

	"grimm.is/palisade/internal/logging"
)

// Effect is the predicted or actual outcome of converging one rule.
type Effect string

const (
	EffectCreate Effect = "create"
	EffectUpdate Effect = "update"
	EffectDelete Effect = "delete"
	EffectNoop   Effect = "noop"
)

// GuardKind identifies the read-only check gating a step.
type GuardKind string

const (
	// GuardExistence skips create when any rule with the display name
	// exists, regardless of content.
	GuardExistence GuardKind = "existence"
	// GuardAbsence skips delete when no rule with the display name exists.
	GuardAbsence GuardKind = "absence"
	// GuardDetail skips update when a rule matching the name and all nine
	// compared fields exists.
	GuardDetail GuardKind = "detail"
)

// Guard is a read-only check whose satisfaction means "already in the
// desired state, skip the mutation".
type Guard struct {
	Kind        GuardKind
	DisplayName string
	Desired     *NativeRule // set for GuardDetail only
}

// Step is one guarded mutating command. Steps are emitted unconditionally;
// the Applier re-evaluates the guard immediately before running the command.
type Step struct {
	Op    string // add, set, delete
	Guard Guard
	Args  []string
}

// Plan is the ordered guarded step list for one rule, plus the effect
// predicted from the planning-time probe. The prediction is for reporting
// and dry runs; execution trusts only the guards.
type Plan struct {
	Rule    *Rule
	Desired *NativeRule // nil when ensure=absent
	Effect  Effect
	Diff    []string // differing fields behind an update prediction
	Steps   []*Step
}

// PredictedOutcome renders the outcome this plan is expected to produce,
// for dry runs. Only the commands the planning-time probe predicts will
// fire are listed; real execution trusts the guards, not this prediction.
func (p *Plan) PredictedOutcome() *RuleOutcome {
	outcome := &RuleOutcome{
		Name:        p.Rule.Name,
		DisplayName: p.Rule.DisplayName,
		Effect:      p.Effect,
		State:       "planned",
	}

	firing := ""
	switch p.Effect {
	case EffectCreate:
		firing = "add"
	case EffectUpdate:
		firing = "set"
	case EffectDelete:
		firing = "delete"
	}

	for _, step := range p.Steps {
		if step.Op == firing {
			outcome.Commands = append(outcome.Commands,
				netshExe+" "+strings.Join(step.Args, " "))
		}
	}
	return outcome
}

// ConvergeState is the per-rule state machine the Applier walks. Each guard
// evaluation advances the state; a rule is Converged only after every step
// has been checked (and run where needed).
type ConvergeState int

const (
	StateUnchecked ConvergeState = iota
	StateExistenceChecked
	StateDetailChecked
	StateConverged
	StateFailed
)

func (s ConvergeState) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateExistenceChecked:
		return "existence-checked"
	case StateDetailChecked:
		return "detail-checked"
	case StateConverged:
		return "converged"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Engine builds convergence plans. Planning probes the host once per rule
// to predict the effect but never mutates anything.
type Engine struct {
	prober Prober
	log    *logging.Logger
}

// NewEngine creates a plan engine over the given prober.
func NewEngine(prober Prober) *Engine {
	return &Engine{
		prober: prober,
		log:    logging.WithComponent("plan"),
	}
}

// Plan validates and encodes the rule, probes the host, and emits the
// guarded step list per the decision table:
//
//	absent  + not found            → no-op
//	absent  + found                → delete
//	present + not found            → create
//	present + found, fields equal  → no-op
//	present + found, field differs → update
//
// For ensure=present both steps are always emitted, create before update;
// an update only runs after the create step completes, whether or not the
// create actually mutated. For ensure=absent a single guarded delete is
// emitted.
func (e *Engine) Plan(ctx context.Context, r *Rule) (*Plan, error) {
	r.Normalize()
	if err := ValidateRule(r); err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name, err)
	}

	plan := &Plan{Rule: r}

	if r.Ensure == EnsureAbsent {
		_, found, err := e.prober.Probe(ctx, r.DisplayName)
		if err != nil {
			return nil, err
		}
		plan.Effect = EffectNoop
		if found {
			plan.Effect = EffectDelete
		}
		plan.Steps = []*Step{{
			Op:    "delete",
			Guard: Guard{Kind: GuardAbsence, DisplayName: r.DisplayName},
			Args:  DeleteRuleArgs(r.DisplayName),
		}}
		e.log.Debug("planned", "rule", r.Name, "effect", plan.Effect)
		return plan, nil
	}

	desired, err := r.Encode()
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	plan.Desired = desired

	observed, found, err := e.prober.Probe(ctx, r.DisplayName)
	if err != nil {
		return nil, err
	}

	switch {
	case !found:
		plan.Effect = EffectCreate
	case desired.Equal(&observed.NativeRule):
		plan.Effect = EffectNoop
	default:
		plan.Effect = EffectUpdate
		plan.Diff = desired.Diff(&observed.NativeRule)
	}

	if r.UpdatePolicy == UpdateRecreate {
		// The set command already replaces every managed field, so the
		// recreate policy converges through the same in-place update.
		e.log.Debug("recreate policy uses in-place update", "rule", r.Name)
	}

	addArgs, err := AddRuleArgs(r)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	setArgs, err := SetRuleArgs(r)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name, err)
	}

	plan.Steps = []*Step{
		{
			Op:    "add",
			Guard: Guard{Kind: GuardExistence, DisplayName: r.DisplayName},
			Args:  addArgs,
		},
		{
			Op:    "set",
			Guard: Guard{Kind: GuardDetail, DisplayName: r.DisplayName, Desired: desired},
			Args:  setArgs,
		},
	}

	e.log.Debug("planned", "rule", r.Name, "effect", plan.Effect, "diff", plan.Diff)
	return plan, nil
}
