// Package firewall implements declarative Windows Firewall rule management
// for Palisade.
//
// # Overview
//
// This package converges a catalog of named rules ("exceptions") against the
// host's live firewall state. Each rule is validated, the host is probed for
// the current state of the same display name, and the minimal set of guarded
// netsh commands is planned and applied. Unrelated rules on the host are
// never touched.
//
// # Architecture
//
//	Rule → Validate → Encode → Probe → Plan (guarded steps) → Applier → netsh
//
// # Key Types
//
//   - [Rule]: desired state of one rule, with a mutually exclusive selector
//     (port/protocol or program path)
//   - [NativeRule]: a rule in the host's native encoding, the form used for
//     equality comparison
//   - [Prober] / [NetshProber]: reads host state via "show rule" and parses it
//   - [Engine]: builds a [Plan] of guarded steps from a rule and a probe
//   - [Applier]: re-evaluates each guard immediately before its command and
//     executes the plan
//   - [CommandRunner]: abstraction over external command execution
//
// # Guards
//
// Every mutating command carries a guard, a read-only check whose success
// means "already in the desired state, skip the mutation". Two levels exist:
// an existence guard (any rule with this display name) gating create and
// delete, and a detailed-equality guard (name plus all nine compared fields)
// gating update. Steps are emitted unconditionally; the guards are what make
// re-application idempotent.
//
// # Example
//
//	prober := firewall.NewNetshProber(firewall.DefaultCommandRunner)
//	engine := firewall.NewEngine(prober)
//	applier := firewall.NewApplier(firewall.DefaultCommandRunner, prober)
//
//	plan, err := engine.Plan(ctx, rule)
//	result := applier.Apply(ctx, plan)
package firewall
