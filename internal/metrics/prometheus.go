package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all convergence metrics.
type Registry struct {
	// Rule convergence
	RuleEffects  *prometheus.CounterVec
	RuleFailures *prometheus.CounterVec
	RulesManaged prometheus.Gauge

	// Guard evaluation
	GuardChecks *prometheus.CounterVec

	// External command execution
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Master switch and profiles
	ServiceTransitions *prometheus.CounterVec
	ProfileToggles     *prometheus.CounterVec

	// Runs
	RunDuration      *prometheus.HistogramVec
	LastRunTimestamp prometheus.Gauge
	ConfigLoads      *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	// Rule convergence
	r.RuleEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_rule_effects_total",
		Help: "Rule convergence outcomes by effect",
	}, []string{"effect"})

	r.RuleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_rule_failures_total",
		Help: "Rules that failed to converge, by stage",
	}, []string{"stage"})

	r.RulesManaged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "palisade_rules_managed",
		Help: "Number of rules in the loaded catalog",
	})

	// Guard evaluation
	r.GuardChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_guard_checks_total",
		Help: "Guard evaluations by kind and outcome",
	}, []string{"kind", "result"})

	// External command execution
	r.CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_netsh_commands_total",
		Help: "netsh invocations by operation and status",
	}, []string{"op", "status"})

	r.CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palisade_netsh_command_duration_seconds",
		Help:    "netsh invocation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// Master switch and profiles
	r.ServiceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_service_transitions_total",
		Help: "Firewall service start/stop attempts",
	}, []string{"target", "status"})

	r.ProfileToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_profile_toggles_total",
		Help: "Profile enable/disable writes",
	}, []string{"profile", "status"})

	// Runs
	r.RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palisade_run_duration_seconds",
		Help:    "Duration of full convergence runs",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})

	r.LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "palisade_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last completed run",
	})

	r.ConfigLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_config_loads_total",
		Help: "Configuration load attempts",
	}, []string{"status"})

	return r
}

// RecordEffect records a rule convergence outcome.
func (r *Registry) RecordEffect(effect string) {
	r.RuleEffects.WithLabelValues(effect).Inc()
}

// RecordFailure records a rule that failed at the given stage.
func (r *Registry) RecordFailure(stage string) {
	r.RuleFailures.WithLabelValues(stage).Inc()
}

// RecordGuardCheck records a guard evaluation.
func (r *Registry) RecordGuardCheck(kind string, passed bool) {
	result := "fire"
	if !passed {
		result = "skip"
	}
	r.GuardChecks.WithLabelValues(kind, result).Inc()
}

// RecordCommand records a netsh invocation.
func (r *Registry) RecordCommand(op string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.CommandsTotal.WithLabelValues(op, status).Inc()
	r.CommandDuration.WithLabelValues(op).Observe(seconds)
}

// RecordServiceTransition records a firewall service start or stop attempt.
func (r *Registry) RecordServiceTransition(target string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ServiceTransitions.WithLabelValues(target, status).Inc()
}

// RecordProfileToggle records a profile registry write.
func (r *Registry) RecordProfileToggle(profile string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ProfileToggles.WithLabelValues(profile, status).Inc()
}

// RecordConfigLoad records a configuration load attempt.
func (r *Registry) RecordConfigLoad(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ConfigLoads.WithLabelValues(status).Inc()
}

// RecordRun records the shape and duration of a completed convergence run.
func (r *Registry) RecordRun(mode string, rules int, seconds float64) {
	r.RulesManaged.Set(float64(rules))
	r.RunDuration.WithLabelValues(mode).Observe(seconds)
	r.LastRunTimestamp.SetToCurrentTime()
}
