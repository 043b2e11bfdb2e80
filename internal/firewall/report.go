package firewall

import (
	"time"

	"github.com/google/uuid"

	"grimm.is/palisade/internal/clock"
)

// RuleOutcome records what happened to one rule during a run.
type RuleOutcome struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Effect      Effect   `json:"effect"`
	Commands    []string `json:"commands,omitempty"`
	State       string   `json:"state"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the rule's convergence aborted.
func (o *RuleOutcome) Failed() bool {
	return o.Error != ""
}

// ServiceOutcome records the master switch convergence of a run.
type ServiceOutcome struct {
	Ensure  string `json:"ensure"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// ProfileOutcome records one profile toggle of a run.
type ProfileOutcome struct {
	Profile string `json:"profile"`
	Enabled bool   `json:"enabled"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// RunReport is the persisted record of one apply run, mirroring what
// "status" later shows.
type RunReport struct {
	ID         string           `json:"id"`
	Mode       string           `json:"mode"` // apply or dry-run
	ConfigPath string           `json:"config_path,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Service    *ServiceOutcome  `json:"service,omitempty"`
	Profiles   []ProfileOutcome `json:"profiles,omitempty"`
	Rules      []*RuleOutcome   `json:"rules"`
}

// NewRunReport starts a report with a fresh run ID.
func NewRunReport(mode, configPath string) *RunReport {
	return &RunReport{
		ID:         uuid.NewString(),
		Mode:       mode,
		ConfigPath: configPath,
		StartedAt:  clock.Now().UTC(),
	}
}

// Finish stamps the end time.
func (r *RunReport) Finish() {
	r.FinishedAt = clock.Now().UTC()
}

// Duration returns the run's wall time.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedRules counts rules whose convergence aborted.
func (r *RunReport) FailedRules() int {
	n := 0
	for _, o := range r.Rules {
		if o.Failed() {
			n++
		}
	}
	return n
}

// RunSummary tallies a run's rule outcomes. Failed rules are counted only
// under Failed, whatever effect they aborted on.
type RunSummary struct {
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int
}

// Summary tallies the rule outcomes of the run.
func (r *RunReport) Summary() RunSummary {
	var s RunSummary
	for _, o := range r.Rules {
		if o.Failed() {
			s.Failed++
			continue
		}
		switch o.Effect {
		case EffectCreate:
			s.Created++
		case EffectUpdate:
			s.Updated++
		case EffectDelete:
			s.Deleted++
		default:
			s.Unchanged++
		}
	}
	return s
}
