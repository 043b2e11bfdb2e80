package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single problem found in a config.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" or "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects the problems found in one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any entry has error severity. Warnings
// alone do not fail validation.
func (e ValidationErrors) HasErrors() bool {
	for _, err := range e {
		if err.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-severity entries.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, err := range e {
		if err.Severity == SeverityWarning {
			out = append(out, err)
		}
	}
	return out
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Validate checks the cross-cutting structure of the config: the
// service switch, profile names, and uniqueness across rules. Per-rule
// semantic checks live in the firewall package, which owns the rule
// model.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Firewall != nil {
		switch c.Firewall.Ensure {
		case EnsureRunning, EnsureStopped, "":
		default:
			errs = append(errs, ValidationError{
				Field:    "firewall.ensure",
				Message:  fmt.Sprintf("must be %q or %q, got %q", EnsureRunning, EnsureStopped, c.Firewall.Ensure),
				Severity: SeverityError,
			})
		}
	}

	seenProfiles := make(map[string]bool)
	for _, p := range c.Profiles {
		if !isKnownProfile(p.Name) {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("profile[%s]", p.Name),
				Message:  fmt.Sprintf("unknown profile, must be one of: %s", strings.Join(ProfileNames, ", ")),
				Severity: SeverityError,
			})
			continue
		}
		if seenProfiles[p.Name] {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("profile[%s]", p.Name),
				Message:  "profile declared more than once",
				Severity: SeverityError,
			})
		}
		seenProfiles[p.Name] = true
	}

	seenNames := make(map[string]bool)
	seenDisplay := make(map[string]string)
	for _, r := range c.Rules {
		if seenNames[r.Name] {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("rule[%s].name", r.Name),
				Message:  "rule declared more than once",
				Severity: SeverityError,
			})
		}
		seenNames[r.Name] = true

		dn := r.EffectiveDisplayName()
		if prev, ok := seenDisplay[dn]; ok {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("rule[%s].display_name", r.Name),
				Message:  fmt.Sprintf("display name %q already used by rule %q", dn, prev),
				Severity: SeverityError,
			})
		} else {
			seenDisplay[dn] = r.Name
		}

		if strings.ToLower(r.Update) == "recreate" {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("rule[%s].update", r.Name),
				Message:  "recreate policy currently applies the same in-place modification as update",
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

func isKnownProfile(name string) bool {
	for _, p := range ProfileNames {
		if p == name {
			return true
		}
	}
	return false
}
