package firewall

import (
	"fmt"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/validation"
)

// ValidateRule checks a normalized rule against every field constraint.
// It is pure and side-effect free; no external command runs before it
// succeeds. The returned error is a config.ValidationError naming the
// offending field.
//
// A rule with ensure=absent is being removed and needs only its identity;
// selector and traffic fields are not required for it.
func ValidateRule(r *Rule) error {
	if err := validation.ValidateRuleName(r.Name); err != nil {
		return config.ValidationError{Field: "name", Message: err.Error()}
	}

	// Double-populated selectors are structurally wrong regardless of
	// ensure; neither command path could be chosen.
	if r.SelectorKind() == SelectorBoth {
		return config.ValidationError{
			Field:   "selector",
			Message: "protocol/local_port and program are mutually exclusive",
		}
	}

	switch r.Ensure {
	case EnsurePresent, EnsureAbsent:
	default:
		return config.ValidationError{
			Field:   "ensure",
			Message: fmt.Sprintf("must be %q or %q, got %q", EnsurePresent, EnsureAbsent, r.Ensure),
		}
	}

	if r.DisplayName == "" {
		return config.ValidationError{Field: "display_name", Message: "cannot be empty"}
	}
	if err := validation.ValidateDisplayText("display_name", r.DisplayName); err != nil {
		return config.ValidationError{Field: "display_name", Message: err.Error()}
	}
	if err := validation.ValidateDisplayText("description", r.Description); err != nil {
		return config.ValidationError{Field: "description", Message: err.Error()}
	}

	if r.Ensure == EnsureAbsent {
		return nil
	}

	switch r.SelectorKind() {
	case SelectorNone:
		return config.ValidationError{
			Field:   "selector",
			Message: "rule must set either protocol/local_port or program",
		}
	case SelectorPortProtocol:
		if err := validatePortProtocol(r.PortProtocol); err != nil {
			return err
		}
	case SelectorProgram:
		if err := validation.ValidateProgramPath(r.Program.Path); err != nil {
			return config.ValidationError{Field: "program", Message: err.Error()}
		}
	}

	switch r.Direction {
	case DirectionIn, DirectionOut:
	default:
		return config.ValidationError{
			Field:   "direction",
			Message: fmt.Sprintf("must be %q or %q, got %q", DirectionIn, DirectionOut, r.Direction),
		}
	}

	switch r.Action {
	case ActionAllow, ActionBlock:
	default:
		return config.ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("must be %q or %q, got %q", ActionAllow, ActionBlock, r.Action),
		}
	}

	switch r.UpdatePolicy {
	case UpdateInPlace, UpdateRecreate:
	default:
		return config.ValidationError{
			Field:   "update",
			Message: fmt.Sprintf("must be %q or %q, got %q", UpdateInPlace, UpdateRecreate, r.UpdatePolicy),
		}
	}

	// The host accepts edge traversal on inbound rules only.
	if r.EdgeTraversal && r.Direction == DirectionOut {
		return config.ValidationError{
			Field:   "edge_traversal",
			Message: "only valid for inbound rules",
		}
	}

	if err := validation.ValidateRemoteIP(r.RemoteIP); err != nil {
		return config.ValidationError{Field: "remote_ip", Message: err.Error()}
	}

	return nil
}

// validatePortProtocol checks the port/protocol selector variant. LocalPort
// is required for TCP/UDP and must be absent for the ICMP protocols.
func validatePortProtocol(pp *PortProtocol) error {
	switch pp.Protocol {
	case ProtocolTCP, ProtocolUDP:
		if pp.LocalPort == "" {
			return config.ValidationError{
				Field:   "local_port",
				Message: fmt.Sprintf("required for protocol %q", pp.Protocol),
			}
		}
		if err := validation.ValidatePortSpec(pp.LocalPort); err != nil {
			return config.ValidationError{Field: "local_port", Message: err.Error()}
		}
	case ProtocolICMPv4, ProtocolICMPv6:
		if pp.LocalPort != "" {
			return config.ValidationError{
				Field:   "local_port",
				Message: fmt.Sprintf("not allowed for protocol %q", pp.Protocol),
			}
		}
	default:
		return config.ValidationError{
			Field: "protocol",
			Message: fmt.Sprintf("must be one of %q, %q, %q, %q, got %q",
				ProtocolTCP, ProtocolUDP, ProtocolICMPv4, ProtocolICMPv6, pp.Protocol),
		}
	}
	return nil
}
