package firewall

import "strings"

// Ensure states whether a rule should exist on the host.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Direction of traffic a rule matches.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Action taken on matching traffic.
type Action string

const (
	ActionAllow Action = "allow"
	ActionBlock Action = "block"
)

// Protocol names accepted in a port/protocol selector. ProtocolAny only
// appears on the observed side (program rules match any protocol).
type Protocol string

const (
	ProtocolTCP    Protocol = "tcp"
	ProtocolUDP    Protocol = "udp"
	ProtocolICMPv4 Protocol = "icmpv4"
	ProtocolICMPv6 Protocol = "icmpv6"
	ProtocolAny    Protocol = "any"
)

// UpdatePolicy governs behavior when a same-named rule exists with
// different content.
type UpdatePolicy string

const (
	// UpdateInPlace modifies the existing rule with "set" semantics.
	UpdateInPlace UpdatePolicy = "update"
	// UpdateRecreate is accepted for compatibility and currently applies
	// the same in-place modification; the host tool's set command already
	// replaces every managed field.
	UpdateRecreate UpdatePolicy = "recreate"
)

// PortProtocol selects traffic by protocol and, for TCP/UDP, local port.
type PortProtocol struct {
	Protocol  Protocol
	LocalPort string // "any", a single port, or "low-high"
}

// Program selects traffic by the absolute path of the program it belongs to.
type Program struct {
	Path string
}

// SelectorKind identifies which selector variant a rule carries.
type SelectorKind int

const (
	SelectorNone SelectorKind = iota
	SelectorPortProtocol
	SelectorProgram
	SelectorBoth
)

func (k SelectorKind) String() string {
	switch k {
	case SelectorPortProtocol:
		return "port/protocol"
	case SelectorProgram:
		return "program"
	case SelectorBoth:
		return "both"
	default:
		return "none"
	}
}

// Rule is the desired state of one firewall rule. Name is the catalog key;
// DisplayName is the identity used against the host's rule store.
type Rule struct {
	Name          string
	Ensure        Ensure
	Direction     Direction
	Action        Action
	Enabled       bool
	PortProtocol  *PortProtocol
	Program       *Program
	RemoteIP      string
	DisplayName   string
	Description   string
	EdgeTraversal bool
	UpdatePolicy  UpdatePolicy
}

// SelectorKind reports which selector variant is populated. Exactly one
// variant is valid; validation rejects None and Both.
func (r *Rule) SelectorKind() SelectorKind {
	switch {
	case r.PortProtocol != nil && r.Program != nil:
		return SelectorBoth
	case r.PortProtocol != nil:
		return SelectorPortProtocol
	case r.Program != nil:
		return SelectorProgram
	default:
		return SelectorNone
	}
}

// Normalize lowercases enum fields and fills defaults. It is called before
// validation; validation assumes a normalized rule.
func (r *Rule) Normalize() {
	r.Ensure = Ensure(strings.ToLower(string(r.Ensure)))
	r.Direction = Direction(strings.ToLower(string(r.Direction)))
	r.Action = Action(strings.ToLower(string(r.Action)))
	r.UpdatePolicy = UpdatePolicy(strings.ToLower(string(r.UpdatePolicy)))

	if r.PortProtocol != nil {
		r.PortProtocol.Protocol = Protocol(strings.ToLower(string(r.PortProtocol.Protocol)))
		r.PortProtocol.LocalPort = strings.ToLower(r.PortProtocol.LocalPort)
	}

	if r.Ensure == "" {
		r.Ensure = EnsurePresent
	}
	if r.UpdatePolicy == "" {
		r.UpdatePolicy = UpdateInPlace
	}
	if r.DisplayName == "" {
		r.DisplayName = r.Name
	}
	if r.RemoteIP == "" {
		r.RemoteIP = "*"
	}
}
