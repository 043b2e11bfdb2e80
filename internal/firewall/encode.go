package firewall

import (
	"net"
	"strconv"
	"strings"
)

// Native numeric codes used by the host's firewall store. These are the
// values the Windows firewall APIs persist; comparing in this encoding
// keeps desired state and probed state in the same domain.
const (
	NativeProtocolICMPv4 = 1
	NativeProtocolTCP    = 6
	NativeProtocolUDP    = 17
	NativeProtocolICMPv6 = 58
	NativeProtocolAny    = 256

	NativeDirectionIn  = 1
	NativeDirectionOut = 2

	NativeActionBlock = 0
	NativeActionAllow = 1
)

// NativeRule holds the nine compared rule attributes in the host's native
// encoding. Two rules are the same iff every field here is equal.
type NativeRule struct {
	Name          string
	Protocol      int
	LocalPort     string // canonical lowercase: "any", "5985", "5000-5010"
	Enabled       bool
	Action        int
	Direction     int
	RemoteIP      string // canonical: "*" for any, else the address text
	Description   string
	EdgeTraversal bool
}

// Equal reports whether all nine compared fields match.
func (n *NativeRule) Equal(o *NativeRule) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Name == o.Name &&
		n.Protocol == o.Protocol &&
		n.LocalPort == o.LocalPort &&
		n.Enabled == o.Enabled &&
		n.Action == o.Action &&
		n.Direction == o.Direction &&
		n.RemoteIP == o.RemoteIP &&
		n.Description == o.Description &&
		n.EdgeTraversal == o.EdgeTraversal
}

// Diff returns the names of fields that differ, for logging and reports.
func (n *NativeRule) Diff(o *NativeRule) []string {
	var fields []string
	if n.Name != o.Name {
		fields = append(fields, "name")
	}
	if n.Protocol != o.Protocol {
		fields = append(fields, "protocol")
	}
	if n.LocalPort != o.LocalPort {
		fields = append(fields, "local_port")
	}
	if n.Enabled != o.Enabled {
		fields = append(fields, "enabled")
	}
	if n.Action != o.Action {
		fields = append(fields, "action")
	}
	if n.Direction != o.Direction {
		fields = append(fields, "direction")
	}
	if n.RemoteIP != o.RemoteIP {
		fields = append(fields, "remote_ip")
	}
	if n.Description != o.Description {
		fields = append(fields, "description")
	}
	if n.EdgeTraversal != o.EdgeTraversal {
		fields = append(fields, "edge_traversal")
	}
	return fields
}

// Encode maps a validated rule into the host's native encoding. Program
// rules match any protocol and any port; the program path itself is not
// among the compared fields, matching the host tool's update surface.
func (r *Rule) Encode() (*NativeRule, error) {
	n := &NativeRule{
		Name:          r.DisplayName,
		Enabled:       r.Enabled,
		RemoteIP:      CanonicalRemoteIP(r.RemoteIP),
		Description:   r.Description,
		EdgeTraversal: r.EdgeTraversal,
	}

	var err error
	if n.Direction, err = EncodeDirection(r.Direction); err != nil {
		return nil, err
	}
	if n.Action, err = EncodeAction(r.Action); err != nil {
		return nil, err
	}

	switch r.SelectorKind() {
	case SelectorPortProtocol:
		if n.Protocol, err = EncodeProtocol(r.PortProtocol.Protocol); err != nil {
			return nil, err
		}
		n.LocalPort = CanonicalPort(r.PortProtocol.LocalPort)
	case SelectorProgram:
		n.Protocol = NativeProtocolAny
		n.LocalPort = "any"
	default:
		return nil, &EncodingError{Field: "selector", Value: r.SelectorKind().String()}
	}

	return n, nil
}

// EncodeProtocol maps a protocol name to its native numeric code.
func EncodeProtocol(p Protocol) (int, error) {
	switch p {
	case ProtocolTCP:
		return NativeProtocolTCP, nil
	case ProtocolUDP:
		return NativeProtocolUDP, nil
	case ProtocolICMPv4:
		return NativeProtocolICMPv4, nil
	case ProtocolICMPv6:
		return NativeProtocolICMPv6, nil
	case ProtocolAny:
		return NativeProtocolAny, nil
	default:
		return 0, &EncodingError{Field: "protocol", Value: string(p)}
	}
}

// DecodeProtocol maps the host tool's protocol text to the native code.
// Rules can only select the four named protocols, but enumerating the host
// store surfaces rules other tools created; the listing prints IANA names
// or raw numbers for those, and they decode to their protocol numbers so
// observed rules stay representable. Unknown text still fails loudly.
func DecodeProtocol(s string) (int, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "tcp":
		return NativeProtocolTCP, nil
	case "udp":
		return NativeProtocolUDP, nil
	case "icmpv4":
		return NativeProtocolICMPv4, nil
	case "icmpv6":
		return NativeProtocolICMPv6, nil
	case "any":
		return NativeProtocolAny, nil
	}
	if n, ok := ianaProtocols[t]; ok {
		return n, nil
	}
	if n, err := strconv.Atoi(t); err == nil && n >= 0 && n <= 255 {
		return n, nil
	}
	return 0, &EncodingError{Field: "protocol", Value: s}
}

// EncodeDirection maps a direction to its native numeric code.
func EncodeDirection(d Direction) (int, error) {
	switch d {
	case DirectionIn:
		return NativeDirectionIn, nil
	case DirectionOut:
		return NativeDirectionOut, nil
	default:
		return 0, &EncodingError{Field: "direction", Value: string(d)}
	}
}

// DecodeDirection maps the host tool's direction text to the native code.
func DecodeDirection(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return NativeDirectionIn, nil
	case "out":
		return NativeDirectionOut, nil
	default:
		return 0, &EncodingError{Field: "direction", Value: s}
	}
}

// EncodeAction maps an action to its native numeric code.
func EncodeAction(a Action) (int, error) {
	switch a {
	case ActionAllow:
		return NativeActionAllow, nil
	case ActionBlock:
		return NativeActionBlock, nil
	default:
		return 0, &EncodingError{Field: "action", Value: string(a)}
	}
}

// DecodeAction maps the host tool's action text to the native code.
func DecodeAction(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return NativeActionAllow, nil
	case "block":
		return NativeActionBlock, nil
	default:
		return 0, &EncodingError{Field: "action", Value: s}
	}
}

// ProtocolName maps a native protocol code back to its config token.
func ProtocolName(code int) (Protocol, error) {
	switch code {
	case NativeProtocolTCP:
		return ProtocolTCP, nil
	case NativeProtocolUDP:
		return ProtocolUDP, nil
	case NativeProtocolICMPv4:
		return ProtocolICMPv4, nil
	case NativeProtocolICMPv6:
		return ProtocolICMPv6, nil
	case NativeProtocolAny:
		return ProtocolAny, nil
	default:
		return "", &EncodingError{Field: "protocol", Value: strconv.Itoa(code)}
	}
}

// DirectionName maps a native direction code back to its config token.
func DirectionName(code int) (Direction, error) {
	switch code {
	case NativeDirectionIn:
		return DirectionIn, nil
	case NativeDirectionOut:
		return DirectionOut, nil
	default:
		return "", &EncodingError{Field: "direction", Value: strconv.Itoa(code)}
	}
}

// ActionName maps a native action code back to its config token.
func ActionName(code int) (Action, error) {
	switch code {
	case NativeActionAllow:
		return ActionAllow, nil
	case NativeActionBlock:
		return ActionBlock, nil
	default:
		return "", &EncodingError{Field: "action", Value: strconv.Itoa(code)}
	}
}

// DecodeBool maps the host tool's yes/no text to a bool.
func DecodeBool(field, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, &EncodingError{Field: field, Value: s}
	}
}

// CanonicalRemoteIP maps the host tool's "Any" and our "*" to the canonical
// "*". Single-host CIDR suffixes (/32, /128) are stripped because the host
// tool reports a bare address back in that form; without this a single-IP
// rule would never compare equal and update on every run.
func CanonicalRemoteIP(s string) string {
	t := strings.TrimSpace(s)
	if t == "*" || strings.EqualFold(t, "any") {
		return "*"
	}
	if host, bits, ok := strings.Cut(t, "/"); ok {
		if (bits == "32" || bits == "128") && net.ParseIP(host) != nil {
			return host
		}
	}
	return t
}

// CanonicalPort lowercases a port spec so "Any" and "any" compare equal.
func CanonicalPort(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return "any"
	}
	return t
}

// ObservedRule is the probed state of one host rule: the nine compared
// attributes in native encoding plus fields kept for display.
type ObservedRule struct {
	NativeRule

	Profiles string
	Program  string
	LocalIP  string
	Grouping string
}
