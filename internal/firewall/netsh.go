package firewall

// netshExe is the host's firewall management tool. All rule operations go
// through "netsh advfirewall firewall" subcommands built as argv element
// lists; nothing is ever assembled into shell text, so display names,
// descriptions and paths need no quoting.
const netshExe = "netsh"

// ShowRuleArgs builds the read-only query for a rule by exact display name.
// Verbose output includes the edge traversal and program fields the probe
// needs.
func ShowRuleArgs(displayName string) []string {
	return []string{
		"advfirewall", "firewall", "show", "rule",
		"name=" + displayName,
		"verbose",
	}
}

// ShowAllRulesArgs builds the query enumerating every rule on the host.
func ShowAllRulesArgs() []string {
	return []string{
		"advfirewall", "firewall", "show", "rule",
		"name=all",
		"verbose",
	}
}

// AddRuleArgs builds the create command for a rule.
func AddRuleArgs(r *Rule) ([]string, error) {
	args := []string{
		"advfirewall", "firewall", "add", "rule",
		"name=" + r.DisplayName,
	}
	fields, err := ruleFieldArgs(r)
	if err != nil {
		return nil, err
	}
	return append(args, fields...), nil
}

// SetRuleArgs builds the in-place update command for an existing rule.
// The "new" keyword separates the selection criteria from the replacement
// field set.
func SetRuleArgs(r *Rule) ([]string, error) {
	args := []string{
		"advfirewall", "firewall", "set", "rule",
		"name=" + r.DisplayName,
		"new",
	}
	fields, err := ruleFieldArgs(r)
	if err != nil {
		return nil, err
	}
	return append(args, fields...), nil
}

// DeleteRuleArgs builds the delete command for a rule by display name.
func DeleteRuleArgs(displayName string) []string {
	return []string{
		"advfirewall", "firewall", "delete", "rule",
		"name=" + displayName,
	}
}

// ruleFieldArgs builds the shared field set for add and set. The selector
// switch is exhaustive: an unpopulated or doubly-populated selector cannot
// produce a command.
func ruleFieldArgs(r *Rule) ([]string, error) {
	dir, err := netshDirectionToken(r.Direction)
	if err != nil {
		return nil, err
	}
	action, err := netshActionToken(r.Action)
	if err != nil {
		return nil, err
	}

	args := []string{
		"dir=" + dir,
		"action=" + action,
		"enable=" + netshBool(r.Enabled),
	}

	// The host tool accepts edge traversal on inbound rules only.
	if r.Direction == DirectionIn {
		args = append(args, "edge="+netshBool(r.EdgeTraversal))
	}

	switch r.SelectorKind() {
	case SelectorPortProtocol:
		proto, err := netshProtocolToken(r.PortProtocol.Protocol)
		if err != nil {
			return nil, err
		}
		args = append(args, "protocol="+proto)
		if r.PortProtocol.Protocol == ProtocolTCP || r.PortProtocol.Protocol == ProtocolUDP {
			args = append(args, "localport="+CanonicalPort(r.PortProtocol.LocalPort))
		}
	case SelectorProgram:
		args = append(args, "program="+r.Program.Path)
	default:
		return nil, &EncodingError{Field: "selector", Value: r.SelectorKind().String()}
	}

	args = append(args, "remoteip="+netshRemoteIPToken(r.RemoteIP))

	if r.Description != "" {
		args = append(args, "description="+r.Description)
	}

	return args, nil
}

// netshProtocolToken maps a protocol to the token the host tool accepts.
func netshProtocolToken(p Protocol) (string, error) {
	switch p {
	case ProtocolTCP:
		return "TCP", nil
	case ProtocolUDP:
		return "UDP", nil
	case ProtocolICMPv4:
		return "ICMPv4", nil
	case ProtocolICMPv6:
		return "ICMPv6", nil
	default:
		return "", &EncodingError{Field: "protocol", Value: string(p)}
	}
}

func netshDirectionToken(d Direction) (string, error) {
	switch d {
	case DirectionIn:
		return "in", nil
	case DirectionOut:
		return "out", nil
	default:
		return "", &EncodingError{Field: "direction", Value: string(d)}
	}
}

func netshActionToken(a Action) (string, error) {
	switch a {
	case ActionAllow:
		return "allow", nil
	case ActionBlock:
		return "block", nil
	default:
		return "", &EncodingError{Field: "action", Value: string(a)}
	}
}

func netshBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func netshRemoteIPToken(s string) string {
	if CanonicalRemoteIP(s) == "*" {
		return "any"
	}
	return s
}
