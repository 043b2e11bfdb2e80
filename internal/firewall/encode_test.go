package firewall

import (
	"errors"
	"testing"
)

func TestEncode_PortProtocolRule(t *testing.T) {
	r := &Rule{
		Name:         "allow-winrm",
		DisplayName:  "Allow WinRM",
		Direction:    DirectionIn,
		Action:       ActionAllow,
		Enabled:      true,
		PortProtocol: &PortProtocol{Protocol: ProtocolTCP, LocalPort: "5985"},
		RemoteIP:     "10.0.0.0/8",
		Description:  "remote management",
	}

	n, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := NativeRule{
		Name:        "Allow WinRM",
		Protocol:    NativeProtocolTCP,
		LocalPort:   "5985",
		Enabled:     true,
		Action:      NativeActionAllow,
		Direction:   NativeDirectionIn,
		RemoteIP:    "10.0.0.0/8",
		Description: "remote management",
	}
	if !n.Equal(&want) {
		t.Errorf("Encode() = %+v, want %+v (diff: %v)", n, want, n.Diff(&want))
	}
}

func TestEncode_ProgramRule(t *testing.T) {
	r := &Rule{
		Name:        "block-scanner",
		DisplayName: "Block Scanner",
		Direction:   DirectionOut,
		Action:      ActionBlock,
		Enabled:     true,
		Program:     &Program{Path: `C:\Tools\scanner.exe`},
		RemoteIP:    "*",
	}

	n, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Program rules match any protocol and any port; the path itself is
	// not among the compared fields.
	if n.Protocol != NativeProtocolAny {
		t.Errorf("Protocol = %d, want %d", n.Protocol, NativeProtocolAny)
	}
	if n.LocalPort != "any" {
		t.Errorf("LocalPort = %q, want any", n.LocalPort)
	}
	if n.Direction != NativeDirectionOut || n.Action != NativeActionBlock {
		t.Errorf("direction/action = %d/%d, want %d/%d",
			n.Direction, n.Action, NativeDirectionOut, NativeActionBlock)
	}
	if n.RemoteIP != "*" {
		t.Errorf("RemoteIP = %q, want *", n.RemoteIP)
	}
}

func TestEncode_NoSelectorFailsLoudly(t *testing.T) {
	r := &Rule{
		Name:        "broken",
		DisplayName: "broken",
		Direction:   DirectionIn,
		Action:      ActionAllow,
	}
	_, err := r.Encode()
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Encode() error = %v, want EncodingError", err)
	}
	if encErr.Field != "selector" {
		t.Errorf("Field = %q, want selector", encErr.Field)
	}
}

func TestEncodeProtocol(t *testing.T) {
	tests := []struct {
		proto Protocol
		want  int
	}{
		{ProtocolICMPv4, 1},
		{ProtocolTCP, 6},
		{ProtocolUDP, 17},
		{ProtocolICMPv6, 58},
		{ProtocolAny, 256},
	}
	for _, tt := range tests {
		got, err := EncodeProtocol(tt.proto)
		if err != nil {
			t.Errorf("EncodeProtocol(%q) error = %v", tt.proto, err)
		}
		if got != tt.want {
			t.Errorf("EncodeProtocol(%q) = %d, want %d", tt.proto, got, tt.want)
		}
	}

	if _, err := EncodeProtocol("gre"); err == nil {
		t.Error("EncodeProtocol(gre) = nil error, want EncodingError")
	}
}

func TestDecodeFunctions(t *testing.T) {
	if got, _ := DecodeProtocol("TCP"); got != NativeProtocolTCP {
		t.Errorf("DecodeProtocol(TCP) = %d", got)
	}
	if got, _ := DecodeProtocol("  Any  "); got != NativeProtocolAny {
		t.Errorf("DecodeProtocol(Any) = %d", got)
	}
	// Protocols only other tools create decode to their IANA numbers.
	if got, _ := DecodeProtocol("IGMP"); got != 2 {
		t.Errorf("DecodeProtocol(IGMP) = %d, want 2", got)
	}
	if got, _ := DecodeProtocol("GRE"); got != 47 {
		t.Errorf("DecodeProtocol(GRE) = %d, want 47", got)
	}
	if got, _ := DecodeProtocol("132"); got != 132 {
		t.Errorf("DecodeProtocol(132) = %d, want 132", got)
	}
	if got, _ := DecodeDirection("In"); got != NativeDirectionIn {
		t.Errorf("DecodeDirection(In) = %d", got)
	}
	if got, _ := DecodeAction("Block"); got != NativeActionBlock {
		t.Errorf("DecodeAction(Block) = %d", got)
	}
	if got, _ := DecodeBool("enabled", "Yes"); !got {
		t.Error("DecodeBool(Yes) = false")
	}
	if got, _ := DecodeBool("enabled", "no"); got {
		t.Error("DecodeBool(no) = true")
	}

	// Every decoder fails loudly on text it does not know.
	var encErr *EncodingError
	if _, err := DecodeProtocol("QUIC"); !errors.As(err, &encErr) {
		t.Errorf("DecodeProtocol(QUIC) error = %v, want EncodingError", err)
	}
	if _, err := DecodeProtocol("512"); !errors.As(err, &encErr) {
		t.Errorf("DecodeProtocol(512) error = %v, want EncodingError", err)
	}
	if _, err := DecodeDirection("both"); !errors.As(err, &encErr) {
		t.Errorf("DecodeDirection(both) error = %v, want EncodingError", err)
	}
	if _, err := DecodeAction("bypass"); !errors.As(err, &encErr) {
		t.Errorf("DecodeAction(bypass) error = %v, want EncodingError", err)
	}
	if _, err := DecodeBool("enabled", "maybe"); !errors.As(err, &encErr) {
		t.Errorf("DecodeBool(maybe) error = %v, want EncodingError", err)
	}
}

func TestNativeCodeNames(t *testing.T) {
	if p, err := ProtocolName(NativeProtocolTCP); err != nil || p != ProtocolTCP {
		t.Errorf("ProtocolName(tcp code) = %q, %v", p, err)
	}
	if p, err := ProtocolName(NativeProtocolAny); err != nil || p != ProtocolAny {
		t.Errorf("ProtocolName(any code) = %q, %v", p, err)
	}
	if d, err := DirectionName(NativeDirectionOut); err != nil || d != DirectionOut {
		t.Errorf("DirectionName(out code) = %q, %v", d, err)
	}
	if a, err := ActionName(NativeActionBlock); err != nil || a != ActionBlock {
		t.Errorf("ActionName(block code) = %q, %v", a, err)
	}

	// Codes outside the catalog enums fail loudly.
	var encErr *EncodingError
	if _, err := ProtocolName(47); !errors.As(err, &encErr) {
		t.Errorf("ProtocolName(47) error = %v, want EncodingError", err)
	}
	if _, err := DirectionName(3); !errors.As(err, &encErr) {
		t.Errorf("DirectionName(3) error = %v, want EncodingError", err)
	}
	if _, err := ActionName(2); !errors.As(err, &encErr) {
		t.Errorf("ActionName(2) error = %v, want EncodingError", err)
	}
}

func TestCanonicalRemoteIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*", "*"},
		{"Any", "*"},
		{"any", "*"},
		{" any ", "*"},
		{"192.0.2.7", "192.0.2.7"},
		{"192.0.2.7/32", "192.0.2.7"},
		{"2001:db8::1/128", "2001:db8::1"},
		{"10.0.0.0/8", "10.0.0.0/8"},
		{"2001:db8::/64", "2001:db8::/64"},
		{"bogus/32", "bogus/32"},
	}
	for _, tt := range tests {
		if got := CanonicalRemoteIP(tt.in); got != tt.want {
			t.Errorf("CanonicalRemoteIP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalPort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "any"},
		{"Any", "any"},
		{"80", "80"},
		{" 5000-5010 ", "5000-5010"},
	}
	for _, tt := range tests {
		if got := CanonicalPort(tt.in); got != tt.want {
			t.Errorf("CanonicalPort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNativeRule_EqualAndDiff(t *testing.T) {
	base := NativeRule{
		Name:      "Allow HTTP",
		Protocol:  NativeProtocolTCP,
		LocalPort: "80",
		Enabled:   true,
		Action:    NativeActionAllow,
		Direction: NativeDirectionIn,
		RemoteIP:  "*",
	}

	same := base
	if !base.Equal(&same) {
		t.Error("Equal() = false for identical rules")
	}
	if diff := base.Diff(&same); len(diff) != 0 {
		t.Errorf("Diff() = %v, want empty", diff)
	}

	changed := base
	changed.LocalPort = "8080"
	changed.Enabled = false
	if base.Equal(&changed) {
		t.Error("Equal() = true for differing rules")
	}
	diff := base.Diff(&changed)
	if len(diff) != 2 {
		t.Fatalf("Diff() = %v, want two fields", diff)
	}
	want := map[string]bool{"local_port": true, "enabled": true}
	for _, f := range diff {
		if !want[f] {
			t.Errorf("Diff() contains unexpected field %q", f)
		}
	}
}

func TestNativeRule_EqualNil(t *testing.T) {
	var a *NativeRule
	b := &NativeRule{}
	if a.Equal(b) {
		t.Error("nil.Equal(non-nil) = true")
	}
	if !a.Equal(nil) {
		t.Error("nil.Equal(nil) = false")
	}
}
