package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "palisade.hcl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestRunCheck_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
firewall {
  ensure = "running"
}

profile "public" {
  enabled = true
}

rule "allow-winrm" {
  display_name = "Allow WinRM"
  direction    = "in"
  action       = "allow"
  protocol     = "tcp"
  local_port   = "5985"
}
`)

	if err := RunCheck(configPath, false); err != nil {
		t.Errorf("RunCheck() error = %v", err)
	}
}

func TestRunCheck_VerbosePlansOffline(t *testing.T) {
	configPath := writeConfig(t, `
rule "allow-http" {
  direction  = "in"
  action     = "allow"
  protocol   = "tcp"
  local_port = "80"
}

rule "old-rule" {
  ensure = "absent"
}
`)

	// Verbose planning must work without any host tool present.
	if err := RunCheck(configPath, true); err != nil {
		t.Errorf("RunCheck() verbose error = %v", err)
	}
}

func TestRunCheck_InvalidSyntax(t *testing.T) {
	configPath := writeConfig(t, `
rule "broken" {
  direction = "in"
`)

	if err := RunCheck(configPath, false); err == nil {
		t.Error("RunCheck() error = nil, want parse failure")
	}
}

func TestRunCheck_RejectsBothSelectors(t *testing.T) {
	configPath := writeConfig(t, `
rule "confused" {
  direction  = "in"
  action     = "allow"
  protocol   = "tcp"
  local_port = "80"
  program    = "C:\\Tools\\server.exe"
}
`)

	err := RunCheck(configPath, false)
	if err == nil {
		t.Fatal("RunCheck() error = nil, want selector rejection")
	}
	if !strings.Contains(err.Error(), "confused") {
		t.Errorf("error %q does not name the offending rule", err)
	}
}

func TestRunCheck_MissingFile(t *testing.T) {
	if err := RunCheck(filepath.Join(t.TempDir(), "nope.hcl"), false); err == nil {
		t.Error("RunCheck() error = nil, want read failure")
	}
}

func TestDescribeSelector(t *testing.T) {
	_, rules, err := loadRules(writeConfig(t, `
rule "allow-winrm" {
  direction  = "in"
  action     = "allow"
  protocol   = "tcp"
  local_port = "5985"
}

rule "allow-ping" {
  direction = "in"
  action    = "allow"
  protocol  = "icmpv4"
}

rule "block-tool" {
  direction = "out"
  action    = "block"
  program   = "C:\\Tools\\scanner.exe"
}
`))
	if err != nil {
		t.Fatalf("loadRules() error = %v", err)
	}

	want := []string{"tcp/5985", "icmpv4", `C:\Tools\scanner.exe`}
	for i, r := range rules {
		if got := describeSelector(r); got != want[i] {
			t.Errorf("describeSelector(%s) = %q, want %q", r.Name, got, want[i])
		}
	}
}
