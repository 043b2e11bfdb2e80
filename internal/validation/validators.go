package validation

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Valid catalog rule name: alphanumeric, dash, underscore
	ruleNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// Port spec shape: "any", a single port, or a low-high range.
	// Numeric bounds are checked separately so "70000" fails loudly.
	portSpecRegex = regexp.MustCompile(`^(any|[0-9]{1,5}|[0-9]{1,5}-[0-9]{1,5})$`)

	// Absolute Windows program path: drive letter, UNC share, or an
	// environment-variable prefix like %ProgramFiles%.
	driveLetterRegex = regexp.MustCompile(`^[a-zA-Z]:[\\/]`)
	uncPathRegex     = regexp.MustCompile(`^\\\\[^\\/]`)
	envPrefixRegex   = regexp.MustCompile(`^%[A-Za-z0-9_() ]+%[\\/]`)

	// Dangerous characters that should never appear in identifiers
	dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\"", "'", "\n", "\r"}
)

// MaxProgramPathLength is the classic Windows MAX_PATH limit.
const MaxProgramPathLength = 260

// ValidateRuleName validates a catalog rule name (the key in the config).
func ValidateRuleName(name string) error {
	if name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("rule name too long (max 255 characters)")
	}

	if !ruleNameRegex.MatchString(name) {
		return fmt.Errorf("invalid rule name: %s (must be alphanumeric with -_)", name)
	}

	// Check for dangerous characters
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("rule name contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidatePortSpec validates a local port specification: "any", a single
// port, or a "low-high" range. Both range ends must be valid ports and
// the range must not be inverted.
func ValidatePortSpec(spec string) error {
	if spec == "" {
		return fmt.Errorf("port spec cannot be empty")
	}

	if !portSpecRegex.MatchString(spec) {
		return fmt.Errorf("invalid port spec: %s (must be \"any\", a port, or low-high)", spec)
	}

	if spec == "any" {
		return nil
	}

	if low, high, ok := strings.Cut(spec, "-"); ok {
		lo, err := strconv.Atoi(low)
		if err != nil {
			return fmt.Errorf("invalid port range start: %s", low)
		}
		hi, err := strconv.Atoi(high)
		if err != nil {
			return fmt.Errorf("invalid port range end: %s", high)
		}
		if err := ValidatePortNumber(lo); err != nil {
			return fmt.Errorf("port range start: %w", err)
		}
		if err := ValidatePortNumber(hi); err != nil {
			return fmt.Errorf("port range end: %w", err)
		}
		if lo > hi {
			return fmt.Errorf("inverted port range: %d-%d", lo, hi)
		}
		return nil
	}

	port, err := strconv.Atoi(spec)
	if err != nil {
		return fmt.Errorf("invalid port: %s", spec)
	}
	return ValidatePortNumber(port)
}

// ValidateProgramPath validates an absolute Windows executable path.
// Accepts drive-letter paths (C:\...), UNC paths (\\server\share\...),
// and environment-variable prefixes (%ProgramFiles%\...), which the
// firewall engine expands itself.
func ValidateProgramPath(path string) error {
	if path == "" {
		return fmt.Errorf("program path cannot be empty")
	}

	if len(path) > MaxProgramPathLength {
		return fmt.Errorf("program path too long (max %d characters)", MaxProgramPathLength)
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("null byte in program path")
	}

	for _, r := range path {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("control character in program path")
		}
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}

	if !driveLetterRegex.MatchString(path) && !uncPathRegex.MatchString(path) && !envPrefixRegex.MatchString(path) {
		return fmt.Errorf("program path must be absolute: %s", path)
	}

	return nil
}

// ValidateRemoteIP validates a remote address scope: "*" for any, a
// single IP, or a CIDR range.
func ValidateRemoteIP(s string) error {
	if s == "" {
		return fmt.Errorf("remote IP cannot be empty")
	}

	if s == "*" {
		return nil
	}

	// Try parsing as CIDR first
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		if err != nil {
			return fmt.Errorf("invalid CIDR: %w", err)
		}
		return nil
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return fmt.Errorf("invalid IP address: %s", s)
	}

	return nil
}

// ValidateDisplayText validates user-visible rule text (display names and
// descriptions). The probe parses line-oriented output, so embedded
// newlines or quotes would corrupt round-tripping.
func ValidateDisplayText(field, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("%s too long (max 255 characters)", field)
	}

	if strings.Contains(s, "\"") {
		return fmt.Errorf("%s contains a double quote", field)
	}

	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%s contains a control character", field)
		}
	}

	return nil
}

// ValidateAllowlist checks if a value is in an allowed list
func ValidateAllowlist(value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("value not in allowlist: %s", value)
}

// ValidatePortNumber validates a port number
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", port)
	}
	return nil
}

// SanitizeString removes dangerous characters from a string (for display purposes)
func SanitizeString(s string) string {
	for _, char := range dangerousChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
