package firewall

import "fmt"

// EncodingError reports a value that has no mapping to the host's native
// encoding. Every mapping site is total; an unrecognized value fails loudly
// here instead of degrading to an empty encoding.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("no native encoding for %s value %q", e.Field, e.Value)
}

// ProbeError reports a failed or unparseable host state query. The affected
// rule's convergence is aborted; it is not retried.
type ProbeError struct {
	Name string // display name being probed
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probing rule %q: %v", e.Name, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ExecError reports a mutating command that returned non-success. No
// rollback is attempted; the host is left as the failed command left it.
type ExecError struct {
	Op   string // add, set, delete, service, profile
	Name string // rule display name or service/profile name
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
