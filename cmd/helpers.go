package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/i18n"
	"grimm.is/palisade/internal/metrics"
	"grimm.is/palisade/internal/state"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// loadConfig loads and validates a configuration file. Validation warnings
// go to stderr; validation errors fail the load with every problem listed.
func loadConfig(configFile string) (*config.Config, error) {
	cfg, err := config.LoadFile(configFile)
	metrics.Get().RecordConfigLoad(err)
	if err != nil {
		return nil, err
	}

	errs := cfg.Validate()
	for _, w := range errs.Warnings() {
		Printer.Fprintf(os.Stderr, "warning: %s\n", w.Error())
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("configuration invalid:\n  %s",
			strings.Join(validationLines(errs), "\n  "))
	}

	return cfg, nil
}

// loadRules loads the config and converts its rule catalog into the
// semantic model, failing with every rule problem at once.
func loadRules(configFile string) (*config.Config, []*firewall.Rule, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}

	rules, err := firewall.RulesFromConfig(cfg)
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, nil, fmt.Errorf("configuration invalid:\n  %s",
				strings.Join(validationLines(verrs), "\n  "))
		}
		return nil, nil, err
	}

	return cfg, rules, nil
}

func validationLines(errs config.ValidationErrors) []string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Severity == config.SeverityWarning {
			continue
		}
		lines = append(lines, e.Error())
	}
	return lines
}

// openRunsStore opens the run report bucket in the state store, creating
// the state directory and database on first use.
func openRunsStore() (*state.RunsBucket, func(), error) {
	dir := brand.GetStateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store, err := state.NewSQLiteStore(state.DefaultOptions(filepath.Join(dir, "state.db")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	runs, err := state.NewRunsBucket(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return runs, func() { store.Close() }, nil
}

// Rendering helpers shared by show, diff, and the check summary. Observed
// rules can carry protocol codes outside the rule catalog, so decoding
// falls back to the raw number instead of failing the display.

func protocolText(code int) string {
	if p, err := firewall.ProtocolName(code); err == nil {
		return string(p)
	}
	return strconv.Itoa(code)
}

func directionText(code int) string {
	if d, err := firewall.DirectionName(code); err == nil {
		return string(d)
	}
	return strconv.Itoa(code)
}

func actionText(code int) string {
	if a, err := firewall.ActionName(code); err == nil {
		return string(a)
	}
	return strconv.Itoa(code)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// renderNative renders the nine compared fields as stable line-per-field
// text, the unit both sides of a diff are expressed in.
func renderNative(n *firewall.NativeRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name           = %s\n", n.Name)
	fmt.Fprintf(&b, "enabled        = %s\n", yesNo(n.Enabled))
	fmt.Fprintf(&b, "direction      = %s\n", directionText(n.Direction))
	fmt.Fprintf(&b, "action         = %s\n", actionText(n.Action))
	fmt.Fprintf(&b, "protocol       = %s\n", protocolText(n.Protocol))
	fmt.Fprintf(&b, "local_port     = %s\n", n.LocalPort)
	fmt.Fprintf(&b, "remote_ip      = %s\n", n.RemoteIP)
	fmt.Fprintf(&b, "description    = %s\n", n.Description)
	fmt.Fprintf(&b, "edge_traversal = %s\n", yesNo(n.EdgeTraversal))
	return b.String()
}
