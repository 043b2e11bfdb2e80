package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/firewall"
)

// RunCheck validates the configuration file syntax and semantics. It never
// talks to the host; verbose mode plans against an empty host instead.
func RunCheck(configFile string, verbose bool) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s check [-v] <config-file>\nExample: %s check -v C:\\ProgramData\\Palisade\\palisade.hcl", brand.BinaryName, brand.BinaryName)
	}

	cfg, rules, err := loadRules(configFile)
	if err != nil {
		return err
	}

	Printer.Printf("Configuration valid!\n")
	if cfg.Firewall != nil {
		Printer.Printf("Firewall service: ensure %s\n", cfg.Firewall.Ensure)
	}
	Printer.Printf("Profiles: %d\n", len(cfg.Profiles))
	Printer.Printf("Rules: %d\n", len(rules))

	if verbose {
		Printer.Println()
		printRuleSummary(os.Stdout, rules)

		Printer.Println("\n[DRY RUN] Guarded command plan (against an empty host):")
		if err := printOfflinePlans(os.Stdout, rules); err != nil {
			return err
		}
	}

	return nil
}

// offlineProber reports every rule as absent so plans can be rendered
// without host access.
type offlineProber struct{}

func (offlineProber) Probe(ctx context.Context, displayName string) (*firewall.ObservedRule, bool, error) {
	return nil, false, nil
}

func printRuleSummary(out io.Writer, rules []*firewall.Rule) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "NAME\tENSURE\tDIR\tACTION\tSELECTOR\tENABLED")
	for _, r := range rules {
		selector := describeSelector(r)
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Ensure, r.Direction, r.Action, selector, yesNo(r.Enabled))
	}
	w.Flush()
}

func describeSelector(r *firewall.Rule) string {
	switch r.SelectorKind() {
	case firewall.SelectorPortProtocol:
		if r.PortProtocol.LocalPort != "" && r.PortProtocol.LocalPort != "any" {
			return fmt.Sprintf("%s/%s", r.PortProtocol.Protocol, r.PortProtocol.LocalPort)
		}
		return string(r.PortProtocol.Protocol)
	case firewall.SelectorProgram:
		return r.Program.Path
	default:
		return "-"
	}
}

// printOfflinePlans renders every rule's guarded step list. Guards are
// shown because they, not the planning-time prediction, decide at apply
// time whether each command runs.
func printOfflinePlans(out io.Writer, rules []*firewall.Rule) error {
	engine := firewall.NewEngine(offlineProber{})

	for _, r := range rules {
		plan, err := engine.Plan(context.Background(), r)
		if err != nil {
			return err
		}

		Printer.Fprintf(out, "\nrule %q:\n", r.Name)
		for _, step := range plan.Steps {
			Printer.Fprintf(out, "  [%s unless %s] netsh %s\n",
				step.Op, describeGuard(step.Guard), strings.Join(step.Args, " "))
		}
	}
	return nil
}

func describeGuard(g firewall.Guard) string {
	switch g.Kind {
	case firewall.GuardExistence:
		return fmt.Sprintf("a rule named %q exists", g.DisplayName)
	case firewall.GuardAbsence:
		return fmt.Sprintf("no rule named %q exists", g.DisplayName)
	case firewall.GuardDetail:
		return fmt.Sprintf("rule %q already matches all fields", g.DisplayName)
	default:
		return string(g.Kind)
	}
}
