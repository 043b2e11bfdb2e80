package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/firewall"
)

// RunShow prints the host's current firewall rules. With a display name it
// prints one rule in full; otherwise it prints a table of every rule.
func RunShow(displayName string) error {
	prober := firewall.NewNetshProber(firewall.DefaultCommandRunner)
	ctx := context.Background()

	if displayName != "" {
		obs, found, err := prober.Probe(ctx, displayName)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no rule named %q on this host", displayName)
		}
		printRuleDetail(os.Stdout, obs)
		return nil
	}

	rules, err := prober.ProbeAll(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		Printer.Println("No firewall rules on this host.")
		return nil
	}

	printRuleTable(os.Stdout, rules)
	Printer.Printf("\n%d rules. Use %s show --name <display-name> for details.\n",
		len(rules), brand.BinaryName)
	return nil
}

func printRuleTable(out io.Writer, rules []*firewall.ObservedRule) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "NAME\tENABLED\tDIR\tACTION\tPROTO\tLPORT\tREMOTE\tPROGRAM")
	for _, r := range rules {
		program := r.Program
		if program == "" {
			program = "-"
		}
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name,
			yesNo(r.Enabled),
			directionText(r.Direction),
			actionText(r.Action),
			protocolText(r.Protocol),
			r.LocalPort,
			r.RemoteIP,
			program)
	}
	w.Flush()
}

func printRuleDetail(out io.Writer, obs *firewall.ObservedRule) {
	Printer.Fprint(out, renderNative(&obs.NativeRule))
	if obs.Program != "" {
		Printer.Fprintf(out, "program        = %s\n", obs.Program)
	}
	if obs.Profiles != "" {
		Printer.Fprintf(out, "profiles       = %s\n", obs.Profiles)
	}
	if obs.Grouping != "" {
		Printer.Fprintf(out, "grouping       = %s\n", obs.Grouping)
	}
	if obs.LocalIP != "" {
		Printer.Fprintf(out, "local_ip       = %s\n", obs.LocalIP)
	}
}
