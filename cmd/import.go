package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/importer"
	"grimm.is/palisade/internal/service"
)

type importOptions struct {
	inputFile  string
	fromHost   bool
	outputFile string
}

// RunImport builds an HCL configuration from a YAML rule inventory or from
// the host's live rules, writing to --output or stdout.
func RunImport(args []string) error {
	var opts importOptions

	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.StringVar(&opts.inputFile, "input", "", "Path to a YAML rule inventory")
	fs.BoolVar(&opts.fromHost, "from-host", false, "Import the host's current firewall rules")
	fs.StringVar(&opts.outputFile, "output", "", "Write the configuration here instead of stdout")
	fs.Parse(args)

	if (opts.inputFile != "") == opts.fromHost {
		return fmt.Errorf("exactly one of --input or --from-host is required")
	}

	ctx := context.Background()
	prober := firewall.NewNetshProber(firewall.DefaultCommandRunner)

	cfg, warnings, err := importConfig(ctx, opts, prober, service.NewManager())
	if err != nil {
		return err
	}

	for _, w := range warnings {
		Printer.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if opts.outputFile != "" {
		if err := config.SaveFile(cfg, opts.outputFile); err != nil {
			return err
		}
		Printer.Printf("Configuration written to %s\n", opts.outputFile)
		if len(warnings) > 0 {
			Printer.Println("Review the warnings above; some entries were not imported.")
		}
		return nil
	}

	data, err := config.GenerateHCL(cfg)
	if err != nil {
		return err
	}
	Printer.Printf("%s", data)
	return nil
}

// importConfig builds the configuration from whichever source the options
// select. Host imports also capture the live service and profile flags so
// the generated file reproduces the whole host state, not only its rules.
func importConfig(ctx context.Context, opts importOptions, host importer.HostEnumerator, mgr service.Manager) (*config.Config, []string, error) {
	if !opts.fromHost {
		inv, err := importer.LoadInventoryFile(opts.inputFile)
		if err != nil {
			return nil, nil, err
		}
		cfg, warnings := inv.ToConfig()
		return cfg, warnings, nil
	}

	cfg, warnings, err := importer.FromHost(ctx, host)
	if err != nil {
		return nil, nil, err
	}

	st, err := mgr.Status(ctx)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("service state not captured: %v", err))
		return cfg, warnings, nil
	}

	ensure := config.EnsureStopped
	if st.Running {
		ensure = config.EnsureRunning
	}
	cfg.Firewall = &config.FirewallBlock{Ensure: ensure}

	for _, name := range config.ProfileNames {
		if enabled, ok := st.Profiles[name]; ok {
			cfg.Profiles = append(cfg.Profiles, config.ProfileBlock{Name: name, Enabled: enabled})
		}
	}

	return cfg, warnings, nil
}
