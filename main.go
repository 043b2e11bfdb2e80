package main

import (
	"flag"
	"os"

	"grimm.is/palisade/cmd"
	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		configFile := brand.DefaultConfigPath()
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		dryRun := applyFlags.Bool("dry-run", false, "Plan and report without mutating the host")
		applyFlags.BoolVar(dryRun, "n", false, "Dry run (short)")
		metricsPath := applyFlags.String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")
		applyFlags.Parse(os.Args[2:])

		configFile := brand.DefaultConfigPath()
		if len(applyFlags.Args()) > 0 {
			configFile = applyFlags.Arg(0)
		}

		if err := cmd.RunApply(configFile, *dryRun, *metricsPath); err != nil {
			printer.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		if len(os.Args) < 3 {
			printer.Println("Usage: " + brand.BinaryName + " diff <config-file>")
			os.Exit(1)
		}
		if err := cmd.RunDiff(os.Args[2]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "show":
		showFlags := flag.NewFlagSet("show", flag.ExitOnError)
		all := showFlags.Bool("all", false, "Show every rule (default)")
		name := showFlags.String("name", "", "Show one rule by display name")
		showFlags.Parse(os.Args[2:])

		if *all && *name != "" {
			printer.Fprintf(os.Stderr, "Error: --all and --name are mutually exclusive\n")
			os.Exit(1)
		}

		if err := cmd.RunShow(*name); err != nil {
			printer.Fprintf(os.Stderr, "Show failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		if err := cmd.RunStatus(); err != nil {
			printer.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}

	case "import":
		if err := cmd.RunImport(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)
		printer.Printf("Build: %s\n", brand.BuildTime)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  check     Validate a configuration file (no host access)
            Options: --verbose (-v)
  apply     Converge the host firewall to the configuration
            Options: --dry-run (-n), --metrics-textfile <path>
  diff      Show drift between configuration and host state
  show      Display the host's current firewall rules
            Options: --all, --name <display-name>
  status    Show service state, profile flags, and the last run
  import    Generate a configuration from YAML or the live host
            Options: --input <file> | --from-host, --output <file>
  version   Print version information

Examples:
  %s check -v palisade.hcl
  %s apply --dry-run palisade.hcl
  %s apply palisade.hcl
  %s diff palisade.hcl
  %s show --name "Allow WinRM"
  %s import --from-host --output palisade.hcl
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName)
}
