package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/service"
	"grimm.is/palisade/internal/state"
)

// RunStatus prints the firewall service and profile state plus a summary
// of the last recorded run. Either half degrades independently: a host
// that cannot be queried still shows run history, and vice versa.
func RunStatus() error {
	mgr := service.NewManager()
	st, stErr := mgr.Status(context.Background())

	var last *firewall.RunReport
	runs, closeStore, err := openRunsStore()
	if err == nil {
		defer closeStore()
		var report firewall.RunReport
		switch err := runs.LoadLast(&report); {
		case err == nil:
			last = &report
		case !errors.Is(err, state.ErrNotFound):
			Printer.Fprintf(os.Stderr, "Warning: failed to read last run: %v\n", err)
		}
	} else {
		Printer.Fprintf(os.Stderr, "Warning: state store unavailable: %v\n", err)
	}

	printStatus(os.Stdout, st, stErr, last)
	return nil
}

func printStatus(out io.Writer, st *service.Status, stErr error, last *firewall.RunReport) {
	Printer.Fprintf(out, "=== %s Status ===\n\n", brand.Name)

	if stErr != nil {
		Printer.Fprintf(out, "Service: unavailable (%v)\n", stErr)
	} else {
		text := "STOPPED"
		if st.Running {
			text = "RUNNING"
		}
		Printer.Fprintf(out, "Service: %s (%s)\n", text, service.ServiceName)

		Printer.Fprintln(out, "Profiles:")
		for _, name := range config.ProfileNames {
			enabled, ok := st.Profiles[name]
			if !ok {
				continue
			}
			text := "disabled"
			if enabled {
				text = "enabled"
			}
			Printer.Fprintf(out, "  %-10s %s\n", name+":", text)
		}
	}

	Printer.Fprintln(out)
	if last == nil {
		Printer.Fprintln(out, "No runs recorded.")
		return
	}

	s := last.Summary()
	Printer.Fprintln(out, "Last run:")
	Printer.Fprintf(out, "  ID:       %s\n", last.ID)
	Printer.Fprintf(out, "  Mode:     %s\n", last.Mode)
	if last.ConfigPath != "" {
		Printer.Fprintf(out, "  Config:   %s\n", last.ConfigPath)
	}
	Printer.Fprintf(out, "  Finished: %s (took %s)\n",
		last.FinishedAt.Format(time.RFC3339), last.Duration().Round(time.Millisecond))
	Printer.Fprintf(out, "  Rules:    %d created, %d updated, %d deleted, %d unchanged, %d failed\n",
		s.Created, s.Updated, s.Deleted, s.Unchanged, s.Failed)
}
