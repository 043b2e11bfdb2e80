package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/firewall"
)

// absentMarker stands in for a missing rule on either side of a diff.
const absentMarker = "(absent)\n"

// RunDiff compares the configured rules against the host's current state
// and prints a unified diff per drifted rule. A detected drift is a
// nonzero exit so the command can gate pipelines.
func RunDiff(configFile string) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s diff <config-file>", brand.BinaryName)
	}

	_, rules, err := loadRules(configFile)
	if err != nil {
		return err
	}

	prober := firewall.NewNetshProber(firewall.DefaultCommandRunner)
	differs, err := diffRules(context.Background(), os.Stdout, rules, prober)
	if err != nil {
		return err
	}

	if !differs {
		Printer.Println("No changes detected.")
		return nil
	}
	return fmt.Errorf("configuration differs from host state")
}

// diffRules renders observed-to-desired diffs for every rule that is not
// already converged. The + side is what apply would establish.
func diffRules(ctx context.Context, out io.Writer, rules []*firewall.Rule, prober firewall.Prober) (bool, error) {
	differs := false

	for _, r := range rules {
		obs, found, err := prober.Probe(ctx, r.DisplayName)
		if err != nil {
			return differs, err
		}

		desiredText := absentMarker
		if r.Ensure == firewall.EnsurePresent {
			desired, err := r.Encode()
			if err != nil {
				return differs, err
			}
			if found && desired.Equal(&obs.NativeRule) {
				continue
			}
			desiredText = renderNative(desired)
		} else if !found {
			continue
		}

		observedText := absentMarker
		if found {
			observedText = renderNative(&obs.NativeRule)
		}

		differs = true
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(observedText),
			B:        difflib.SplitLines(desiredText),
			FromFile: "observed/" + r.Name,
			ToFile:   "desired/" + r.Name,
			Context:  3,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		fmt.Fprint(out, text)
	}

	return differs, nil
}
