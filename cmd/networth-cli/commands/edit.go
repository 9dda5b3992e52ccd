package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"networth/internal/core"
)

// set <section> key=value...: partial update of one record.
func setCmd(a *app) *cobra.Command {
	sections := []string{"assets", "liabilities", "monthly"}
	return &cobra.Command{
		Use:   "set <assets|liabilities|monthly> key=value...",
		Short: "Update fields of one section; negative or invalid amounts are stored as 0",
		Long: "Update fields of one section.\n\nKeys:\n" +
			"  assets:      " + strings.Join(core.Keys(core.AssetFields), ", ") + "\n" +
			"  liabilities: " + strings.Join(core.Keys(core.LiabilityFields), ", ") + "\n" +
			"  monthly:     " + strings.Join(core.Keys(core.MonthlyFields), ", "),
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: sections,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			var p core.Patch
			switch args[0] {
			case "assets":
				if p, err = core.ParsePatch(core.AssetFields, args[1:]); err == nil {
					a.store.UpdateAssets(p)
				}
			case "liabilities":
				if p, err = core.ParsePatch(core.LiabilityFields, args[1:]); err == nil {
					a.store.UpdateLiabilities(p)
				}
			case "monthly":
				if p, err = core.ParsePatch(core.MonthlyFields, args[1:]); err == nil {
					a.store.UpdateMonthlyFinancials(p)
				}
			default:
				return fmt.Errorf("unknown section %q: must be one of %s", args[0], strings.Join(sections, ", "))
			}
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}
}

func currencyCmd(a *app) *cobra.Command {
	codes := make([]string, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		codes = append(codes, string(c))
	}
	return &cobra.Command{
		Use:       "currency <code>",
		Short:     "Set the display currency (" + strings.Join(codes, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: codes,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := core.ParseCurrency(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			if _, err := a.store.UpdateCurrency(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Currency set to %s\n", c.Label())
			return nil
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every amount and restore USD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Calculator reset")
			return nil
		},
	}
}

func saveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the session to the durable store now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.Save() {
				return fmt.Errorf("session could not be saved")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved")
			return nil
		},
	}
}
