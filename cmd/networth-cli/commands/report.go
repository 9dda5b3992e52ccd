package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"networth/internal/export"
	"networth/internal/flow"
	"networth/internal/tui"
)

func wizardCmd(a *app) *cobra.Command {
	var threeStep bool
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Step through assets, liabilities and monthly figures interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := flow.FourStep
			if threeStep {
				variant = flow.ThreeStep
			}
			p := tea.NewProgram(tui.New(a.store, variant, a.logger),
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run wizard: %w", err)
			}
			printSummary(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}
	cmd.Flags().BoolVar(&threeStep, "three-step", false, "skip the monthly financials step")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	var (
		style string
		width int
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the results report in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md := export.Markdown(a.store.State().Snapshot(), a.now())
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			out, err := export.RenderTerminal(md, style, width)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty, ...); empty picks one from the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the Markdown source")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "export <json|pdf|md>",
		Short:     "Write the report to net-worth-report-<date>.<ext>",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "pdf", "md"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return err
			}
			path, err := export.WriteFile(dir, kind, a.store.State().Snapshot(), a.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	return cmd
}
