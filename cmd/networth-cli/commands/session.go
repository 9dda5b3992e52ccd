package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"networth/internal/session"
)

// session list|clear: inspect the durable store behind the session.
func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the locally saved session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the entries of the session store and when they were saved",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				inv, ok := a.durable.(session.Inventory)
				if !ok {
					return fmt.Errorf("session store %q cannot list entries", a.cfg.SessionStore)
				}
				ctx := cmd.Context()
				keys, err := inv.Keys(ctx)
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tSAVED")
				for _, k := range keys {
					at, err := inv.UpdatedAt(ctx, k)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%s\n", k, at.Local().Format(time.DateTime))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the saved session and start over",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear session: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved session cleared")
				return nil
			},
		},
	)
	return cmd
}
