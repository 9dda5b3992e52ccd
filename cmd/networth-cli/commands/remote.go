package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"networth/internal/client"
)

// push: store the current totals on the server.
func pushCmd(a *app) *cobra.Command {
	var server, user string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Save the current calculation on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = a.cfg.ServerURL
			}
			st := a.store.State()
			rec, err := client.New(server).Push(cmd.Context(), st.NewCalculation(user))
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: net worth %s\n", rec.ID, rec.Currency.Format(rec.NetWorth))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "API base URL (default $NETWORTH_SERVER_URL)")
	cmd.Flags().StringVar(&user, "user", "", "user id to file the calculation under")
	return cmd
}

// history: list a user's saved calculations.
func historyCmd(a *app) *cobra.Command {
	var server, user string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the calculations saved on the server for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = a.cfg.ServerURL
			}
			recs, err := client.New(server).ListByUser(cmd.Context(), user)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved calculations")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tASSETS\tLIABILITIES\tNET WORTH")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Currency.Format(r.TotalAssets),
					r.Currency.Format(r.TotalLiabilities),
					r.Currency.Format(r.NetWorth))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "API base URL (default $NETWORTH_SERVER_URL)")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
