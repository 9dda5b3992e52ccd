package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"networth/internal/backend"
	"networth/internal/cli"
	"networth/internal/config"
	"networth/internal/log"
	"networth/internal/session"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *session.Store
	durable session.DurableStore
	cleanup backend.CleanupFunc
	now     func() time.Time

	sessionStore string
	sessionDir   string
}

// NewRootCommand builds the networth command tree.
func NewRootCommand() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:           "networth",
		Short:         "Net worth calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.sessionStore, "session-store", "", "session store: file, sqlite or memory (default $SESSION_STORE)")
	root.PersistentFlags().StringVar(&a.sessionDir, "session-dir", "", "directory of the file session store (default $SESSION_DIR)")

	root.AddCommand(
		wizardCmd(a),
		setCmd(a),
		currencyCmd(a),
		showCmd(a),
		exportCmd(a),
		resetCmd(a),
		saveCmd(a),
		pushCmd(a),
		historyCmd(a),
		sessionCmd(a),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) open(logOut io.Writer) error {
	cfg, logger, err := cli.LoadConfig(log.ComponentCLI, logOut)
	if err != nil {
		return err
	}
	if a.sessionStore != "" {
		cfg.SessionStore = a.sessionStore
	}
	if a.sessionDir != "" {
		cfg.SessionDir = a.sessionDir
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger, nil).CreateSessionStore(bc)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.durable = res.Store
	a.cleanup = res.Cleanup
	a.store = session.New(res.Store,
		session.WithDelay(cfg.AutoSaveDelay),
		session.WithLogger(logger),
	)
	a.store.Load()
	return nil
}

// close flushes any pending auto-save and releases the durable store.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	var err error
	if !a.store.Close() {
		err = fmt.Errorf("session could not be saved")
	}
	if a.cleanup != nil {
		if cerr := a.cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func printSummary(w io.Writer, st session.State) {
	c := st.Calculations
	cur := st.Currency
	fmt.Fprintf(w, "Total Assets:        %s\n", cur.Format(c.TotalAssets))
	fmt.Fprintf(w, "Total Liabilities:   %s\n", cur.Format(c.TotalLiabilities))
	fmt.Fprintf(w, "Net Worth:           %s\n", cur.Format(c.NetWorth))
	fmt.Fprintf(w, "Debt-to-Asset Ratio: %d%%\n", c.DebtToAssetRatio)
	if c.MonthlyIncome != 0 || c.MonthlyExpenses != 0 {
		fmt.Fprintf(w, "Monthly Cash Flow:   %s\n", cur.Format(c.MonthlyCashFlow))
	}
}
