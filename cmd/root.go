package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/maxkimambo/stockctl/internal/errors"
	"github.com/maxkimambo/stockctl/internal/logger"
)

var version = "v0.1.0"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	debug      bool
	verbose    bool
	jsonLogs   bool
	quiet      bool
}

// NewRootCommand builds the stockctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "stockctl",
		Short: "A CLI for day-to-day warehouse stock management",
		Long: `stockctl talks to the inventory API to look up products, record stock
movements and file purchase requests.

Slow changes show a busy indicator on stderr. Quick calls and plain lookups
stay silent so the output is not cluttered.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(logger.Options{
				Verbose:    a.flags.verbose || a.flags.debug,
				JSON:       a.flags.jsonLogs,
				Quiet:      a.flags.quiet,
				UserWriter: cmd.OutOrStdout(),
				OpWriter:   cmd.ErrOrStderr(),
			})
			logger.Op.Debugf("stockctl %s starting", version)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "Config file (default: ./stockctl.yaml or ~/.config/stockctl/stockctl.yaml)")
	pf.String("api-url", "", "Inventory API base URL")
	pf.Duration("timeout", 0, "Per-request timeout, e.g. 30s")
	pf.Duration("debounce", 0, "How long changes must run before the busy indicator shows, e.g. 300ms")
	pf.Bool("no-overlay", false, "Never show the busy indicator")
	pf.Int("concurrency", 0, "Number of movements submitted in parallel by 'stock apply'")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address while the command runs, e.g. :9090")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&a.flags.jsonLogs, "json", false, "Output logs in JSON format")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(newProductsCmd(a))
	rootCmd.AddCommand(newStockCmd(a))
	rootCmd.AddCommand(newPurchaseCmd(a))

	return rootCmd
}

// Execute runs the CLI until completion or an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		logger.User.Error(apperrors.FormatForCLI(err))
	}
	return err
}
