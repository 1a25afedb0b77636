package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the rostersync CLI with the given arguments. This is the
// main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "rostersync",
		Short:   "Reconcile Encompass and Paycom rosters against Samsara",
		Version: a.version,
		Long: `Rostersync reconciles operational rosters against the Samsara fleet
platform. It syncs Encompass customer exports to Samsara addresses and
Paycom payroll exports to Samsara drivers.

Every command is a dry run by default: it plans the full set of changes
and writes report artifacts without touching the remote side. Pass
--apply to issue the writes.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is ./.rostersync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.SetVersionTemplate("rostersync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand runs before any command and folds parsed persistent flags
// back into the config, then reconfigures logging.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, logLevel)
	ConfigureLogging(a.config)

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewFullCommand())
	rootCmd.AddCommand(a.NewDailyCommand())
	rootCmd.AddCommand(a.NewDriversCommand())
	rootCmd.AddCommand(a.NewPurgeCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// mustGetBool reads a bool flag that is known to exist. A failure here is a
// programming error, not a user error.
func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag %q: %v", name, err))
	}
	return v
}

// mustGetString reads a string flag that is known to exist.
func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag %q: %v", name, err))
	}
	return v
}
