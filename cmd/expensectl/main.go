// Command expensectl inspects and operates an expensebot database from the
// terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"expensebot/internal/cli"
	"expensebot/internal/config"
	"expensebot/internal/log"
)

var version = "dev"

// app carries state shared by the subcommands. Flags are bound to the same
// keys as the environment variables, so either can set them.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "expensectl",
		Short:         "Inspect and operate the expensebot database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			cli.LoadEnvFile()
		},
	}

	flags := root.PersistentFlags()
	flags.String("backend", "", "data backend (sqlite, memory); overrides DATA_BACKEND")
	flags.String("db", "", "SQLite database path; overrides SQLITE_DB_PATH")
	flags.String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	flags.String("log-format", "", "log format (text, json); overrides LOG_FORMAT")

	_ = a.v.BindPFlag("DATA_BACKEND", flags.Lookup("backend"))
	_ = a.v.BindPFlag("SQLITE_DB_PATH", flags.Lookup("db"))
	_ = a.v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("LOG_FORMAT", flags.Lookup("log-format"))

	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.categoriesCmd())
	root.AddCommand(a.expensesCmd())
	root.AddCommand(a.analyzeCmd())
	root.AddCommand(a.mirrorCmd())
	return root
}

// loadConfig logs to stderr so command output stays clean on stdout.
func (a *app) loadConfig(cmd *cobra.Command, validators ...func(*config.Config) error) (*config.Config, *log.Logger, error) {
	cfg, logger, err := cli.LoadConfigFrom(a.v, cmd.ErrOrStderr(), log.ComponentCLI, validators...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func main() {
	ctx, cancel := cli.SignalContext(log.Discard())
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		cancel()
		os.Exit(1)
	}
}

// commandContext falls back to Background when the command runs outside
// ExecuteContext (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
