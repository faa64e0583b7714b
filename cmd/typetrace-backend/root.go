package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domi413/typetrace-backend/internal/buildinfo"
)

// cmdGlobal carries the persistent flags shared by the daemon command and
// the doctor subcommand, following the cmdGlobal split used throughout
// canonical-lxd's command family (lxc/main.go, lxd-user/main.go).
type cmdGlobal struct {
	flagDebug bool
}

// newRootCmd builds the CLI surface: -h/--help, -v/--version,
// -d/--debug, no positional arguments.
func newRootCmd() *cobra.Command {
	global := &cmdGlobal{}

	app := &cobra.Command{
		Use:     "typetrace-backend",
		Short:   "Keystroke-capture daemon",
		Version: buildinfo.Version,
		Long: `Description:
  typetrace-backend captures keyboard presses from the local input layer,
  aggregates them into per-day counts, and persists the counts to a local
  SQLite database.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	// Version is set above, so cobra wires up -v/--version itself and
	// prints it through the version template set here; fold the same
	// string into -h/--help.
	app.SetVersionTemplate(fmt.Sprintf("%s version {{.Version}}\n", app.Use))
	app.SetHelpTemplate(fmt.Sprintf("%s version %s\n\n{{.UsageString}}", app.Use, buildinfo.Version))

	app.PersistentFlags().BoolVarP(&global.flagDebug, "debug", "d", false, "Show debug messages")

	// SilenceUsage above keeps ordinary runtime failures (permission,
	// store, input-layer errors) from dumping usage text; a malformed
	// flag still needs it, so print it explicitly here before the error
	// reaches main for exit-code mapping.
	app.FlagErrorFunc = func(cmd *cobra.Command, err error) error {
		cmd.Println(cmd.UsageString())
		return err
	}

	app.RunE = func(cmd *cobra.Command, args []string) error {
		return runDaemon(global)
	}

	app.AddCommand(newDoctorCmd(global))

	return app
}
