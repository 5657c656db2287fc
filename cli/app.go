/*
Package cli implements the financeflow command line.

COMMANDS:
  financeflow project  -f plan.yaml [-y table,csv,json,pdf] [-d dir] [-n name]
      Projects a scenario file and prints or writes the report.
  financeflow validate -f plan.toml
      Checks a scenario file without projecting it.
  financeflow serve    [--port 8080] [--db financeflow.db] [--backend sqlite]
      Starts the REST API.

Scenario files are JSON, YAML or TOML; the extension picks the decoder.

SEE ALSO:
  - factory/scenario.go: Scenario document schema
  - export/: Report formats
  - app/app.go: Server assembly
*/
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/financeflow/factory"
)

// App is the command line application.
type App struct {
	rootCmd *cobra.Command
	plans   *factory.PlanFactory
	out     io.Writer
}

// NewApp creates the command tree.
func NewApp(version string) *App {
	app := &App{
		plans: factory.NewPlanFactory(),
		out:   os.Stdout,
	}

	rootCmd := &cobra.Command{
		Use:           "financeflow",
		Short:         "Long-term household finance projections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "financeflow version: %s\n" .Version}}`)

	rootCmd.AddCommand(app.projectCommand(), app.validateCommand(), app.serveCommand())
	app.rootCmd = rootCmd
	return app
}

// SetOutput redirects command output, for tests.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
	a.rootCmd.SetOut(w)
	a.rootCmd.SetErr(w)
}

// Execute runs the command named by args (os.Args[1:] when nil).
func (a *App) Execute(args []string) error {
	if args != nil {
		a.rootCmd.SetArgs(args)
	}
	return a.rootCmd.Execute()
}
