// Command researchdeck turns a research topic into a narrated slide deck and
// a written report, either from the command line or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	config   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "researchdeck",
		Short:         "Research a topic and build a slide deck from the findings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error, none)")

	cmd.AddCommand(
		newRunCmd(flags),
		newServeCmd(flags),
		newListCmd(flags),
		newRegenerateCmd(flags),
		newExportCmd(flags),
	)
	return cmd
}

func (f *rootFlags) load() (*app, error) {
	return loadApp(f.config, f.logLevel, true)
}

// loadStorage is load for commands that only read stored projects.
func (f *rootFlags) loadStorage() (*app, error) {
	return loadApp(f.config, f.logLevel, false)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
