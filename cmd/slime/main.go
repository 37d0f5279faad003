package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain/errs"
)

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs one command line against a fresh console. Queued
// notifications are flushed to errOut once the command returns.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	notified := a.flush(errOut)
	a.close()

	if err != nil && !notified[errs.Message(err)] {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "slime",
		Short: "Security findings and project reporting console",
		Long: `slime manages security-assessment findings grouped into projects.

The backend stores findings, projects and summaries and drafts reports and
summaries with an AI assistant. slime edits them, keeps a local cache of the
last fetched lists, and exports signed project reports.

Configuration is read from slime.yml (or --config), then SLIME_* variables.
.env and .env.local in the working directory are loaded first.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML config file (default slime.yml)")
	flags.StringVar(&opts.apiURL, "api-url", "", "Backend base URL (overrides config)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Approve destructive operations without prompting")
	flags.BoolVar(&opts.offline, "offline", false, "Read lists from the local cache instead of the backend")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newFindingsCmd(a),
		newProjectsCmd(a),
		newSummariesCmd(a),
		newExportCmd(a),
		newVerifyCmd(),
	)
	return root
}
