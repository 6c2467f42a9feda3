package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/client/config"
)

// NewRootCommand builds the command tree around app. Persistent flags are
// bound to app's configuration so they override file and environment values.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recviewer",
		Short:         "Browse and review recording sessions stored in a bucket",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd.Context())
		},
	}
	rootCmd.SetOut(app.out)
	rootCmd.SetErr(app.errOut)

	app.config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newPingCommand(app),
		newOrgsCommand(app),
		newDevicesCommand(app),
		newSessionsCommand(app),
		newCalendarCommand(app),
		newShowCommand(app),
		newMetaCommand(app),
		newNotesCommand(app),
		newTranscribeCommand(app),
		newCaptionsCommand(app),
		newInspectCommand(app),
		newPlayCommand(app),
		newDownloadCommand(app),
		newWatchCommand(app),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute(ctx context.Context) {
	app := NewApp(config.LoadConfig())
	defer app.Close()

	if err := NewRootCommand(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}

func newPingCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "OK")
			return nil
		},
	}
}
