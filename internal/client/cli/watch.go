package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/viewer"
)

func newWatchCommand(app *App) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "watch <org> <device>",
		Short: "Keep a device's session list refreshed until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}

			updates := make(chan []models.Session, 1)
			b := viewer.NewBrowser(app.client, args[0], args[1], viewer.BrowserOptions{
				Query:    q,
				Interval: app.config.RefreshInterval,
				Logger:   app.log,
				OnTick: func(s []models.Session) {
					select {
					case updates <- s:
					default:
						// drop a stale list in favor of the newer one
						select {
						case <-updates:
						default:
						}
						updates <- s
					}
				},
			})

			ctx := cmd.Context()
			if err := b.Start(ctx); err != nil {
				return err
			}
			defer b.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case sessions := <-updates:
					if err := app.printWatch(b, sessions); err != nil {
						return err
					}
				}
			}
		},
	}
	qf.bind(cmd)
	return cmd
}

func (a *App) printWatch(b *viewer.Browser, sessions []models.Session) error {
	return a.emit(sessions, func(w io.Writer) error {
		fmt.Fprintln(w, dimStyle.Render("refreshed "+time.Now().Format(time.TimeOnly)))
		return table(w, sessionHeader, sessionRows(sessions, b.NotesCount))
	})
}
