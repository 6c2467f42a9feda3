package cli

import (
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

func newOrgsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgs, err := app.client.ListOrganizations(cmd.Context())
			if err != nil {
				return err
			}
			return app.emit(orgs, func(w io.Writer) error {
				rows := make([][]string, 0, len(orgs))
				for _, o := range orgs {
					rows = append(rows, []string{o.ID, o.DisplayName})
				}
				return table(w, []string{"ID", "NAME"}, rows)
			})
		},
	}
}

func newDevicesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "devices <org>",
		Short: "List an organization's devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := app.client.ListDevices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(devices, func(w io.Writer) error {
				rows := make([][]string, 0, len(devices))
				for _, d := range devices {
					rows = append(rows, []string{d.ID, d.DisplayName})
				}
				return table(w, []string{"ID", "NAME"}, rows)
			})
		},
	}
}

// queryFlags holds the raw session filter flags; they are parsed with the
// same rules as the HTTP query string.
type queryFlags struct {
	from, to, search string
	complete         bool
	offset, limit    int
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.from, "from", "", "earliest session date (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&f.to, "to", "", "latest session date (YYYY-MM-DD or RFC 3339)")
	fs.BoolVar(&f.complete, "complete", false, "only sessions with every media track")
	fs.StringVar(&f.search, "search", "", "substring of the session id or folder name")
	fs.IntVar(&f.offset, "offset", 0, "sessions to skip")
	fs.IntVar(&f.limit, "limit", 0, "page size (server default when 0)")
}

func (f *queryFlags) query() (models.SessionQuery, error) {
	values := map[string]string{
		"from":     f.from,
		"to":       f.to,
		"search":   f.search,
		"complete": strconv.FormatBool(f.complete),
		"offset":   strconv.Itoa(f.offset),
		"limit":    strconv.Itoa(f.limit),
	}
	return models.ParseSessionQuery(func(k string) string { return values[k] })
}

func newSessionsCommand(app *App) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "sessions <org> <device>",
		Short: "List a device's sessions, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			page, err := app.client.ListSessions(cmd.Context(), args[0], args[1], q)
			if err != nil {
				return err
			}
			return app.emit(page, func(w io.Writer) error {
				if err := table(w, sessionHeader, sessionRows(page.Sessions, nil)); err != nil {
					return err
				}
				_, err := io.WriteString(w, dimStyle.Render(pageSummary(page))+"\n")
				return err
			})
		},
	}
	qf.bind(cmd)
	return cmd
}

func pageSummary(p models.SessionPage) string {
	if len(p.Sessions) == 0 {
		return "0 of " + strconv.Itoa(p.Total)
	}
	return strconv.Itoa(p.Offset+1) + "-" + strconv.Itoa(p.Offset+len(p.Sessions)) + " of " + strconv.Itoa(p.Total)
}

func newCalendarCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar <org> <device>",
		Short: "Count sessions per day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := app.client.Calendar(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return app.emit(days, func(w io.Writer) error {
				rows := make([][]string, 0, len(days))
				for _, d := range days {
					rows = append(rows, []string{d.Date, strconv.Itoa(d.Sessions), strconv.Itoa(d.Complete)})
				}
				return table(w, []string{"DATE", "SESSIONS", "COMPLETE"}, rows)
			})
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <org> <device> <folder>",
		Short: "Show one session's files and temporary URLs",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := app.client.GetSession(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return app.emit(detail, func(w io.Writer) error {
				s := detail.Session
				if err := table(w, sessionHeader[:6], [][]string{sessionRows([]models.Session{s}, nil)[0][:6]}); err != nil {
					return err
				}
				io.WriteString(w, "\n")
				files := append([]models.FileEntry(nil), s.Files...)
				sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					rows = append(rows, []string{string(f.Role), humanSize(f.Size), f.Key, detail.URLs[f.Role]})
				}
				return table(w, []string{"ROLE", "SIZE", "KEY", "URL"}, rows)
			})
		},
	}
}
