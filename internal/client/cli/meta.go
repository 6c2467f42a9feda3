package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

func newMetaCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read or change a session's favorite flag and score",
	}
	cmd.AddCommand(newMetaGetCommand(app), newMetaSetCommand(app))
	return cmd
}

func printMetadata(app *App, m models.Metadata) error {
	return app.emit(m, func(w io.Writer) error {
		return table(w, []string{"FAVORITE", "SCORE"}, [][]string{{strconv.FormatBool(m.Favorite), score(m)}})
	})
}

func newMetaGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <org> <device> <folder>",
		Short: "Show metadata",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.client.GetMetadata(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printMetadata(app, m)
		},
	}
}

func newMetaSetCommand(app *App) *cobra.Command {
	var (
		favorite   bool
		scoreValue int
		clearScore bool
	)
	cmd := &cobra.Command{
		Use:   "set <org> <device> <folder>",
		Short: "Change metadata; only the given flags are applied",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.MetadataPatch
			if cmd.Flags().Changed("favorite") {
				patch.Favorite = &favorite
			}
			switch {
			case clearScore && cmd.Flags().Changed("score"):
				return errors.New("--score and --clear-score are mutually exclusive")
			case clearScore:
				patch.Score = models.OptionalInt{Present: true}
			case cmd.Flags().Changed("score"):
				patch.Score = models.SetInt(scoreValue)
			}
			if patch.Favorite == nil && !patch.Score.Present {
				return errors.New("nothing to change: pass --favorite, --score or --clear-score")
			}
			if err := patch.Validate(); err != nil {
				return err
			}
			m, err := app.client.UpdateMetadata(cmd.Context(), args[0], args[1], args[2], patch)
			if err != nil {
				return err
			}
			return printMetadata(app, m)
		},
	}
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark or unmark as favorite")
	cmd.Flags().IntVar(&scoreValue, "score", 0, "score from 1 to 5")
	cmd.Flags().BoolVar(&clearScore, "clear-score", false, "remove the score")
	return cmd
}

func newNotesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage timestamped session notes",
	}
	cmd.AddCommand(
		newNotesListCommand(app),
		newNotesAddCommand(app),
		newNotesEditCommand(app),
		newNotesRemoveCommand(app),
	)
	return cmd
}

func noteRows(notes []models.Note) [][]string {
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{n.ID, captions.FormatTimestamp(n.Timestamp), string(n.Resource), n.Content})
	}
	return rows
}

var noteHeader = []string{"ID", "AT", "RESOURCE", "CONTENT"}

func newNotesListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <org> <device> <folder>",
		Short: "List notes ordered by timestamp",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := app.client.ListNotes(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return app.emit(notes, func(w io.Writer) error {
				return table(w, noteHeader, noteRows(notes))
			})
		},
	}
}

func printNote(app *App, n models.Note) error {
	return app.emit(n, func(w io.Writer) error {
		return table(w, noteHeader, noteRows([]models.Note{n}))
	})
}

func newNotesAddCommand(app *App) *cobra.Command {
	var (
		at       float64
		resource string
	)
	cmd := &cobra.Command{
		Use:   "add <org> <device> <folder> <text>...",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.NoteInput{
				Timestamp: at,
				Resource:  models.NoteResource(resource),
				Content:   strings.Join(args[3:], " "),
			}
			if err := in.Validate(); err != nil {
				return err
			}
			n, err := app.client.AddNote(cmd.Context(), args[0], args[1], args[2], in)
			if err != nil {
				return err
			}
			return printNote(app, n)
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "position in seconds")
	cmd.Flags().StringVar(&resource, "resource", string(models.NoteGlobal), "track the note refers to, or global")
	return cmd
}

func newNotesEditCommand(app *App) *cobra.Command {
	var (
		at       float64
		resource string
		content  string
	)
	cmd := &cobra.Command{
		Use:   "edit <org> <device> <folder> <note-id>",
		Short: "Change a note; only the given flags are applied",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.NotePatch
			if cmd.Flags().Changed("at") {
				patch.Timestamp = &at
			}
			if cmd.Flags().Changed("resource") {
				r := models.NoteResource(resource)
				patch.Resource = &r
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if patch.Timestamp == nil && patch.Resource == nil && patch.Content == nil {
				return errors.New("nothing to change: pass --at, --resource or --content")
			}
			if err := patch.Validate(); err != nil {
				return err
			}
			n, err := app.client.UpdateNote(cmd.Context(), args[0], args[1], args[2], args[3], patch)
			if err != nil {
				return err
			}
			return printNote(app, n)
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "position in seconds")
	cmd.Flags().StringVar(&resource, "resource", "", "track the note refers to, or global")
	cmd.Flags().StringVar(&content, "content", "", "note text")
	return cmd
}

func newNotesRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <org> <device> <folder> <note-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.client.DeleteNote(cmd.Context(), args[0], args[1], args[2], args[3])
		},
	}
}
