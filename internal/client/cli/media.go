package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/audio"
	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/playback"
	"github.com/dmitrijs2005/recviewer/internal/viewer"
)

func newTranscribeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <org> <device> <folder> <audio-role>",
		Short: "Transcribe one audio track and store its captions",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.Role(args[3])
			if err := models.ValidateAudioRole(role); err != nil {
				return err
			}
			out, err := app.client.Transcribe(cmd.Context(), args[0], args[1], args[2], role)
			if err != nil {
				return err
			}
			return app.emit(out, func(w io.Writer) error {
				return table(w, []string{"KEY", "CUES"}, [][]string{{out.Key, fmt.Sprint(out.Cues)}})
			})
		},
	}
}

func newCaptionsCommand(app *App) *cobra.Command {
	var vtt bool
	cmd := &cobra.Command{
		Use:   "captions <org> <device> <folder> <role>",
		Short: "Print stored captions for a track",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.Role(args[3])
			if err := models.ValidateCaptionRole(role); err != nil {
				return err
			}
			cues, err := app.client.Captions(cmd.Context(), args[0], args[1], args[2], role)
			if err != nil {
				return err
			}
			if vtt {
				_, err := io.WriteString(app.out, captions.Format(cues))
				return err
			}
			return app.emit(cues, func(w io.Writer) error {
				rows := make([][]string, 0, len(cues))
				for _, c := range cues {
					rows = append(rows, []string{captions.FormatTimestamp(c.Start), captions.FormatTimestamp(c.End), c.Text})
				}
				return table(w, []string{"START", "END", "TEXT"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&vtt, "vtt", false, "print the WebVTT document")
	return cmd
}

type trackResult struct {
	Role     models.Role     `json:"role"`
	Analysis *audio.Analysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type inspectResult struct {
	Session    models.Session         `json:"session"`
	Tracks     []trackResult          `json:"tracks"`
	Transcript []captions.TaggedCue   `json:"transcript"`
	Captions   map[models.Role]string `json:"captionErrors,omitempty"`
}

// openView loads the session and starts its analysis and caption fetches.
func openView(ctx context.Context, app *App, org, device, folder string, mic models.Role) (*viewer.SessionView, error) {
	detail, err := app.client.GetSession(ctx, org, device, folder)
	if err != nil {
		return nil, err
	}
	view, err := viewer.NewSessionView(app.client, detail.Session, viewer.SessionViewOptions{Microphone: mic, Logger: app.log})
	if err != nil {
		return nil, err
	}
	if err := view.Start(ctx); err != nil {
		view.Stop()
		return nil, err
	}
	return view, nil
}

func newInspectCommand(app *App) *cobra.Command {
	var mic string
	cmd := &cobra.Command{
		Use:   "inspect <org> <device> <folder>",
		Short: "Analyze a session's audio tracks and print the merged transcript",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := openView(cmd.Context(), app, args[0], args[1], args[2], models.Role(mic))
			if err != nil {
				return err
			}
			defer view.Stop()

			res := inspectResult{Session: view.Session(), Transcript: view.Transcript()}
			for _, a := range view.Analyses() {
				t := trackResult{Role: a.Role, Analysis: a.Analysis}
				if a.Err != nil {
					t.Error = a.Err.Error()
				}
				res.Tracks = append(res.Tracks, t)
			}
			if errs := view.CaptionErrors(); len(errs) > 0 {
				res.Captions = make(map[models.Role]string, len(errs))
				for r, e := range errs {
					res.Captions[r] = e.Error()
				}
			}

			return app.emit(res, func(w io.Writer) error {
				rows := make([][]string, 0, len(res.Tracks))
				for _, a := range view.Analyses() {
					rows = append(rows, analysisRow(a.Role, a.Analysis, a.Err))
				}
				if err := table(w, analysisHeader, rows); err != nil {
					return err
				}
				for _, a := range view.Analyses() {
					if a.Analysis != nil {
						fmt.Fprintf(w, "%-12s %s\n", a.Role, sparkline(a.Analysis.Waveform, 60))
					}
				}
				for r, e := range res.Captions {
					fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("captions %s: %s", r, e)))
				}
				if len(res.Transcript) > 0 {
					fmt.Fprintln(w)
				}
				for _, c := range res.Transcript {
					fmt.Fprintln(w, cueLine(c))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mic, "mic", string(models.RoleAudioClean), "microphone track merged into the transcript (audio-raw or audio-clean)")
	return cmd
}

// duration is the longest decoded audio track, 0 when none decoded.
func duration(view *viewer.SessionView) float64 {
	var d float64
	for _, a := range view.Analyses() {
		if a.Analysis != nil {
			d = max(d, a.Analysis.Duration)
		}
	}
	return d
}

func newPlayCommand(app *App) *cobra.Command {
	var (
		mic   string
		from  float64
		rate  float64
		tick  time.Duration
		limit time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play <org> <device> <folder>",
		Short: "Play a session's timeline, printing captions as they become active",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tick <= 0 {
				return common.NewValidationError("tick", "must be positive")
			}
			ctx := cmd.Context()
			if limit > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limit)
				defer cancel()
			}

			view, err := openView(ctx, app, args[0], args[1], args[2], models.Role(mic))
			if err != nil {
				return err
			}
			defer view.Stop()

			total := duration(view)
			clocks := map[models.Role]*playback.Clock{}
			session := view.Session()
			flags := session.Flags()
			sync := view.Synchronizer()
			err = sync.Load(ctx, total, func(context.Context) (map[models.Role]playback.Element, error) {
				elements := map[models.Role]playback.Element{}
				for _, r := range models.MediaRoles {
					if flags.Has(r) {
						c := playback.NewClock(total, nil)
						clocks[r] = c
						elements[r] = c
					}
				}
				return elements, nil
			})
			if err != nil {
				return err
			}
			if err := sync.SetRate(rate); err != nil {
				return err
			}
			if from > 0 {
				if err := sync.Seek(from); err != nil {
					return err
				}
			}
			if err := sync.Play(); err != nil {
				return err
			}

			transcript := view.Transcript()
			master := sync.Snapshot().Master
			var shown []int
			playback.Drive(ctx, sync, master, clocks[master], tick, func(s playback.Snapshot) {
				active := captions.ActiveAt(transcript, s.Position)
				for _, i := range active {
					if !slices.Contains(shown, i) {
						fmt.Fprintln(app.out, cueLine(transcript[i]))
					}
				}
				shown = active
			})

			snap := sync.Snapshot()
			fmt.Fprintln(app.out, dimStyle.Render(fmt.Sprintf("%s at %s", snap.State, captions.FormatTimestamp(snap.Position))))
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mic, "mic", string(models.RoleAudioClean), "microphone track merged into the transcript")
	cmd.Flags().Float64Var(&from, "from", 0, "start position in seconds")
	cmd.Flags().Float64Var(&rate, "rate", 1, "playback rate")
	cmd.Flags().DurationVar(&tick, "tick", 100*time.Millisecond, "playhead update interval")
	cmd.Flags().DurationVar(&limit, "for", 0, "stop after this long (0 plays to the end)")
	return cmd
}
