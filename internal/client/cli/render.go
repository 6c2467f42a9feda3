package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/recviewer/internal/audio"
	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	systemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	microphoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	favoriteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF"))
)

func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func score(m models.Metadata) string {
	if m.Score == nil {
		return "-"
	}
	return strings.Repeat("*", *m.Score)
}

func favorite(m models.Metadata) string {
	if m.Favorite {
		return favoriteStyle.Render("♥")
	}
	return ""
}

// tracks renders presence as one letter per media role, "-" when absent.
func tracks(s models.Session) string {
	flags := s.Flags()
	letters := map[models.Role]string{
		models.RoleScreenVideo: "S",
		models.RoleScreenAudio: "a",
		models.RoleCameraVideo: "C",
		models.RoleAudioRaw:    "r",
		models.RoleAudioClean:  "c",
	}
	var b strings.Builder
	for _, r := range models.MediaRoles {
		if flags.Has(r) {
			b.WriteString(letters[r])
		} else {
			b.WriteString("-")
		}
	}
	return b.String()
}

func sessionRows(sessions []models.Session, notes func(string) (int, bool)) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		n := ""
		if notes != nil {
			if c, ok := notes(s.FolderName); ok {
				n = strconv.Itoa(c)
			}
		}
		rows = append(rows, []string{
			s.Date() + " " + s.Time,
			s.DisplayID,
			s.FolderName,
			tracks(s),
			humanSize(s.TotalSize()),
			score(s.Metadata) + favorite(s.Metadata),
			n,
		})
	}
	return rows
}

var sessionHeader = []string{"WHEN", "ID", "FOLDER", "TRACKS", "SIZE", "SCORE", "NOTES"}

func cueLine(c captions.TaggedCue) string {
	ts := dimStyle.Render(captions.FormatTimestamp(c.Start))
	switch c.Source {
	case captions.SourceSystem:
		return ts + " " + systemStyle.Render("[system]") + " " + c.Text
	default:
		return ts + " " + microphoneStyle.Render("[mic]") + " " + c.Text
	}
}

func analysisRow(role models.Role, a *audio.Analysis, err error) []string {
	if err != nil {
		return []string{string(role), errorStyle.Render(err.Error()), "", "", "", ""}
	}
	s := a.Stats
	clip := ""
	if s.Clipping {
		clip = errorStyle.Render(strconv.Itoa(s.ClippedSamples))
	}
	return []string{
		string(role),
		fmt.Sprintf("%.1fs", a.Duration),
		fmt.Sprintf("%.1f dB", s.PeakDB),
		fmt.Sprintf("%.1f dB", s.RMSDB),
		fmt.Sprintf("%.0f%%", s.SilencePercent),
		clip,
	}
}

var analysisHeader = []string{"TRACK", "DURATION", "PEAK", "RMS", "SILENCE", "CLIPPED"}

// sparkline draws a waveform envelope in at most width columns, keeping the
// loudest block of each column.
func sparkline(w []float64, width int) string {
	runes := []rune("▁▂▃▄▅▆▇█")
	if width <= 0 || len(w) == 0 {
		return ""
	}
	per := (len(w) + width - 1) / width
	var b strings.Builder
	for start := 0; start < len(w); start += per {
		var peak float64
		for _, v := range w[start:min(start+per, len(w))] {
			peak = max(peak, v)
		}
		i := int(peak * float64(len(runes)-1))
		b.WriteRune(runes[max(0, min(i, len(runes)-1))])
	}
	return b.String()
}
