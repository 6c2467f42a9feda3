// Package captions reads and writes WebVTT caption documents and merges cue
// streams from different audio sources into one transcript.
package captions

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Header is the first line of every document.
const Header = "WEBVTT"

const arrow = " --> "

// Cue is one timed caption. Start and End are seconds.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm. Negative values clamp to
// zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp accepts HH:MM:SS.mmm and the short MM:SS.mmm form.
func ParseTimestamp(v string) (float64, error) {
	v = strings.TrimSpace(v)
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", v)
	}

	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		if last {
			sec, err := strconv.ParseFloat(p, 64)
			if err != nil || sec < 0 || sec >= 60 {
				return 0, fmt.Errorf("invalid seconds in timestamp %q", v)
			}
			total += sec
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", v)
		}
		total = (total + float64(n)) * 60
	}
	return total, nil
}

// Format serializes cues: the header, then per cue an index line, a timing
// line and the trimmed text, blocks separated by blank lines.
func Format(cues []Cue) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n\n")
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s%s%s\n%s\n\n", i+1, FormatTimestamp(c.Start), arrow, FormatTimestamp(c.End), strings.TrimSpace(c.Text))
	}
	return b.String()
}

// Parse reads a document produced by Format or any simple WebVTT file. Cue
// identifiers and settings after the end timestamp are ignored; NOTE, STYLE
// and REGION blocks are skipped.
func Parse(doc string) ([]Cue, error) {
	sc := bufio.NewScanner(strings.NewReader(strings.ReplaceAll(doc, "\r\n", "\n")))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() || !strings.HasPrefix(strings.TrimPrefix(sc.Text(), "\ufeff"), Header) {
		return nil, fmt.Errorf("missing %s header", Header)
	}

	var (
		cues  []Cue
		cur   *Cue
		lines []string
		skip  bool
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.TrimSpace(strings.Join(lines, "\n"))
			cues = append(cues, *cur)
		}
		cur, lines, skip = nil, nil, false
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case skip:
		case cur != nil:
			lines = append(lines, line)
		case strings.Contains(line, arrow):
			start, end, err := parseTiming(line)
			if err != nil {
				return nil, err
			}
			cur = &Cue{Start: start, End: end}
		case strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"), strings.HasPrefix(line, "REGION"):
			skip = true
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cues == nil {
		cues = []Cue{}
	}
	return cues, nil
}

func parseTiming(line string) (float64, float64, error) {
	left, right, _ := strings.Cut(line, arrow)
	start, err := ParseTimestamp(left)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
