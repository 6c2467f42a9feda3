package captions

import "sort"

// Source names the audio a cue was transcribed from.
type Source string

const (
	SourceSystem     Source = "system"
	SourceMicrophone Source = "microphone"
)

// TaggedCue is a cue with its source.
type TaggedCue struct {
	Cue
	Source Source `json:"source"`
}

// Merge combines the system and microphone cue lists into one list ordered by
// start time. Cues with equal starts keep system before microphone and their
// original relative order. Overlaps are kept.
func Merge(system, microphone []Cue) []TaggedCue {
	out := make([]TaggedCue, 0, len(system)+len(microphone))
	for _, c := range system {
		out = append(out, TaggedCue{Cue: c, Source: SourceSystem})
	}
	for _, c := range microphone {
		out = append(out, TaggedCue{Cue: c, Source: SourceMicrophone})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Active reports whether t falls in [Start, End).
func (c Cue) Active(t float64) bool {
	return t >= c.Start && t < c.End
}

// ActiveAt returns the indexes of the cues active at t.
func ActiveAt(cues []TaggedCue, t float64) []int {
	var idx []int
	for i, c := range cues {
		if c.Active(t) {
			idx = append(idx, i)
		}
	}
	return idx
}
