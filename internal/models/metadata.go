package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metadata is the user-editable per-session document stored as
// <sessionPrefix>/metadata.json.
type Metadata struct {
	Favorite bool `json:"favorite"`
	Score    *int `json:"score"`
}

// DefaultMetadata is what a session that was never rated reports.
func DefaultMetadata() Metadata {
	return Metadata{Favorite: false, Score: nil}
}

// IsDefault reports whether m carries no user edits.
func (m Metadata) IsDefault() bool {
	return !m.Favorite && m.Score == nil
}

// OptionalInt tracks presence and value for JSON PATCH semantics:
//   - Present=false: field absent (leave unchanged)
//   - Present=true, Value=nil: explicit null (clear)
//   - Present=true, Value=&n: set to n
type OptionalInt struct {
	Present bool
	Value   *int
}

// UnmarshalJSON is only called when the field exists in the document.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	o.Value = &n
	return nil
}

// MarshalJSON writes the value, or null when absent or cleared.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// SetInt builds a present OptionalInt holding n.
func SetInt(n int) OptionalInt {
	return OptionalInt{Present: true, Value: &n}
}

// MetadataPatch is a partial metadata update. Unset fields are preserved.
type MetadataPatch struct {
	Favorite *bool       `json:"favorite,omitempty"`
	Score    OptionalInt `json:"score,omitzero"`
}

// Apply shallow-merges p into m and returns the result.
func (p MetadataPatch) Apply(m Metadata) Metadata {
	if p.Favorite != nil {
		m.Favorite = *p.Favorite
	}
	if p.Score.Present {
		m.Score = p.Score.Value
	}
	return m
}

// NoteResource is what a note is attached to: the whole session or one track.
type NoteResource string

const (
	NoteGlobal      NoteResource = "global"
	NoteScreenVideo NoteResource = NoteResource(RoleScreenVideo)
	NoteScreenAudio NoteResource = NoteResource(RoleScreenAudio)
	NoteCameraVideo NoteResource = NoteResource(RoleCameraVideo)
	NoteAudioRaw    NoteResource = NoteResource(RoleAudioRaw)
	NoteAudioClean  NoteResource = NoteResource(RoleAudioClean)
)

// NoteResources lists every valid NoteResource.
var NoteResources = []NoteResource{NoteGlobal, NoteScreenVideo, NoteScreenAudio, NoteCameraVideo, NoteAudioRaw, NoteAudioClean}

// Note is a timestamped annotation. Timestamp is seconds into the session.
type Note struct {
	ID        string       `json:"id"`
	Timestamp float64      `json:"timestamp"`
	Resource  NoteResource `json:"resource"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NoteInput carries the client-supplied fields of a new note.
type NoteInput struct {
	Timestamp float64      `json:"timestamp"`
	Resource  NoteResource `json:"resource"`
	Content   string       `json:"content"`
}

// NotePatch edits an existing note. Nil fields are preserved.
type NotePatch struct {
	Timestamp *float64      `json:"timestamp,omitempty"`
	Resource  *NoteResource `json:"resource,omitempty"`
	Content   *string       `json:"content,omitempty"`
}

// Apply merges p into n and returns the result.
func (p NotePatch) Apply(n Note) Note {
	if p.Timestamp != nil {
		n.Timestamp = *p.Timestamp
	}
	if p.Resource != nil {
		n.Resource = *p.Resource
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	return n
}
