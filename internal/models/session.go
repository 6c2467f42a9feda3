package models

import (
	"encoding/json"
	"time"
)

// FileEntry is one stored object belonging to a session.
type FileEntry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Role         Role      `json:"role"`
}

// PresenceFlags records which expected roles a session has at least one
// object for.
type PresenceFlags struct {
	ScreenVideo      bool `json:"hasScreenVideo"`
	ScreenAudio      bool `json:"hasScreenAudio"`
	CameraVideo      bool `json:"hasCameraVideo"`
	AudioRaw         bool `json:"hasAudioRaw"`
	AudioClean       bool `json:"hasAudioClean"`
	TranscriptScreen bool `json:"hasTranscriptScreen"`
	TranscriptRaw    bool `json:"hasTranscriptRaw"`
	TranscriptClean  bool `json:"hasTranscriptClean"`
}

// Set marks role present. RoleUnknown sets nothing.
func (f *PresenceFlags) Set(role Role) {
	switch role {
	case RoleScreenVideo:
		f.ScreenVideo = true
	case RoleScreenAudio:
		f.ScreenAudio = true
	case RoleCameraVideo:
		f.CameraVideo = true
	case RoleAudioRaw:
		f.AudioRaw = true
	case RoleAudioClean:
		f.AudioClean = true
	case RoleTranscriptScreen:
		f.TranscriptScreen = true
	case RoleTranscriptRaw:
		f.TranscriptRaw = true
	case RoleTranscriptClean:
		f.TranscriptClean = true
	}
}

// Has reports whether role is present.
func (f PresenceFlags) Has(role Role) bool {
	switch role {
	case RoleScreenVideo:
		return f.ScreenVideo
	case RoleScreenAudio:
		return f.ScreenAudio
	case RoleCameraVideo:
		return f.CameraVideo
	case RoleAudioRaw:
		return f.AudioRaw
	case RoleAudioClean:
		return f.AudioClean
	case RoleTranscriptScreen:
		return f.TranscriptScreen
	case RoleTranscriptRaw:
		return f.TranscriptRaw
	case RoleTranscriptClean:
		return f.TranscriptClean
	}
	return false
}

// IsComplete is true when every media track is present.
func (f PresenceFlags) IsComplete() bool {
	return f.ScreenVideo && f.ScreenAudio && f.CameraVideo && f.AudioRaw && f.AudioClean
}

// Session is a recording session reconstructed from storage. ID is the full
// key prefix org/device/yyyy/mm/dd/folderName and never changes. Presence
// flags, total size and completeness are derived from Files on every call.
type Session struct {
	ID         string      `json:"id"`
	DisplayID  string      `json:"displayId"`
	FolderName string      `json:"folderName"`
	Org        string      `json:"org"`
	Device     string      `json:"device"`
	Year       string      `json:"year"`
	Month      string      `json:"month"`
	Day        string      `json:"day"`
	Time       string      `json:"time"`
	Timestamp  time.Time   `json:"timestamp"`
	Files      []FileEntry `json:"files"`
	Metadata   Metadata    `json:"metadata"`
}

// Flags recomputes presence flags from Files.
func (s *Session) Flags() PresenceFlags {
	var f PresenceFlags
	for _, file := range s.Files {
		f.Set(file.Role)
	}
	return f
}

// TotalSize sums the sizes of all files.
func (s *Session) TotalSize() int64 {
	var total int64
	for _, file := range s.Files {
		total += file.Size
	}
	return total
}

// IsComplete reports whether all media tracks are present.
func (s *Session) IsComplete() bool {
	return s.Flags().IsComplete()
}

// File returns the first file with role, if any.
func (s *Session) File(role Role) (FileEntry, bool) {
	for _, file := range s.Files {
		if file.Role == role {
			return file, true
		}
	}
	return FileEntry{}, false
}

// Date returns the session's calendar date as YYYY-MM-DD.
func (s *Session) Date() string {
	return s.Year + "-" + s.Month + "-" + s.Day
}

type sessionJSON Session

type sessionWire struct {
	sessionJSON
	PresenceFlags
	TotalSize  int64 `json:"totalSize"`
	IsComplete bool  `json:"isComplete"`
}

// MarshalJSON adds the derived fields to the wire form.
func (s Session) MarshalJSON() ([]byte, error) {
	flags := s.Flags()
	return json.Marshal(sessionWire{
		sessionJSON:   sessionJSON(s),
		PresenceFlags: flags,
		TotalSize:     s.TotalSize(),
		IsComplete:    flags.IsComplete(),
	})
}

// UnmarshalJSON ignores the derived fields; they are recomputed from Files.
func (s *Session) UnmarshalJSON(b []byte) error {
	var w sessionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Session(w)
	return nil
}
