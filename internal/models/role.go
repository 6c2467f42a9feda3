package models

// Role identifies what a stored object is within a recording session.
type Role string

const (
	RoleScreenVideo      Role = "screen-video"
	RoleScreenAudio      Role = "screen-audio"
	RoleCameraVideo      Role = "camera-video"
	RoleAudioRaw         Role = "audio-raw"
	RoleAudioClean       Role = "audio-clean"
	RoleTranscriptScreen Role = "transcript-screen"
	RoleTranscriptRaw    Role = "transcript-raw"
	RoleTranscriptClean  Role = "transcript-clean"
	RoleUnknown          Role = "unknown"
)

// MediaRoles are the tracks a complete session must have.
var MediaRoles = []Role{RoleScreenVideo, RoleScreenAudio, RoleCameraVideo, RoleAudioRaw, RoleAudioClean}

// AudioRoles are the tracks that can be transcribed.
var AudioRoles = []Role{RoleScreenAudio, RoleAudioRaw, RoleAudioClean}

// IsAudio reports whether r is a transcribable audio track.
func (r Role) IsAudio() bool {
	for _, a := range AudioRoles {
		if r == a {
			return true
		}
	}
	return false
}

// IsMedia reports whether r is a playable media track.
func (r Role) IsMedia() bool {
	for _, m := range MediaRoles {
		if r == m {
			return true
		}
	}
	return false
}

// TranscriptRole returns the caption role produced by transcribing r, or
// RoleUnknown when r is not an audio track.
func (r Role) TranscriptRole() Role {
	switch r {
	case RoleScreenAudio:
		return RoleTranscriptScreen
	case RoleAudioRaw:
		return RoleTranscriptRaw
	case RoleAudioClean:
		return RoleTranscriptClean
	default:
		return RoleUnknown
	}
}
