// Package keys interprets object-store key paths of the form
//
//	org/device/yyyy/mm/dd/HH-MM-SS_<displayId>/<role path>
//
// and builds them back. It performs no I/O.
package keys

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

const (
	// Separator between key segments.
	Separator = "/"

	// MinSegments is org, device, year, month, day, folder and at least one
	// file segment.
	MinSegments = 7

	// FallbackTime is reported for folder names that lack a HH-MM-SS prefix.
	FallbackTime = "00-00-00"

	MetadataFile   = "metadata.json"
	NotesFile      = "notes.json"
	DescriptorFile = "_metadata.json"
)

// Fixed role-relative paths inside a session folder.
const (
	ScreenAudioPath      = "screen/audio.wav"
	ScreenTranscriptPath = "screen/audio.vtt"
	AudioRawPath         = "audio/raw.wav"
	AudioRawTranscript   = "audio/raw.vtt"
	AudioCleanPath       = "audio/clean.wav"
	AudioCleanTranscript = "audio/clean.vtt"
)

var (
	folderPattern = regexp.MustCompile(`^(\d{2}-\d{2}-\d{2})_(.+)$`)
	yearPattern   = regexp.MustCompile(`^\d{4}$`)
	twoDigits     = regexp.MustCompile(`^\d{2}$`)
)

// rolePatterns is checked in order; caption suffixes come before the audio
// fragments they share a directory with.
var rolePatterns = []struct {
	fragment string
	role     models.Role
}{
	{"screen/audio.vtt", models.RoleTranscriptScreen},
	{"audio/raw.vtt", models.RoleTranscriptRaw},
	{"audio/clean.vtt", models.RoleTranscriptClean},
	{"screen/video", models.RoleScreenVideo},
	{"screen/audio", models.RoleScreenAudio},
	{"camera/video", models.RoleCameraVideo},
	{"audio/raw", models.RoleAudioRaw},
	{"audio/clean", models.RoleAudioClean},
}

// FolderName is a parsed session folder segment.
type FolderName struct {
	Time      string
	DisplayID string
}

// ParseFolderName splits "HH-MM-SS_<rest>". Names that do not match report
// FallbackTime and the whole name as DisplayID.
func ParseFolderName(name string) FolderName {
	m := folderPattern.FindStringSubmatch(name)
	if m == nil {
		return FolderName{Time: FallbackTime, DisplayID: name}
	}
	return FolderName{Time: m[1], DisplayID: m[2]}
}

// ClassifyRole maps a key to the role of the object it names.
func ClassifyRole(key string) models.Role {
	for _, p := range rolePatterns {
		if strings.Contains(key, p.fragment) {
			return p.role
		}
	}
	return models.RoleUnknown
}

// BuildPrefix joins the session identity into its key prefix.
func BuildPrefix(org, device, year, month, day, folder string) string {
	return strings.Join([]string{org, device, year, month, day, folder}, Separator)
}

// DevicePrefix is the listing prefix for all sessions of a device.
func DevicePrefix(org, device string) string {
	return org + Separator + device + Separator
}

// OrgPrefix is the listing prefix for all devices of an organization.
func OrgPrefix(org string) string {
	return org + Separator
}

// Join appends a relative path to a prefix.
func Join(prefix, rel string) string {
	return strings.TrimSuffix(prefix, Separator) + Separator + rel
}

// SessionKey is a key split into its session identity and file path.
type SessionKey struct {
	Org, Device      string
	Year, Month, Day string
	Folder           string
	File             string
}

// Prefix returns the session prefix the key belongs to.
func (k SessionKey) Prefix() string {
	return BuildPrefix(k.Org, k.Device, k.Year, k.Month, k.Day, k.Folder)
}

// ParseSessionKey splits a key that lives inside a dated session folder. It
// reports false for keys with fewer than MinSegments segments or a
// non-numeric date.
func ParseSessionKey(key string) (SessionKey, bool) {
	parts := strings.Split(key, Separator)
	if len(parts) < MinSegments {
		return SessionKey{}, false
	}
	if !yearPattern.MatchString(parts[2]) || !twoDigits.MatchString(parts[3]) || !twoDigits.MatchString(parts[4]) {
		return SessionKey{}, false
	}
	return SessionKey{
		Org:    parts[0],
		Device: parts[1],
		Year:   parts[2],
		Month:  parts[3],
		Day:    parts[4],
		Folder: parts[5],
		File:   strings.Join(parts[6:], Separator),
	}, true
}

// SessionTime derives a session's timestamp from its date segments and
// folder time. Unparseable parts fall back to midnight of the date, or the
// zero time when the date itself is invalid.
func SessionTime(year, month, day, hms string) time.Time {
	date, err := time.Parse("2006-01-02", year+"-"+month+"-"+day)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse("15-04-05", hms)
	if err != nil {
		return date
	}
	return date.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second)
}

// SourcePath returns the fixed relative path of an audio role's source file
// and of the caption document produced from it.
func SourcePath(role models.Role) (audio, caption string, ok bool) {
	switch role {
	case models.RoleScreenAudio:
		return ScreenAudioPath, ScreenTranscriptPath, true
	case models.RoleAudioRaw:
		return AudioRawPath, AudioRawTranscript, true
	case models.RoleAudioClean:
		return AudioCleanPath, AudioCleanTranscript, true
	}
	return "", "", false
}

// CaptionPath returns the relative caption path for a transcript role or the
// audio role it was produced from.
func CaptionPath(role models.Role) (string, bool) {
	switch role {
	case models.RoleTranscriptScreen:
		role = models.RoleScreenAudio
	case models.RoleTranscriptRaw:
		role = models.RoleAudioRaw
	case models.RoleTranscriptClean:
		role = models.RoleAudioClean
	}
	_, caption, ok := SourcePath(role)
	return caption, ok
}
