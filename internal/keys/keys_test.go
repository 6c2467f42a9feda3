package keys

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRole(t *testing.T) {
	const p = "org/dev/2024/01/01/10-00-00_sess1/"

	tests := []struct {
		key  string
		want models.Role
	}{
		{p + "screen/video.mp4", models.RoleScreenVideo},
		{p + "screen/video.webm", models.RoleScreenVideo},
		{p + "screen/audio.wav", models.RoleScreenAudio},
		{p + "screen/audio.vtt", models.RoleTranscriptScreen},
		{p + "camera/video.mp4", models.RoleCameraVideo},
		{p + "audio/raw.wav", models.RoleAudioRaw},
		{p + "audio/raw.vtt", models.RoleTranscriptRaw},
		{p + "audio/clean.wav", models.RoleAudioClean},
		{p + "audio/clean.vtt", models.RoleTranscriptClean},
		{p + "metadata.json", models.RoleUnknown},
		{p + "notes.json", models.RoleUnknown},
		{"randomfile.txt", models.RoleUnknown},
		{"", models.RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := ClassifyRole(tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ClassifyRole(tt.key), "classification must be deterministic")
		})
	}
}

func TestClassifyRole_IsTotal(t *testing.T) {
	valid := map[models.Role]bool{models.RoleUnknown: true}
	for _, p := range rolePatterns {
		valid[p.role] = true
	}
	for _, key := range []string{"a", "/", "screen", "audio/", "x/audio/raw.vttx", "ŝçřéèñ/vidéo", "audio/clean.vtt.bak"} {
		assert.True(t, valid[ClassifyRole(key)], key)
	}
}

func TestParseFolderName(t *testing.T) {
	got := ParseFolderName("09-15-30_sess_abc123")
	assert.Equal(t, FolderName{Time: "09-15-30", DisplayID: "sess_abc123"}, got)

	got = ParseFolderName("not-a-valid-name")
	assert.Equal(t, FallbackTime, got.Time)
	assert.Equal(t, "not-a-valid-name", got.DisplayID)

	got = ParseFolderName("")
	assert.Equal(t, FallbackTime, got.Time)
	assert.Equal(t, "", got.DisplayID)

	got = ParseFolderName("09-15-30_")
	assert.Equal(t, "09-15-30_", got.DisplayID)
}

func TestBuildPrefix_InverseOfParse(t *testing.T) {
	prefix := BuildPrefix("acme", "laptop-7", "2024", "03", "09", "14-05-00_abc")
	assert.Equal(t, "acme/laptop-7/2024/03/09/14-05-00_abc", prefix)

	k, ok := ParseSessionKey(prefix + "/screen/video.mp4")
	require.True(t, ok)
	assert.Equal(t, prefix, k.Prefix())
	assert.Equal(t, "screen/video.mp4", k.File)
}

func TestParseSessionKey_Rejects(t *testing.T) {
	tests := []string{
		"randomfile.txt",
		"acme/dev/2024/01/01/10-00-00_s",
		"acme/dev/24/01/01/10-00-00_s/a.wav",
		"acme/dev/2024/1/01/10-00-00_s/a.wav",
		"acme/dev/2024/01/xx/10-00-00_s/a.wav",
		"acme/_metadata.json",
	}
	for _, key := range tests {
		_, ok := ParseSessionKey(key)
		assert.False(t, ok, key)
	}
}

func TestParseSessionKey_DeepFile(t *testing.T) {
	k, ok := ParseSessionKey("acme/dev/2024/01/02/10-00-00_s/audio/raw.wav")
	require.True(t, ok)
	assert.Equal(t, SessionKey{Org: "acme", Device: "dev", Year: "2024", Month: "01", Day: "02", Folder: "10-00-00_s", File: "audio/raw.wav"}, k)
}

func TestSessionTime(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 2, 9, 15, 30, 0, time.UTC), SessionTime("2024", "01", "02", "09-15-30"))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), SessionTime("2024", "01", "02", FallbackTime))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), SessionTime("2024", "01", "02", "garbage"))
	assert.True(t, SessionTime("2024", "13", "40", "09-15-30").IsZero())
}

func TestSourceAndCaptionPaths(t *testing.T) {
	audio, caption, ok := SourcePath(models.RoleAudioClean)
	require.True(t, ok)
	assert.Equal(t, "audio/clean.wav", audio)
	assert.Equal(t, "audio/clean.vtt", caption)

	_, _, ok = SourcePath(models.RoleScreenVideo)
	assert.False(t, ok)

	c, ok := CaptionPath(models.RoleTranscriptScreen)
	require.True(t, ok)
	assert.Equal(t, "screen/audio.vtt", c)

	c, ok = CaptionPath(models.RoleAudioRaw)
	require.True(t, ok)
	assert.Equal(t, "audio/raw.vtt", c)
}

func TestPrefixHelpers(t *testing.T) {
	assert.Equal(t, "acme/", OrgPrefix("acme"))
	assert.Equal(t, "acme/dev/", DevicePrefix("acme", "dev"))
	assert.Equal(t, "a/b/metadata.json", Join("a/b/", MetadataFile))
	assert.Equal(t, "a/b/metadata.json", Join("a/b", MetadataFile))
}
