package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

func TestOrgs_JSONWhenNotATerminal(t *testing.T) {
	out, err := run(t, newFake(t), "orgs")
	require.NoError(t, err)

	var orgs []models.Organization
	require.NoError(t, json.Unmarshal([]byte(out), &orgs))
	assert.Equal(t, []models.Organization{{ID: "acme", DisplayName: "Acme Corp"}}, orgs)
}

func TestOrgs_Table(t *testing.T) {
	out, err := run(t, newFake(t), "orgs", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Acme Corp")
}

func TestPing(t *testing.T) {
	out, err := run(t, newFake(t), "ping")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)
}

func TestOpen_ConfigAndConnectErrors(t *testing.T) {
	_, err := run(t, newFake(t), "orgs", "-o", "xml")
	assert.ErrorContains(t, err, "output format")

	_, err = run(t, nil, "orgs")
	assert.ErrorContains(t, err, "dial refused")
}

func TestDevicesAndCalendar(t *testing.T) {
	out, err := run(t, newFake(t), "devices", "acme", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Laptop")

	out, err = run(t, newFake(t), "calendar", "acme", "lap")
	require.NoError(t, err)
	var days []models.CalendarDay
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	assert.Equal(t, 2, days[0].Sessions)

	_, err = run(t, newFake(t), "devices")
	assert.Error(t, err)
}

func TestSessions_ParsesFilters(t *testing.T) {
	fc := newFake(t)
	out, err := run(t, fc, "sessions", "acme", "lap", "--complete", "--from", "2025-04-01", "--to", "2025-04-30", "--limit", "5", "--search", "full")
	require.NoError(t, err)

	q := fc.lastQuery
	assert.True(t, q.CompleteOnly)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, "full", q.Search)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	assert.Equal(t, time.Date(2025, 4, 30, 23, 59, 59, 999999999, time.UTC), *q.To)

	var page models.SessionPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Total)
}

func TestSessions_BadDate(t *testing.T) {
	fc := newFake(t)
	_, err := run(t, fc, "sessions", "acme", "lap", "--from", "yesterday")
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Nil(t, fc.lastQuery.From)
}

func TestSessions_Table(t *testing.T) {
	out, err := run(t, newFake(t), "sessions", "acme", "lap", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "10-00-00_full")
	assert.Contains(t, out, "Sa-r-", "screen video, screen audio and raw mic present")
	assert.Contains(t, out, "1-1 of 1")
}

func TestShow(t *testing.T) {
	out, err := run(t, newFake(t), "show", "acme", "lap", "10-00-00_full", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "https://bucket/acme/lap/2025/04/30/10-00-00_full/audio/raw.wav")
	assert.Contains(t, out, "2.0 KiB")

	_, err = run(t, newFake(t), "show", "acme", "lap", "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMetaSet(t *testing.T) {
	fc := newFake(t)
	out, err := run(t, fc, "meta", "set", "acme", "lap", "10-00-00_full", "--favorite", "--score", "4")
	require.NoError(t, err)
	require.NotNil(t, fc.lastPatch.Favorite)
	assert.True(t, *fc.lastPatch.Favorite)
	assert.Equal(t, models.SetInt(4), fc.lastPatch.Score)

	var m models.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.True(t, m.Favorite)

	_, err = run(t, fc, "meta", "set", "acme", "lap", "10-00-00_full", "--clear-score")
	require.NoError(t, err)
	assert.Equal(t, models.OptionalInt{Present: true}, fc.lastPatch.Score)
	assert.Nil(t, fc.lastPatch.Favorite)
}

func TestMetaSet_Rejected(t *testing.T) {
	fc := newFake(t)
	_, err := run(t, fc, "meta", "set", "acme", "lap", "10-00-00_full")
	assert.ErrorContains(t, err, "nothing to change")

	_, err = run(t, fc, "meta", "set", "acme", "lap", "10-00-00_full", "--score", "9")
	assert.Error(t, err)
	assert.False(t, fc.lastPatch.Score.Present, "invalid score never reaches the server")

	_, err = run(t, fc, "meta", "set", "acme", "lap", "10-00-00_full", "--score", "2", "--clear-score")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestMetaGet(t *testing.T) {
	out, err := run(t, newFake(t), "meta", "get", "acme", "lap", "10-00-00_full", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "false")
}

func TestNotesLifecycle(t *testing.T) {
	fc := newFake(t)

	_, err := run(t, fc, "notes", "add", "acme", "lap", "10-00-00_full", "--at", "3.5", "--resource", "audio-raw", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, models.NoteInput{Timestamp: 3.5, Resource: models.NoteAudioRaw, Content: "hello world"}, fc.lastNote)

	out, err := run(t, fc, "notes", "list", "acme", "lap", "10-00-00_full", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "00:00:03.500")

	_, err = run(t, fc, "notes", "edit", "acme", "lap", "10-00-00_full", "n1", "--content", "edited")
	require.NoError(t, err)
	require.NotNil(t, fc.lastEdit.Content)
	assert.Nil(t, fc.lastEdit.Timestamp)

	_, err = run(t, fc, "notes", "edit", "acme", "lap", "10-00-00_full", "n1")
	assert.ErrorContains(t, err, "nothing to change")

	_, err = run(t, fc, "notes", "rm", "acme", "lap", "10-00-00_full", "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, fc.deleted)
}

func TestNotesAdd_Invalid(t *testing.T) {
	fc := newFake(t)
	_, err := run(t, fc, "notes", "add", "acme", "lap", "10-00-00_full", "--resource", "elsewhere", "text")
	assert.Error(t, err)
	assert.Empty(t, fc.notes)
}

func TestTranscribe(t *testing.T) {
	out, err := run(t, newFake(t), "transcribe", "acme", "lap", "10-00-00_full", "audio-raw", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "10-00-00_full/audio-raw.vtt")

	_, err = run(t, newFake(t), "transcribe", "acme", "lap", "10-00-00_full", "camera-video")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCaptions_VTT(t *testing.T) {
	out, err := run(t, newFake(t), "captions", "acme", "lap", "10-00-00_full", "screen-audio", "--vtt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "WEBVTT"))
	assert.Contains(t, out, "00:00:00.000 --> 00:00:00.500")
	assert.Contains(t, out, "hello from the screen")
}

func TestInspect(t *testing.T) {
	out, err := run(t, newFake(t), "inspect", "acme", "lap", "10-00-00_full", "--mic", "audio-raw")
	require.NoError(t, err)

	var res inspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Tracks, 2)

	byRole := map[models.Role]trackResult{}
	for _, tr := range res.Tracks {
		byRole[tr.Role] = tr
	}
	raw := byRole[models.RoleAudioRaw]
	require.NotNil(t, raw.Analysis)
	assert.InDelta(t, 1.0, raw.Analysis.Duration, 0.01)
	assert.NotEmpty(t, byRole[models.RoleScreenAudio].Error, "corrupt track reports its own error")

	require.Len(t, res.Transcript, 2)
	assert.Equal(t, "hello from the screen", res.Transcript[0].Text)
	assert.Equal(t, "raw mic line", res.Transcript[1].Text)
}

func TestInspect_Table(t *testing.T) {
	out, err := run(t, newFake(t), "inspect", "acme", "lap", "10-00-00_full", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "audio-raw")
	assert.Contains(t, out, "hello from the screen")
	assert.NotContains(t, out, "raw mic line", "default microphone is the clean track")
}

func TestInspect_RejectsNonMicrophone(t *testing.T) {
	_, err := run(t, newFake(t), "inspect", "acme", "lap", "10-00-00_full", "--mic", "screen-audio")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestPlay_RunsToEnd(t *testing.T) {
	out, err := run(t, newFake(t), "play", "acme", "lap", "10-00-00_full", "--mic", "audio-raw", "--rate", "10", "--tick", "5ms", "--for", "5s", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "hello from the screen")
	assert.Contains(t, out, "raw mic line")
	assert.Contains(t, out, "ended at 00:00:01.000")
	assert.Equal(t, 1, strings.Count(out, "hello from the screen"), "an active cue is printed once")
}

func TestPlay_RejectsNonPositiveTick(t *testing.T) {
	for _, tick := range []string{"0s", "-5ms"} {
		t.Run(tick, func(t *testing.T) {
			_, err := run(t, newFake(t), "play", "acme", "lap", "10-00-00_full", "--tick", tick, "--for", "50ms")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestPlay_StopsAfterLimit(t *testing.T) {
	fc := newFake(t)
	s := fc.sessions["10-00-00_full"]
	s.Files = s.Files[:1]
	fc.sessions["10-00-00_full"] = s

	start := time.Now()
	out, err := run(t, fc, "play", "acme", "lap", "10-00-00_full", "--tick", "5ms", "--for", "50ms")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, out, "playing at")
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, newFake(t), "frobnicate")
	assert.Error(t, err)
}
