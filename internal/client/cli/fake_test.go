package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/client/client"
	"github.com/dmitrijs2005/recviewer/internal/client/config"
	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"
)

// fakeClient serves one device with canned sessions and records what the
// commands sent.
type fakeClient struct {
	mu sync.Mutex

	sessions map[string]models.Session
	media    map[models.Role][]byte
	captions map[models.Role][]captions.Cue
	notes    []models.Note
	meta     models.Metadata

	lastQuery models.SessionQuery
	lastPatch models.MetadataPatch
	lastNote  models.NoteInput
	lastEdit  models.NotePatch
	deleted   []string
	closed    bool

	// urlBase prefixes presigned URLs; defaults to a fake bucket host.
	urlBase string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) ListOrganizations(context.Context) ([]models.Organization, error) {
	return []models.Organization{{ID: "acme", DisplayName: "Acme Corp"}}, nil
}

func (f *fakeClient) ListDevices(_ context.Context, org string) ([]models.Device, error) {
	return []models.Device{{ID: "lap", OrgID: org, DisplayName: "Laptop"}}, nil
}

func (f *fakeClient) ListSessions(_ context.Context, _, _ string, q models.SessionQuery) (models.SessionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	var out []models.Session
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return models.SessionPage{Sessions: out, Total: len(out), Limit: 100}, nil
}

func (f *fakeClient) Calendar(context.Context, string, string) ([]models.CalendarDay, error) {
	return []models.CalendarDay{{Date: "2025-04-30", Sessions: 2, Complete: 1}}, nil
}

func (f *fakeClient) GetSession(_ context.Context, _, _, folder string) (models.SessionDetail, error) {
	s, ok := f.sessions[folder]
	if !ok {
		return models.SessionDetail{}, fmt.Errorf("session %w", common.ErrorNotFound)
	}
	base := f.urlBase
	if base == "" {
		base = "https://bucket"
	}
	urls := map[models.Role]string{}
	for _, fe := range s.Files {
		urls[fe.Role] = base + "/" + fe.Key
	}
	return models.SessionDetail{Session: s, URLs: urls}, nil
}

func (f *fakeClient) GetMetadata(context.Context, string, string, string) (models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta, nil
}

func (f *fakeClient) UpdateMetadata(_ context.Context, _, _, _ string, patch models.MetadataPatch) (models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPatch = patch
	if patch.Favorite != nil {
		f.meta.Favorite = *patch.Favorite
	}
	if patch.Score.Present {
		f.meta.Score = patch.Score.Value
	}
	return f.meta, nil
}

func (f *fakeClient) ListNotes(context.Context, string, string, string) ([]models.Note, error) {
	return f.notes, nil
}

func (f *fakeClient) AddNote(_ context.Context, _, _, _ string, in models.NoteInput) (models.Note, error) {
	f.lastNote = in
	n := models.Note{ID: "n1", Timestamp: in.Timestamp, Resource: in.Resource, Content: in.Content}
	f.notes = append(f.notes, n)
	return n, nil
}

func (f *fakeClient) UpdateNote(_ context.Context, _, _, _, id string, patch models.NotePatch) (models.Note, error) {
	f.lastEdit = patch
	for _, n := range f.notes {
		if n.ID == id {
			if patch.Content != nil {
				n.Content = *patch.Content
			}
			return n, nil
		}
	}
	return models.Note{}, fmt.Errorf("note %w", common.ErrorNotFound)
}

func (f *fakeClient) DeleteNote(_ context.Context, _, _, _, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) NotesCounts(_ context.Context, _, _ string, folders []string) (map[string]int, error) {
	out := map[string]int{}
	for _, fn := range folders {
		out[fn] = 2
	}
	return out, nil
}

func (f *fakeClient) Transcribe(_ context.Context, _, _, folder string, role models.Role) (transcription.Outcome, error) {
	return transcription.Outcome{Key: folder + "/" + string(role) + ".vtt", Cues: 3}, nil
}

func (f *fakeClient) Captions(_ context.Context, _, _, _ string, role models.Role) ([]captions.Cue, error) {
	cues, ok := f.captions[role]
	if !ok {
		return nil, fmt.Errorf("captions %w", common.ErrorNotFound)
	}
	return cues, nil
}

func (f *fakeClient) OpenMedia(_ context.Context, _, _, _ string, role models.Role) (io.ReadCloser, error) {
	data, ok := f.media[role]
	if !ok {
		return nil, errors.New("relay down")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// run executes args against fc and returns stdout.
func run(t *testing.T, fc client.Client, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var out, errOut bytes.Buffer
	app := &App{
		config:     cfg,
		client:     fc,
		out:        &out,
		errOut:     &errOut,
		log:        logging.Nop(),
		isTerminal: func() bool { return false },
		connect: func(*config.Config) (client.Client, error) {
			return nil, errors.New("dial refused")
		},
	}
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// wavBytes encodes seconds of a 16-bit mono tone at 8 kHz.
func wavBytes(t *testing.T, seconds float64) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	data := make([]int, int(8000*seconds))
	for i := range data {
		data[i] = (i%50 - 25) * 400
	}
	require.NoError(t, enc.Write(&goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: 8000}, Data: data, SourceBitDepth: 16}))
	require.NoError(t, enc.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func fullSession() models.Session {
	base := "acme/lap/2025/04/30/10-00-00_full/"
	return models.Session{
		ID:         "acme/lap/2025/04/30/10-00-00_full",
		DisplayID:  "full",
		FolderName: "10-00-00_full",
		Org:        "acme",
		Device:     "lap",
		Year:       "2025",
		Month:      "04",
		Day:        "30",
		Time:       "10:00:00",
		Files: []models.FileEntry{
			{Key: base + "screen/video.mp4", Size: 2048, Role: models.RoleScreenVideo},
			{Key: base + "screen/audio.wav", Size: 10, Role: models.RoleScreenAudio},
			{Key: base + "audio/raw.wav", Size: 10, Role: models.RoleAudioRaw},
		},
		Metadata: models.DefaultMetadata(),
	}
}

func newFake(t *testing.T) *fakeClient {
	return &fakeClient{
		sessions: map[string]models.Session{"10-00-00_full": fullSession()},
		media: map[models.Role][]byte{
			models.RoleAudioRaw:    wavBytes(t, 1),
			models.RoleScreenAudio: []byte("not a wav"),
		},
		captions: map[models.Role][]captions.Cue{
			models.RoleScreenAudio: {{Start: 0, End: 0.5, Text: "hello from the screen"}},
			models.RoleAudioRaw:    {{Start: 0.2, End: 0.6, Text: "raw mic line"}},
		},
		meta: models.DefaultMetadata(),
	}
}
