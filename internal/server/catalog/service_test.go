package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/prefixindex"
	"github.com/dmitrijs2005/recviewer/internal/server/sessions"
)

var ts = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *objectstore.MemoryStore {
	t.Helper()
	s := objectstore.NewMemoryStore("recordings")
	put := func(key string, body string) { s.Seed(key, []byte(body), ts) }

	put("acme/_metadata.json", `{"id":"acme","name":"Acme Corp"}`)
	put("acme/lap/_metadata.json", `{"id":"lap","name":"Laptop 1"}`)
	put("acme/pc/_metadata.json", `not json`)
	put("globex/_metadata.json", `{"id":"globex"}`)

	complete := "acme/lap/2025/04/30/10-00-00_full/"
	for _, f := range []string{"screen/video.mp4", "screen/audio.wav", "camera/video.webm", "audio/raw.wav", "audio/clean.wav", "audio/clean.vtt"} {
		put(complete+f, "data")
	}
	put("acme/lap/2025/05/01/09-30-00_partial/screen/video.mp4", "v")
	put("acme/lap/2025/05/01/15-45-00_late/camera/video.webm", "c")
	put("acme/pc/2025/01/01/00-00-01_pcsess/screen/video.mp4", "x")
	put("globex/server/2025/02/02/12-00-00_g/audio/raw.wav", "r")
	return s
}

func TestListOrganizations(t *testing.T) {
	svc := NewService(seedStore(t), Options{})

	orgs, err := svc.ListOrganizations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Organization{
		{ID: "acme", DisplayName: "Acme Corp"},
		{ID: "globex", DisplayName: "globex"},
	}, orgs)
}

func TestListDevices(t *testing.T) {
	svc := NewService(seedStore(t), Options{})

	devices, err := svc.ListDevices(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []models.Device{
		{ID: "lap", OrgID: "acme", DisplayName: "Laptop 1"},
		{ID: "pc", OrgID: "acme", DisplayName: "pc"},
	}, devices)

	none, err := svc.ListDevices(context.Background(), "initech")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListSessions(t *testing.T) {
	svc := NewService(seedStore(t), Options{})

	page, err := svc.ListSessions(context.Background(), "acme", "lap", models.SessionQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", page.OrgDisplayName)
	assert.Equal(t, "Laptop 1", page.DeviceDisplayName)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Sessions, 3)
	assert.Equal(t, "late", page.Sessions[0].DisplayID)
	assert.Equal(t, "partial", page.Sessions[1].DisplayID)
	assert.Equal(t, "full", page.Sessions[2].DisplayID)
	assert.True(t, page.Sessions[2].IsComplete())
}

func TestListSessions_EmptyDevice(t *testing.T) {
	svc := NewService(seedStore(t), Options{})

	page, err := svc.ListSessions(context.Background(), "orgX", "deviceY", models.SessionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Sessions)
	assert.Empty(t, page.Sessions)
	assert.Equal(t, "orgX", page.OrgDisplayName)
}

func TestListSessions_Query(t *testing.T) {
	svc := NewService(seedStore(t), Options{})
	ctx := context.Background()
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		q     models.SessionQuery
		want  []string
		total int
	}{
		{"complete only", models.SessionQuery{CompleteOnly: true}, []string{"full"}, 1},
		{"date range", models.SessionQuery{From: &from, To: &to}, []string{"partial"}, 1},
		{"search display id", models.SessionQuery{Search: "PART"}, []string{"partial"}, 1},
		{"search folder time", models.SessionQuery{Search: "15-45"}, []string{"late"}, 1},
		{"limit", models.SessionQuery{Limit: 2}, []string{"late", "partial"}, 3},
		{"offset", models.SessionQuery{Offset: 2, Limit: 2}, []string{"full"}, 3},
		{"offset past end", models.SessionQuery{Offset: 10}, []string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListSessions(ctx, "acme", "lap", tt.q)
			require.NoError(t, err)
			got := []string{}
			for _, s := range page.Sessions {
				got = append(got, s.DisplayID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestPaginate_CapsLimit(t *testing.T) {
	list := make([]models.Session, 700)
	page := Paginate(list, -5, 1000)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, MaxPageLimit, page.Limit)
	assert.Len(t, page.Sessions, MaxPageLimit)
	assert.Equal(t, 700, page.Total)
}

func TestCalendar(t *testing.T) {
	svc := NewService(seedStore(t), Options{})

	days, err := svc.Calendar(context.Background(), "acme", "lap")
	require.NoError(t, err)
	assert.Equal(t, []models.CalendarDay{
		{Date: "2025-05-01", Sessions: 2, Complete: 0},
		{Date: "2025-04-30", Sessions: 1, Complete: 1},
	}, days)
}

func TestFindSessionPrefix(t *testing.T) {
	svc := NewService(seedStore(t), Options{})
	ctx := context.Background()

	p, err := svc.FindSessionPrefix(ctx, "acme", "lap", "09-30-00_partial")
	require.NoError(t, err)
	assert.Equal(t, "acme/lap/2025/05/01/09-30-00_partial", p)

	_, err = svc.FindSessionPrefix(ctx, "acme", "lap", "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

type countingStore struct {
	objectstore.Store
	lists atomic.Int32
}

func (c *countingStore) ListObjects(ctx context.Context, in objectstore.ListInput) (objectstore.ListPage, error) {
	c.lists.Add(1)
	return c.Store.ListObjects(ctx, in)
}

func TestIndexedResolver_ListingFeedsIndex(t *testing.T) {
	store := &countingStore{Store: seedStore(t)}
	idx := prefixindex.NewMemoryIndex()
	svc := NewService(store, Options{Index: idx})
	ctx := context.Background()

	_, err := svc.ListSessions(ctx, "acme", "lap", models.SessionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	before := store.lists.Load()
	p, err := svc.FindSessionPrefix(ctx, "acme", "lap", "10-00-00_full")
	require.NoError(t, err)
	assert.Equal(t, "acme/lap/2025/04/30/10-00-00_full", p)
	assert.Equal(t, before, store.lists.Load(), "indexed lookup must not list")
}

func TestIndexedResolver_MissFallsBackAndRecords(t *testing.T) {
	idx := prefixindex.NewMemoryIndex()
	r := NewIndexedResolver(idx, NewScanResolver(seedStore(t)), nil)
	ctx := context.Background()

	p, err := r.Resolve(ctx, "acme", "pc", "00-00-01_pcsess")
	require.NoError(t, err)
	assert.Equal(t, "acme/pc/2025/01/01/00-00-01_pcsess", p)

	got, ok, _ := idx.Lookup(ctx, "acme", "pc", "00-00-01_pcsess")
	assert.True(t, ok)
	assert.Equal(t, p, got)

	_, err = r.Resolve(ctx, "acme", "pc", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, idx.Len())
}

type failingIndex struct{}

func (failingIndex) Lookup(context.Context, string, string, string) (string, bool, error) {
	return "", false, errors.New("db down")
}
func (failingIndex) Record(context.Context, ...prefixindex.Entry) error { return errors.New("db down") }

func TestIndexedResolver_IndexFailureDegradesToScan(t *testing.T) {
	r := NewIndexedResolver(failingIndex{}, NewScanResolver(seedStore(t)), nil)

	p, err := r.Resolve(context.Background(), "globex", "server", "12-00-00_g")
	require.NoError(t, err)
	assert.Equal(t, "globex/server/2025/02/02/12-00-00_g", p)
}

func TestGetSession(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store, Options{PresignTTL: 5 * time.Minute, Strategy: sessions.FromFolder})

	d, err := svc.GetSession(context.Background(), "acme", "lap", "10-00-00_full")
	require.NoError(t, err)
	assert.Equal(t, "acme/lap/2025/04/30/10-00-00_full", d.Session.ID)
	assert.Len(t, d.Session.Files, 6)
	assert.Len(t, d.URLs, 6)
	assert.Contains(t, d.URLs[models.RoleTranscriptClean], "audio%2Fclean.vtt")

	_, err = svc.GetSession(context.Background(), "acme", "lap", "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetSession_DoesNotMatchSiblingPrefix(t *testing.T) {
	store := seedStore(t)
	store.Seed("acme/lap/2025/04/30/10-00-00_fullx/screen/video.mp4", []byte("x"), ts)
	svc := NewService(store, Options{})

	d, err := svc.GetSession(context.Background(), "acme", "lap", "10-00-00_full")
	require.NoError(t, err)
	assert.Len(t, d.Session.Files, 6)
}

type brokenList struct{ objectstore.Store }

func (brokenList) ListObjects(context.Context, objectstore.ListInput) (objectstore.ListPage, error) {
	return objectstore.ListPage{}, common.NewTransportError("list objects", errors.New("timeout"))
}

func TestListSessions_TransportError(t *testing.T) {
	svc := NewService(brokenList{Store: seedStore(t)}, Options{})

	_, err := svc.ListSessions(context.Background(), "acme", "lap", models.SessionQuery{})
	assert.ErrorIs(t, err, common.ErrorTransport)

	_, err = svc.ListOrganizations(context.Background())
	assert.ErrorIs(t, err, common.ErrorTransport)
}

func TestOpenMedia(t *testing.T) {
	svc := NewService(seedStore(t), Options{})
	ctx := context.Background()

	r, f, err := svc.OpenMedia(ctx, "acme", "lap", "10-00-00_full", models.RoleCameraVideo)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, "acme/lap/2025/04/30/10-00-00_full/camera/video.webm", f.Key)
	assert.Equal(t, int64(4), r.ContentLength)

	_, _, err = svc.OpenMedia(ctx, "acme", "lap", "09-30-00_partial", models.RoleAudioRaw)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = svc.OpenMedia(ctx, "acme", "lap", "nope", models.RoleAudioRaw)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
