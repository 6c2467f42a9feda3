package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

type recorder struct {
	mu       sync.Mutex
	calls    []string
	playErr  error
	lastSeek float64
	rate     float64
	volume   float64
}

func (r *recorder) log(c string) { r.mu.Lock(); r.calls = append(r.calls, c); r.mu.Unlock() }

func (r *recorder) Play() error         { r.log("play"); return r.playErr }
func (r *recorder) Pause()              { r.log("pause") }
func (r *recorder) Seek(s float64)      { r.log("seek"); r.lastSeek = s }
func (r *recorder) SetRate(v float64)   { r.log("rate"); r.rate = v }
func (r *recorder) SetVolume(v float64) { r.log("volume"); r.volume = v }
func (r *recorder) Stop()               { r.log("stop") }
func (r *recorder) Calls() []string     { r.mu.Lock(); defer r.mu.Unlock(); return append([]string(nil), r.calls...) }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func load(t *testing.T, s *Synchronizer, els map[models.Role]Element) {
	t.Helper()
	require.NoError(t, s.Load(context.Background(), 60, func(context.Context) (map[models.Role]Element, error) {
		return els, nil
	}))
}

func fullSet() (map[models.Role]Element, map[models.Role]*recorder) {
	recs := map[models.Role]*recorder{}
	els := map[models.Role]Element{}
	for _, r := range models.MediaRoles {
		rec := &recorder{}
		recs[r] = rec
		els[r] = rec
	}
	return els, recs
}

func TestSynchronizer_Lifecycle(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := New(Options{Now: clk.Now})
	assert.Equal(t, Idle, s.State())

	els, recs := fullSet()
	load(t, s, els)
	snap := s.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, models.RoleScreenVideo, snap.Master)
	assert.Equal(t, models.MediaRoles, snap.Tracks)

	require.NoError(t, s.Play())
	assert.Equal(t, Playing, s.State())
	require.NoError(t, s.Pause())
	assert.Equal(t, Paused, s.State())
	require.NoError(t, s.Play())

	for _, rec := range recs {
		assert.Equal(t, []string{"play", "pause", "play"}, rec.Calls())
	}

	assert.ErrorIs(t, s.Load(context.Background(), 1, nil), ErrInvalidState)
}

func TestSynchronizer_FanOut(t *testing.T) {
	s := New(Options{})
	els, recs := fullSet()
	load(t, s, els)

	require.NoError(t, s.Seek(12.5))
	require.NoError(t, s.SetRate(1.5))
	s.SetVolume(3)

	for role, rec := range recs {
		assert.Equal(t, 12.5, rec.lastSeek, role)
		assert.Equal(t, 1.5, rec.rate, role)
		assert.Equal(t, 1.0, rec.volume, role)
	}
	assert.Error(t, s.SetRate(0))
	assert.Equal(t, 12.5, s.Position())
}

func TestSynchronizer_OnlyMasterDrivesPlayhead(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := New(Options{Now: clk.Now})
	els, _ := fullSet()
	load(t, s, els)

	assert.False(t, s.OnTimeUpdate(models.RoleScreenVideo, 1), "not playing yet")

	require.NoError(t, s.Play())
	assert.True(t, s.OnTimeUpdate(models.RoleScreenVideo, 2))
	assert.False(t, s.OnTimeUpdate(models.RoleCameraVideo, 9))
	assert.False(t, s.OnTimeUpdate(models.RoleAudioRaw, 9))
	assert.Equal(t, 2.0, s.Position())
}

func TestSynchronizer_SeekSettleWindow(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := New(Options{Now: clk.Now, Settle: 300 * time.Millisecond})
	els, _ := fullSet()
	load(t, s, els)
	require.NoError(t, s.Play())
	s.OnTimeUpdate(models.RoleScreenVideo, 5)

	require.NoError(t, s.Seek(40))
	clk.Advance(100 * time.Millisecond)
	assert.False(t, s.OnTimeUpdate(models.RoleScreenVideo, 5.1), "stale update inside settle window")
	assert.Equal(t, 40.0, s.Position())

	clk.Advance(250 * time.Millisecond)
	assert.True(t, s.OnTimeUpdate(models.RoleScreenVideo, 40.3))
	assert.Equal(t, 40.3, s.Position())

	require.NoError(t, s.Seek(-4))
	assert.Equal(t, 0.0, s.Position())
	require.NoError(t, s.Seek(1000))
	assert.Equal(t, 60.0, s.Position())
}

func TestSynchronizer_MasterFallback(t *testing.T) {
	tests := []struct {
		name  string
		roles []models.Role
		want  models.Role
	}{
		{"camera when no screen", []models.Role{models.RoleCameraVideo, models.RoleAudioRaw}, models.RoleCameraVideo},
		{"first media track otherwise", []models.Role{models.RoleAudioClean, models.RoleScreenAudio}, models.RoleScreenAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{})
			els := map[models.Role]Element{}
			for _, r := range tt.roles {
				els[r] = &recorder{}
			}
			load(t, s, els)
			assert.Equal(t, tt.want, s.Snapshot().Master)
		})
	}
}

func TestSynchronizer_EndedAndReplay(t *testing.T) {
	s := New(Options{})
	els, recs := fullSet()
	load(t, s, els)
	require.NoError(t, s.Play())

	s.OnEnded(models.RoleCameraVideo)
	assert.Equal(t, Playing, s.State(), "follower ending is ignored")

	s.OnEnded(models.RoleScreenVideo)
	assert.Equal(t, Ended, s.State())
	assert.Equal(t, 60.0, s.Position())
	assert.Equal(t, []string{"play", "pause"}, recs[models.RoleCameraVideo].Calls())
	assert.Equal(t, []string{"play"}, recs[models.RoleScreenVideo].Calls())

	require.NoError(t, s.Play())
	assert.Equal(t, Playing, s.State())
	assert.Equal(t, 0.0, s.Position())
	assert.Equal(t, 0.0, recs[models.RoleAudioRaw].lastSeek)

	s.OnEnded(models.RoleScreenVideo)
	require.NoError(t, s.Seek(10))
	assert.Equal(t, Paused, s.State())
}

func TestSynchronizer_PlayErrorIsPerTrack(t *testing.T) {
	s := New(Options{})
	els, recs := fullSet()
	recs[models.RoleAudioClean].playErr = errors.New("decode failed")
	load(t, s, els)

	err := s.Play()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio-clean")
	assert.Equal(t, Playing, s.State())
	assert.Equal(t, []string{"play"}, recs[models.RoleScreenVideo].Calls())
}

func TestSynchronizer_InvalidTransitions(t *testing.T) {
	s := New(Options{})
	assert.ErrorIs(t, s.Play(), ErrInvalidState)
	assert.ErrorIs(t, s.Pause(), ErrInvalidState)
	assert.ErrorIs(t, s.Seek(1), ErrInvalidState)

	els, _ := fullSet()
	load(t, s, els)
	assert.ErrorIs(t, s.Pause(), ErrInvalidState)
}

func TestSynchronizer_LoadFailure(t *testing.T) {
	s := New(Options{})
	err := s.Load(context.Background(), 0, func(context.Context) (map[models.Role]Element, error) {
		return nil, errors.New("presign failed")
	})
	assert.EqualError(t, err, "presign failed")
	assert.Equal(t, Idle, s.State())

	err = s.Load(context.Background(), 0, func(context.Context) (map[models.Role]Element, error) {
		return map[models.Role]Element{}, nil
	})
	assert.ErrorIs(t, err, ErrNoElements)
	assert.Equal(t, Idle, s.State())
}

func TestSynchronizer_CloseStopsAndReleases(t *testing.T) {
	s := New(Options{})
	els, recs := fullSet()
	load(t, s, els)
	require.NoError(t, s.Play())

	released := 0
	s.AddRelease(func() { released++ })
	s.AddRelease(func() { released++ })

	s.Close()
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 2, released)
	for _, rec := range recs {
		calls := rec.Calls()
		assert.Equal(t, "stop", calls[len(calls)-1])
	}

	s.Close()
	assert.Equal(t, 2, released, "releases run once")
}

func TestSynchronizer_CloseDuringLoad(t *testing.T) {
	s := New(Options{})
	rec := &recorder{}
	started := make(chan struct{})
	proceed := make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		errc <- s.Load(context.Background(), 0, func(context.Context) (map[models.Role]Element, error) {
			close(started)
			<-proceed
			return map[models.Role]Element{models.RoleScreenVideo: rec}, nil
		})
	}()

	<-started
	assert.Equal(t, Loading, s.State())
	s.Close()
	close(proceed)

	assert.ErrorIs(t, <-errc, ErrInvalidState)
	assert.Equal(t, []string{"stop"}, rec.Calls())
	assert.Equal(t, Idle, s.State())
}
