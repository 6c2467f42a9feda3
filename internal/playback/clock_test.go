package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

func TestClock(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	c := NewClock(10, clk.Now)

	assert.Equal(t, 0.0, c.Position())
	require.NoError(t, c.Play())
	clk.Advance(2 * time.Second)
	assert.InDelta(t, 2.0, c.Position(), 1e-9)

	c.SetRate(2)
	clk.Advance(time.Second)
	assert.InDelta(t, 4.0, c.Position(), 1e-9)

	c.Pause()
	clk.Advance(time.Hour)
	assert.InDelta(t, 4.0, c.Position(), 1e-9)

	c.Seek(9)
	require.NoError(t, c.Play())
	clk.Advance(5 * time.Second)
	assert.Equal(t, 10.0, c.Position())
	assert.True(t, c.Ended())

	c.Stop()
	assert.ErrorIs(t, c.Play(), ErrStopped)
}

func TestDrive_RunsToEnd(t *testing.T) {
	master := NewClock(0.05, nil)
	follower := NewClock(0, nil)

	s := New(Options{Settle: time.Nanosecond})
	require.NoError(t, s.Load(context.Background(), 0.05, func(context.Context) (map[models.Role]Element, error) {
		return map[models.Role]Element{models.RoleScreenVideo: master, models.RoleAudioRaw: follower}, nil
	}))
	require.NoError(t, s.Play())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ticks := 0
	Drive(ctx, s, models.RoleScreenVideo, master, 5*time.Millisecond, func(Snapshot) { ticks++ })

	assert.Equal(t, Ended, s.State())
	assert.Greater(t, ticks, 0)
	assert.NoError(t, ctx.Err(), "drive must stop on end, not on timeout")
}

func TestDrive_StopsOnCancel(t *testing.T) {
	master := NewClock(0, nil)
	s := New(Options{})
	require.NoError(t, s.Load(context.Background(), 0, func(context.Context) (map[models.Role]Element, error) {
		return map[models.Role]Element{models.RoleCameraVideo: master}, nil
	}))
	require.NoError(t, s.Play())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	Drive(ctx, s, models.RoleCameraVideo, master, 5*time.Millisecond, nil)
	assert.Equal(t, Playing, s.State())
}

func TestDrive_NonPositiveIntervalUsesDefault(t *testing.T) {
	master := NewClock(0, nil)
	s := New(Options{})
	require.NoError(t, s.Load(context.Background(), 0, func(context.Context) (map[models.Role]Element, error) {
		return map[models.Role]Element{models.RoleCameraVideo: master}, nil
	}))
	require.NoError(t, s.Play())

	ctx, cancel := context.WithTimeout(context.Background(), 2*DefaultDriveInterval+50*time.Millisecond)
	defer cancel()

	ticks := 0
	require.NotPanics(t, func() {
		Drive(ctx, s, models.RoleCameraVideo, master, 0, func(Snapshot) { ticks++ })
	})
	assert.GreaterOrEqual(t, ticks, 1)
}
