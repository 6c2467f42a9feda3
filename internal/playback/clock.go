package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

var ErrStopped = errors.New("element stopped")

// Clock is an Element with no media behind it. While playing its position
// advances with wall time at the current rate, up to the duration.
type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	duration float64

	playing bool
	stopped bool
	base    float64
	since   time.Time
	rate    float64
	volume  float64
}

func NewClock(duration float64, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, duration: duration, rate: 1, volume: 1}
}

func (c *Clock) positionLocked() float64 {
	p := c.base
	if c.playing {
		p += c.now().Sub(c.since).Seconds() * c.rate
	}
	if c.duration > 0 && p > c.duration {
		p = c.duration
	}
	return p
}

func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	if !c.playing {
		c.since = c.now()
		c.playing = true
	}
	return nil
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.positionLocked()
	c.playing = false
}

func (c *Clock) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = seconds
	c.since = c.now()
}

func (c *Clock) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.positionLocked()
	c.since = c.now()
	c.rate = rate
}

func (c *Clock) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = volume
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.positionLocked()
	c.playing = false
	c.stopped = true
}

// Position is the current clock reading in seconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// Ended reports whether a bounded clock reached its duration.
func (c *Clock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration > 0 && c.positionLocked() >= c.duration
}

// DefaultDriveInterval is used by Drive for a non-positive interval.
const DefaultDriveInterval = 100 * time.Millisecond

// Drive feeds the master clock's readings into s every interval and calls
// onTick with the resulting playhead. It returns when ctx is done, when the
// clock ends, or when s is closed.
func Drive(ctx context.Context, s *Synchronizer, role models.Role, c *Clock, interval time.Duration, onTick func(Snapshot)) {
	if interval <= 0 {
		interval = DefaultDriveInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if c.Ended() {
			s.OnTimeUpdate(role, c.Position())
			s.OnEnded(role)
		} else {
			s.OnTimeUpdate(role, c.Position())
		}

		snap := s.Snapshot()
		if onTick != nil {
			onTick(snap)
		}
		if snap.State == Ended || snap.State == Idle {
			return
		}
	}
}
