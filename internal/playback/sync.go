// Package playback keeps several independently controlled media elements on
// one timeline. One element is the timing master; the rest follow commands
// and never feed their own clocks back.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/models"
)

// State of a session's playback.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Element is one controllable media track.
type Element interface {
	Play() error
	Pause()
	Seek(seconds float64)
	SetRate(rate float64)
	SetVolume(volume float64)
	Stop()
}

// DefaultSettle is how long master time updates are ignored after a seek.
const DefaultSettle = 500 * time.Millisecond

var (
	ErrNoElements   = errors.New("no media elements")
	ErrInvalidState = errors.New("invalid playback state")
)

// masterPreference lists the roles that may drive the timeline, best first.
var masterPreference = []models.Role{models.RoleScreenVideo, models.RoleCameraVideo}

type Options struct {
	Settle time.Duration
	Now    func() time.Time
}

// Loader resolves the session's media into elements, keyed by role.
type Loader func(ctx context.Context) (map[models.Role]Element, error)

// Synchronizer fans playback commands out to every element and tracks the
// playhead from the master alone. Safe for concurrent use.
type Synchronizer struct {
	mu sync.Mutex

	state    State
	elements map[models.Role]Element
	order    []models.Role
	master   models.Role

	position    float64
	duration    float64
	rate        float64
	volume      float64
	settleUntil time.Time

	settle   time.Duration
	now      func() time.Time
	releases []func()
}

func New(opts Options) *Synchronizer {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synchronizer{
		state:  Idle,
		rate:   1,
		volume: 1,
		settle: opts.Settle,
		now:    opts.Now,
	}
}

// Load moves Idle to Loading, runs loader, and on success attaches the
// elements and becomes Ready. A failed load returns to Idle.
func (s *Synchronizer) Load(ctx context.Context, duration float64, loader Loader) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("%w: load from %s", ErrInvalidState, s.state)
	}
	s.state = Loading
	s.mu.Unlock()

	elements, err := loader(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		// closed while loading
		for _, e := range elements {
			e.Stop()
		}
		return fmt.Errorf("%w: closed during load", ErrInvalidState)
	}
	if err == nil && len(elements) == 0 {
		err = ErrNoElements
	}
	if err != nil {
		s.state = Idle
		return err
	}

	s.elements = elements
	s.order = s.order[:0]
	for _, r := range models.MediaRoles {
		if _, ok := elements[r]; ok {
			s.order = append(s.order, r)
		}
	}
	for r := range elements {
		if !r.IsMedia() {
			s.order = append(s.order, r)
		}
	}
	s.master = s.order[0]
	for _, r := range masterPreference {
		if _, ok := elements[r]; ok {
			s.master = r
			break
		}
	}
	s.duration = duration
	s.position = 0
	s.state = Ready
	return nil
}

// AddRelease registers cleanup to run on Close, such as freeing a decoder.
func (s *Synchronizer) AddRelease(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = append(s.releases, fn)
}

func (s *Synchronizer) each(fn func(Element)) {
	for _, r := range s.order {
		fn(s.elements[r])
	}
}

// Play starts every element. Elements that fail to start are reported but do
// not keep the others from playing.
func (s *Synchronizer) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Ready, Paused:
	case Ended:
		s.position = 0
		s.each(func(e Element) { e.Seek(0) })
	default:
		return fmt.Errorf("%w: play from %s", ErrInvalidState, s.state)
	}

	var errs []error
	for _, r := range s.order {
		if err := s.elements[r].Play(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r, err))
		}
	}
	s.state = Playing
	return errors.Join(errs...)
}

func (s *Synchronizer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing {
		return fmt.Errorf("%w: pause from %s", ErrInvalidState, s.state)
	}
	s.each(func(e Element) { e.Pause() })
	s.state = Paused
	return nil
}

// Seek moves every element to t (clamped to the known duration) and opens the
// settle window.
func (s *Synchronizer) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Ready, Playing, Paused, Ended:
	default:
		return fmt.Errorf("%w: seek from %s", ErrInvalidState, s.state)
	}

	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.position = t
	s.settleUntil = s.now().Add(s.settle)
	s.each(func(e Element) { e.Seek(t) })

	if s.state == Ended && (s.duration == 0 || t < s.duration) {
		s.state = Paused
	}
	return nil
}

func (s *Synchronizer) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	s.each(func(e Element) { e.SetRate(rate) })
	return nil
}

// SetVolume clamps volume to [0, 1].
func (s *Synchronizer) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	s.each(func(e Element) { e.SetVolume(volume) })
}

// OnTimeUpdate reports an element's clock. Only the master's updates while
// playing and outside the settle window move the playhead; the return value
// tells whether this one did.
func (s *Synchronizer) OnTimeUpdate(role models.Role, t float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role != s.master || s.state != Playing {
		return false
	}
	if s.now().Before(s.settleUntil) {
		return false
	}
	s.position = t
	return true
}

// OnEnded reports that an element reached its end. The master ending ends
// the session and pauses the followers.
func (s *Synchronizer) OnEnded(role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role != s.master || s.state != Playing {
		return
	}
	for _, r := range s.order {
		if r != s.master {
			s.elements[r].Pause()
		}
	}
	if s.duration > 0 {
		s.position = s.duration
	}
	s.state = Ended
}

// Close stops all elements, runs the registered releases and returns to Idle.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	elements, order, releases := s.elements, s.order, s.releases
	s.elements, s.order, s.releases = nil, nil, nil
	s.state = Idle
	s.position = 0
	s.mu.Unlock()

	for _, r := range order {
		elements[r].Stop()
	}
	for _, fn := range releases {
		fn()
	}
}

// Snapshot is a consistent view of the synchronizer.
type Snapshot struct {
	State    State
	Master   models.Role
	Position float64
	Duration float64
	Rate     float64
	Volume   float64
	Tracks   []models.Role
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Master:   s.master,
		Position: s.position,
		Duration: s.duration,
		Rate:     s.rate,
		Volume:   s.volume,
		Tracks:   append([]models.Role(nil), s.order...),
	}
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Synchronizer) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}
