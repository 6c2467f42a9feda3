package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/dmitrijs2005/recviewer/internal/audio"
	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/playback"
)

// MediaSource reads a session's stored tracks through the server relay.
type MediaSource interface {
	OpenMedia(ctx context.Context, org, device, folderName string, role models.Role) (io.ReadCloser, error)
	Captions(ctx context.Context, org, device, folderName string, role models.Role) ([]captions.Cue, error)
}

// TrackAnalysis is the outcome for one audio track. Err is set when the
// track could not be fetched or decoded; other tracks are unaffected.
type TrackAnalysis struct {
	Role     models.Role     `json:"role"`
	Analysis *audio.Analysis `json:"analysis,omitempty"`
	Err      error           `json:"-"`
}

type SessionViewOptions struct {
	// Microphone is the microphone variant merged with the system transcript.
	Microphone models.Role
	Playback   playback.Options
	Logger     logging.Logger
}

// SessionView is the state of one opened session: its synchronizer, the
// per-track audio analysis and the merged transcript. Work started by Start
// runs at most once per track until Stop.
type SessionView struct {
	src     MediaSource
	session models.Session
	log     logging.Logger

	sync    *playback.Synchronizer
	fetched *Deduper

	mu         sync.Mutex
	microphone models.Role
	analyses   map[models.Role]TrackAnalysis
	system     []captions.Cue
	mic        []captions.Cue
	transcript []captions.TaggedCue
	captionErr map[models.Role]error
}

// NewSessionView fails when opts.Microphone is set to anything but a
// microphone track.
func NewSessionView(src MediaSource, session models.Session, opts SessionViewOptions) (*SessionView, error) {
	if opts.Microphone == "" {
		opts.Microphone = models.RoleAudioClean
	}
	if err := validateMicrophone(opts.Microphone); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &SessionView{
		src:        src,
		session:    session,
		log:        log,
		sync:       playback.New(opts.Playback),
		fetched:    NewDeduper(),
		microphone: opts.Microphone,
		analyses:   make(map[models.Role]TrackAnalysis),
		captionErr: make(map[models.Role]error),
	}, nil
}

func validateMicrophone(role models.Role) error {
	if role != models.RoleAudioRaw && role != models.RoleAudioClean {
		return common.NewValidationError("microphone", fmt.Sprintf("%q is not a microphone track", role))
	}
	return nil
}

func (v *SessionView) Session() models.Session { return v.session }

// Synchronizer returns the view's playback synchronizer.
func (v *SessionView) Synchronizer() *playback.Synchronizer { return v.sync }

// Start analyzes every present audio track and loads the system and selected
// microphone captions. Track failures are recorded, not returned; only
// context cancellation is.
func (v *SessionView) Start(ctx context.Context) error {
	flags := v.session.Flags()

	var wg sync.WaitGroup
	for _, role := range models.AudioRoles {
		if !flags.Has(role) {
			continue
		}
		if !v.fetched.Claim("analysis:" + string(role)) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.analyze(ctx, role)
		}()
	}

	v.mu.Lock()
	mic := v.microphone
	v.mu.Unlock()

	for _, role := range []models.Role{models.RoleScreenAudio, mic} {
		if !v.fetched.Claim("captions:" + string(role)) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.loadCaptions(ctx, role)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (v *SessionView) analyze(ctx context.Context, role models.Role) {
	res := TrackAnalysis{Role: role}
	a, err := v.fetchAndAnalyze(ctx, role)
	if err != nil {
		res.Err = err
		v.log.Warn(ctx, "track analysis failed", "session", v.session.ID, "role", role, "error", err)
	} else {
		res.Analysis = &a
	}
	v.mu.Lock()
	v.analyses[role] = res
	v.mu.Unlock()
}

func (v *SessionView) fetchAndAnalyze(ctx context.Context, role models.Role) (audio.Analysis, error) {
	rc, err := v.src.OpenMedia(ctx, v.session.Org, v.session.Device, v.session.FolderName, role)
	if err != nil {
		return audio.Analysis{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return audio.Analysis{}, fmt.Errorf("read %s: %w", role, err)
	}
	return audio.Analyze(data)
}

func (v *SessionView) loadCaptions(ctx context.Context, role models.Role) {
	cues, err := v.src.Captions(ctx, v.session.Org, v.session.Device, v.session.FolderName, role)
	if errors.Is(err, common.ErrorNotFound) {
		cues, err = []captions.Cue{}, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.captionErr[role] = err
		v.log.Warn(ctx, "captions load failed", "session", v.session.ID, "role", role, "error", err)
		cues = []captions.Cue{}
	} else {
		delete(v.captionErr, role)
	}
	if role == models.RoleScreenAudio {
		v.system = cues
	}
	if role == v.microphone {
		v.mic = cues
	}
	v.transcript = captions.Merge(v.system, v.mic)
}

// SelectMicrophone switches the microphone variant in the merged transcript,
// loading its captions once.
func (v *SessionView) SelectMicrophone(ctx context.Context, role models.Role) error {
	if err := validateMicrophone(role); err != nil {
		return err
	}
	v.mu.Lock()
	v.microphone = role
	v.mic = nil
	v.mu.Unlock()

	v.fetched.Forget("captions:" + string(role))
	if v.fetched.Claim("captions:" + string(role)) {
		v.loadCaptions(ctx, role)
	}
	return ctx.Err()
}

// Analyses returns the per-track results ordered by role.
func (v *SessionView) Analyses() []TrackAnalysis {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]TrackAnalysis, 0, len(v.analyses))
	for _, a := range v.analyses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

// Transcript returns the merged system and microphone cues.
func (v *SessionView) Transcript() []captions.TaggedCue {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]captions.TaggedCue(nil), v.transcript...)
}

// CaptionErrors returns caption loads that failed for reasons other than a
// missing document.
func (v *SessionView) CaptionErrors() map[models.Role]error {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[models.Role]error, len(v.captionErr))
	for k, e := range v.captionErr {
		out[k] = e
	}
	return out
}

// Stop closes the synchronizer and forgets what was fetched.
func (v *SessionView) Stop() {
	v.sync.Close()
	v.fetched.Reset()
}
