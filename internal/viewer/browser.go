package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

// Catalog is the part of the backend the browser reads.
type Catalog interface {
	ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error)
	GetMetadata(ctx context.Context, org, device, folderName string) (models.Metadata, error)
	NotesCounts(ctx context.Context, org, device string, folderNames []string) (map[string]int, error)
}

const DefaultRefreshInterval = 30 * time.Second

type BrowserOptions struct {
	Query    models.SessionQuery
	Interval time.Duration
	Logger   logging.Logger
	// OnUpdate is called after every successful refresh with the merged list.
	OnUpdate func([]models.Session)
	// OnTick is called once per auto-refresh cycle after details were
	// fetched.
	OnTick func([]models.Session)
}

// Browser keeps a device's session list fresh. File presence and sizes come
// from each refresh; metadata known locally is carried over by folder name so
// that a refresh never reverts it to defaults.
type Browser struct {
	catalog Catalog
	org     string
	device  string
	opts    BrowserOptions
	log     logging.Logger

	fetched *Deduper

	mu       sync.Mutex
	sessions []models.Session
	known    map[string]models.Metadata
	notes    map[string]int
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewBrowser(catalog Catalog, org, device string, opts BrowserOptions) *Browser {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Browser{
		catalog: catalog,
		org:     org,
		device:  device,
		opts:    opts,
		log:     log,
		fetched: NewDeduper(),
		known:   make(map[string]models.Metadata),
		notes:   make(map[string]int),
	}
}

// MergeMetadata returns next with the metadata from known applied by folder
// name. Sessions absent from known keep what next carries.
func MergeMetadata(next []models.Session, known map[string]models.Metadata) []models.Session {
	out := make([]models.Session, len(next))
	for i, s := range next {
		if m, ok := known[s.FolderName]; ok {
			s.Metadata = m
		}
		out[i] = s
	}
	return out
}

// Refresh re-lists the device and merges in known metadata.
func (b *Browser) Refresh(ctx context.Context) ([]models.Session, error) {
	page, err := b.catalog.ListSessions(ctx, b.org, b.device, b.opts.Query)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.sessions = MergeMetadata(page.Sessions, b.known)
	out := append([]models.Session(nil), b.sessions...)
	b.mu.Unlock()

	if b.opts.OnUpdate != nil {
		b.opts.OnUpdate(out)
	}
	return out, nil
}

// SetMetadata records metadata the client knows, after a fetch or a local
// edit, and applies it to the current list.
func (b *Browser) SetMetadata(folderName string, m models.Metadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.known[folderName] = m
	for i := range b.sessions {
		if b.sessions[i].FolderName == folderName {
			b.sessions[i].Metadata = m
		}
	}
}

// FetchDetails loads metadata and notes counts for listed sessions that were
// not fetched before. Each session is fetched at most once per Start/Stop
// cycle; individual failures are logged and skipped.
func (b *Browser) FetchDetails(ctx context.Context) error {
	b.mu.Lock()
	var pending []string
	for _, s := range b.sessions {
		if b.fetched.Claim(s.FolderName) {
			pending = append(pending, s.FolderName)
		}
	}
	b.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, folder := range pending {
		g.Go(func() error {
			m, err := b.catalog.GetMetadata(gctx, b.org, b.device, folder)
			if err != nil {
				b.log.Warn(gctx, "metadata fetch failed", "folder", folder, "error", err)
				return nil
			}
			b.SetMetadata(folder, m)
			return nil
		})
	}
	g.Go(func() error {
		counts, err := b.catalog.NotesCounts(gctx, b.org, b.device, pending)
		if err != nil {
			b.log.Warn(gctx, "notes counts fetch failed", "error", err)
			return nil
		}
		b.mu.Lock()
		for k, v := range counts {
			b.notes[k] = v
		}
		b.mu.Unlock()
		return nil
	})
	_ = g.Wait()
	return ctx.Err()
}

// Sessions returns the current merged list.
func (b *Browser) Sessions() []models.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Session(nil), b.sessions...)
}

// NotesCount returns the fetched notes count for a folder.
func (b *Browser) NotesCount(folderName string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.notes[folderName]
	return n, ok
}

var ErrRunning = errors.New("browser already started")

// Start refreshes immediately and then every interval until Stop or ctx is
// done. Refresh errors are logged; the next tick retries.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(b.opts.Interval)
		defer t.Stop()
		for {
			b.tick(ctx)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

func (b *Browser) tick(ctx context.Context) {
	if _, err := b.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			b.log.Error(ctx, "session refresh failed", "org", b.org, "device", b.device, "error", err)
		}
		return
	}
	if err := b.FetchDetails(ctx); err != nil {
		return
	}
	if b.opts.OnTick != nil {
		b.opts.OnTick(b.Sessions())
	}
}

// Stop ends auto-refresh, waits for the loop to exit and forgets which
// sessions were fetched.
func (b *Browser) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	b.fetched.Reset()
}
