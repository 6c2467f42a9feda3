// Package sessions groups flat object listings into Session records.
package sessions

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/keys"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
)

// TimestampStrategy selects where a session's timestamp comes from.
type TimestampStrategy string

const (
	// FromFolder uses the date segments and the HH-MM-SS folder prefix.
	FromFolder TimestampStrategy = "folder"
	// FromObjects uses the earliest LastModified among the session's objects,
	// for key schemes that do not encode a reliable date.
	FromObjects TimestampStrategy = "objects"
)

// Aggregator accumulates objects into sessions keyed by their prefix. It is
// not safe for concurrent use; one Aggregator serves one listing pass.
type Aggregator struct {
	strategy TimestampStrategy
	log      logging.Logger

	byPrefix map[string]*models.Session
	order    []string
	skipped  int
}

func NewAggregator(strategy TimestampStrategy, log logging.Logger) *Aggregator {
	if strategy == "" {
		strategy = FromFolder
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Aggregator{
		strategy: strategy,
		log:      log,
		byPrefix: make(map[string]*models.Session),
	}
}

// Add folds one listed object into its session. Keys that do not name a file
// inside a dated session folder are skipped and reported as false.
func (a *Aggregator) Add(ctx context.Context, o objectstore.Object) bool {
	k, ok := keys.ParseSessionKey(o.Key)
	if !ok {
		a.skipped++
		a.log.Debug(ctx, "skipping object outside a session folder", "key", o.Key)
		return false
	}

	prefix := k.Prefix()
	s, exists := a.byPrefix[prefix]
	if !exists {
		folder := keys.ParseFolderName(k.Folder)
		s = &models.Session{
			ID:         prefix,
			DisplayID:  folder.DisplayID,
			FolderName: k.Folder,
			Org:        k.Org,
			Device:     k.Device,
			Year:       k.Year,
			Month:      k.Month,
			Day:        k.Day,
			Time:       folder.Time,
			Metadata:   models.DefaultMetadata(),
		}
		if a.strategy == FromFolder {
			s.Timestamp = keys.SessionTime(k.Year, k.Month, k.Day, folder.Time)
		}
		a.byPrefix[prefix] = s
		a.order = append(a.order, prefix)
	}

	s.Files = append(s.Files, models.FileEntry{
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		Role:         keys.ClassifyRole(o.Key),
	})

	if a.strategy == FromObjects && !o.LastModified.IsZero() {
		if s.Timestamp.IsZero() || o.LastModified.Before(s.Timestamp) {
			s.Timestamp = o.LastModified.UTC()
		}
	}
	return true
}

// Len is the number of sessions seen so far.
func (a *Aggregator) Len() int { return len(a.byPrefix) }

// Skipped is the number of objects that did not belong to any session.
func (a *Aggregator) Skipped() int { return a.skipped }

// Sessions returns the aggregated sessions, most recent first. Sessions with
// equal timestamps keep the order in which they were first seen.
func (a *Aggregator) Sessions() []models.Session {
	out := make([]models.Session, 0, len(a.order))
	for _, p := range a.order {
		out = append(out, *a.byPrefix[p])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Scanner runs a full listing pass under a prefix through an Aggregator.
type Scanner struct {
	store    objectstore.Store
	strategy TimestampStrategy
	log      logging.Logger
}

func NewScanner(store objectstore.Store, strategy TimestampStrategy, log logging.Logger) *Scanner {
	if log == nil {
		log = logging.Nop()
	}
	return &Scanner{store: store, strategy: strategy, log: log}
}

// Scan lists every object under prefix, page by page, and returns the sessions
// found there. Only listing failures are returned as errors.
func (s *Scanner) Scan(ctx context.Context, prefix string) ([]models.Session, error) {
	started := time.Now()
	agg := NewAggregator(s.strategy, s.log)

	objects := 0
	err := objectstore.Walk(ctx, s.store, prefix, func(o objectstore.Object) error {
		objects++
		agg.Add(ctx, o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := agg.Sessions()
	s.log.Debug(ctx, "scan complete",
		"prefix", prefix,
		"objects", objects,
		"sessions", len(out),
		"skipped", agg.Skipped(),
		"elapsed", time.Since(started))
	return out, nil
}
