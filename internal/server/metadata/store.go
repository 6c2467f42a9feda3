// Package metadata reads and writes the small per-session JSON documents that
// hold user edits: metadata.json (favorite, score) and notes.json (notes).
//
// Updates are read-modify-write with no version check, so concurrent writers
// to the same session race and the last write wins.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/keys"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
)

const jsonContentType = "application/json"

// ErrNoteNotFound is returned when a note id is not in the session's notes.
var ErrNoteNotFound = fmt.Errorf("note %w", common.ErrorNotFound)

// Resolver turns a folder name into the session's full prefix.
type Resolver interface {
	Resolve(ctx context.Context, org, device, folderName string) (string, error)
}

type Store struct {
	objects  objectstore.Store
	resolver Resolver
	log      logging.Logger
	fanOut   int

	now   func() time.Time
	newID func() string
}

func NewStore(objects objectstore.Store, resolver Resolver, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		objects:  objects,
		resolver: resolver,
		log:      log,
		fanOut:   8,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Get returns the session's metadata. A session that cannot be found, a
// missing document and an unreadable document all yield DefaultMetadata.
func (s *Store) Get(ctx context.Context, org, device, folderName string) (models.Metadata, error) {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if errors.Is(err, common.ErrorNotFound) {
		return models.DefaultMetadata(), nil
	}
	if err != nil {
		return models.Metadata{}, err
	}

	m, err := s.readMetadata(ctx, prefix)
	if err != nil {
		s.log.Warn(ctx, "metadata read failed, using defaults", "prefix", prefix, "error", err)
		return models.DefaultMetadata(), nil
	}
	return m, nil
}

// Update merges patch into the stored metadata and writes the whole document
// back. The session must exist.
func (s *Store) Update(ctx context.Context, org, device, folderName string, patch models.MetadataPatch) (models.Metadata, error) {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return models.Metadata{}, err
	}

	current, err := s.readMetadata(ctx, prefix)
	if err != nil {
		return models.Metadata{}, err
	}

	merged := patch.Apply(current)
	if err := s.writeJSON(ctx, keys.Join(prefix, keys.MetadataFile), merged); err != nil {
		return models.Metadata{}, err
	}
	return merged, nil
}

// readMetadata treats an absent or malformed document as defaults and only
// fails on transport errors.
func (s *Store) readMetadata(ctx context.Context, prefix string) (models.Metadata, error) {
	data, err := s.objects.GetObject(ctx, keys.Join(prefix, keys.MetadataFile))
	if errors.Is(err, objectstore.ErrNotFound) {
		return models.DefaultMetadata(), nil
	}
	if err != nil {
		return models.Metadata{}, err
	}

	m := models.DefaultMetadata()
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Debug(ctx, "malformed metadata document", "prefix", prefix, "error", err)
		return models.DefaultMetadata(), nil
	}
	return m, nil
}

func (s *Store) readNotes(ctx context.Context, prefix string) ([]models.Note, error) {
	data, err := s.objects.GetObject(ctx, keys.Join(prefix, keys.NotesFile))
	if errors.Is(err, objectstore.ErrNotFound) {
		return []models.Note{}, nil
	}
	if err != nil {
		return nil, err
	}

	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		s.log.Debug(ctx, "malformed notes document", "prefix", prefix, "error", err)
		return []models.Note{}, nil
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.objects.PutObject(ctx, key, data, jsonContentType)
}

// ListNotes returns the session's notes in stored order. Sessions without
// notes, including unknown sessions, have none.
func (s *Store) ListNotes(ctx context.Context, org, device, folderName string) ([]models.Note, error) {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if errors.Is(err, common.ErrorNotFound) {
		return []models.Note{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.readNotes(ctx, prefix)
}

// AddNote appends a note with a fresh id and server-side creation time.
func (s *Store) AddNote(ctx context.Context, org, device, folderName string, in models.NoteInput) (models.Note, error) {
	var created models.Note
	err := s.mutateNotes(ctx, org, device, folderName, func(notes []models.Note) ([]models.Note, error) {
		created = models.Note{
			ID:        s.newID(),
			Timestamp: in.Timestamp,
			Resource:  in.Resource,
			Content:   in.Content,
			CreatedAt: s.now().UTC(),
		}
		return append(notes, created), nil
	})
	return created, err
}

// UpdateNote edits the note with id in place.
func (s *Store) UpdateNote(ctx context.Context, org, device, folderName, id string, patch models.NotePatch) (models.Note, error) {
	var updated models.Note
	err := s.mutateNotes(ctx, org, device, folderName, func(notes []models.Note) ([]models.Note, error) {
		for i := range notes {
			if notes[i].ID == id {
				notes[i] = patch.Apply(notes[i])
				updated = notes[i]
				return notes, nil
			}
		}
		return nil, ErrNoteNotFound
	})
	return updated, err
}

// DeleteNote removes the note with id.
func (s *Store) DeleteNote(ctx context.Context, org, device, folderName, id string) error {
	return s.mutateNotes(ctx, org, device, folderName, func(notes []models.Note) ([]models.Note, error) {
		for i := range notes {
			if notes[i].ID == id {
				return append(notes[:i], notes[i+1:]...), nil
			}
		}
		return nil, ErrNoteNotFound
	})
}

func (s *Store) mutateNotes(ctx context.Context, org, device, folderName string, fn func([]models.Note) ([]models.Note, error)) error {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return err
	}
	notes, err := s.readNotes(ctx, prefix)
	if err != nil {
		return err
	}
	notes, err = fn(notes)
	if err != nil {
		return err
	}
	return s.writeJSON(ctx, keys.Join(prefix, keys.NotesFile), notes)
}

// NotesCounts reports how many notes each folder has. Lookups run
// concurrently; a folder that cannot be resolved or read counts as zero.
func (s *Store) NotesCounts(ctx context.Context, org, device string, folderNames []string) (map[string]int, error) {
	counts := make([]int, len(folderNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, folder := range folderNames {
		g.Go(func() error {
			prefix, err := s.resolver.Resolve(gctx, org, device, folder)
			if err != nil {
				if !errors.Is(err, common.ErrorNotFound) {
					s.log.Warn(gctx, "notes count: resolve failed", "folder", folder, "error", err)
				}
				return nil
			}
			notes, err := s.readNotes(gctx, prefix)
			if err != nil {
				s.log.Warn(gctx, "notes count: read failed", "prefix", prefix, "error", err)
				return nil
			}
			counts[i] = len(notes)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(folderNames))
	for i, folder := range folderNames {
		out[folder] = counts[i]
	}
	return out, nil
}
