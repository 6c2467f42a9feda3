package transcription

import (
	"context"
	"fmt"
	"path"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/keys"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
)

const captionContentType = "text/vtt"

// Resolver turns a folder name into the session's full prefix.
type Resolver interface {
	Resolve(ctx context.Context, org, device, folderName string) (string, error)
}

// Outcome describes a stored caption document.
type Outcome struct {
	Key      string `json:"key"`
	Cues     int    `json:"cues"`
	Text     string `json:"text"`
	Document string `json:"-"`
}

// Bridge fetches a session's audio, transcribes it and stores the captions
// next to it. Each audio role is independent.
type Bridge struct {
	objects  objectstore.Store
	resolver Resolver
	provider Provider
	language string
	log      logging.Logger
}

func NewBridge(objects objectstore.Store, resolver Resolver, provider Provider, language string, log logging.Logger) *Bridge {
	if log == nil {
		log = logging.Nop()
	}
	return &Bridge{objects: objects, resolver: resolver, provider: provider, language: language, log: log}
}

// Transcribe runs one transcription for role, which must be screen-audio,
// audio-raw or audio-clean. Word and segment granularity are always requested
// together; segment starts are unreliable otherwise. On any failure the
// previously stored captions are left untouched.
func (b *Bridge) Transcribe(ctx context.Context, org, device, folderName string, role models.Role) (Outcome, error) {
	audioRel, captionRel, ok := keys.SourcePath(role)
	if !ok {
		return Outcome{}, common.NewValidationError("role", fmt.Sprintf("%q has no transcribable audio", role))
	}

	prefix, err := b.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve session: %w", err)
	}

	audioKey := keys.Join(prefix, audioRel)
	audio, err := b.objects.GetObject(ctx, audioKey)
	if err != nil {
		return Outcome{}, fmt.Errorf("read %s: %w", audioKey, err)
	}

	res, err := b.provider.Transcribe(ctx, audio, path.Base(audioRel), Options{
		Language:      b.language,
		Granularities: []Granularity{GranularityWord, GranularitySegment},
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("transcribe %s: %w", audioKey, err)
	}

	cues := make([]captions.Cue, 0, len(res.Segments))
	for _, s := range res.Segments {
		cues = append(cues, captions.Cue{Start: s.Start, End: s.End, Text: s.Text})
	}
	doc := captions.Format(cues)

	captionKey := keys.Join(prefix, captionRel)
	if err := b.objects.PutObject(ctx, captionKey, []byte(doc), captionContentType); err != nil {
		return Outcome{}, fmt.Errorf("write %s: %w", captionKey, err)
	}

	b.log.Info(ctx, "transcription stored", "key", captionKey, "cues", len(cues))
	return Outcome{Key: captionKey, Cues: len(cues), Text: res.Text, Document: doc}, nil
}

// Captions returns the parsed caption document stored for role, which may be
// an audio role or its transcript role.
func (b *Bridge) Captions(ctx context.Context, org, device, folderName string, role models.Role) ([]captions.Cue, error) {
	rel, ok := keys.CaptionPath(role)
	if !ok {
		return nil, common.NewValidationError("role", fmt.Sprintf("%q has no captions", role))
	}
	prefix, err := b.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return nil, err
	}
	data, err := b.objects.GetObject(ctx, keys.Join(prefix, rel))
	if err != nil {
		return nil, err
	}
	return captions.Parse(string(data))
}
