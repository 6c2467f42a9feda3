package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListDevices(ctx context.Context, org string) ([]models.Device, error)
	ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error)
	Calendar(ctx context.Context, org, device string) ([]models.CalendarDay, error)
	GetSession(ctx context.Context, org, device, folderName string) (models.SessionDetail, error)
	GetMetadata(ctx context.Context, org, device, folderName string) (models.Metadata, error)
	UpdateMetadata(ctx context.Context, org, device, folderName string, patch models.MetadataPatch) (models.Metadata, error)
	ListNotes(ctx context.Context, org, device, folderName string) ([]models.Note, error)
	AddNote(ctx context.Context, org, device, folderName string, in models.NoteInput) (models.Note, error)
	UpdateNote(ctx context.Context, org, device, folderName, id string, patch models.NotePatch) (models.Note, error)
	DeleteNote(ctx context.Context, org, device, folderName, id string) error
	NotesCounts(ctx context.Context, org, device string, folderNames []string) (map[string]int, error)
	Transcribe(ctx context.Context, org, device, folderName string, role models.Role) (transcription.Outcome, error)
	Captions(ctx context.Context, org, device, folderName string, role models.Role) ([]captions.Cue, error)
	OpenMedia(ctx context.Context, org, device, folderName string, role models.Role) (io.ReadCloser, error)
}
