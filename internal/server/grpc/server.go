// Package grpc exposes the catalog, metadata and transcription services to
// the command-line client.
package grpc

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"
)

type Catalog interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListDevices(ctx context.Context, org string) ([]models.Device, error)
	ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error)
	Calendar(ctx context.Context, org, device string) ([]models.CalendarDay, error)
	GetSession(ctx context.Context, org, device, folderName string) (models.SessionDetail, error)
}

type MetadataStore interface {
	Get(ctx context.Context, org, device, folderName string) (models.Metadata, error)
	Update(ctx context.Context, org, device, folderName string, patch models.MetadataPatch) (models.Metadata, error)
	ListNotes(ctx context.Context, org, device, folderName string) ([]models.Note, error)
	AddNote(ctx context.Context, org, device, folderName string, in models.NoteInput) (models.Note, error)
	UpdateNote(ctx context.Context, org, device, folderName, id string, patch models.NotePatch) (models.Note, error)
	DeleteNote(ctx context.Context, org, device, folderName, id string) error
	NotesCounts(ctx context.Context, org, device string, folderNames []string) (map[string]int, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, org, device, folderName string, role models.Role) (transcription.Outcome, error)
	Captions(ctx context.Context, org, device, folderName string, role models.Role) ([]captions.Cue, error)
}

type Server struct {
	address     string
	catalog     Catalog
	metadata    MetadataStore
	transcriber Transcriber
	logger      logging.Logger
}

func NewServer(address string, l logging.Logger, catalog Catalog, metadata MetadataStore, transcriber Transcriber) *Server {
	if l == nil {
		l = logging.Nop()
	}
	return &Server{
		address:     address,
		logger:      l.With("module", "grpc_server"),
		catalog:     catalog,
		metadata:    metadata,
		transcriber: transcriber,
	}
}

// NewGRPCServer builds a grpc.Server with s registered and the interceptor
// chain installed.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		s.requestIDInterceptor,
		s.loggingInterceptor,
		s.recoveryInterceptor,
		errorInterceptor,
	))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

// Run serves until ctx is done, then stops gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewGRPCServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// stopping before Serve starts is still a clean shutdown
	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
