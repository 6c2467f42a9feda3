package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
	pb "github.com/dmitrijs2005/recviewer/internal/proto"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"
)

const defaultCallTimeout = 30 * time.Second

type GRPCClient struct {
	endpointURL string
	httpBaseURL string
	conn        *grpc.ClientConn
	http        *http.Client
	callTimeout time.Duration
	dialOpts    []grpc.DialOption
}

// Option customizes a GRPCClient.
type Option func(*GRPCClient)

// WithHTTPClient replaces the client used for media downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GRPCClient) { g.http = c }
}

// WithDialOptions adds gRPC dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(g *GRPCClient) { g.dialOpts = append(g.dialOpts, opts...) }
}

func withRequestID(ctx context.Context) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		md.Set(common.RequestIDHeaderName, uuid.NewString())
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withRequestID(ctx), method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL; media is fetched from
// httpBaseURL (e.g. "http://127.0.0.1:8080").
func NewGRPCClient(endpointURL, httpBaseURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		httpBaseURL: strings.TrimRight(httpBaseURL, "/"),
		http:        &http.Client{},
		callTimeout: defaultCallTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.requestIDInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	return pb.ErrorFromStatus(err)
}

// call sends req to method and decodes the response into out. Slices are
// decoded from the "items" wrapper.
func (s *GRPCClient) call(ctx context.Context, method string, req pb.Request, out any, items bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	in, err := pb.EncodeStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, pb.FullMethod(method), in, resp); err != nil {
		return s.mapError(err)
	}
	if out == nil {
		return nil
	}
	if items {
		return pb.DecodeItems(resp, out)
	}
	return pb.DecodeStruct(resp, out)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := s.call(ctx, pb.MethodPing, pb.Request{}, &resp, false); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: status %q", ErrUnavailable, resp.Status)
	}
	return nil
}

func (s *GRPCClient) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	out := []models.Organization{}
	err := s.call(ctx, pb.MethodListOrganizations, pb.Request{}, &out, true)
	return out, err
}

func (s *GRPCClient) ListDevices(ctx context.Context, org string) ([]models.Device, error) {
	out := []models.Device{}
	err := s.call(ctx, pb.MethodListDevices, pb.Request{Org: org}, &out, true)
	return out, err
}

func (s *GRPCClient) ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error) {
	var out models.SessionPage
	err := s.call(ctx, pb.MethodListSessions, pb.Request{Org: org, Device: device, Query: q}, &out, false)
	return out, err
}

func (s *GRPCClient) Calendar(ctx context.Context, org, device string) ([]models.CalendarDay, error) {
	out := []models.CalendarDay{}
	err := s.call(ctx, pb.MethodCalendar, pb.Request{Org: org, Device: device}, &out, true)
	return out, err
}

func (s *GRPCClient) GetSession(ctx context.Context, org, device, folderName string) (models.SessionDetail, error) {
	var out models.SessionDetail
	err := s.call(ctx, pb.MethodGetSession, pb.Request{Org: org, Device: device, FolderName: folderName}, &out, false)
	return out, err
}

func (s *GRPCClient) GetMetadata(ctx context.Context, org, device, folderName string) (models.Metadata, error) {
	var out models.Metadata
	err := s.call(ctx, pb.MethodGetMetadata, pb.Request{Org: org, Device: device, FolderName: folderName}, &out, false)
	return out, err
}

func (s *GRPCClient) UpdateMetadata(ctx context.Context, org, device, folderName string, patch models.MetadataPatch) (models.Metadata, error) {
	var out models.Metadata
	req := pb.Request{Org: org, Device: device, FolderName: folderName, Metadata: patch}
	err := s.call(ctx, pb.MethodUpdateMetadata, req, &out, false)
	return out, err
}

func (s *GRPCClient) ListNotes(ctx context.Context, org, device, folderName string) ([]models.Note, error) {
	out := []models.Note{}
	err := s.call(ctx, pb.MethodListNotes, pb.Request{Org: org, Device: device, FolderName: folderName}, &out, true)
	return out, err
}

func (s *GRPCClient) AddNote(ctx context.Context, org, device, folderName string, in models.NoteInput) (models.Note, error) {
	var out models.Note
	req := pb.Request{Org: org, Device: device, FolderName: folderName, Note: in}
	err := s.call(ctx, pb.MethodAddNote, req, &out, false)
	return out, err
}

func (s *GRPCClient) UpdateNote(ctx context.Context, org, device, folderName, id string, patch models.NotePatch) (models.Note, error) {
	var out models.Note
	req := pb.Request{Org: org, Device: device, FolderName: folderName, NoteID: id, NotePatch: patch}
	err := s.call(ctx, pb.MethodUpdateNote, req, &out, false)
	return out, err
}

func (s *GRPCClient) DeleteNote(ctx context.Context, org, device, folderName, id string) error {
	req := pb.Request{Org: org, Device: device, FolderName: folderName, NoteID: id}
	return s.call(ctx, pb.MethodDeleteNote, req, nil, false)
}

func (s *GRPCClient) NotesCounts(ctx context.Context, org, device string, folderNames []string) (map[string]int, error) {
	out := map[string]int{}
	err := s.call(ctx, pb.MethodNotesCounts, pb.Request{Org: org, Device: device, FolderNames: folderNames}, &out, false)
	return out, err
}

// Transcribe can take minutes for long tracks; it is not bound by the
// default call timeout beyond what ctx allows.
func (s *GRPCClient) Transcribe(ctx context.Context, org, device, folderName string, role models.Role) (transcription.Outcome, error) {
	var out transcription.Outcome
	in, err := pb.EncodeStruct(pb.Request{Org: org, Device: device, FolderName: folderName, Role: role})
	if err != nil {
		return out, err
	}
	resp := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, pb.FullMethod(pb.MethodTranscribe), in, resp); err != nil {
		return out, s.mapError(err)
	}
	err = pb.DecodeStruct(resp, &out)
	return out, err
}

func (s *GRPCClient) Captions(ctx context.Context, org, device, folderName string, role models.Role) ([]captions.Cue, error) {
	out := []captions.Cue{}
	err := s.call(ctx, pb.MethodCaptions, pb.Request{Org: org, Device: device, FolderName: folderName, Role: role}, &out, true)
	return out, err
}
