package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/recviewer/internal/models"
	pb "github.com/dmitrijs2005/recviewer/internal/proto"
)

func decodeRequest(in *structpb.Struct) (pb.Request, error) {
	var req pb.Request
	err := pb.DecodeStruct(in, &req)
	return req, err
}

func (s *Server) ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return pb.EncodeStruct(map[string]string{"status": "OK"})
}

func (s *Server) listOrganizations(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	orgs, err := s.catalog.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(orgs)
}

func (s *Server) listDevices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	devices, err := s.catalog.ListDevices(ctx, req.Org)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(devices)
}

func (s *Server) listSessions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	page, err := s.catalog.ListSessions(ctx, req.Org, req.Device, req.Query)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(page)
}

func (s *Server) calendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	days, err := s.catalog.Calendar(ctx, req.Org, req.Device)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(days)
}

func (s *Server) getSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	detail, err := s.catalog.GetSession(ctx, req.Org, req.Device, req.FolderName)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(detail)
}

func (s *Server) getMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	m, err := s.metadata.Get(ctx, req.Org, req.Device, req.FolderName)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(m)
}

func (s *Server) updateMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, err
	}
	m, err := s.metadata.Update(ctx, req.Org, req.Device, req.FolderName, req.Metadata)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(m)
}

func (s *Server) listNotes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	notes, err := s.metadata.ListNotes(ctx, req.Org, req.Device, req.FolderName)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(notes)
}

func (s *Server) addNote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := req.Note.Validate(); err != nil {
		return nil, err
	}
	note, err := s.metadata.AddNote(ctx, req.Org, req.Device, req.FolderName, req.Note)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(note)
}

func (s *Server) updateNote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := req.NotePatch.Validate(); err != nil {
		return nil, err
	}
	note, err := s.metadata.UpdateNote(ctx, req.Org, req.Device, req.FolderName, req.NoteID, req.NotePatch)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(note)
}

func (s *Server) deleteNote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := s.metadata.DeleteNote(ctx, req.Org, req.Device, req.FolderName, req.NoteID); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *Server) notesCounts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	counts, err := s.metadata.NotesCounts(ctx, req.Org, req.Device, req.FolderNames)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(counts)
}

func (s *Server) transcribe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateAudioRole(req.Role); err != nil {
		return nil, err
	}
	out, err := s.transcriber.Transcribe(ctx, req.Org, req.Device, req.FolderName, req.Role)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(out)
}

func (s *Server) captions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCaptionRole(req.Role); err != nil {
		return nil, err
	}
	cues, err := s.transcriber.Captions(ctx, req.Org, req.Device, req.FolderName, req.Role)
	if err != nil {
		return nil, err
	}
	return pb.EncodeStruct(cues)
}
