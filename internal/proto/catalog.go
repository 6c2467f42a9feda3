// Package proto defines the wire contract between the viewer server and its
// command-line client: the catalog service name, its method names, and the
// google.protobuf.Struct encoding of requests and responses.
package proto

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

// ServiceName is the gRPC service every method is registered under.
const ServiceName = "recviewer.v1.Catalog"

const (
	MethodPing              = "Ping"
	MethodListOrganizations = "ListOrganizations"
	MethodListDevices       = "ListDevices"
	MethodListSessions      = "ListSessions"
	MethodCalendar          = "Calendar"
	MethodGetSession        = "GetSession"
	MethodGetMetadata       = "GetMetadata"
	MethodUpdateMetadata    = "UpdateMetadata"
	MethodListNotes         = "ListNotes"
	MethodAddNote           = "AddNote"
	MethodUpdateNote        = "UpdateNote"
	MethodDeleteNote        = "DeleteNote"
	MethodNotesCounts       = "NotesCounts"
	MethodTranscribe        = "Transcribe"
	MethodCaptions          = "Captions"
)

// FullMethod returns the path a client invokes for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Request is the union of the fields the catalog methods read.
type Request struct {
	Org         string               `json:"org,omitempty"`
	Device      string               `json:"device,omitempty"`
	FolderName  string               `json:"folderName,omitempty"`
	Role        models.Role          `json:"role,omitempty"`
	NoteID      string               `json:"noteId,omitempty"`
	FolderNames []string             `json:"folderNames,omitempty"`
	Query       models.SessionQuery  `json:"query,omitzero"`
	Metadata    models.MetadataPatch `json:"metadata,omitzero"`
	Note        models.NoteInput     `json:"note,omitzero"`
	NotePatch   models.NotePatch     `json:"notePatch,omitzero"`
}

// EncodeStruct converts v to a Struct through its JSON form. Non-object
// values are wrapped as {"items": v}.
func EncodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		var items any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		m = map[string]any{"items": items}
	}
	return structpb.NewStruct(m)
}

// DecodeStruct fills dest from the JSON form of s.
func DecodeStruct(s *structpb.Struct, dest any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return common.NewValidationError("request", err.Error())
	}
	return nil
}

// DecodeItems is DecodeStruct for values EncodeStruct wrapped.
func DecodeItems(s *structpb.Struct, dest any) error {
	var w struct {
		Items json.RawMessage `json:"items"`
	}
	if err := DecodeStruct(s, &w); err != nil {
		return err
	}
	if len(w.Items) == 0 || string(w.Items) == "null" {
		return nil
	}
	if err := json.Unmarshal(w.Items, dest); err != nil {
		return common.NewValidationError("items", err.Error())
	}
	return nil
}
