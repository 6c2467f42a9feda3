// Package httpapi is the HTTP boundary of the viewer backend: routing, input
// validation, error mapping to problem+json, and the same-origin media relay.
package httpapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/recviewer/internal/captions"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"
)

type Catalog interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListDevices(ctx context.Context, org string) ([]models.Device, error)
	ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error)
	Calendar(ctx context.Context, org, device string) ([]models.CalendarDay, error)
	GetSession(ctx context.Context, org, device, folderName string) (models.SessionDetail, error)
	OpenMedia(ctx context.Context, org, device, folderName string, role models.Role) (*objectstore.Reader, models.FileEntry, error)
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

// Handler serves the viewer API.
type Handler struct {
	catalog     Catalog
	metadata    MetadataStore
	transcriber Transcriber
	log         logging.Logger
}

func NewHandler(catalog Catalog, metadata MetadataStore, transcriber Transcriber, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{catalog: catalog, metadata: metadata, transcriber: transcriber, log: log}
}

type sessionRef struct {
	org, device, folder string
}

func refFrom(r *http.Request) sessionRef {
	return sessionRef{
		org:    chi.URLParam(r, "org"),
		device: chi.URLParam(r, "device"),
		folder: chi.URLParam(r, "folder"),
	}
}

func roleFrom(r *http.Request) models.Role {
	return models.Role(chi.URLParam(r, "role"))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.catalog.ListOrganizations(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, orgs)
}

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.catalog.ListDevices(r.Context(), chi.URLParam(r, "org"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, devices)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q, err := models.ParseSessionQuery(r.URL.Query().Get)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	page, err := h.catalog.ListSessions(r.Context(), ref.org, ref.device, q)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	ref := refFrom(r)
	days, err := h.catalog.Calendar(r.Context(), ref.org, ref.device)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, days)
}

type notesCountsRequest struct {
	FolderNames []string `json:"folderNames"`
}

func (h *Handler) NotesCounts(w http.ResponseWriter, r *http.Request) {
	var req notesCountsRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	counts, err := h.metadata.NotesCounts(r.Context(), ref.org, ref.device, req.FolderNames)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, counts)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ref := refFrom(r)
	detail, err := h.catalog.GetSession(r.Context(), ref.org, ref.device, ref.folder)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, detail)
}

func (h *Handler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	ref := refFrom(r)
	m, err := h.metadata.Get(r.Context(), ref.org, ref.device, ref.folder)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) PatchMetadata(w http.ResponseWriter, r *http.Request) {
	var patch models.MetadataPatch
	if err := parseJSON(w, r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := patch.Validate(); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	m, err := h.metadata.Update(r.Context(), ref.org, ref.device, ref.folder, patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ref := refFrom(r)
	notes, err := h.metadata.ListNotes(r.Context(), ref.org, ref.device, ref.folder)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, notes)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if err := parseJSON(w, r, &in); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	note, err := h.metadata.AddNote(r.Context(), ref.org, ref.device, ref.folder, in)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusCreated, note)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var patch models.NotePatch
	if err := parseJSON(w, r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := patch.Validate(); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	note, err := h.metadata.UpdateNote(r.Context(), ref.org, ref.device, ref.folder, chi.URLParam(r, "noteID"), patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, note)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ref := refFrom(r)
	if err := h.metadata.DeleteNote(r.Context(), ref.org, ref.device, ref.folder, chi.URLParam(r, "noteID")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)
	if err := models.ValidateAudioRole(role); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	out, err := h.transcriber.Transcribe(r.Context(), ref.org, ref.device, ref.folder, role)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

type captionsResponse struct {
	Role models.Role    `json:"role"`
	Cues []captions.Cue `json:"cues"`
}

// Captions returns the stored cues as JSON, or the raw document with
// ?format=vtt.
func (h *Handler) Captions(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)
	if err := models.ValidateCaptionRole(role); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	cues, err := h.transcriber.Captions(r.Context(), ref.org, ref.device, ref.folder, role)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	if r.URL.Query().Get("format") == "vtt" {
		w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, captions.Format(cues))
		return
	}
	RespondJSON(w, http.StatusOK, captionsResponse{Role: role, Cues: cues})
}

// Media relays the object bytes of one track.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)
	if err := models.ValidateMediaRole(role); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	ref := refFrom(r)
	obj, file, err := h.catalog.OpenMedia(r.Context(), ref.org, ref.device, ref.folder, role)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(file.Key))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Warn(r.Context(), "media relay interrupted", "key", file.Key, "error", err)
	}
}
