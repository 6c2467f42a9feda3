package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/dmitrijs2005/recviewer/internal/logging"
)

type RouterOptions struct {
	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty allows none.
	CORSOrigins []string
	Logger      logging.Logger
}

// NewRouter mounts the API under /api and wraps it in request-id, access
// log, panic recovery and CORS handling. Without CORSOrigins no CORS headers
// are sent.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	r := chi.NewRouter()
	r.Use(RequestID, AccessLog(log), Recovery(log))

	r.Get("/health", h.Health)

	r.Route("/api/organizations", func(r chi.Router) {
		r.Get("/", h.ListOrganizations)
		r.Get("/{org}/devices", h.ListDevices)

		r.Route("/{org}/devices/{device}", func(r chi.Router) {
			r.Get("/sessions", h.ListSessions)
			r.Get("/calendar", h.Calendar)
			r.Post("/notes-counts", h.NotesCounts)

			r.Route("/sessions/{folder}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Get("/metadata", h.GetMetadata)
				r.Patch("/metadata", h.PatchMetadata)
				r.Get("/notes", h.ListNotes)
				r.Post("/notes", h.AddNote)
				r.Patch("/notes/{noteID}", h.UpdateNote)
				r.Delete("/notes/{noteID}", h.DeleteNote)
				r.Post("/transcriptions/{role}", h.Transcribe)
				r.Get("/captions/{role}", h.Captions)
				r.Get("/media/{role}", h.Media)
			})
		})
	})

	if len(opts.CORSOrigins) == 0 {
		return r
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(r)
}
