// Package httpapi is the illustrative REST gateway described by
// spec.md §6 and SPEC_FULL.md §6: a thin JSON-in/JSON-out translation
// layer over pkg/core.Store. It is not part of the tested core contract
// (spec.md §1 treats the REST surface as an external collaborator) and
// reaches the store only through its public operations.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sahej/vectordb/pkg/core"
)

// Server wires HTTP handlers to a pkg/core.Store.
type Server struct {
	store  *core.Store
	router http.Handler
}

// New builds a Server routing the endpoints enumerated in spec.md §6.
func New(store *core.Store) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{store: store, router: mux}

	mux.Get("/health", s.handleHealth)

	mux.Route("/libraries", func(r chi.Router) {
		r.Post("/", s.handleCreateLibrary)
		r.Route("/{libraryID}", func(r chi.Router) {
			r.Get("/", s.handleGetLibrary)
			r.Put("/", s.handleUpdateLibrary)
			r.Delete("/", s.handleDeleteLibrary)
			r.Post("/index", s.handleIndexLibrary)
			r.Post("/switch-index", s.handleSwitchIndex)
			r.Post("/search", s.handleSearch)

			r.Get("/chunks/count", s.handleChunkCount)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", s.handleAddDocument)
				r.Route("/{documentID}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Put("/", s.handleUpdateDocument)
					r.Delete("/", s.handleDeleteDocument)

					r.Route("/chunks", func(r chi.Router) {
						r.Get("/", s.handleListChunks)
						r.Post("/", s.handleAddChunk)
						r.Post("/bulk", s.handleAddChunksBulk)
						r.Route("/{chunkID}", func(r chi.Router) {
							r.Get("/", s.handleGetChunk)
							r.Put("/", s.handleUpdateChunk)
							r.Delete("/", s.handleDeleteChunk)
						})
					})
				})
			})
		})
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("httpapi: failed to write response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
