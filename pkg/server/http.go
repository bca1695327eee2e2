package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/tools"
)

// maxBody bounds a JSON-RPC request body
const maxBody = 4 << 20

// HTTPOptions configures http mode
type HTTPOptions struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Router serves JSON-RPC over POST /rpc next to a small read-only api
func (s *Server) Router(opts HTTPOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/rpc", s.handleRPC)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leagues", s.handleLeagues)
		r.Get("/leagues/{id}", s.handleLeague)
	})
	return r
}

// ListenAndServe runs http mode until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, opts HTTPOptions) error {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Router(opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on", opts.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"name":   serverName,
		"tools":  len(s.GetTools()),
	})
}

// handleRPC answers 200 with a JSON-RPC response, or 204 for notifications
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.NewJsonRpcErrorResponse(protocol.ErrParse, err.Error(), nil, nil))
		return
	}
	req, err := protocol.ParseJsonRpcRequest(body)
	if err != nil {
		code := protocol.ErrInvalidRequest
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			code = protocol.ErrParse
		}
		writeJSON(w, http.StatusOK, protocol.NewJsonRpcErrorResponse(code, err.Error(), nil, nil))
		return
	}

	resp := s.Handle(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeagues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"leagues": s.service.Leagues.Leagues()})
}

func (s *Server) handleLeague(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "league id must be a positive integer"})
		return
	}
	if _, known := s.service.Leagues.Lookup(id); !known {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown league"})
		return
	}
	writeJSON(w, http.StatusOK, tools.ProfileView(s.service.Leagues, id))
}
