// Package server exposes the matching engine over HTTP. The request and
// response field names are Spanish, matching the service's public API:
// texto, grupo, frase_similar, similitud, deletreo, total_caracteres.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JMJuarez/modulo-pln-vf/internal/health"
	"github.com/JMJuarez/modulo-pln-vf/internal/matcher"
	"github.com/JMJuarez/modulo-pln-vf/internal/observe"
)

// maxBodyBytes bounds request bodies; queries are short phrases.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers around one matching engine.
type Server struct {
	engine  *matcher.Engine
	log     *slog.Logger
	health  *health.Handler
	metrics http.Handler
}

// Option is a functional option for New.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithHealth mounts the given health handler's routes.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics mounts handler at GET /metrics.
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) { s.metrics = handler }
}

// New builds a Server around engine.
func New(engine *matcher.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the complete route tree, wrapped in the request metrics
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /buscar", s.handleBuscar)
	mux.HandleFunc("POST /deletreo", s.handleDeletreo)
	mux.HandleFunc("GET /grupos", s.handleGrupos)
	mux.HandleFunc("GET /grupos/{grupo}", s.handleGrupo)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return observe.Middleware(mux)
}

type buscarRequest struct {
	Texto string `json:"texto"`
}

type buscarResponse struct {
	Texto             string   `json:"texto"`
	Grupo             string   `json:"grupo,omitempty"`
	FraseSimilar      string   `json:"frase_similar,omitempty"`
	Similitud         *float64 `json:"similitud,omitempty"`
	UmbralAlcanzado   *bool    `json:"umbral_alcanzado,omitempty"`
	DeletreoActivado  bool     `json:"deletreo_activado"`
	Deletreo          []string `json:"deletreo,omitempty"`
	TotalCaracteres   int      `json:"total_caracteres,omitempty"`
}

func (s *Server) handleBuscar(w http.ResponseWriter, r *http.Request) {
	var req buscarRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.Match(r.Context(), req.Texto)
	if err != nil {
		s.matchError(w, r, err)
		return
	}

	resp := buscarResponse{
		Texto:            result.Query,
		DeletreoActivado: result.Kind == matcher.KindSpelledOut,
	}
	switch result.Kind {
	case matcher.KindSpelledOut:
		resp.Similitud = &result.Score
		resp.Deletreo = result.Letters
		resp.TotalCaracteres = result.TotalCharacters
	default:
		reached := !result.BelowThreshold
		resp.Grupo = result.Group
		resp.FraseSimilar = result.Phrase
		resp.Similitud = &result.Score
		resp.UmbralAlcanzado = &reached
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type deletreoRequest struct {
	Texto string `json:"texto"`

	// IncluirEspacios defaults to true when absent.
	IncluirEspacios *bool `json:"incluir_espacios"`
}

type deletreoResponse struct {
	Texto           string   `json:"texto"`
	Deletreo        []string `json:"deletreo"`
	TotalCaracteres int      `json:"total_caracteres"`
	IncluirEspacios bool     `json:"incluir_espacios"`
}

func (s *Server) handleDeletreo(w http.ResponseWriter, r *http.Request) {
	var req deletreoRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Texto == "" {
		s.writeError(w, http.StatusBadRequest, "texto is required")
		return
	}

	includeSpaces := true
	if req.IncluirEspacios != nil {
		includeSpaces = *req.IncluirEspacios
	}

	letters, total := s.engine.Spell(req.Texto, includeSpaces)
	s.writeJSON(w, http.StatusOK, deletreoResponse{
		Texto:           req.Texto,
		Deletreo:        letters,
		TotalCaracteres: total,
		IncluirEspacios: includeSpaces,
	})
}

type grupoSummary struct {
	Grupo           string  `json:"grupo"`
	Etiqueta        string  `json:"etiqueta"`
	UmbralSimilitud float64 `json:"umbral_similitud"`
	UmbralDeletreo  float64 `json:"umbral_deletreo"`
	TotalFrases     int     `json:"total_frases"`
}

func (s *Server) handleGrupos(w http.ResponseWriter, _ *http.Request) {
	groups := s.engine.Inventory().Groups()
	out := make([]grupoSummary, len(groups))
	for i, g := range groups {
		out[i] = grupoSummary{
			Grupo:           g.ID,
			Etiqueta:        g.Label,
			UmbralSimilitud: g.SimilarityThreshold,
			UmbralDeletreo:  g.SpellOutThreshold,
			TotalFrases:     len(g.Phrases),
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"grupos": out})
}

func (s *Server) handleGrupo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("grupo")
	g, ok := s.engine.Inventory().Group(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("grupo %q no existe", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"grupo":            g.ID,
		"etiqueta":         g.Label,
		"umbral_similitud": g.SimilarityThreshold,
		"umbral_deletreo":  g.SpellOutThreshold,
		"frases":           g.Phrases,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"servicio": "frasero",
		"rutas": []string{
			"POST /buscar",
			"POST /deletreo",
			"GET /grupos",
			"GET /grupos/{grupo}",
			"GET /health",
		},
	})
}

// matchError maps engine errors to HTTP responses.
func (s *Server) matchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, matcher.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, "texto is required")
	case errors.Is(err, matcher.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, "engine is warming up")
	default:
		s.log.Error("match failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusBadGateway, "embedding backend unavailable")
	}
}

// decode reads a JSON body into v, answering 400 on malformed input.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
