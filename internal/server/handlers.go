package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/rating"
	"github.com/dorsta123/Case-Prep/internal/server/middleware"
	"github.com/dorsta123/Case-Prep/internal/types"
)

const maxBodyBytes = 1 << 20

// RegisterResponse is returned by POST /api/sessions.
type RegisterResponse struct {
	SessionID       types.SessionID `json:"session_id"`
	ParticipantName string          `json:"participant_name"`
	NewParticipant  bool            `json:"new_participant"`
	Scenario        types.Scenario  `json:"scenario"`
}

// LeaderboardResponse is returned by GET /api/leaderboard.
type LeaderboardResponse struct {
	Entries []rating.Entry `json:"entries"`
}

// CatalogResponse lists the scenario tags a client can offer.
type CatalogResponse struct {
	Industries []types.OptionGroup `json:"industries"`
	Domains    []types.OptionGroup `json:"domains"`
	Random     string              `json:"random"`
}

// handleRegister records the participant and mints a session id for them.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.noteUnknownTags(r, req.Industry, req.Domain)

	created, err := s.ratings.Register(r.Context(), req.ParticipantName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, RegisterResponse{
		SessionID:       types.NewSessionID(req.ParticipantName, s.now()),
		ParticipantName: req.ParticipantName,
		NewParticipant:  created,
		Scenario:        types.Scenario{Industry: req.Industry, Domain: req.Domain}.Normalize(),
	})
}

// handleOpen opens a session and auto-starts it when it has no turns.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req types.OpenRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}
	req.SessionID = types.SessionID(r.PathValue("id"))
	s.noteUnknownTags(r, req.Industry, req.Domain)

	ctx, cancel := s.generationContext(r)
	defer cancel()

	res, err := s.orchestrator.Open(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, res)
}

// handleGetSession returns the stored transcript with its progress and state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.orchestrator.Transcript(r.Context(), types.SessionID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleTurn runs one candidate message through the interviewer.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req types.TurnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.noteUnknownTags(r, req.Industry, req.Domain)

	ctx, cancel := s.generationContext(r)
	defer cancel()

	res, err := s.orchestrator.Turn(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleEvaluate grades a session and applies the rating change.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req types.EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.generationContext(r)
	defer cancel()

	res, err := s.orchestrator.Finish(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleLeaderboard returns the top participants. ?limit defaults to 10 and
// is capped at the configured maximum.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := rating.DefaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, &types.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	if s.maxLeaderboard > 0 && limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}

	entries, err := s.ratings.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, LeaderboardResponse{Entries: entries})
}

// handleCatalog lists the selectable industries and domains.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, CatalogResponse{
		Industries: types.Industries,
		Domains:    types.Domains,
		Random:     types.Random,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// noteUnknownTags logs scenario tags outside the catalog. They are still
// accepted as free text.
func (s *Server) noteUnknownTags(r *http.Request, industry, domain string) {
	if !types.KnownTag(types.Industries, industry) {
		s.logger.Debug("industry not in catalog",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("industry", industry))
	}
	if !types.KnownTag(types.Domains, domain) {
		s.logger.Debug("domain not in catalog",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("domain", domain))
	}
}

// generationContext bounds a model-calling request by the generation timeout.
func (s *Server) generationContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.generationTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.generationTimeout)
}

// decodeJSON reads a bounded JSON body into v. io.EOF is returned as-is for an
// empty body; other failures become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return err
	default:
		return &types.ValidationError{Message: "invalid request body: " + err.Error()}
	}
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, kind, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message, "kind": kind})
}

// writeError maps err onto a status and kind and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, io.EOF) {
		err = &types.ValidationError{Message: "request body is required"}
	}
	status := HTTPStatus(err)
	kind := ErrorKind(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("kind", kind),
			zap.Error(err))
	}
	s.errorResponse(w, status, kind, err.Error())
}
