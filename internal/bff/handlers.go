package bff

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"omnibox/internal/domain"
)

const (
	defaultCountsLimit = 20
	maxCountsLimit     = 1000
	maxBodyBytes       = 64 << 10
)

type pickRequest struct {
	Kind     string     `json:"kind"`
	EntityID string     `json:"entityId"`
	Label    string     `json:"label,omitempty"`
	PickedAt *time.Time `json:"pickedAt,omitempty"`
}

func (s *Server) handleRecordPick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.rejected.Inc()
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		s.metrics.rejected.Inc()
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	entityID := strings.TrimSpace(req.EntityID)
	if entityID == "" {
		s.metrics.rejected.Inc()
		s.respondError(w, http.StatusBadRequest, "entityId is required")
		return
	}

	rec := domain.PickRecord{Kind: kind, EntityID: entityID, Label: strings.TrimSpace(req.Label)}
	if req.PickedAt != nil {
		rec.PickedAt = req.PickedAt.UTC()
	}
	rec = s.store.Record(rec)
	s.metrics.picks.WithLabelValues(string(kind)).Inc()

	s.logger.Debug("pick recorded", zap.String("kind", string(kind)), zap.String("entity_id", entityID))
	s.respondJSON(w, http.StatusAccepted, map[string]string{"id": rec.ID, "status": "recorded"})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kind domain.Kind
	if raw := q.Get("kind"); raw != "" {
		k, err := domain.ParseKind(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	limit := defaultCountsLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCountsLimit)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"counts": s.store.Counts(kind, limit),
		"total":  s.store.Total(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
