package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chatlens/chatlens/internal/store"
)

// getPreferences handles GET /api/v1/preferences/{owner}.
func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerFromRequest(w, r)
	if !ok {
		return
	}

	prefs, err := s.prefs.Get(r.Context(), owner)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "no preferences for owner")
			return
		}
		slog.Error("load preferences failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// putPreferences handles PUT /api/v1/preferences/{owner}.
func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerFromRequest(w, r)
	if !ok {
		return
	}

	var prefs store.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preferences payload")
		return
	}

	if err := s.prefs.Upsert(r.Context(), owner, prefs); err != nil {
		slog.Error("save preferences failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	writeJSON(w, http.StatusOK, prefs.Sanitize())
}

func (s *Server) ownerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, "preference store not configured")
		return uuid.Nil, false
	}
	owner, err := uuid.Parse(chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return uuid.Nil, false
	}
	return owner, true
}
