package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/extract"
	"github.com/chatlens/chatlens/internal/stats"
)

// maxUploadBytes bounds the export document size.
const maxUploadBytes = 64 << 20

// maxKeywords caps the keyword list in API responses, matching the
// dispatcher's on-wire trim.
const maxKeywords = 100

type analyzeResponse struct {
	OK    bool            `json:"ok"`
	Stats *stats.Analysis `json:"stats,omitempty"`
	Meta  *analyzeMeta    `json:"meta,omitempty"`
	Error string          `json:"error,omitempty"`
}

type analyzeMeta struct {
	MessageCount int `json:"messageCount"`
}

// analyze handles POST /api/v1/analyze. The body is the raw export JSON;
// an optional ?owner=<uuid> query merges that owner's stored preferences.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	root, err := analyzer.DecodeDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cands := extract.Messages(root)
	if len(cands) == 0 {
		writeError(w, http.StatusBadRequest, analyzer.ErrNoCandidates.Error())
		return
	}

	opts, err := s.resolveOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runAnalysis(r.Context(), cands, opts)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	if len(result.Keywords) > maxKeywords {
		result.Keywords = result.Keywords[:maxKeywords]
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		OK:    true,
		Stats: result,
		Meta:  &analyzeMeta{MessageCount: len(result.Messages)},
	})
}

// resolveOptions builds the per-request configuration from the owner's
// stored preferences. Options are a fresh value per request; nothing is
// shared across in-flight analyses.
func (s *Server) resolveOptions(r *http.Request) (analyzer.Options, error) {
	var opts analyzer.Options

	ownerParam := r.URL.Query().Get("owner")
	if ownerParam == "" {
		return opts, nil
	}
	if s.prefs == nil {
		return opts, nil
	}

	owner, err := uuid.Parse(ownerParam)
	if err != nil {
		return opts, errors.New("invalid owner id")
	}

	prefs, err := s.prefs.Get(r.Context(), owner)
	if err != nil {
		// Missing preferences are not an error; defaults apply.
		return opts, nil
	}
	opts.Overrides = prefs.Overrides()
	opts.StopWords = prefs.StopWords
	return opts, nil
}

// runAnalysis routes the batch through the dispatcher when the bus is
// connected, else runs the aggregation in-process.
func (s *Server) runAnalysis(ctx context.Context, cands []extract.Candidate, opts analyzer.Options) (*stats.Analysis, error) {
	if s.dispatch == nil {
		return s.analyzer.AnalyzeCandidates(cands, opts)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.dispatch.Analyze(ctx, cands, opts)
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	case errors.Is(err, analyzer.ErrNoUsableMessages),
		errors.Is(err, analyzer.ErrTooFewMessages),
		errors.Is(err, stats.ErrNoMessages):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("analysis failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}
