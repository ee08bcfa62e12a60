// Package analyzer runs the extraction → normalization → aggregation
// pipeline and owns the error taxonomy the API and dispatcher surface.
package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chatlens/chatlens/internal/extract"
	"github.com/chatlens/chatlens/internal/normalize"
	"github.com/chatlens/chatlens/internal/stats"
	"github.com/chatlens/chatlens/internal/tokenize"
)

// Each failure category is terminal for the request; the caller resubmits
// with a different file or adjusted preferences.
var (
	ErrMalformedInput   = errors.New("document is not a JSON object or array")
	ErrNoCandidates     = errors.New("no messages found in document")
	ErrNoUsableMessages = errors.New("no usable user/assistant text found")
	ErrTooFewMessages   = errors.New("not enough messages for meaningful analysis")
)

// DefaultMinMessages is the smallest batch worth aggregating.
const DefaultMinMessages = 4

// Options is the per-request configuration, constructed fresh for every
// request and passed by value through the pipeline.
type Options struct {
	Overrides map[string]string `json:"overrides,omitempty"`
	StopWords []string          `json:"stopWords,omitempty"`
}

// Analyzer orchestrates the pipeline. It holds no per-request state and is
// safe for concurrent use.
type Analyzer struct {
	minMessages int
	logger      *slog.Logger
}

func New(minMessages int, logger *slog.Logger) *Analyzer {
	if minMessages <= 0 {
		minMessages = DefaultMinMessages
	}
	return &Analyzer{minMessages: minMessages, logger: logger}
}

// AnalyzeDocument parses a raw export document, extracts candidates and
// aggregates them.
func (a *Analyzer) AnalyzeDocument(raw []byte, opts Options) (*stats.Analysis, error) {
	root, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}

	cands := extract.Messages(root)
	if len(cands) == 0 {
		return nil, ErrNoCandidates
	}

	return a.AnalyzeCandidates(cands, opts)
}

// DecodeDocument unmarshals raw bytes and checks the root is a walkable
// object or array.
func DecodeDocument(raw []byte) (any, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	switch root.(type) {
	case map[string]any, []any:
		return root, nil
	default:
		return nil, ErrMalformedInput
	}
}

// AnalyzeCandidates normalizes a candidate batch and computes the aggregate
// views. Candidates that fail the role or text filters are dropped; if none
// survive, or too few for a meaningful dashboard, the request fails with a
// distinct error.
func (a *Analyzer) AnalyzeCandidates(cands []extract.Candidate, opts Options) (*stats.Analysis, error) {
	msgs := normalize.All(cands, normalize.Options{Overrides: opts.Overrides})
	if len(msgs) == 0 {
		return nil, ErrNoUsableMessages
	}
	if len(msgs) < a.minMessages {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewMessages, len(msgs), a.minMessages)
	}

	a.logger.Debug("aggregating batch",
		"candidates", len(cands),
		"messages", len(msgs),
	)

	return stats.Compute(msgs, stats.Options{
		Overrides: opts.Overrides,
		StopWords: opts.StopWords,
		Tokenize:  tokenize.Tokens,
	})
}

// MinMessages exposes the configured volume threshold.
func (a *Analyzer) MinMessages() int {
	return a.minMessages
}
