package dispatch

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/chatlens/chatlens/internal/analyzer"
)

// queueGroup load-balances analysis requests across worker instances.
const queueGroup = "chatlens-workers"

// maxKeywordsOnWire trims the keyword list in replies; the aggregator ranks
// more than the dashboard renders.
const maxKeywordsOnWire = 100

// Worker consumes analysis requests from the bus and replies with results.
// Each request is processed independently on a private message batch.
type Worker struct {
	client   *Client
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

func NewWorker(client *Client, a *analyzer.Analyzer, logger *slog.Logger) *Worker {
	return &Worker{client: client, analyzer: a, logger: logger}
}

// Start subscribes the worker to the analysis subject.
func (w *Worker) Start() error {
	return w.client.subscribe(SubjectAnalyze, queueGroup, func(msg *nats.Msg) {
		resp := w.Process(msg.Data)
		payload, err := json.Marshal(resp)
		if err != nil {
			w.logger.Error("marshal response", "request_id", resp.RequestID, "error", err)
			return
		}
		if err := msg.Respond(payload); err != nil {
			w.logger.Warn("respond failed", "request_id", resp.RequestID, "error", err)
		}
	})
}

// Process handles one raw request payload and builds the reply. It never
// panics the subscription: every failure becomes an error response.
func (w *Worker) Process(data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		w.logger.Error("malformed analysis request", "error", err)
		return Response{OK: false, Error: "malformed analysis request payload"}
	}

	w.logger.Info("processing analysis request",
		"request_id", req.RequestID,
		"candidates", len(req.Messages),
	)

	result, err := w.analyzer.AnalyzeCandidates(req.Messages, req.Options)
	if err != nil {
		w.logger.Warn("analysis failed", "request_id", req.RequestID, "error", err)
		return Response{RequestID: req.RequestID, OK: false, Error: err.Error()}
	}

	if len(result.Keywords) > maxKeywordsOnWire {
		result.Keywords = result.Keywords[:maxKeywordsOnWire]
	}

	w.logger.Info("analysis complete",
		"request_id", req.RequestID,
		"messages", len(result.Messages),
		"keywords", len(result.Keywords),
	)
	return Response{RequestID: req.RequestID, OK: true, Stats: result}
}
