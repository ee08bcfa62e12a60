// Package dispatch carries analysis requests across the isolation boundary
// between the API and the aggregation worker. The only data crossing the
// boundary is the request payload and the result payload; configuration
// travels inside the request, never as shared state.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/extract"
	"github.com/chatlens/chatlens/internal/stats"
)

// SubjectAnalyze is the request/reply subject for analysis batches.
const SubjectAnalyze = "chatlens.analyze.request"

// ErrStaleResponse is returned when a reply carries a request id that does
// not match the request that was issued. Callers drop the reply instead of
// applying it.
var ErrStaleResponse = errors.New("stale analysis response discarded")

// Request is the payload submitted to the aggregation worker.
type Request struct {
	RequestID string              `json:"request_id"`
	Messages  []extract.Candidate `json:"messages"`
	Options   analyzer.Options    `json:"options"`
}

// Response is the worker's reply: either a completed result or an error.
type Response struct {
	RequestID string          `json:"request_id"`
	OK        bool            `json:"ok"`
	Stats     *stats.Analysis `json:"stats,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// Analyze submits a candidate batch and waits for the matching reply. The
// context bounds the wall-clock budget; the computation itself is not
// interruptible, so a timeout simply abandons the reply.
func (c *Client) Analyze(ctx context.Context, cands []extract.Candidate, opts analyzer.Options) (*stats.Analysis, error) {
	req := Request{
		RequestID: newRequestID(),
		Messages:  cands,
		Options:   opts,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	msg, err := c.conn.RequestWithContext(ctx, SubjectAnalyze, payload)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.RequestID != req.RequestID {
		return nil, ErrStaleResponse
	}
	if !resp.OK {
		return nil, errors.New(resp.Error)
	}
	return resp.Stats, nil
}

func (c *Client) subscribe(subject, queue string, handler nats.MsgHandler) error {
	sub, err := c.conn.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

func newRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
