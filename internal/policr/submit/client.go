package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/logger"
)

// Header naming the transformer plugin that processes a submission.
const TransformerHeader = "Transformer-Type"

// Outcomes stored by a Recorder.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Record describes one submission attempt. Documents are not included.
type Record struct {
	SubmittedAt   time.Time
	Endpoint      string
	Transformer   string
	PolicyUUID    string
	HierarchyUUID string
	StatusCode    int
	Outcome       string
}

// Recorder is notified after every submission attempt.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// Result is the transformer's reply to an accepted submission.
type Result struct {
	StatusCode int
	Body       []byte
}

// Client posts assembled payloads to the transformer service.
type Client struct {
	endpoint string
	plugin   string
	token    string
	client   *http.Client
	recorder Recorder
	now      func() time.Time
}

type Option func(*Client)

// WithRecorder stores the outcome of every submission.
func WithRecorder(r Recorder) Option { return func(c *Client) { c.recorder = r } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

// NewClient builds a client. A zero timeout means none.
func NewClient(endpoint, plugin, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		plugin:   plugin,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit posts p once. Only HTTP 200 counts as success.
func (c *Client) Submit(ctx context.Context, p *Payload) (*Result, error) {
	if c.endpoint == "" {
		return nil, errs.Invalid("transformer.endpoint", "no transformer endpoint configured")
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TransformerHeader, c.plugin)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := Record{
		SubmittedAt:   c.now().UTC(),
		Endpoint:      c.endpoint,
		Transformer:   c.plugin,
		PolicyUUID:    p.PolicyUUID(),
		HierarchyUUID: p.HierarchyUUID(),
	}

	resp, err := c.client.Do(req)
	if err != nil {
		rec.Outcome = OutcomeFailed
		c.record(ctx, rec)
		return nil, &errs.SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.L().Warnw("read transformer response", "error", err)
	}

	rec.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		rec.Outcome = OutcomeRejected
		c.record(ctx, rec)
		return nil, &errs.SubmissionError{StatusCode: resp.StatusCode}
	}

	rec.Outcome = OutcomeAccepted
	c.record(ctx, rec)
	logger.L().Infow("submission accepted",
		"endpoint", c.endpoint,
		"transformer", c.plugin,
		"policy_uuid", rec.PolicyUUID,
		"hierarchy_uuid", rec.HierarchyUUID,
	)
	return &Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func (c *Client) record(ctx context.Context, r Record) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, r); err != nil {
		logger.L().Warnw("record submission", "error", err, "outcome", r.Outcome)
	}
}
