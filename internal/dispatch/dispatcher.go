// Package dispatch forwards validated records to the remote persistence
// endpoint. The endpoint is a black box: success is any 2xx status and the
// response body is never interpreted.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Dispatcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewDispatcher(url string, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Dispatch submits the record JSON in a single synchronous POST. A non-2xx
// response is a terminal failure carrying the endpoint's status text; there
// is no retry.
func (d *Dispatcher) Dispatch(ctx context.Context, record []byte) error {
	if !json.Valid(record) {
		return fmt.Errorf("record is not well-formed JSON")
	}

	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(record))
	if err != nil {
		d.logger.Error("dispatch.build_request_error", "req_id", reqID, "error", err)
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Info("dispatch.request",
		"req_id", reqID,
		"url", d.url,
		"content_length", len(record),
	)

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("dispatch.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("persistence endpoint: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			d.logger.Warn("dispatch.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	// acknowledgment body is intentionally ignored
	_, _ = io.Copy(io.Discard, resp.Body)

	d.logger.Info("dispatch.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("persistence endpoint: %s", resp.Status)
	}
	return nil
}
