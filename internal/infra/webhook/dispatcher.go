// Package webhook delivers finished result sets to the collection endpoint
// (an Apps Script web app in the original deployment) as one JSON array per
// submission.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"sat-quiz-runner/internal/domain"
)

// Dispatcher POSTs submission records to a fixed URL. The endpoint gives no
// structured response; any 2xx counts as dispatched, everything else is a
// rejection.
type Dispatcher struct {
	url    string
	client *http.Client
}

func NewDispatcher(url string, client *http.Client) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Dispatcher{url: url, client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.SubmissionRecord) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", domain.ErrSubmissionDispatch, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionDispatch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: endpoint returned status %d", domain.ErrSubmissionDispatch, resp.StatusCode)
	}
	return nil
}

// LogDispatcher is the stand-in when no endpoint is configured: it logs the
// record count and drops the payload.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, records []domain.SubmissionRecord) error {
	log.Printf("no submission endpoint configured, dropping %d records", len(records))
	return nil
}
