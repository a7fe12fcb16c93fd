// Package docsapi talks to the Google Docs API: it fetches documents and
// applies batchUpdate requests, retrying rate limits and server errors.
package docsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Source fetches a document by id.
type Source interface {
	Fetch(ctx context.Context, documentID string) (*docs.Document, error)
}

// Sink applies a request batch to a document.
type Sink interface {
	Apply(ctx context.Context, documentID string, reqs []*docs.Request) error
}

// Options configures a Client.
type Options struct {
	// CredentialsFile is a service account or OAuth client JSON file.
	// Empty means application default credentials.
	CredentialsFile string
	// Endpoint overrides the API base URL.
	Endpoint string
	// HTTPClient, when set, is used as is and no credentials are loaded.
	HTTPClient *http.Client
	Stats      *LatencyStats
	Logger     *slog.Logger
}

// Client is a Source and Sink backed by the Docs API.
type Client struct {
	svc     *docs.Service
	stats   *LatencyStats
	log     *slog.Logger
	backoff func(attempt int) time.Duration
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := docs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}

	stats := opts.Stats
	if stats == nil {
		stats = NewLatencyStats(time.Hour)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{svc: svc, stats: stats, log: log, backoff: Backoff}, nil
}

// Stats returns the client's latency stats.
func (c *Client) Stats() *LatencyStats {
	return c.stats
}

// Fetch calls documents.get.
func (c *Client) Fetch(ctx context.Context, documentID string) (*docs.Document, error) {
	var doc *docs.Document
	err := c.withRetry(ctx, OpFetch, documentID, func() error {
		var err error
		doc, err = c.svc.Documents.Get(documentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Apply calls documents.batchUpdate. An empty batch is a no-op.
func (c *Client) Apply(ctx context.Context, documentID string, reqs []*docs.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	body := &docs.BatchUpdateDocumentRequest{Requests: reqs}
	return c.withRetry(ctx, OpApply, documentID, func() error {
		_, err := c.svc.Documents.BatchUpdate(documentID, body).Context(ctx).Do()
		return err
	})
}

func (c *Client) withRetry(ctx context.Context, op, documentID string, call func() error) error {
	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt - 1)
			c.log.Warn("retrying docs api call",
				"op", op, "document_id", documentID, "attempt", attempt, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				return &Error{Op: op, DocumentID: documentID, Err: errors.Join(ctx.Err(), err)}
			case <-time.After(wait):
			}
		}

		start := time.Now()
		err = call()
		c.stats.Record(op, time.Since(start).Milliseconds())
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			break
		}
	}
	return &Error{Op: op, DocumentID: documentID, Err: err}
}
