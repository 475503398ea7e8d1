package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pscheid92/countbot/internal/domain"
	"github.com/pscheid92/countbot/internal/platform/retry"
)

const (
	maxAttachmentBytes = 25 << 20
	downloadTimeout    = 30 * time.Second
)

var errAttachmentTooLarge = errors.New("attachment exceeds size limit")

var _ domain.MediaFetcher = (*Fetcher)(nil)

// Fetcher downloads attachments from the CDN with retries.
type Fetcher struct {
	http   *http.Client
	policy retry.Policy
}

func NewFetcher(client *http.Client, policy retry.Policy) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Fetcher{http: client, policy: policy}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	p := f.policy
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.DebugContext(ctx, "Retrying attachment download", "attempt", attempt, "backoff", backoff, "error", err)
	}

	classify := func(err error) retry.Action {
		if errors.Is(err, errAttachmentTooLarge) {
			return retry.Stop
		}
		return retry.ClassifyHTTP(err)
	}

	return retry.Do(ctx, p, classify, func() ([]byte, error) {
		return f.get(ctx, url)
	})
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) > maxAttachmentBytes {
		return nil, errAttachmentTooLarge
	}
	return data, nil
}
