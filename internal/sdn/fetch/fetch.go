// Package fetch downloads the source publication.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "sdnscreen/1.0 (+sanctions list ingestion)"

// HTTP downloads publications over HTTP with bounded retries on transport
// errors and 5xx responses.
type HTTP struct {
	client *resty.Client
	logger *slog.Logger
}

func NewHTTP(timeout time.Duration, retries int, logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("Accept", "application/xml, text/xml").
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &HTTP{client: client, logger: logger}
}

// Fetch returns the body of url.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := h.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}

	body := resp.Body()
	h.logger.InfoContext(ctx, "fetched source publication",
		"url", url,
		"bytes", len(body),
		"attempts", resp.Request.Attempt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}
