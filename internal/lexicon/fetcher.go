package lexicon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/artikelservice/backend/pkg/circuitbreaker"
	"github.com/artikelservice/backend/pkg/logger"
	"github.com/artikelservice/backend/pkg/retry"
)

var (
	ErrSourceUnavailable = errors.New("dataset source unavailable")
	ErrPayloadTooSmall   = errors.New("dataset payload implausibly small")
)

// Fetcher downloads the raw dataset. Every fetch is bounded by an explicit
// deadline and guarded by a circuit breaker so a flapping source does not get
// hammered by the refresh ticker.
type Fetcher struct {
	url        string
	minBytes   int
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewFetcher(url string, timeout time.Duration, minBytes int) *Fetcher {
	return &Fetcher{
		url:      url,
		minBytes: minBytes,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: circuitbreaker.New("dataset-fetch", circuitbreaker.Config{
			FailureThreshold: 3,
			Timeout:          5 * time.Minute,
			Logger:           logger.Log,
		}),
	}
}

func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	cfg := retry.DefaultConfig()
	cfg.Logger = logger.Log

	return retry.DoWithResult(ctx, cfg, func() (string, error) {
		var payload string
		err := f.breaker.Execute(func() error {
			var err error
			payload, err = f.fetchOnce(ctx)
			return err
		})
		return payload, err
	})
}

func (f *Fetcher) fetchOnce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "artikelservice/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}

	// Cheap sanity check against truncated responses.
	if len(body) < f.minBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooSmall, len(body))
	}

	logger.Info("Dataset fetched",
		zap.String("url", f.url),
		zap.Int("bytes", len(body)),
	)

	return string(body), nil
}
