// Package bovada is the HTTP client for the Bovada sportsbook services:
// the coupon (discovery) feed, per-event market trees and the scores API.
package bovada

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

const (
	couponPath  = "/services/sports/event/coupon/events/A/description"
	couponQuery = "?marketFilterId=def&preMatchOnly=false&eventsLimit=5000&lang=en"
	scoresPath  = "/services/sports/results/api/v2/scores/"

	rateLimitKey = "bovada"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// PayloadObserver receives every successful raw response body.
type PayloadObserver interface {
	Record(ctx context.Context, kind, ref string, body []byte)
}

// Config controls timeouts, retries and pacing of upstream calls.
type Config struct {
	BaseURL    string // e.g. "https://www.bovada.lv"
	ScoresURL  string // e.g. "https://services.bovada.lv"
	Timeout    time.Duration
	Retries    int           // total attempts per request
	Throttle   time.Duration // minimum spacing between requests
	RateLimit  int           // requests per RateWindow across processes; 0 disables
	RateWindow time.Duration
}

// Client fetches events, market trees and scores. It is safe for
// concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    domain.RateLimiter
	observer   PayloadObserver
	logger     *slog.Logger

	mu      sync.Mutex
	lastReq time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option customises a Client.
type Option func(*Client)

// WithRateLimiter shares a request budget with other processes.
func WithRateLimiter(l domain.RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithObserver captures raw payloads, e.g. for archiving.
func WithObserver(o PayloadObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a new Bovada client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.ScoresURL = strings.TrimRight(cfg.ScoresURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		sleep:      sleepCtx,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bovada",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("bovada: circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEvents returns every event listed for the sport path, e.g.
// "football/college-football". Live and prematch events are both included.
func (c *Client) FetchEvents(ctx context.Context, sportPath string) ([]domain.ExternalEvent, error) {
	sportPath = strings.Trim(sportPath, "/")
	u := c.cfg.BaseURL + couponPath + "/" + sportPath + couponQuery

	body, err := c.get(ctx, "events", sportPath, u)
	if err != nil {
		return nil, fmt.Errorf("bovada: fetch events %s: %w", sportPath, err)
	}

	events, err := parseEvents(body)
	if err != nil {
		return nil, fmt.Errorf("bovada: decode events %s: %w", sportPath, err)
	}
	return events, nil
}

// FetchEventDetail returns the market tree for an event link such as
// "/football/college-football/ohio-state-penn-state-202511011530".
// Returns domain.ErrNotFound when the event is gone.
func (c *Client) FetchEventDetail(ctx context.Context, link string) (domain.EventDetail, error) {
	if link == "" {
		return domain.EventDetail{}, fmt.Errorf("bovada: fetch detail: empty link: %w", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	u := c.cfg.BaseURL + couponPath + link + "?lang=en"

	body, err := c.get(ctx, "detail", link, u)
	if err != nil {
		return domain.EventDetail{}, fmt.Errorf("bovada: fetch detail %s: %w", link, err)
	}

	detail, err := parseEventDetail(body)
	if err != nil {
		return domain.EventDetail{}, fmt.Errorf("bovada: decode detail %s: %w", link, err)
	}
	return detail, nil
}

// FetchScore returns the raw scoreboard for an event id.
func (c *Client) FetchScore(ctx context.Context, eventID string) (domain.Score, error) {
	u := c.cfg.ScoresURL + scoresPath + url.PathEscape(eventID)

	body, err := c.get(ctx, "scores", eventID, u)
	if err != nil {
		return domain.Score{}, fmt.Errorf("bovada: fetch score %s: %w", eventID, err)
	}

	score, err := parseScore(body)
	if err != nil {
		return domain.Score{}, fmt.Errorf("bovada: decode score %s: %w", eventID, err)
	}
	return score, nil
}

// get runs one logical request through the breaker with linear-backoff
// retries. Only transport failures, 429 and 5xx are retried.
func (c *Client) get(ctx context.Context, kind, ref, rawURL string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		for i := 0; i < c.cfg.Retries; i++ {
			if i > 0 {
				backoff := 300*time.Millisecond + time.Duration(i-1)*400*time.Millisecond
				if err := c.sleep(ctx, backoff); err != nil {
					return nil, err
				}
			}
			body, err := c.doGet(ctx, rawURL)
			if err == nil {
				return body, nil
			}
			if !retryable(err) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			c.logger.Debug("bovada: retrying request",
				slog.String("kind", kind),
				slog.String("ref", ref),
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("%w: %d attempts: %v", domain.ErrTransient, c.cfg.Retries, lastErr)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransient, domain.ErrCircuitOpen)
		}
		return nil, err
	}

	body := out.([]byte)
	if c.observer != nil {
		c.observer.Record(ctx, kind, ref, body)
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// pace enforces the local throttle and, when configured, the shared
// sliding-window budget.
func (c *Client) pace(ctx context.Context) error {
	if c.limiter != nil && c.cfg.RateLimit > 0 {
		if err := c.limiter.Wait(ctx, rateLimitKey, c.cfg.RateLimit, c.cfg.RateWindow); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.cfg.Throttle <= 0 {
		return nil
	}

	c.mu.Lock()
	wait := c.cfg.Throttle - time.Since(c.lastReq)
	if wait < 0 {
		wait = 0
	}
	c.lastReq = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return c.sleep(ctx, wait)
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, snippet)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, snippet)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrTransient, domain.ErrRateLimited)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", domain.ErrTransient, statusCode)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, snippet)
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
