package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/metrics"
	"github.com/voyagen/sectionvault/internal/models"
)

// MaxDocumentSize caps the size of a downloaded group document.
const MaxDocumentSize = 1 << 20

// ErrUnavailable is returned while the breaker rejects calls after repeated
// upstream failures.
var ErrUnavailable = errors.New("import source temporarily unavailable")

// StatusError is a non-200 upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Client downloads community group documents. Calls share one circuit
// breaker so a dead host is not hammered by every editor session.
type Client struct {
	http      *http.Client
	userAgent string
	cb        *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a Client. userAgent may be empty.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		cb: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "group-import",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			// A 4xx is the caller's mistake, not an unhealthy upstream.
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.Code < 500
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}),
	}
}

// FetchGroups downloads url and decodes it as one group or a list of groups
// in JSON or YAML. Groups without an author get author. Parts that do not
// decode are skipped and reported as shape issues.
func (c *Client) FetchGroups(ctx context.Context, url, author string) ([]models.Group, []models.ShapeIssue, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordImport("rejected")
			return nil, nil, ErrUnavailable
		}
		metrics.RecordImport("error")
		return nil, nil, err
	}
	groups, issues, err := ParseGroups(body)
	if err != nil {
		metrics.RecordImport("error")
		return nil, nil, err
	}
	for i := range groups {
		if groups[i].Author == "" {
			groups[i].Author = author
		}
	}
	metrics.RecordImport("ok")
	return groups, issues, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	if len(body) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)
	}
	return body, nil
}
