package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/timefilter"
)

// Endpoint paths on the analysis service.
const (
	StatsPath    = "/api/stats"
	AnalysisPath = "/api/analysis"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxBody caps the size of a response body.
const maxBody = 32 << 20

// ErrStatus is matched by a StatusError caused by a non-2xx response.
var ErrStatus = errors.New("history: unexpected response status")

// StatusError reports a failed composite fetch. A status of 0 means that
// request never produced a response.
type StatusError struct {
	StatsStatus   int
	HistoryStatus int
	Err           error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("history: fetch failed (stats: %d, history: %d): %v", e.StatsStatus, e.HistoryStatus, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Fetcher performs one composite stats and history read.
type Fetcher interface {
	Fetch(ctx context.Context, s timefilter.State) (Page, error)
}

var _ Fetcher = (*Client)(nil)

// Client reads from the analysis service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewClient creates a Client for baseURL. A non-positive timeout selects
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("history: invalid base URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: u.String(),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.OrDefault(logger),
	}, nil
}

type response struct {
	status int
	body   []byte
}

// Fetch issues the stats and history requests concurrently and waits for
// both. If either fails the whole fetch fails with a *StatusError carrying
// both status codes.
func (c *Client) Fetch(ctx context.Context, s timefilter.State) (Page, error) {
	query := BuildQuery(s).Encode()
	var stats, hist response
	var g errgroup.Group
	g.Go(func() (err error) {
		stats, err = c.get(ctx, StatsPath, query)
		return err
	})
	g.Go(func() (err error) {
		hist, err = c.get(ctx, AnalysisPath, query)
		return err
	})
	err := g.Wait()
	if err == nil && (!ok(stats.status) || !ok(hist.status)) {
		err = ErrStatus
	}
	if err != nil {
		return Page{}, &StatusError{StatsStatus: stats.status, HistoryStatus: hist.status, Err: err}
	}

	page, err := Interpret(stats.body, hist.body)
	if err != nil {
		return Page{}, &StatusError{StatsStatus: stats.status, HistoryStatus: hist.status, Err: err}
	}
	c.logger.Debug("history fetched", "query", query, "documents", len(page.History),
		"page", page.Pagination.CurrentPage, "pages", page.Pagination.TotalPages)
	return page, nil
}

func (c *Client) get(ctx context.Context, path, query string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return response{}, fmt.Errorf("history: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("history: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("history: read %s: %w", path, err)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }
