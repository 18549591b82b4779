package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/metrics"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/timefilter"
)

// ErrSuperseded is returned by a Load whose result was discarded because a
// newer Load started after it.
var ErrSuperseded = errors.New("history: superseded by a newer request")

// View is the visible browsing state.
type View struct {
	Filter     timefilter.State
	Loading    bool
	Stats      schema.Stats
	History    []schema.AnalysisResult
	Pagination schema.Pagination
	Err        error
}

// HasPrevious reports whether the previous page may be requested.
func (v View) HasPrevious() bool { return v.Pagination.Clamp().HasPrevious(v.Loading) }

// HasNext reports whether the next page may be requested.
func (v View) HasNext() bool { return v.Pagination.Clamp().HasNext(v.Loading) }

// Browser applies filter and page changes. Each Load cancels the one before
// it, and only the most recently started Load may change the View.
type Browser struct {
	fetcher Fetcher
	logger  *log.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	view   View
}

// NewBrowser creates a Browser showing nothing for initial until the first Load.
func NewBrowser(f Fetcher, initial timefilter.State, logger *log.Logger, m *metrics.Metrics) *Browser {
	return &Browser{
		fetcher: f,
		logger:  logging.OrDefault(logger),
		metrics: m,
		view:    View{Filter: initial, Pagination: schema.DefaultPagination()},
	}
}

// Snapshot returns the current View.
func (b *Browser) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Load fetches s and, if no newer Load has started meanwhile, makes it the
// visible state. Loading stays set until both reads settle. On failure the
// stats are zeroed and the history emptied.
func (b *Browser) Load(ctx context.Context, s timefilter.State) (View, error) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	if b.cancel != nil {
		b.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.cancel = cancel
	b.view.Filter = s
	b.view.Loading = true
	b.mu.Unlock()

	start := time.Now()
	page, err := b.fetcher.Fetch(fctx, s)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		b.metrics.ObserveFetch("superseded", time.Since(start))
		b.logger.Debug("discarding stale history response", "seq", seq, "latest", b.seq)
		return b.view, ErrSuperseded
	}
	b.cancel = nil
	b.view.Loading = false
	if err != nil {
		b.metrics.ObserveFetch("error", time.Since(start))
		var se *StatusError
		if errors.As(err, &se) {
			b.logger.Error("history fetch failed", "stats_status", se.StatsStatus, "history_status", se.HistoryStatus, "err", se.Err)
		} else {
			b.logger.Error("history fetch failed", "err", err)
		}
		b.view.Stats = schema.Stats{}
		b.view.History = nil
		b.view.Pagination = schema.DefaultPagination()
		b.view.Err = err
		return b.view, err
	}
	b.metrics.ObserveFetch("ok", time.Since(start))
	b.view.Stats = page.Stats
	b.view.History = page.History
	b.view.Pagination = page.Pagination
	b.view.Err = nil
	return b.view, nil
}

// Apply changes the current filter with fn and loads the result.
func (b *Browser) Apply(ctx context.Context, fn func(*timefilter.State)) (View, error) {
	s := b.Snapshot().Filter
	fn(&s)
	return b.Load(ctx, s)
}

// Next loads the following page. It does nothing while loading or on the last page.
func (b *Browser) Next(ctx context.Context) (View, error) {
	v := b.Snapshot()
	if !v.HasNext() {
		return v, nil
	}
	return b.Apply(ctx, func(s *timefilter.State) { s.SetPage(v.Pagination.Clamp().CurrentPage + 1) })
}

// Previous loads the preceding page. It does nothing while loading or on the first page.
func (b *Browser) Previous(ctx context.Context) (View, error) {
	v := b.Snapshot()
	if !v.HasPrevious() {
		return v, nil
	}
	return b.Apply(ctx, func(s *timefilter.State) { s.SetPage(v.Pagination.Clamp().CurrentPage - 1) })
}
