package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/timefilter"
)

const statsJSON = `{"totalDocuments":3,"avgCompliance":76.5,"avgIssues":1.5,"totalIssues":4}`

const historyJSON = `{
  "data": [
    {"id":"a1","file_id":"f1","fileName":"SOW Acme - Portal.docx","date":"2025-08-12T10:00:00Z",
     "issues":[{"id":"check1","title":"Duplicate Headings Check","description":"ok","status":"passed"}],
     "compliance":100,"failedCount":0,"totalChecks":1},
    {"file_id":42,"fileName":"SOW Beta - Data.docx","date":"2025-08-11 09:30:00",
     "issues":[{"id":"check2","title":"Title Format Check","description":"bad","status":"failed","count":0,"relevantText":"Beta"}],
     "compliance":0,"failedCount":1,"totalChecks":1}
  ],
  "pagination":{"currentPage":2,"totalPages":5,"totalDocuments":41}
}`

func TestBuildQuery(t *testing.T) {
	cases := []struct {
		name string
		s    timefilter.State
		want url.Values
	}{
		{
			name: "all years",
			s:    timefilter.State{Year: timefilter.All, Quarter: timefilter.All, Month: timefilter.All, Week: timefilter.All, Page: 1},
			want: url.Values{"page": {"1"}},
		},
		{
			name: "month is sent 1-indexed",
			s:    timefilter.State{Year: 2025, Quarter: 1, Month: 0, Week: timefilter.All, Page: 3},
			want: url.Values{"year": {"2025"}, "quarter": {"1"}, "month": {"1"}, "page": {"3"}},
		},
		{
			name: "full path",
			s:    timefilter.State{Year: 2025, Quarter: 3, Month: 7, Week: 33, Page: 1},
			want: url.Values{"year": {"2025"}, "quarter": {"3"}, "month": {"8"}, "week": {"33"}, "page": {"1"}},
		},
		{
			name: "stale descendants dropped",
			s:    timefilter.State{Year: 2025, Quarter: timefilter.All, Month: 4, Week: 20, Page: 0},
			want: url.Values{"year": {"2025"}, "page": {"1"}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, BuildQuery(c.s))
		})
	}
}

func TestInterpret(t *testing.T) {
	p, err := Interpret([]byte(statsJSON), []byte(historyJSON))
	require.NoError(t, err)

	assert.Equal(t, schema.Stats{TotalDocuments: 3, AvgCompliance: 76.5, AvgIssues: 1.5, TotalIssues: 4}, p.Stats)
	assert.Equal(t, schema.Pagination{CurrentPage: 2, TotalPages: 5, TotalDocuments: 41}, p.Pagination)
	require.Len(t, p.History, 2)

	assert.Equal(t, "a1", p.History[0].ID, "local id wins")
	assert.Equal(t, "42", p.History[1].ID, "falls back to file_id")
	assert.Equal(t, time.Date(2025, 8, 11, 9, 30, 0, 0, time.UTC), p.History[1].Date)
	require.NotNil(t, p.History[1].Issues[0].Count)
	assert.Equal(t, 0, *p.History[1].Issues[0].Count)
	assert.Equal(t, "Beta", p.History[1].Issues[0].RelevantText)
}

func TestInterpret_MissingPaginationAndData(t *testing.T) {
	p, err := Interpret([]byte(statsJSON), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultPagination(), p.Pagination)
	assert.Empty(t, p.History)
}

func TestInterpret_Malformed(t *testing.T) {
	_, err := Interpret([]byte(`nope`), []byte(historyJSON))
	assert.Error(t, err)
	_, err = Interpret([]byte(statsJSON), []byte(`{"data":[{"date":"yesterday"}]}`))
	assert.Error(t, err)
}

func newServer(t *testing.T, statsStatus, historyStatus int) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var mu sync.Mutex
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()
		switch r.URL.Path {
		case StatsPath:
			w.WriteHeader(statsStatus)
			_, _ = w.Write([]byte(statsJSON))
		case AnalysisPath:
			w.WriteHeader(historyStatus)
			_, _ = w.Write([]byte(historyJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestClient_Fetch(t *testing.T) {
	srv, queries := newServer(t, http.StatusOK, http.StatusOK)
	c, err := NewClient(srv.URL+"/", time.Second, logging.NewWithWriter(nilWriter{}, "error"))
	require.NoError(t, err)

	s := timefilter.State{Year: 2025, Quarter: 3, Month: 7, Week: timefilter.All, Page: 2}
	p, err := c.Fetch(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stats.TotalDocuments)
	assert.Len(t, p.History, 2)

	require.Len(t, *queries, 2)
	for _, q := range *queries {
		assert.Equal(t, BuildQuery(s), q)
	}
}

func TestClient_FetchFailsWhole(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, http.StatusInternalServerError)
	c, err := NewClient(srv.URL, time.Second, nil)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), timefilter.NewState(time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusOK, se.StatsStatus)
	assert.Equal(t, http.StatusInternalServerError, se.HistoryStatus)
}

func TestClient_TransportError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, http.StatusOK)
	addr := srv.URL
	srv.Close()
	c, err := NewClient(addr, time.Second, nil)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), timefilter.NewState(time.Now()))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, se.StatsStatus)
	assert.Zero(t, se.HistoryStatus)
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "::"} {
		_, err := NewClient(u, 0, nil)
		assert.Error(t, err, u)
	}
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

// gatedFetcher blocks each call until its gate is released. It ignores
// cancellation when ignoreCancel is set, to exercise the sequence guard.
type gatedFetcher struct {
	mu           sync.Mutex
	gates        map[int]chan Page
	started      chan int
	ignoreCancel bool
}

func newGatedFetcher(ignoreCancel bool) *gatedFetcher {
	return &gatedFetcher{gates: make(map[int]chan Page), started: make(chan int, 8), ignoreCancel: ignoreCancel}
}

func (f *gatedFetcher) gate(page int) chan Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[page]
	if !ok {
		g = make(chan Page, 1)
		f.gates[page] = g
	}
	return g
}

func (f *gatedFetcher) Fetch(ctx context.Context, s timefilter.State) (Page, error) {
	g := f.gate(s.Page)
	f.started <- s.Page
	if f.ignoreCancel {
		return <-g, nil
	}
	select {
	case p := <-g:
		return p, nil
	case <-ctx.Done():
		return Page{}, ctx.Err()
	}
}

func pageOf(n int) Page {
	return Page{
		Stats:      schema.Stats{TotalDocuments: n},
		History:    []schema.AnalysisResult{{ID: "doc", FileName: "page"}},
		Pagination: schema.Pagination{CurrentPage: n, TotalPages: 9, TotalDocuments: 90},
	}
}

func TestBrowser_StaleResponseRejected(t *testing.T) {
	for _, ignoreCancel := range []bool{false, true} {
		f := newGatedFetcher(ignoreCancel)
		b := NewBrowser(f, timefilter.NewState(time.Now()), logging.NewWithWriter(nilWriter{}, "error"), nil)

		first := timefilter.NewState(time.Now())
		first.SetPage(1)
		second := first
		second.SetPage(2)

		firstDone := make(chan error, 1)
		go func() {
			_, err := b.Load(context.Background(), first)
			firstDone <- err
		}()
		require.Equal(t, 1, <-f.started)
		assert.True(t, b.Snapshot().Loading)

		secondDone := make(chan error, 1)
		go func() {
			_, err := b.Load(context.Background(), second)
			secondDone <- err
		}()
		require.Equal(t, 2, <-f.started)

		f.gate(2) <- pageOf(2)
		require.NoError(t, <-secondDone)

		// The older request settles last.
		f.gate(1) <- pageOf(1)
		assert.ErrorIs(t, <-firstDone, ErrSuperseded, "ignoreCancel=%v", ignoreCancel)

		v := b.Snapshot()
		assert.False(t, v.Loading)
		assert.Equal(t, 2, v.Stats.TotalDocuments, "ignoreCancel=%v", ignoreCancel)
		assert.Equal(t, 2, v.Pagination.CurrentPage)
		assert.Equal(t, 2, v.Filter.Page)
	}
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(context.Context, timefilter.State) (Page, error) { return Page{}, f.err }

type staticFetcher struct{ page Page }

func (f staticFetcher) Fetch(_ context.Context, s timefilter.State) (Page, error) {
	p := f.page
	p.Pagination.CurrentPage = s.Page
	return p, nil
}

func TestBrowser_FailureResetsVisibleState(t *testing.T) {
	fetchErr := &StatusError{StatsStatus: 200, HistoryStatus: 502, Err: ErrStatus}
	b := NewBrowser(failingFetcher{err: fetchErr}, timefilter.NewState(time.Now()), logging.NewWithWriter(nilWriter{}, "error"), nil)
	b.view.Stats = schema.Stats{TotalDocuments: 7}
	b.view.History = []schema.AnalysisResult{{ID: "old"}}

	v, err := b.Load(context.Background(), timefilter.NewState(time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, schema.Stats{}, v.Stats)
	assert.Empty(t, v.History)
	assert.False(t, v.Loading)
	assert.Equal(t, err, v.Err)
}

func TestBrowser_Paging(t *testing.T) {
	b := NewBrowser(staticFetcher{page: pageOf(1)}, timefilter.NewState(time.Now()), nil, nil)
	ctx := context.Background()

	v, err := b.Load(ctx, b.Snapshot().Filter)
	require.NoError(t, err)
	assert.False(t, v.HasPrevious())
	assert.True(t, v.HasNext())

	v, err = b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Filter.Page)
	assert.True(t, v.HasPrevious())

	v, err = b.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Filter.Page)

	v, err = b.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Filter.Page, "no page before the first")
}

func TestBrowser_ApplyCascades(t *testing.T) {
	b := NewBrowser(staticFetcher{page: pageOf(1)}, timefilter.State{Year: 2025, Quarter: 3, Month: 7, Week: 33, Page: 4}, nil, nil)
	v, err := b.Apply(context.Background(), func(s *timefilter.State) { s.SetQuarter(2) })
	require.NoError(t, err)
	assert.Equal(t, timefilter.State{Year: 2025, Quarter: 2, Month: timefilter.All, Week: timefilter.All, Page: 1}, v.Filter)
}
