package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/sowaudit/internal/history"
	"github.com/dshills/sowaudit/internal/render"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/stats"
	"github.com/dshills/sowaudit/internal/timefilter"
)

// filterFlags hold the raw level values; "" leaves the initial selection.
type filterFlags struct {
	year, quarter, month, week string
	page                       int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.year, "year", "", `year, or "all" (default current year)`)
	fl.StringVar(&f.quarter, "quarter", "", `quarter 1-4, or "all"`)
	fl.StringVar(&f.month, "month", "", `0-indexed month, or "all"`)
	fl.StringVar(&f.week, "week", "", `ISO week number, or "all"`)
	fl.IntVar(&f.page, "page", 1, "1-based page")
}

// state applies the flags to the initial selection in cascade order and
// rejects combinations the cascade could not have produced.
func (f *filterFlags) state(now time.Time) (timefilter.State, error) {
	s := timefilter.NewState(now)
	steps := []struct {
		raw string
		set func(int)
	}{
		{f.year, s.SetYear},
		{f.quarter, s.SetQuarter},
		{f.month, s.SetMonth},
		{f.week, s.SetWeek},
	}
	for _, st := range steps {
		if st.raw == "" {
			continue
		}
		v, err := timefilter.ParseLevel(st.raw)
		if err != nil {
			return s, withCode(exitCodeBadInput, err)
		}
		st.set(v)
	}
	s.SetPage(f.page)
	if err := timefilter.Validate(now, s); err != nil {
		return s, withCode(exitCodeBadInput, err)
	}
	return s, nil
}

type historyFlags struct {
	global *globalFlags
	filter filterFlags
	json   bool
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	f := historyFlags{global: g}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past audits stored by the analysis service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), f, time.Now(), cmd.OutOrStdout())
		},
	}
	f.filter.register(cmd)
	cmd.Flags().BoolVar(&f.json, "json", false, "print the page as JSON")
	return cmd
}

// historyReport is the JSON form of one history page.
type historyReport struct {
	Filter      timefilter.State        `json:"filter"`
	Stats       schema.Stats            `json:"stats"`
	History     []schema.AnalysisResult `json:"history"`
	Pagination  schema.Pagination       `json:"pagination"`
	HasPrevious bool                    `json:"hasPrevious"`
	HasNext     bool                    `json:"hasNext"`
	Failures    []stats.CheckFailure    `json:"failures"`
	Trend       []stats.TrendPoint      `json:"trend"`
}

func runHistory(ctx context.Context, f historyFlags, now time.Time, w io.Writer) error {
	s, err := f.filter.state(now)
	if err != nil {
		return err
	}
	e, err := setup(ctx, f.global)
	if err != nil {
		return err
	}
	defer e.close()

	client, err := history.NewClient(e.cfg.History.BaseURL, e.cfg.History.Timeout, e.logger)
	if err != nil {
		return withCode(exitCodeBadInput, err)
	}
	browser := history.NewBrowser(client, s, e.logger, e.metrics)
	view, err := browser.Load(ctx, s)
	if err != nil {
		return withCode(exitCodeAPIError, err)
	}

	if f.json {
		data, err := render.RenderJSON(historyReport{
			Filter:      view.Filter,
			Stats:       view.Stats,
			History:     view.History,
			Pagination:  view.Pagination.Clamp(),
			HasPrevious: view.HasPrevious(),
			HasNext:     view.HasNext(),
			Failures:    stats.FailuresByCheck(view.History),
			Trend:       stats.Trend(view.History, now.Location()),
		})
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return render.WriteHistory(w, render.NewStyles(colorFor(w)), view)
}

func newFiltersCmd(g *globalFlags) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show the selectable year, quarter, month and week values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilters(cmd.Context(), g, f, time.Now(), cmd.OutOrStdout())
		},
	}
	f.register(cmd)
	return cmd
}

func runFilters(ctx context.Context, g *globalFlags, f filterFlags, now time.Time, w io.Writer) error {
	s, err := f.state(now)
	if err != nil {
		return err
	}
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	opts := timefilter.Compute(now, s, e.cfg.History.YearsBack)
	return render.WriteFilters(w, render.NewStyles(colorFor(w)), s, opts)
}

// colorFor enables styling only for an interactive stdout.
func colorFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == ""
}
