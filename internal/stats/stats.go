// Package stats provides deterministic reductions over analysis results.
// Nothing here mutates its input or depends on input order unless stated.
package stats

import (
	"slices"
	"time"

	"github.com/dshills/sowaudit/internal/schema"
)

// Aggregate reduces results into summary statistics. An empty set yields
// the zero Stats.
func Aggregate(results []schema.AnalysisResult) schema.Stats {
	var s schema.Stats
	if len(results) == 0 {
		return s
	}
	var compliance float64
	for _, r := range results {
		s.TotalIssues += r.FailedCount
		compliance += r.Compliance
	}
	s.TotalDocuments = len(results)
	s.AvgCompliance = compliance / float64(s.TotalDocuments)
	s.AvgIssues = float64(s.TotalIssues) / float64(s.TotalDocuments)
	return s
}

// Band is a coarse compliance grade used for display.
type Band int

const (
	BandPoor Band = iota
	BandFair
	BandGood
)

// Band thresholds, inclusive.
const (
	GoodThreshold = 80
	FairThreshold = 50
)

// BandOf grades an unrounded compliance percentage.
func BandOf(compliance float64) Band {
	switch {
	case compliance >= GoodThreshold:
		return BandGood
	case compliance >= FairThreshold:
		return BandFair
	default:
		return BandPoor
	}
}

func (b Band) String() string {
	switch b {
	case BandGood:
		return "good"
	case BandFair:
		return "fair"
	default:
		return "poor"
	}
}

// BelowThreshold reports whether any result scores under minCompliance.
// Used by --fail-under.
func BelowThreshold(results []schema.AnalysisResult, minCompliance float64) bool {
	return slices.ContainsFunc(results, func(r schema.AnalysisResult) bool {
		return r.Compliance < minCompliance
	})
}

// CheckFailure counts how often one check failed.
type CheckFailure struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// FailuresByCheck counts failed issues per check id, most frequent first.
// Ties keep the order in which checks were first seen.
func FailuresByCheck(results []schema.AnalysisResult) []CheckFailure {
	index := make(map[string]int)
	var out []CheckFailure
	for _, r := range results {
		for _, is := range r.Issues {
			if !is.Failed() {
				continue
			}
			i, ok := index[is.ID]
			if !ok {
				i = len(out)
				index[is.ID] = i
				out = append(out, CheckFailure{ID: is.ID, Title: is.Title})
			}
			out[i].Count++
		}
	}
	slices.SortStableFunc(out, func(a, b CheckFailure) int { return b.Count - a.Count })
	return out
}

// TrendPoint is the mean compliance of the documents audited on one day.
type TrendPoint struct {
	Day           time.Time `json:"day"`
	Documents     int       `json:"documents"`
	AvgCompliance float64   `json:"avgCompliance"`
}

// Trend groups results by calendar day in loc, oldest first. A nil loc
// means UTC.
func Trend(results []schema.AnalysisResult, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[time.Time][]schema.AnalysisResult)
	for _, r := range results {
		t := r.Date.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		byDay[day] = append(byDay[day], r)
	}
	out := make([]TrendPoint, 0, len(byDay))
	for day, rs := range byDay {
		s := Aggregate(rs)
		out = append(out, TrendPoint{Day: day, Documents: s.TotalDocuments, AvgCompliance: s.AvgCompliance})
	}
	slices.SortFunc(out, func(a, b TrendPoint) int { return a.Day.Compare(b.Day) })
	return out
}
