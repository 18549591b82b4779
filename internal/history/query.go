// Package history reads audit statistics and paginated audit history from
// the remote analysis service, scoped by a timefilter.State.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/timefilter"
)

// Page is one interpreted response pair.
type Page struct {
	Stats      schema.Stats            `json:"stats"`
	History    []schema.AnalysisResult `json:"history"`
	Pagination schema.Pagination       `json:"pagination"`
}

// BuildQuery encodes s for both endpoints. Only narrowed levels are sent,
// the month goes out 1-indexed, and page is always present.
func BuildQuery(s timefilter.State) url.Values {
	s = s.Effective()
	q := url.Values{}
	if s.Year != timefilter.All {
		q.Set("year", strconv.Itoa(s.Year))
	}
	if s.Quarter != timefilter.All {
		q.Set("quarter", strconv.Itoa(s.Quarter))
	}
	if s.Month != timefilter.All {
		q.Set("month", strconv.Itoa(s.Month+1))
	}
	if s.Week != timefilter.All {
		q.Set("week", strconv.Itoa(s.Week))
	}
	q.Set("page", strconv.Itoa(s.Page))
	return q
}

// remoteID accepts a JSON string or number.
type remoteID string

func (r *remoteID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = remoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("history: id %s is neither string nor number", b)
	}
	*r = remoteID(n.String())
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// remoteTime accepts RFC 3339 and the common SQL timestamp layouts.
type remoteTime time.Time

func (r *remoteTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("history: date: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*r = remoteTime{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*r = remoteTime(t)
			return nil
		}
	}
	return fmt.Errorf("history: unrecognized date %q", s)
}

type remoteRecord struct {
	ID             remoteID       `json:"id"`
	FileID         remoteID       `json:"file_id"`
	FileName       string         `json:"fileName"`
	Date           remoteTime     `json:"date"`
	Issues         []schema.Issue `json:"issues"`
	Compliance     float64        `json:"compliance"`
	FailedCount    int            `json:"failedCount"`
	TotalChecks    int            `json:"totalChecks"`
	DocHTMLContent string         `json:"docHtmlContent"`
}

type remoteHistory struct {
	Data       []remoteRecord     `json:"data"`
	Pagination *schema.Pagination `json:"pagination"`
}

// Interpret decodes a stats body and a history body. Each record's id falls
// back to its file_id. Pagination is taken as sent; a missing block means a
// single empty page.
func Interpret(statsBody, historyBody []byte) (Page, error) {
	var p Page
	if err := json.Unmarshal(statsBody, &p.Stats); err != nil {
		return Page{}, fmt.Errorf("history: decode stats: %w", err)
	}
	var h remoteHistory
	if err := json.Unmarshal(historyBody, &h); err != nil {
		return Page{}, fmt.Errorf("history: decode history: %w", err)
	}
	p.History = make([]schema.AnalysisResult, 0, len(h.Data))
	for _, r := range h.Data {
		id := string(r.ID)
		if id == "" {
			id = string(r.FileID)
		}
		p.History = append(p.History, schema.AnalysisResult{
			ID:             id,
			FileName:       r.FileName,
			Date:           time.Time(r.Date),
			Issues:         r.Issues,
			Compliance:     r.Compliance,
			FailedCount:    r.FailedCount,
			TotalChecks:    r.TotalChecks,
			DocHTMLContent: r.DocHTMLContent,
		})
	}
	p.Pagination = schema.DefaultPagination()
	if h.Pagination != nil {
		p.Pagination = *h.Pagination
	}
	return p, nil
}
