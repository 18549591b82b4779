// Package schema defines the canonical data types shared by the auditor,
// the aggregator, the history client and the renderers.
package schema

import "time"

// Status is the pass/fail outcome of one check against one document.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// CheckDefinition is a single auditable rule. Prompt is a natural-language
// rubric template sent to the judge.
type CheckDefinition struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Issue is the structured outcome of one check. Count and RelevantText are
// only set when the judge output carried them.
type Issue struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       Status `json:"status"`
	Count        *int   `json:"count,omitempty"`
	RelevantText string `json:"relevantText,omitempty"`
}

// Failed reports whether the issue counts against compliance.
func (i Issue) Failed() bool {
	return i.Status != StatusPassed
}

// AnalysisResult is the audit record of one document.
type AnalysisResult struct {
	ID             string    `json:"id"`
	FileName       string    `json:"fileName"`
	Date           time.Time `json:"date"`
	Issues         []Issue   `json:"issues"`
	Compliance     float64   `json:"compliance"`
	FailedCount    int       `json:"failedCount"`
	TotalChecks    int       `json:"totalChecks"`
	DocHTMLContent string    `json:"docHtmlContent,omitempty"`
}

// NewAnalysisResult derives FailedCount, TotalChecks and Compliance from
// issues. A result with no issues has compliance 0.
func NewAnalysisResult(id, fileName string, date time.Time, issues []Issue) AnalysisResult {
	failed := 0
	for _, is := range issues {
		if is.Failed() {
			failed++
		}
	}
	return AnalysisResult{
		ID:          id,
		FileName:    fileName,
		Date:        date,
		Issues:      issues,
		Compliance:  Compliance(len(issues), failed),
		FailedCount: failed,
		TotalChecks: len(issues),
	}
}

// Compliance returns the unrounded percentage of passed checks.
func Compliance(totalChecks, failedCount int) float64 {
	if totalChecks <= 0 {
		return 0
	}
	return 100 * float64(totalChecks-failedCount) / float64(totalChecks)
}

// Stats summarizes a set of analysis results.
type Stats struct {
	TotalDocuments int     `json:"totalDocuments"`
	AvgCompliance  float64 `json:"avgCompliance"`
	AvgIssues      float64 `json:"avgIssues"`
	TotalIssues    int     `json:"totalIssues"`
}

// Pagination describes one page of history as reported by the analysis service.
type Pagination struct {
	CurrentPage    int `json:"currentPage"`
	TotalPages     int `json:"totalPages"`
	TotalDocuments int `json:"totalDocuments"`
}

// DefaultPagination is used when the service omits pagination.
func DefaultPagination() Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1}
}

// Clamp bounds TotalPages to at least 1 and CurrentPage into [1, TotalPages].
func (p Pagination) Clamp() Pagination {
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.CurrentPage > p.TotalPages {
		p.CurrentPage = p.TotalPages
	}
	if p.TotalDocuments < 0 {
		p.TotalDocuments = 0
	}
	return p
}

// HasPrevious reports whether a previous page may be requested. No
// navigation is allowed while a request is in flight.
func (p Pagination) HasPrevious(loading bool) bool {
	return !loading && p.CurrentPage > 1
}

// HasNext reports whether a next page may be requested.
func (p Pagination) HasNext(loading bool) bool {
	return !loading && p.CurrentPage < p.TotalPages
}
