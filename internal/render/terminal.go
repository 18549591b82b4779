package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/sowaudit/internal/history"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/stats"
	"github.com/dshills/sowaudit/internal/timefilter"
)

// Styles holds the terminal renderers.
type Styles struct {
	Good   lipgloss.Style
	Fair   lipgloss.Style
	Poor   lipgloss.Style
	Passed lipgloss.Style
	Failed lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
	Card   lipgloss.Style
}

// NewStyles creates styles; colorEnabled false yields plain text.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Good: plain, Fair: plain, Poor: plain,
			Passed: plain, Failed: plain,
			Title: plain, Label: plain, Dim: plain,
			Card: plain.PaddingRight(4),
		}
	}
	return &Styles{
		Good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Fair:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Poor:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Passed: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Title:  lipgloss.NewStyle().Bold(true).Underline(true),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Card:   lipgloss.NewStyle().PaddingRight(4),
	}
}

// Badge renders a compliance value colored by its band.
func (s *Styles) Badge(compliance float64) string {
	var st lipgloss.Style
	switch stats.BandOf(compliance) {
	case stats.BandGood:
		st = s.Good
	case stats.BandFair:
		st = s.Fair
	default:
		st = s.Poor
	}
	return st.Render(Percent(compliance))
}

// WriteResult prints one audit as a terminal report.
func WriteResult(w io.Writer, s *Styles, r schema.AnalysisResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s  %s\n", s.Title.Render(r.FileName), s.Badge(r.Compliance),
		s.Dim.Render(fmt.Sprintf("%d/%d failed", r.FailedCount, r.TotalChecks)))
	for _, is := range r.Issues {
		mark := s.Passed.Render("PASS")
		if is.Failed() {
			mark = s.Failed.Render("FAIL")
		}
		fmt.Fprintf(&sb, "  %s  %-8s %s\n", mark, is.ID, is.Title)
		if !is.Failed() {
			continue
		}
		if is.Description != "" {
			fmt.Fprintf(&sb, "        %s\n", indent(is.Description, "        "))
		}
		if is.Count != nil && *is.Count > 0 {
			fmt.Fprintf(&sb, "        %s %d\n", s.Label.Render("occurrences:"), *is.Count)
		}
		if is.RelevantText != "" {
			fmt.Fprintf(&sb, "        %s %q\n", s.Label.Render("relevant text:"), is.RelevantText)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteHistory prints the stats cards, the page of documents and the
// navigation state of v.
func WriteHistory(w io.Writer, s *Styles, v history.View) error {
	var sb strings.Builder
	cards := []string{
		card(s, "Documents", fmt.Sprintf("%d", v.Stats.TotalDocuments)),
		card(s, "Avg compliance", s.Badge(v.Stats.AvgCompliance)),
		card(s, "Avg issues", fmt.Sprintf("%.1f", v.Stats.AvgIssues)),
		card(s, "Total issues", fmt.Sprintf("%d", v.Stats.TotalIssues)),
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	sb.WriteString("\n\n")

	if v.Err != nil {
		fmt.Fprintf(&sb, "%s %v\n", s.Poor.Render("error:"), v.Err)
	}
	if len(v.History) == 0 {
		sb.WriteString(s.Dim.Render("No documents found for this period."))
		sb.WriteString("\n")
	}
	for _, r := range v.History {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format("Jan 2, 2006")
		}
		fmt.Fprintf(&sb, "  %-12s %s  %s  %s\n", date, s.Badge(r.Compliance), r.FileName,
			s.Dim.Render(fmt.Sprintf("(%d issues, id %s)", r.FailedCount, r.ID)))
	}

	p := v.Pagination.Clamp()
	fmt.Fprintf(&sb, "\nPage %d of %d", p.CurrentPage, p.TotalPages)
	var nav []string
	if v.HasPrevious() {
		nav = append(nav, "previous")
	}
	if v.HasNext() {
		nav = append(nav, "next")
	}
	if len(nav) > 0 {
		fmt.Fprintf(&sb, "  %s", s.Dim.Render("["+strings.Join(nav, ", ")+" available]"))
	}
	sb.WriteString("\n")

	if failures := stats.FailuresByCheck(v.History); len(failures) > 0 {
		sb.WriteString("\nMost frequent failures on this page:\n")
		for i, f := range failures {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "  %3d  %-8s %s\n", f.Count, f.ID, f.Title)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteFilters prints the selectable options for state.
func WriteFilters(w io.Writer, s *Styles, state timefilter.State, opts timefilter.Options) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s year=%s quarter=%s month=%s week=%s page=%d\n", s.Label.Render("selected:"),
		timefilter.FormatLevel(state.Year), timefilter.FormatLevel(state.Quarter),
		monthName(state.Month), timefilter.FormatLevel(state.Week), state.Page)
	fmt.Fprintf(&sb, "%s all %s\n", s.Label.Render("years:   "), joinInts(opts.Years, ""))
	if opts.Quarters != nil {
		fmt.Fprintf(&sb, "%s all %s\n", s.Label.Render("quarters:"), joinInts(opts.Quarters, "Q"))
	}
	if opts.Months != nil {
		names := make([]string, len(opts.Months))
		for i, m := range opts.Months {
			names[i] = fmt.Sprintf("%d=%s", m, monthName(m))
		}
		fmt.Fprintf(&sb, "%s all %s\n", s.Label.Render("months:  "), strings.Join(names, " "))
	}
	if opts.Weeks != nil {
		fmt.Fprintf(&sb, "%s all\n", s.Label.Render("weeks:   "))
		for _, wk := range opts.Weeks {
			fmt.Fprintf(&sb, "  %s\n", wk.Label)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func card(s *Styles, label, value string) string {
	return s.Card.Render(s.Label.Render(label) + "\n" + value)
}

func joinInts(ns []int, prefix string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%s%d", prefix, n)
	}
	return strings.Join(parts, " ")
}

func monthName(m int) string {
	if m < 0 || m > 11 {
		return "all"
	}
	return [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}[m]
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n"+prefix)
}
