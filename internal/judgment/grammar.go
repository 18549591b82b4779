// Package judgment turns the judge's free-text answers into structured
// issues. Each check id maps to a Rule; ids without a rule use a lenient
// leading yes/no heuristic.
package judgment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognized is returned by a strict grammar when no clause matches.
var ErrUnrecognized = errors.New("judgment: unrecognized judge output")

// ErrEmpty is returned by a strict grammar for a blank answer.
var ErrEmpty = errors.New("judgment: empty judge output")

// Verdict is what a Rule extracts from one answer.
type Verdict struct {
	Passed       bool
	Description  string
	Count        *int
	RelevantText string
}

// Rule parses one check's answer. An error means the answer could not be
// interpreted at all.
type Rule interface {
	Parse(raw string) (Verdict, error)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(raw string) (Verdict, error)

// Parse calls f.
func (f RuleFunc) Parse(raw string) (Verdict, error) { return f(raw) }

// Clause maps a discriminating pattern to an outcome.
type Clause struct {
	Pattern *regexp.Regexp
	Passed  bool
}

// Grammar is a Rule made of ordered clauses; the first clause that matches
// decides the outcome.
type Grammar struct {
	Clauses []Clause
	// Lenient turns an unmatched or empty answer into a failure carrying the
	// raw text instead of an error.
	Lenient bool
	// Lists counts bulleted or numbered findings on failure and quotes the
	// first one as the relevant text.
	Lists bool
	// Excerpt, when set, captures the relevant text from its first group.
	Excerpt *regexp.Regexp
}

var (
	leadingYes = regexp.MustCompile(`(?i)^yes\b`)
	leadingNo  = regexp.MustCompile(`(?i)^no\b`)
)

// YesNo returns the clauses for a leading "Yes" (passed) / "No" (failed).
func YesNo() []Clause {
	return []Clause{{Pattern: leadingYes, Passed: true}, {Pattern: leadingNo, Passed: false}}
}

// Inverted returns the clauses for checks where "Yes" flags a problem.
func Inverted() []Clause {
	return []Clause{{Pattern: leadingYes, Passed: false}, {Pattern: leadingNo, Passed: true}}
}

// Parse implements Rule.
func (g Grammar) Parse(raw string) (Verdict, error) {
	text := normalize(raw)
	if text == "" {
		if g.Lenient {
			return Verdict{Passed: false, Description: strings.TrimSpace(raw)}, nil
		}
		return Verdict{}, ErrEmpty
	}

	for _, c := range g.Clauses {
		loc := c.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		v := Verdict{Passed: c.Passed}
		// A clause matched mid-answer keeps the whole answer: the text before
		// the match usually names the findings.
		rest := text
		if loc[0] == 0 {
			if r, ok := remainder(text[loc[1]:]); ok {
				rest = r
			}
		}
		v.Description = unquote(rest)
		v.Count = extractCount(text)
		v.RelevantText = extractRelevant(text, g.Excerpt)
		if g.Lists && !v.Passed {
			items := listItems(text)
			if v.Count == nil && len(items) > 0 {
				n := len(items)
				v.Count = &n
			}
			if v.RelevantText == "" && len(items) > 0 {
				v.RelevantText = items[0]
			}
		}
		return v, nil
	}

	if g.Lenient {
		return Verdict{Passed: false, Description: strings.TrimSpace(raw)}, nil
	}
	return Verdict{}, ErrUnrecognized
}

// fenceRe matches an answer wrapped in a markdown code fence.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// normalize strips surrounding whitespace, a wrapping code fence or pair of
// quotes, and leading emphasis markers so the discriminator sits at offset 0.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = stripWrappingQuotes(s)
	return strings.TrimLeft(s, " \t\r\n*_`>#\"“")
}

// remainder returns what follows a leading discriminator when it is set off
// by punctuation ("No, the title..."). Without a separator ("No Fees
// Breakdown section...") the discriminator is part of the sentence and the
// caller keeps the whole text. Only the discriminator's own line is trimmed,
// so a following bullet list keeps its markers.
func remainder(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t*_")
	if s == "" || !strings.ContainsAny(s[:1], ",.:;!-") && !strings.HasPrefix(s, "–") && !strings.HasPrefix(s, "—") {
		return "", false
	}
	r := strings.TrimSpace(strings.TrimLeft(s, " \t*_,.:;!-–—"))
	return r, r != ""
}

// unquote drops trailing emphasis and a wrapping pair of quotes.
func unquote(s string) string {
	return stripWrappingQuotes(strings.TrimRight(s, " \t\r\n*_"))
}

// stripWrappingQuotes removes one pair of quotes around s, but only when
// they are the only quotes of that kind, so inner quoted excerpts survive.
func stripWrappingQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) <= len(q[0])+len(q[1]) || !strings.HasPrefix(s, q[0]) || !strings.HasSuffix(s, q[1]) {
			continue
		}
		inner := s[len(q[0]) : len(s)-len(q[1])]
		if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
			return strings.TrimSpace(inner)
		}
	}
	return s
}

// countPatterns are tried in order; the first hit wins.
var countPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s+occurrences(?:\s+found)?\**\s*[:=]\s*\**\s*(\d+)`),
	regexp.MustCompile(`(?i)total\s+duplicates?\**\s*[:=]\s*\**\s*(\d+)`),
	regexp.MustCompile(`(?i)\b(\d+)\s+(?:(?:issues?|errors?|instances?|occurrences?|items?)\s+)?found\b`),
	regexp.MustCompile(`(?i)\bcount\s*[:=]\s*(\d+)`),
}

func extractCount(text string) *int {
	for _, re := range countPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			continue
		}
		return &n
	}
	return nil
}

var relevantRe = regexp.MustCompile(`(?i)relevant\s+text\s*:\s*(?:"([^"\n]+)"|“([^”\n]+)”)`)

func extractRelevant(text string, excerpt *regexp.Regexp) string {
	if m := relevantRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	if excerpt != nil {
		if m := excerpt.FindStringSubmatch(text); len(m) > 1 {
			return strings.Trim(strings.TrimSpace(m[1]), `"'*`)
		}
	}
	return ""
}

var listItemRe = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d+[.)])[ \t]+(.+?)[ \t]*$`)

func listItems(text string) []string {
	var out []string
	for _, m := range listItemRe.FindAllStringSubmatch(text, -1) {
		item := strings.Trim(strings.TrimSpace(m[1]), `"“”`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
