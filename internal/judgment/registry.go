package judgment

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/dshills/sowaudit/internal/schema"
)

// Registry maps check ids to rules. Unknown ids use the fallback rule.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]Rule
	fallback Rule
}

// Fallback is the rule for checks without a registered grammar: leading
// "yes" passes, leading "no" fails, anything else fails with the raw text.
var Fallback Rule = Grammar{Clauses: YesNo(), Lenient: true}

// NewRegistry creates an empty registry. A nil fallback selects Fallback.
func NewRegistry(fallback Rule) *Registry {
	if fallback == nil {
		fallback = Fallback
	}
	return &Registry{rules: make(map[string]Rule), fallback: fallback}
}

// Register adds or replaces the rule for checkID.
func (r *Registry) Register(checkID string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[checkID] = rule
}

// Rule returns the rule registered for checkID.
func (r *Registry) Rule(checkID string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[checkID]
	return rule, ok
}

// Parse converts raw into an Issue for checkID. It never fails: an answer
// the rule cannot interpret becomes a degraded failed Issue.
func (r *Registry) Parse(checkID, raw string) schema.Issue {
	is, _ := r.interpret(checkID, raw)
	return is
}

// Interpret is Parse with the check's title filled in. It also reports why
// an Issue was degraded; the returned Issue is usable either way.
func (r *Registry) Interpret(def schema.CheckDefinition, raw string) (schema.Issue, error) {
	is, err := r.interpret(def.ID, raw)
	is.Title = def.Title
	return is, err
}

func (r *Registry) interpret(checkID, raw string) (schema.Issue, error) {
	rule, ok := r.Rule(checkID)
	if !ok {
		rule = r.fallback
	}
	v, err := rule.Parse(raw)
	if err != nil {
		return Degraded(checkID, fmt.Sprintf("Could not interpret the judge's answer (%v).", err)), err
	}
	return schema.Issue{
		ID:           checkID,
		Description:  v.Description,
		Status:       status(v.Passed),
		Count:        v.Count,
		RelevantText: v.RelevantText,
	}, nil
}

// Degraded builds the failed Issue recorded when a check could not be
// evaluated. It carries no count or excerpt.
func Degraded(checkID, description string) schema.Issue {
	return schema.Issue{ID: checkID, Description: description, Status: schema.StatusFailed}
}

func status(passed bool) schema.Status {
	if passed {
		return schema.StatusPassed
	}
	return schema.StatusFailed
}

var (
	headingsUnique   = regexp.MustCompile(`(?i)all\s+identified\s+headings\s+are\s+unique`)
	headingDuplicate = regexp.MustCompile(`(?i)\bduplicate`)
	countCorrect     = regexp.MustCompile(`(?i)\bthe\s+count\s+is\s+correct\b`)
	countIncorrect   = regexp.MustCompile(`(?i)\bthe\s+count\s+is\s+incorrect\b`)
	customerName     = regexp.MustCompile(`(?i)extracted\s+customer\s+name\**\s*:\s*\**\s*([^\n]+)`)
	notCompleted     = regexp.MustCompile(`(?i)could\s+not\s+be\s+completed`)
)

// DefaultRegistry returns a registry with grammars for the built-in checks.
func DefaultRegistry() *Registry {
	r := NewRegistry(nil)
	yesNo := Grammar{Clauses: YesNo()}
	withFindings := Grammar{Clauses: YesNo(), Lists: true}

	r.Register("check1", Grammar{Clauses: []Clause{
		{Pattern: headingsUnique, Passed: true},
		{Pattern: headingDuplicate, Passed: false},
	}})
	r.Register("check2", yesNo)
	r.Register("check3", withFindings)
	r.Register("check4", yesNo)
	r.Register("check5", yesNo)
	r.Register("check6", Grammar{
		Clauses: []Clause{
			{Pattern: countCorrect, Passed: true},
			{Pattern: countIncorrect, Passed: false},
		},
		Excerpt: customerName,
	})
	r.Register("check7", withFindings)
	r.Register("check8", yesNo)
	r.Register("check9", withFindings)
	r.Register("check10", withFindings)
	r.Register("check11", withFindings)
	r.Register("check12", yesNo)
	r.Register("check13", Grammar{Clauses: append(YesNo(), Clause{Pattern: notCompleted, Passed: false})})
	r.Register("check14", yesNo)
	r.Register("check15", yesNo)
	// Finding special handling language is what the reviewer must act on.
	r.Register("check16", Grammar{Clauses: Inverted(), Lists: true})
	return r
}
