package judgment

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/sowaudit/internal/schema"
)

func TestRegistry_FallbackForUnknownID(t *testing.T) {
	r := DefaultRegistry()
	is := r.Parse("check_unknown_id", "No, something is wrong")
	if is.Status != schema.StatusFailed {
		t.Errorf("Status = %s, want failed", is.Status)
	}
	if !strings.Contains(is.Description, "something is wrong") {
		t.Errorf("Description = %q", is.Description)
	}
	if is.ID != "check_unknown_id" {
		t.Errorf("ID = %q", is.ID)
	}

	is = r.Parse("check_unknown_id", "Looks fine to me")
	if is.Status != schema.StatusFailed || is.Description != "Looks fine to me" {
		t.Errorf("unrecognized fallback answer: %+v", is)
	}
}

// Sample answers in the shape each built-in prompt asks for.
func TestDefaultRegistry_SampleAnswers(t *testing.T) {
	r := DefaultRegistry()
	cases := []struct {
		name     string
		id       string
		raw      string
		status   schema.Status
		count    *int
		relevant string
	}{
		{
			name:   "check1 unique headings",
			id:     "check1",
			raw:    "1. Introduction\n2. Scope\n\nDuplicate check: All identified headings are unique.",
			status: schema.StatusPassed,
		},
		{
			name:   "check1 duplicates",
			id:     "check1",
			raw:    "Identified headings:\n1. Scope\n2. Scope\n\nDuplicate headings found:\n- Scope (Count: 2)\nTotal duplicates: 1",
			status: schema.StatusFailed,
			count:  intPtr(1),
		},
		{
			name:     "check2 bad title",
			id:       "check2",
			raw:      `No, the title format is incorrect. Relevant text: "SOW-Acme Website"`,
			status:   schema.StatusFailed,
			relevant: "SOW-Acme Website",
		},
		{
			name:   "check5 fees present",
			id:     "check5",
			raw:    "**Yes**, a Fees Breakdown table is present.",
			status: schema.StatusPassed,
		},
		{
			name:     "check6 correct count",
			id:       "check6",
			raw:      "1. Extracted Customer Name: Acme Corp\n2. Total Occurrences Found: 2\n3. Evaluation: The count is correct.",
			status:   schema.StatusPassed,
			count:    intPtr(2),
			relevant: "Acme Corp",
		},
		{
			name:     "check6 incorrect count",
			id:       "check6",
			raw:      "1. Extracted Customer Name: Acme Corp\n2. Total Occurrences Found: 5\n3. Evaluation: The count is incorrect. Total occurrences: 5.",
			status:   schema.StatusFailed,
			count:    intPtr(5),
			relevant: "Acme Corp",
		},
		{
			name:     "check7 language errors",
			id:       "check7",
			raw:      "No,\n- Spelling error: 'recieve' (should be 'receive')\n- Grammar error: 'The team was go.'",
			status:   schema.StatusFailed,
			count:    intPtr(2),
			relevant: "Spelling error: 'recieve' (should be 'receive')",
		},
		{
			name:   "check7 clean",
			id:     "check7",
			raw:    "Yes, there are no spelling or grammar errors.",
			status: schema.StatusPassed,
		},
		{
			name:   "check13 incomplete",
			id:     "check13",
			raw:    "The check could not be completed: the Milestones section is missing.",
			status: schema.StatusFailed,
		},
		{
			name:     "check16 special handling found",
			id:       "check16",
			raw:      "Yes, special handling language was found.\n- GDPR\n- HIPAA",
			status:   schema.StatusFailed,
			count:    intPtr(2),
			relevant: "GDPR",
		},
		{
			name:   "check16 nothing found",
			id:     "check16",
			raw:    "No, no special handling language was found.",
			status: schema.StatusPassed,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := r.Parse(c.id, c.raw)
			if is.Status != c.status {
				t.Errorf("Status = %s, want %s (description %q)", is.Status, c.status, is.Description)
			}
			if !sameCount(is.Count, c.count) {
				t.Errorf("Count = %v, want %v", is.Count, c.count)
			}
			if is.RelevantText != c.relevant {
				t.Errorf("RelevantText = %q, want %q", is.RelevantText, c.relevant)
			}
			if strings.HasPrefix(is.Description, "Could not interpret") {
				t.Errorf("answer was degraded: %q", is.Description)
			}
		})
	}
}

func TestDefaultRegistry_DegradesUninterpretable(t *testing.T) {
	r := DefaultRegistry()
	for _, raw := range []string{"", "   ", "I am not sure.", "Perhaps the document is fine."} {
		is := r.Parse("check2", raw)
		if is.Status != schema.StatusFailed {
			t.Errorf("Parse(%q).Status = %s, want failed", raw, is.Status)
		}
		if !strings.HasPrefix(is.Description, "Could not interpret") {
			t.Errorf("Parse(%q).Description = %q", raw, is.Description)
		}
		if is.Count != nil || is.RelevantText != "" {
			t.Errorf("degraded issue should carry no details: %+v", is)
		}
	}
}

func TestDefaultRegistry_CoversBuiltins(t *testing.T) {
	r := DefaultRegistry()
	for i := 1; i <= 16; i++ {
		id := "check" + strconv.Itoa(i)
		if _, ok := r.Rule(id); !ok {
			t.Errorf("no rule registered for %s", id)
		}
	}
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("custom", RuleFunc(func(string) (Verdict, error) {
		return Verdict{Passed: true, Description: "always"}, nil
	}))
	is, err := r.Interpret(schema.CheckDefinition{ID: "custom", Title: "Custom"}, "No")
	if err != nil {
		t.Fatal(err)
	}
	if is.Status != schema.StatusPassed || is.Title != "Custom" || is.Description != "always" {
		t.Errorf("got %+v", is)
	}
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := DefaultRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register("extra"+strconv.Itoa(i), Grammar{Clauses: YesNo()})
			_ = r.Parse("check2", "Yes, fine.")
		}(i)
	}
	wg.Wait()
}

func TestRegistry_InterpretReportsDegradation(t *testing.T) {
	r := DefaultRegistry()
	def := schema.CheckDefinition{ID: "check2", Title: "Title Format"}

	is, err := r.Interpret(def, "Yes, the title format is correct.")
	if err != nil || is.Status != schema.StatusPassed || is.Title != "Title Format" {
		t.Errorf("got %+v, %v", is, err)
	}

	is, err = r.Interpret(def, "unsure")
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("err = %v, want ErrUnrecognized", err)
	}
	if is.Status != schema.StatusFailed || is.Title != "Title Format" {
		t.Errorf("degraded issue = %+v", is)
	}
}
