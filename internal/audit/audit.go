// Package audit runs a document through every check in a catalog and
// assembles the judged answers into one AnalysisResult.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/sowaudit/internal/judgment"
	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/metrics"
	"github.com/dshills/sowaudit/internal/schema"
)

// DefaultConcurrency bounds the number of judge calls in flight per document.
const DefaultConcurrency = 4

// Judge evaluates one check prompt and returns free text.
type Judge interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
}

// Clock supplies the audit timestamp.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Document is the plain-text input to an audit. HTML is carried through to
// the result untouched.
type Document struct {
	FileName string
	Text     string
	HTML     string
}

// Auditor evaluates documents against a check catalog.
type Auditor struct {
	judge       Judge
	registry    *judgment.Registry
	clock       Clock
	newID       func() string
	logger      *log.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithRegistry replaces the default grammar registry.
func WithRegistry(r *judgment.Registry) Option { return func(a *Auditor) { a.registry = r } }

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(a *Auditor) { a.clock = c } }

// WithIDGenerator replaces the UUID generator for result ids.
func WithIDGenerator(f func() string) Option { return func(a *Auditor) { a.newID = f } }

// WithLogger sets the logger. Without one the auditor logs to the logger
// carried by the audit context, or the default logger.
func WithLogger(l *log.Logger) Option { return func(a *Auditor) { a.logger = l } }

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option { return func(a *Auditor) { a.metrics = m } }

// WithConcurrency bounds concurrent judge calls. Values below 1 mean 1.
func WithConcurrency(n int) Option { return func(a *Auditor) { a.concurrency = max(n, 1) } }

// New creates an Auditor that sends prompts to judge.
func New(judge Judge, opts ...Option) *Auditor {
	a := &Auditor{
		judge:       judge,
		registry:    judgment.DefaultRegistry(),
		clock:       SystemClock{},
		newID:       uuid.NewString,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Audit evaluates doc against checks. Issues follow catalog order. A check
// whose judge call fails or whose answer cannot be interpreted is recorded
// as a degraded failed Issue; only cancellation of ctx fails the audit.
func (a *Auditor) Audit(ctx context.Context, doc Document, checks []schema.CheckDefinition) (schema.AnalysisResult, error) {
	logger := a.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	if len(checks) == 0 {
		logger.Warn("auditing with an empty catalog", "file", doc.FileName)
	}
	issues := make([]schema.Issue, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, def := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			is, err := a.runCheck(gctx, logger, doc, def)
			if err != nil {
				return err
			}
			issues[i] = is
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.AnalysisResult{}, fmt.Errorf("audit: %s: %w", doc.FileName, err)
	}

	res := schema.NewAnalysisResult(a.newID(), doc.FileName, a.clock.Now(), issues)
	res.DocHTMLContent = doc.HTML
	a.metrics.ObserveDocument(res.Compliance)
	logger.Info("document audited",
		"file", doc.FileName,
		"checks", res.TotalChecks,
		"failed", res.FailedCount,
		"compliance", fmt.Sprintf("%.1f", res.Compliance))
	return res, nil
}

// runCheck returns an error only when ctx is done.
func (a *Auditor) runCheck(ctx context.Context, logger *log.Logger, doc Document, def schema.CheckDefinition) (schema.Issue, error) {
	start := time.Now()
	raw, err := a.judge.Evaluate(ctx, BuildPrompt(def.Prompt, doc))
	a.metrics.ObserveJudgeLatency(def.ID, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return schema.Issue{}, ctx.Err()
		}
		logger.Warn("check could not be evaluated", "check", def.ID, "file", doc.FileName, "err", err)
		a.metrics.IncrementDegraded("judge")
		is := judgment.Degraded(def.ID, fmt.Sprintf("The check could not be evaluated (%v).", err))
		is.Title = def.Title
		a.metrics.IncrementIssue(def.ID, string(is.Status))
		return is, nil
	}

	is, err := a.registry.Interpret(def, raw)
	if err != nil {
		logger.Warn("judge answer not understood", "check", def.ID, "file", doc.FileName, "err", err)
		a.metrics.IncrementDegraded("parse")
	}
	a.metrics.IncrementIssue(def.ID, string(is.Status))
	return is, nil
}

// Placeholders substituted into check prompts.
const (
	FileNamePlaceholder = "{{fileName}}"
	DocumentPlaceholder = "{{document}}"
)

// BuildPrompt fills a check template with the document. Templates that use
// neither placeholder get the file name and content appended.
func BuildPrompt(template string, doc Document) string {
	if strings.Contains(template, FileNamePlaceholder) || strings.Contains(template, DocumentPlaceholder) {
		return strings.NewReplacer(
			FileNamePlaceholder, doc.FileName,
			DocumentPlaceholder, doc.Text,
		).Replace(template)
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(template, "\n"))
	sb.WriteString("\n\nProvided Filename: ")
	sb.WriteString(doc.FileName)
	sb.WriteString("\n\nDocument Content:\n")
	sb.WriteString(doc.Text)
	return sb.String()
}
