package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sowaudit/internal/audit"
	"github.com/dshills/sowaudit/internal/llm"
	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/render"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/stats"
)

type auditFlags struct {
	global      *globalFlags
	files       []string
	format      string
	out         string
	provider    string
	model       string
	maxTokens   int
	temperature float64
	concurrency int
	failUnder   float64
	debug       bool
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	f := auditFlags{global: g}
	cmd := &cobra.Command{
		Use:   "audit FILE...",
		Short: "Audit one or more plain-text SOW documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.files = args
			return runAudit(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "text", "output format: text, json, md")
	fl.StringVar(&f.out, "out", "", "write the report to this file instead of stdout")
	fl.StringVar(&f.provider, "provider", "", "judge provider: anthropic, openai, google")
	fl.StringVar(&f.model, "model", "", "judge model (default depends on provider)")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "maximum tokens per judge answer")
	fl.Float64Var(&f.temperature, "temperature", -1, "judge temperature (negative keeps the configured value)")
	fl.IntVar(&f.concurrency, "concurrency", 0, "concurrent judge calls per document")
	fl.Float64Var(&f.failUnder, "fail-under", 0, "exit 2 when any document scores below this compliance")
	fl.BoolVar(&f.debug, "debug", false, "log prompts and judge answers")
	return cmd
}

// runAudit executes the audit command. It is separate from cobra so tests can
// drive it directly.
func runAudit(ctx context.Context, f auditFlags) error {
	switch f.format {
	case "text", "json", "md":
	default:
		return withCode(exitCodeBadInput, fmt.Errorf("unknown format %q (want text, json or md)", f.format))
	}
	if f.provider != "" && !llm.Known(f.provider) {
		return withCode(exitCodeBadInput, fmt.Errorf("unknown provider %q (want anthropic, openai or google)", f.provider))
	}
	if f.failUnder < 0 || f.failUnder > 100 {
		return withCode(exitCodeBadInput, fmt.Errorf("--fail-under must be within 0..100, got %v", f.failUnder))
	}

	docs := make([]audit.Document, 0, len(f.files))
	for _, path := range f.files {
		data, err := os.ReadFile(path)
		if err != nil {
			return withCode(exitCodeBadInput, fmt.Errorf("read document: %w", err))
		}
		doc := audit.Document{FileName: filepath.Base(path), Text: string(data)}
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
			doc.HTML = doc.Text
		}
		docs = append(docs, doc)
	}

	e, err := setup(ctx, f.global)
	if err != nil {
		return err
	}
	defer e.close()

	jc := e.cfg.Judge
	opts := llm.Options{
		Provider:    jc.Provider,
		Model:       jc.Model,
		MaxTokens:   jc.MaxTokens,
		Temperature: jc.Temperature,
		Debug:       f.debug,
	}
	if f.provider != "" {
		opts.Provider = f.provider
	}
	if f.model != "" {
		opts.Model = f.model
	}
	if f.maxTokens > 0 {
		opts.MaxTokens = f.maxTokens
	}
	if f.temperature >= 0 {
		opts.Temperature = f.temperature
	}
	concurrency := jc.Concurrency
	if f.concurrency > 0 {
		concurrency = f.concurrency
	}

	if f.debug {
		logging.SetLevel("debug")
	}
	ctx = logging.WithLogger(ctx, e.logger)

	judge, err := llm.NewJudge(opts, e.logger)
	if err != nil {
		return withCode(exitCodeAPIError, err)
	}
	e.logger.Debug("judge ready", "model", judge.Model(), "concurrency", concurrency)

	cat, err := e.catalog(ctx, false)
	if err != nil {
		return err
	}
	checks := cat.Load(ctx)

	auditor := audit.New(judge,
		audit.WithMetrics(e.metrics),
		audit.WithConcurrency(concurrency),
	)
	results := make([]schema.AnalysisResult, 0, len(docs))
	for _, doc := range docs {
		res, err := auditor.Audit(ctx, doc, checks)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if err := writeResults(f, results); err != nil {
		return err
	}
	if f.failUnder > 0 && stats.BelowThreshold(results, f.failUnder) {
		return withCode(exitCodeFailUnder, fmt.Errorf("compliance below %s", render.Percent(f.failUnder)))
	}
	return nil
}

func writeResults(f auditFlags, results []schema.AnalysisResult) (err error) {
	var w io.Writer = os.Stdout
	color := colorFor(os.Stdout)
	if f.out != "" {
		file, cerr := os.Create(f.out)
		if cerr != nil {
			return withCode(exitCodeBadInput, fmt.Errorf("create output: %w", cerr))
		}
		defer func() { err = errors.Join(err, file.Close()) }()
		w = file
		color = false
	}

	switch f.format {
	case "json":
		data, err := render.RenderJSON(results)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "md":
		for i := range results {
			if i > 0 {
				if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, render.RenderMarkdown(&results[i])); err != nil {
				return err
			}
		}
		return nil
	default:
		styles := render.NewStyles(color)
		for _, r := range results {
			if err := render.WriteResult(w, styles, r); err != nil {
				return err
			}
		}
		return nil
	}
}
