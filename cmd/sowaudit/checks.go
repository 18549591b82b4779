package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sowaudit/internal/catalog"
	"github.com/dshills/sowaudit/internal/render"
	"github.com/dshills/sowaudit/internal/schema"
)

func newChecksCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Inspect and edit the check catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the effective checks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runChecksList(cmd.Context(), g, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Print the effective checks as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runChecksExport(cmd.Context(), g, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Replace the override with checks read from a YAML or JSON file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChecksImport(cmd.Context(), g, args[0])
			},
		},
		newChecksSetCmd(g),
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove one check from the override",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editChecks(cmd.Context(), g, func(checks []schema.CheckDefinition) ([]schema.CheckDefinition, error) {
					out := catalog.Remove(checks, args[0])
					if len(out) == len(checks) {
						return nil, withCode(exitCodeBadInput, fmt.Errorf("no check with id %q", args[0]))
					}
					return out, nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete the override so the default checks apply",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runChecksReset(cmd.Context(), g)
			},
		},
	)
	return cmd
}

func newChecksSetCmd(g *globalFlags) *cobra.Command {
	var title, prompt, promptFile string
	cmd := &cobra.Command{
		Use:   "set ID",
		Short: "Add a check or replace the one with the same id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return withCode(exitCodeBadInput, fmt.Errorf("read prompt: %w", err))
				}
				prompt = string(data)
			}
			if strings.TrimSpace(prompt) == "" {
				return withCode(exitCodeBadInput, errors.New("a prompt is required (--prompt or --prompt-file)"))
			}
			def := schema.CheckDefinition{ID: args[0], Title: title, Prompt: prompt}
			return editChecks(cmd.Context(), g, func(checks []schema.CheckDefinition) ([]schema.CheckDefinition, error) {
				return catalog.Upsert(checks, def), nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "check title")
	cmd.Flags().StringVar(&prompt, "prompt", "", "check prompt template")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "read the prompt template from a file")
	return cmd
}

func runChecksList(ctx context.Context, g *globalFlags, w io.Writer) error {
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	cat, err := e.catalog(ctx, false)
	if err != nil {
		return err
	}
	for _, ch := range cat.Load(ctx) {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", ch.ID, ch.Title); err != nil {
			return err
		}
	}
	return nil
}

func runChecksExport(ctx context.Context, g *globalFlags, w io.Writer) error {
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	cat, err := e.catalog(ctx, false)
	if err != nil {
		return err
	}
	checks := cat.Load(ctx)
	if checks == nil {
		checks = []schema.CheckDefinition{}
	}
	data, err := render.RenderJSON(checks)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func runChecksImport(ctx context.Context, g *globalFlags, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return withCode(exitCodeBadInput, fmt.Errorf("read checks: %w", err))
	}
	checks, err := catalog.Decode(data)
	if err != nil {
		return withCode(exitCodeBadInput, err)
	}
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	cat, err := e.catalog(ctx, true)
	if err != nil {
		return err
	}
	if err := cat.Save(ctx, checks); err != nil {
		return err
	}
	e.logger.Info("checks imported", "count", len(checks), "store", e.cfg.Catalog.Store)
	return nil
}

// editChecks applies edit to the stored override, or to the defaults when
// none is stored, and saves the result. An unreadable override aborts the
// edit.
func editChecks(ctx context.Context, g *globalFlags, edit func([]schema.CheckDefinition) ([]schema.CheckDefinition, error)) error {
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	cat, err := e.catalog(ctx, true)
	if err != nil {
		return err
	}
	base, err := cat.Editable(ctx)
	if err != nil {
		return fmt.Errorf("checks: current override unreadable, not editing (use import or reset): %w", err)
	}
	checks, err := edit(base)
	if err != nil {
		return err
	}
	if err := catalog.Validate(checks); err != nil {
		return withCode(exitCodeBadInput, err)
	}
	return cat.Save(ctx, checks)
}

func runChecksReset(ctx context.Context, g *globalFlags) error {
	e, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer e.close()
	cat, err := e.catalog(ctx, true)
	if err != nil {
		return err
	}
	return cat.Reset(ctx)
}
