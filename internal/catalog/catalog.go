// Package catalog owns the ordered set of checks a document is audited
// against: the built-in defaults, optionally replaced by an override set
// persisted in a store.Slot.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/store"
)

// ErrInvalidCatalog is returned when a check set has missing or duplicate ids.
var ErrInvalidCatalog = errors.New("catalog: invalid check set")

// Catalog loads and saves the active check set. A nil slot means no durable
// storage is available: Load returns the defaults and Save does nothing.
type Catalog struct {
	slot     store.Slot
	defaults []schema.CheckDefinition
	logger   *log.Logger
}

// New creates a Catalog. defaults is copied; pass Defaults() for the
// built-in set.
func New(slot store.Slot, defaults []schema.CheckDefinition, logger *log.Logger) *Catalog {
	return &Catalog{
		slot:     slot,
		defaults: clone(defaults),
		logger:   logging.OrDefault(logger),
	}
}

// Load returns the persisted override set when present and well formed,
// otherwise the defaults. It never fails; storage and decoding problems are
// logged.
func (c *Catalog) Load(ctx context.Context) []schema.CheckDefinition {
	checks, ok, err := c.Override(ctx)
	if err != nil {
		c.logger.Warn("check overrides unusable, using defaults", "err", err)
		return clone(c.defaults)
	}
	if !ok {
		return clone(c.defaults)
	}
	return checks
}

// Override reads the persisted override set without falling back. ok is
// false when there is no storage or the slot is empty. Read failures and
// malformed, null or invalid sets are returned as errors.
func (c *Catalog) Override(ctx context.Context) (checks []schema.CheckDefinition, ok bool, err error) {
	if c.slot == nil {
		return nil, false, nil
	}
	data, err := c.slot.Read(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog: read overrides: %w", err)
	}
	if err := json.Unmarshal(data, &checks); err != nil {
		return nil, false, fmt.Errorf("catalog: parse overrides: %w", err)
	}
	if checks == nil {
		// JSON null is treated as corrupt, not as an empty set.
		return nil, false, fmt.Errorf("%w: override is null", ErrInvalidCatalog)
	}
	if err := Validate(checks); err != nil {
		return nil, false, err
	}
	return checks, true, nil
}

// Editable returns the set an edit should start from: the override when one
// is stored, the defaults when none is. Unlike Load it fails instead of
// falling back, so a later Save cannot replace an override it never saw.
func (c *Catalog) Editable(ctx context.Context) ([]schema.CheckDefinition, error) {
	checks, ok, err := c.Override(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return clone(c.defaults), nil
	}
	return checks, nil
}

// Save replaces the whole override set. There is no merge; compose edits
// with Upsert and Remove first.
func (c *Catalog) Save(ctx context.Context, checks []schema.CheckDefinition) error {
	if err := Validate(checks); err != nil {
		return err
	}
	if c.slot == nil {
		return nil
	}
	if checks == nil {
		checks = []schema.CheckDefinition{}
	}
	data, err := json.Marshal(checks)
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	if err := c.slot.Write(ctx, data); err != nil {
		return fmt.Errorf("catalog: save: %w", err)
	}
	return nil
}

// Reset removes the override set so Load returns the defaults again.
func (c *Catalog) Reset(ctx context.Context) error {
	if c.slot == nil {
		return nil
	}
	if err := c.slot.Clear(ctx); err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	return nil
}

// Validate checks that every definition has a non-empty, unique id.
func Validate(checks []schema.CheckDefinition) error {
	seen := make(map[string]bool, len(checks))
	for i, ch := range checks {
		id := strings.TrimSpace(ch.ID)
		if id == "" {
			return fmt.Errorf("%w: check %d has no id", ErrInvalidCatalog, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, id)
		}
		seen[id] = true
	}
	return nil
}

// Upsert returns a copy of checks with def replacing the entry of the same
// id in place, or appended when the id is new.
func Upsert(checks []schema.CheckDefinition, def schema.CheckDefinition) []schema.CheckDefinition {
	out := clone(checks)
	for i := range out {
		if out[i].ID == def.ID {
			out[i] = def
			return out
		}
	}
	return append(out, def)
}

// Remove returns a copy of checks without the entry with the given id.
func Remove(checks []schema.CheckDefinition, id string) []schema.CheckDefinition {
	out := make([]schema.CheckDefinition, 0, len(checks))
	for _, ch := range checks {
		if ch.ID != id {
			out = append(out, ch)
		}
	}
	return out
}

// Decode reads a check list from YAML or JSON (a YAML superset) and
// validates it.
func Decode(data []byte) ([]schema.CheckDefinition, error) {
	var checks []schema.CheckDefinition
	if err := yaml.Unmarshal(data, &checks); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := Validate(checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func clone(checks []schema.CheckDefinition) []schema.CheckDefinition {
	if checks == nil {
		return nil
	}
	out := make([]schema.CheckDefinition, len(checks))
	copy(out, checks)
	return out
}
