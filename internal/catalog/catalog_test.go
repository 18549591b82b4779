package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/store"
)

// memSlot is an in-memory store.Slot.
type memSlot struct {
	data    []byte
	readErr error
	writes  int
}

func (m *memSlot) Read(context.Context) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.data == nil {
		return nil, store.ErrNotFound
	}
	return m.data, nil
}

func (m *memSlot) Write(_ context.Context, data []byte) error {
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memSlot) Clear(context.Context) error {
	m.data = nil
	return nil
}

var small = []schema.CheckDefinition{
	{ID: "a", Title: "A", Prompt: "pa"},
	{ID: "b", Title: "B", Prompt: "pb"},
}

func quietCatalog(slot store.Slot) (*Catalog, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slot, small, logging.NewWithWriter(&buf, "debug")), &buf
}

func TestLoad_NoStorageReturnsDefaults(t *testing.T) {
	c := New(nil, small, nil)
	assert.Equal(t, small, c.Load(context.Background()))
	require.NoError(t, c.Save(context.Background(), []schema.CheckDefinition{{ID: "x"}}))
	assert.Equal(t, small, c.Load(context.Background()), "save without storage is a no-op")
}

func TestLoad_EmptySlotReturnsDefaults(t *testing.T) {
	c, logs := quietCatalog(&memSlot{})
	assert.Equal(t, small, c.Load(context.Background()))
	assert.Empty(t, logs.String(), "an empty slot is not worth a warning")
}

func TestLoad_OverrideWins(t *testing.T) {
	slot := &memSlot{}
	c, _ := quietCatalog(slot)
	ctx := context.Background()
	override := []schema.CheckDefinition{{ID: "z", Title: "Z", Prompt: "pz"}, {ID: "y", Title: "Y"}}

	require.NoError(t, c.Save(ctx, override))
	assert.Equal(t, override, c.Load(ctx), "order must be preserved")
}

func TestLoad_CorruptOverrideFallsBack(t *testing.T) {
	cases := map[string]string{
		"not json":     `{{{`,
		"wrong shape":  `{"id":"a"}`,
		"null":         `null`,
		"duplicate id": `[{"id":"a"},{"id":"a"}]`,
		"missing id":   `[{"title":"no id"}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			c, logs := quietCatalog(&memSlot{data: []byte(payload)})
			assert.Equal(t, small, c.Load(context.Background()))
			assert.Contains(t, logs.String(), "using defaults")
		})
	}
}

func TestLoad_ReadErrorFallsBack(t *testing.T) {
	c, logs := quietCatalog(&memSlot{readErr: errors.New("connection refused")})
	assert.Equal(t, small, c.Load(context.Background()))
	assert.Contains(t, logs.String(), "connection refused")
}

func TestOverride(t *testing.T) {
	ctx := context.Background()

	checks, ok, err := New(nil, small, nil).Override(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no storage")
	assert.Nil(t, checks)

	c, _ := quietCatalog(&memSlot{})
	_, ok, err = c.Override(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty slot")

	override := []schema.CheckDefinition{{ID: "z", Title: "Z", Prompt: "pz"}}
	c, _ = quietCatalog(&memSlot{data: []byte(`[{"id":"z","title":"Z","prompt":"pz"}]`)})
	checks, ok, err = c.Override(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, override, checks)

	readErr := errors.New("connection reset")
	c, _ = quietCatalog(&memSlot{readErr: readErr})
	_, _, err = c.Override(ctx)
	assert.ErrorIs(t, err, readErr)

	for _, payload := range []string{`{{{`, `null`, `[{"id":"a"},{"id":"a"}]`} {
		c, _ = quietCatalog(&memSlot{data: []byte(payload)})
		_, ok, err = c.Override(ctx)
		assert.Error(t, err, payload)
		assert.False(t, ok, payload)
	}
}

func TestEditable_ReadErrorNeverReachesSave(t *testing.T) {
	ctx := context.Background()
	slot := &memSlot{readErr: errors.New("connection reset")}
	c, _ := quietCatalog(slot)

	base, err := c.Editable(ctx)
	require.Error(t, err)
	assert.Nil(t, base)
	assert.Zero(t, slot.writes, "nothing may be written after a failed read")

	slot.readErr = nil
	base, err = c.Editable(ctx)
	require.NoError(t, err)
	assert.Equal(t, small, base, "an empty slot edits from the defaults")

	require.NoError(t, c.Save(ctx, Upsert(base, schema.CheckDefinition{ID: "mine", Prompt: "p"})))
	base, err = c.Editable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "mine"}, ids(base))
}

func TestLoad_EmptyOverrideIsHonoured(t *testing.T) {
	c, _ := quietCatalog(&memSlot{data: []byte(`[]`)})
	got := c.Load(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad_ReturnsCopies(t *testing.T) {
	c := New(nil, small, nil)
	got := c.Load(context.Background())
	got[0].Title = "mutated"
	assert.Equal(t, "A", c.Load(context.Background())[0].Title)
}

func TestSave_ReplacesWholeSet(t *testing.T) {
	slot := &memSlot{}
	c, _ := quietCatalog(slot)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, small))
	require.NoError(t, c.Save(ctx, []schema.CheckDefinition{{ID: "only"}}))
	got := c.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].ID)
	assert.Equal(t, 2, slot.writes)
}

func TestSave_RejectsInvalid(t *testing.T) {
	slot := &memSlot{}
	c, _ := quietCatalog(slot)
	err := c.Save(context.Background(), []schema.CheckDefinition{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	assert.Zero(t, slot.writes)
}

func TestReset(t *testing.T) {
	slot := &memSlot{}
	c, _ := quietCatalog(slot)
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, []schema.CheckDefinition{{ID: "only"}}))
	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, small, c.Load(ctx))
}

func TestUpsertAndRemove(t *testing.T) {
	edited := Upsert(small, schema.CheckDefinition{ID: "a", Title: "A2"})
	assert.Equal(t, "A2", edited[0].Title, "existing id is replaced in place")
	assert.Equal(t, "A", small[0].Title, "input must not be mutated")

	added := Upsert(small, schema.CheckDefinition{ID: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, ids(added))

	assert.Equal(t, []string{"b"}, ids(Remove(small, "a")))
	assert.Equal(t, []string{"a", "b"}, ids(Remove(small, "missing")))
}

func TestDecode(t *testing.T) {
	yamlDoc := []byte(`
- id: check1
  title: First
  prompt: |
    Respond with Yes or No.
- id: check2
  title: Second
  prompt: Another
`)
	got, err := Decode(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"check1", "check2"}, ids(got))
	assert.Equal(t, "Respond with Yes or No.\n", got[0].Prompt)

	got, err = Decode([]byte(`[{"id":"j","title":"J","prompt":"p"}]`))
	require.NoError(t, err)
	assert.Equal(t, "J", got[0].Title)

	_, err = Decode([]byte(`[{"title":"no id"}]`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Len(t, d, 16)
	require.NoError(t, Validate(d))
	for i, ch := range d {
		assert.NotEmpty(t, ch.Title, "check %d", i)
		assert.Contains(t, ch.Prompt, "Output Format", "check %s", ch.ID)
	}
	assert.Equal(t, "check1", d[0].ID)
	assert.Equal(t, "check16", d[15].ID)
}

func ids(checks []schema.CheckDefinition) []string {
	out := make([]string, len(checks))
	for i, ch := range checks {
		out[i] = ch.ID
	}
	return out
}
