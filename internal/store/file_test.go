package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "checks.json")
	s := NewFile(path)

	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, []byte(`[1]`)))
	require.NoError(t, s.Write(ctx, []byte(`[2]`)))
	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
