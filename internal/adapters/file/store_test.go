package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/delmic/odemis-sub008/internal/adapters/file"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := file.New(dir)
	ctx := context.Background()

	st := domain.NewPathState("sparc2")
	st.LastMode = "ar"
	require.NoError(t, store.Save(ctx, "sparc2", st))

	data, err := os.ReadFile(filepath.Join(dir, "sparc2.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_mode": "ar"`)

	// Leftover temp files are not states.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-sparc2-123.json"), []byte("{"), 0o644))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sparc2"}, list)
}

func TestFileStore_InvalidNames(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.NewPathState("")))
	assert.Error(t, store.Save(ctx, "../escape", domain.NewPathState("x")))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ".."))
}

func TestFileStore_EmptyDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
