package objstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeflow/internal/domain"
)

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "a/b.csv", []byte("id\n1\n")))
	data, err := m.Get(ctx, "a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "nope")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMemory_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "data/b.csv", nil))
	require.NoError(t, m.Put(ctx, "data/a.csv", nil))
	require.NoError(t, m.Put(ctx, "logs/run.json", nil))

	keys, err := m.List(ctx, "data/")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/a.csv", "data/b.csv"}, keys)
}

func TestMemory_UploadDownload(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	dir := t.TempDir()

	src := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(src, []byte("x,y\n1,2\n"), 0o644))
	require.NoError(t, m.Upload(ctx, "stage/in.csv", src))

	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, m.Download(ctx, "stage/in.csv", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(data))
}
