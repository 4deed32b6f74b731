package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_LocalStorage(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	bucket := NewLocalStorage(t.TempDir())

	a := filepath.Join(out, "winco_vbcs.csv")
	b := filepath.Join(out, "batch_vbcs.csv")
	require.NoError(t, os.WriteFile(a, []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("a,b\n"), 0o644))

	p := NewPublisher(bucket, "/vbcs/")
	keys, err := p.Publish(ctx, "run-1", []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"vbcs/run-1/winco_vbcs.csv", "vbcs/run-1/batch_vbcs.csv"}, keys)

	objects, err := bucket.ListObjects(ctx, "vbcs/run-1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "vbcs/run-1/batch_vbcs.csv", objects[0].Key)
	assert.Equal(t, int64(8), objects[1].Size)

	dest := filepath.Join(t.TempDir(), "copy.csv")
	require.NoError(t, bucket.DownloadObject(ctx, keys[0], dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	_, err = p.Publish(ctx, "run-2", []string{filepath.Join(out, "missing.csv")})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("x/y.CSV"))
	assert.Equal(t, "application/octet-stream", contentType("x/y.bin"))
}
