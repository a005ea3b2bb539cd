package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{ after int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("client went away")
	}
	n := min(len(p), f.after)
	for i := range p[:n] {
		p[i] = 'x'
	}
	f.after -= n
	return n, nil
}

func TestDisk_FailedPutLeavesNothing(t *testing.T) {
	root := t.TempDir()
	d, err := NewDisk(root, "")
	require.NoError(t, err)

	_, err = d.Put(context.Background(), "up", "broken.bin", &failingReader{after: 10})
	require.ErrorIs(t, err, ErrStorage)

	ok, err := d.Exists(context.Background(), "up/broken.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Join(root, "up"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

func TestDisk_CanceledPut(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Put(ctx, "up", "late.txt", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
	ok, _ := d.Exists(context.Background(), "up/late.txt")
	assert.False(t, ok)
}

func TestDisk_OverwriteIsAtomic(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Put(ctx, "f", "a.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = d.Put(ctx, "f", "a.txt", io.MultiReader(strings.NewReader("sec"), strings.NewReader("ond")))
	require.NoError(t, err)

	data, err := d.Get(ctx, "f/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestDisk_RejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = d.Exists(ctx, "/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = d.Files(ctx, "../", true)
	assert.ErrorIs(t, err, ErrInvalidPath)
}
