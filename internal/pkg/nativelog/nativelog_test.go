package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RotatesDaily(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	first, err := os.ReadFile(filepath.Join(dir, "logs", "publisher_2024-05-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "logs", "publisher_2024-05-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestWriter_EmptyWrite(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	n, err := w.Write(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, w.Sync())
}
