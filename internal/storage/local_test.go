package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlspress/hlspress/internal/config"
)

func setupLocal(t *testing.T) *Local {
	t.Helper()
	root := t.TempDir()
	local, err := New(config.StorageConfig{
		UploadDir: filepath.Join(root, "uploads"),
		OutputDir: filepath.Join(root, "outputs"),
	})
	require.NoError(t, err)
	return local
}

func TestStoreContentAddressed(t *testing.T) {
	local := setupLocal(t)

	content := "some video bytes"
	stored, err := local.Store(strings.NewReader(content), "movie.mp4")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:])+".mp4", stored)

	data, err := os.ReadFile(local.InputPath(stored))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestStoreDeduplicates(t *testing.T) {
	local := setupLocal(t)

	first, err := local.Store(strings.NewReader("identical"), "one.mp4")
	require.NoError(t, err)
	second, err := local.Store(strings.NewReader("identical"), "two.mp4")
	require.NoError(t, err)

	// identical content under the same extension maps to one file
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Dir(local.InputPath(first)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreKeepsExtension(t *testing.T) {
	local := setupLocal(t)

	stored, err := local.Store(strings.NewReader("x"), "clip.webm")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, ".webm"))

	stored, err = local.Store(strings.NewReader("y"), "noextension")
	require.NoError(t, err)
	assert.NotContains(t, stored, ".")
}

func TestEnsureOutputDir(t *testing.T) {
	local := setupLocal(t)

	dir, err := local.EnsureOutputDir(42)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(local.OutputRoot(), "42"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// idempotent
	again, err := local.EnsureOutputDir(42)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}
