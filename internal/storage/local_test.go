package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalServiceRoundTrip(t *testing.T) {
	svc, err := NewLocalService(filepath.Join(t.TempDir(), "static"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "photo/20260110/pic.png", strings.NewReader("bytes")))

	data, err := os.ReadFile(filepath.Join(svc.Root(), "photo", "20260110", "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))

	url, err := svc.URL(ctx, "photo/20260110/pic.png")
	require.NoError(t, err)
	assert.Equal(t, "/static/photo/20260110/pic.png", url)

	require.NoError(t, svc.Remove(ctx, "photo/20260110/pic.png"))
	_, err = os.Stat(filepath.Join(svc.Root(), "photo", "20260110", "pic.png"))
	assert.True(t, os.IsNotExist(err))

	// Removing an already removed image is not an error.
	require.NoError(t, svc.Remove(ctx, "photo/20260110/pic.png"))
}

func TestLocalServiceRejectsEscapingPaths(t *testing.T) {
	svc, err := NewLocalService(filepath.Join(t.TempDir(), "static"))
	require.NoError(t, err)
	ctx := context.Background()

	for _, relPath := range []string{"../outside.png", "photo/../../outside.png", "/etc/passwd", ""} {
		assert.Error(t, svc.Save(ctx, relPath, strings.NewReader("x")), "path %q", relPath)
	}
}
