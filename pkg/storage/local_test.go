package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/pkg/storage"
)

func TestLocalDiskPutGetDelete(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")

	require.NoError(t, disk.Put(ctx, "exports/a.csv", strings.NewReader("id\n1\n")))

	ok, err := disk.Exists(ctx, "exports/a.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := disk.Get(ctx, "exports/a.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(body))

	assert.Equal(t, "http://localhost:8080/storage/exports/a.csv", disk.URL("exports/a.csv"))

	require.NoError(t, disk.Delete(ctx, "exports/a.csv"))
	require.NoError(t, disk.Delete(ctx, "exports/a.csv"), "deleting a missing file is not an error")

	_, err = disk.Get(ctx, "exports/a.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := storage.NewLocalDisk(filepath.Join(root, "disk"), "")

	require.NoError(t, disk.Put(ctx, "../../escape.txt", strings.NewReader("x")))
	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	ok, err := disk.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, disk.Put(ctx, "/", strings.NewReader("x")))
}

func TestLocalDiskFilesNewestFirst(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "/storage")

	none, err := disk.Files(ctx, "exports")
	require.NoError(t, err)
	assert.Empty(t, none)

	for _, name := range []string{"old.csv", "new.csv"} {
		require.NoError(t, disk.Put(ctx, "exports/"+name, strings.NewReader(name)))
	}
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(disk.Root(), "exports", "old.csv"), old, old))

	files, err := disk.Files(ctx, "exports")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "exports/new.csv", files[0].Path)
	assert.Equal(t, "exports/old.csv", files[1].Path)
	assert.EqualValues(t, len("old.csv"), files[1].Size)
	assert.Equal(t, "/storage/exports/new.csv", files[0].URL)
}

func TestManagerDefaultFallsBackToLocal(t *testing.T) {
	disk := storage.NewLocalDisk(t.TempDir(), "")
	storage.Register("local", disk)
	storage.SetDefault("s3")
	t.Cleanup(func() { storage.SetDefault("local") })

	assert.Same(t, disk, storage.Default())

	_, err := storage.Use("s3")
	assert.Error(t, err)
}
