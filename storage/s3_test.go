package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"vidstream-api/logger"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestS3Store_KeyFromURL(t *testing.T) {
	store := &S3Store{publicBaseURL: "https://cdn.example.com/bucket"}

	assert.Equal(t, "media/2026/01/02/abc.png",
		store.KeyFromURL("https://cdn.example.com/bucket/media/2026/01/02/abc.png"))

	// Foreign URLs, placeholder defaults included, yield no key.
	assert.Equal(t, "", store.KeyFromURL("https://via.placeholder.com/150x150"))
	assert.Equal(t, "", store.KeyFromURL(""))
}

func TestS3Store_UploadMissingFileIsNonFatal(t *testing.T) {
	store := &S3Store{publicBaseURL: "https://cdn.example.com/bucket"}

	res, err := store.Upload(context.Background(), filepath.Join(t.TempDir(), "does-not-exist.png"))

	assert.NoError(t, err)
	assert.Empty(t, res.URL)
	assert.Empty(t, res.Key)
}

func TestStorageKey(t *testing.T) {
	key := storageKey("/tmp/upload-123.png")

	assert.True(t, strings.HasPrefix(key, "media/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	// Keys must not collide for identical inputs.
	assert.NotEqual(t, key, storageKey("/tmp/upload-123.png"))
}
