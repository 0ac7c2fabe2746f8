package memorystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

func TestUploadThenGetRemoteFileRoundTrips(t *testing.T) {
	store := New(Options{})
	var progress []int

	file := plugin.TrackedFile{ID: "f.jpg", Data: []byte("hello world"), MimeType: "image/jpeg"}
	uploadCtx := plugin.UploadContext{OnProgress: func(p int) { progress = append(progress, p) }}

	result, err := store.Upload(context.Background(), file, uploadCtx)
	require.NoError(t, err)
	require.NotEmpty(t, result.StorageKey)
	assert.Equal(t, []int{25, 50, 75, 100}, progress)

	info, err := store.GetRemoteFile(context.Background(), result.StorageKey, plugin.Context{})
	require.NoError(t, err)
	assert.EqualValues(t, len(file.Data), info.Size)
	assert.Equal(t, "image/jpeg", info.MimeType)
	assert.Equal(t, result.URL, info.RemoteURL)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := New(Options{})
	result, err := store.Upload(context.Background(), plugin.TrackedFile{ID: "f", Data: []byte("x")}, plugin.UploadContext{})
	require.NoError(t, err)

	err = store.Remove(context.Background(), plugin.TrackedFile{StorageKey: result.StorageKey}, plugin.Context{})
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	err = store.Remove(context.Background(), plugin.TrackedFile{StorageKey: result.StorageKey}, plugin.Context{})
	require.NoError(t, err)
}

func TestResolveManyResolvesAllKeysConcurrently(t *testing.T) {
	store := New(Options{MaxConcurrentUploads: 2})
	var keys []string
	for i := 0; i < 5; i++ {
		r, err := store.Upload(context.Background(), plugin.TrackedFile{ID: "f", Data: []byte("x")}, plugin.UploadContext{})
		require.NoError(t, err)
		keys = append(keys, r.StorageKey)
	}

	infos, err := store.ResolveMany(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, infos, 5)
	for _, info := range infos {
		assert.EqualValues(t, 1, info.Size)
	}
}

func TestUploadAuxiliaryStoresUnderExplicitKey(t *testing.T) {
	store := New(Options{})
	url, err := store.UploadAuxiliary(context.Background(), "thumb-key", []byte("thumb-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, url, "thumb-key")

	info, err := store.GetRemoteFile(context.Background(), "thumb-key", plugin.Context{})
	require.NoError(t, err)
	assert.EqualValues(t, len("thumb-bytes"), info.Size)
}
