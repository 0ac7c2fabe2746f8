package processors

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailGeneratorWritesPreview(t *testing.T) {
	gen := NewThumbnailGenerator(ThumbnailOptions{Width: 50, Height: 50, Quality: 70}, nil)
	data := samplePNG(t)

	file := plugin.TrackedFile{ID: "a.png", Source: plugin.SourceLocal, MimeType: "image/png", Data: data}
	out, err := gen.Hooks.Preprocess(context.Background(), file, plugin.Context{})
	require.NoError(t, err)

	require.NotEmpty(t, out.Preview)
	raw, err := decodeDataURL(out.Preview)
	require.NoError(t, err)

	thumb, err := decodeImage(raw)
	require.NoError(t, err)
	bounds := thumb.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 50)
	assert.LessOrEqual(t, bounds.Dy(), 50)
}

func TestThumbnailGeneratorSkipsRemoteFiles(t *testing.T) {
	gen := NewThumbnailGenerator(ThumbnailOptions{}, nil)
	file := plugin.TrackedFile{ID: "a.png", Source: plugin.SourceStorage, MimeType: "image/png"}

	out, err := gen.Hooks.Preprocess(context.Background(), file, plugin.Context{})
	require.NoError(t, err)
	assert.Empty(t, out.Preview)
}

func TestThumbnailGeneratorUploadsStandaloneArtifact(t *testing.T) {
	gen := NewThumbnailGenerator(ThumbnailOptions{Width: 40, Height: 40, Upload: true}, nil)
	data := samplePNG(t)
	file := plugin.TrackedFile{ID: "a.png", Source: plugin.SourceLocal, MimeType: "image/png", Data: data}

	preprocessed, err := gen.Hooks.Preprocess(context.Background(), file, plugin.Context{})
	require.NoError(t, err)

	uploader := &fakeAuxiliaryUploader{}
	out, err := gen.Hooks.Process(context.Background(), preprocessed, plugin.Context{Storage: uploader})
	require.NoError(t, err)

	require.NotNil(t, out.Thumbnail)
	assert.NotEmpty(t, out.Thumbnail.URL)
	assert.Equal(t, 1, uploader.calls)
}

type fakeAuxiliaryUploader struct {
	calls int
}

func (f *fakeAuxiliaryUploader) Upload(ctx context.Context, file plugin.TrackedFile, uploadCtx plugin.UploadContext) (plugin.UploadResult, error) {
	return plugin.UploadResult{}, nil
}

func (f *fakeAuxiliaryUploader) GetRemoteFile(ctx context.Context, storageKey string, pctx plugin.Context) (plugin.RemoteFileInfo, error) {
	return plugin.RemoteFileInfo{}, nil
}

func (f *fakeAuxiliaryUploader) Remove(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
	return nil
}

func (f *fakeAuxiliaryUploader) UploadAuxiliary(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.calls++
	return "https://cdn.example/" + key, nil
}
