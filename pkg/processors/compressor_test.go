package processors

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

func solidPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// noisyPNG encodes a width x height image of seeded random pixels. Unlike
// solidPNG's regular gradient, it does not compress well as PNG, so a
// downscaled JPEG re-encoding of it is reliably smaller.
func noisyPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageCompressorSkipsNonLocalFiles(t *testing.T) {
	c := NewImageCompressor(ImageCompressionOptions{}, nil)
	data := solidPNG(t, 400, 400)

	file := plugin.TrackedFile{Source: plugin.SourceStorage, MimeType: "image/png", Data: data, Size: int64(len(data))}
	out, err := c.Hooks.Process(context.Background(), file, plugin.Context{})
	require.NoError(t, err)
	assert.Equal(t, file, out)
}

func TestImageCompressorSkipsBelowMinSize(t *testing.T) {
	data := solidPNG(t, 10, 10)
	c := NewImageCompressor(ImageCompressionOptions{MinSizeToCompress: int64(len(data)) + 1}, nil)

	file := plugin.TrackedFile{ID: "a.png", Source: plugin.SourceLocal, MimeType: "image/png", Data: data, Size: int64(len(data))}
	out, err := c.Hooks.Process(context.Background(), file, plugin.Context{Emit: func(string, any) {}})
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
}

func TestImageCompressorResizesLargeImage(t *testing.T) {
	data := noisyPNG(t, 2000, 1500)
	c := NewImageCompressor(ImageCompressionOptions{
		MaxWidth:          800,
		MaxHeight:         600,
		Quality:           80,
		OutputFormat:      "jpeg",
		MinSizeToCompress: 1,
	}, nil)

	file := plugin.TrackedFile{ID: "a.png", Name: "a.png", Source: plugin.SourceLocal, MimeType: "image/png", Data: data, Size: int64(len(data))}
	out, err := c.Hooks.Process(context.Background(), file, plugin.Context{})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MimeType)
	assert.Equal(t, ".jpg", extOf(out.Name))
	assert.Less(t, out.Size, file.Size)

	resized, err := decodeImage(out.Data)
	require.NoError(t, err)
	bounds := resized.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 800)
	assert.LessOrEqual(t, bounds.Dy(), 600)
}
