// Package processors implements the built-in preprocess/process plugins
// described in the specification's C9 component: a thumbnail generator and
// an image compressor. Both are ordinary plugin.Plugin values built on the
// same hook contract any third-party plugin uses; nothing here is special-
// cased by the manager.
package processors

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// imaging registers decoders for jpeg/png/gif/tiff/bmp on import, so
// decodeImage can rely on imaging.Decode to handle any of the
// isCompressibleImage formats without additional blank imports. webp is
// deliberately absent: imaging has no webp decoder, so such files would
// always hit decodeImage's error path and get skipped anyway.

// isCompressibleImage reports whether mimeType is a raster image format the
// processors know how to decode/re-encode. GIF (animated) and vector
// formats are excluded per the specification.
func isCompressibleImage(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg", "image/png", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}

func isVideo(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "video/")
}

// decodeImage decodes raw image bytes into an image.Image.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// encodeImage re-encodes img as format ("jpeg" or "png") at the given
// quality (ignored for png) and returns the bytes and the resulting MIME
// type.
func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// dataURL wraps data as a base64 data: URL of the given MIME type.
func dataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// decodeDataURL extracts the raw bytes from a "data:<mime>;base64,<...>"
// string. It returns an error if url is not in that form.
func decodeDataURL(url string) ([]byte, error) {
	idx := strings.Index(url, ",")
	if idx < 0 || !strings.Contains(url[:idx], "base64") {
		return nil, fmt.Errorf("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(url[idx+1:])
}

// extOf returns the lowercased file extension including the leading dot, or
// "" if name has none.
func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func formatForMime(mimeType string) string {
	if strings.Contains(strings.ToLower(mimeType), "png") {
		return "png"
	}
	return "jpeg"
}

func extForFormat(format string) string {
	if format == "png" {
		return ".png"
	}
	return ".jpg"
}

// insertSuffix inserts suffix before the extension of name, e.g.
// insertSuffix("a/b.jpg", "_thumb") == "a/b_thumb.jpg".
func insertSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + suffix + ext
}
