package processors

import (
	"context"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// NewImageCompressor builds the built-in image compressor plugin. In its
// process hook, it decodes images above opts.MinSizeToCompress (excluding
// GIF and vector formats), scales them within opts.MaxWidth/MaxHeight
// preserving aspect ratio, and re-encodes at opts.Quality in
// opts.OutputFormat ("auto" keeps PNG input as PNG and re-encodes every
// other input, BMP and TIFF included, as JPEG). If thresholds
// are not met, or the recompressed size is not smaller than the original,
// the hook emits a "skip" event and leaves the file unchanged.
func NewImageCompressor(opts ImageCompressionOptions, logger *slog.Logger) plugin.Plugin {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return plugin.Plugin{
		ID: "image-compressor",
		Hooks: plugin.Hooks{
			Process: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) (plugin.TrackedFile, error) {
				if !file.IsLocal() || !isCompressibleImage(file.MimeType) {
					return file, nil
				}
				if file.Size < opts.MinSizeToCompress {
					pctx.Emit("skip", map[string]any{"file": file.ID, "reason": "below minSizeToCompress"})
					return file, nil
				}

				img, err := decodeImage(file.Data)
				if err != nil {
					logger.Warn("image compressor: decode failed, skipping", "file", file.ID, "error", err)
					pctx.Emit("skip", map[string]any{"file": file.ID, "reason": "decode failed"})
					return file, nil
				}

				resized := imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)

				format := strings.ToLower(opts.OutputFormat)
				if format == "" || format == "auto" {
					format = formatForMime(file.MimeType)
				}

				encoded, mime, err := encodeImage(resized, format, opts.Quality)
				if err != nil {
					logger.Warn("image compressor: encode failed, skipping", "file", file.ID, "error", err)
					pctx.Emit("skip", map[string]any{"file": file.ID, "reason": "encode failed"})
					return file, nil
				}

				if int64(len(encoded)) >= file.Size {
					pctx.Emit("skip", map[string]any{"file": file.ID, "reason": "recompressed size not smaller"})
					return file, nil
				}

				// Re-encoding through imaging always strips EXIF/ICC
				// metadata; opts.PreserveMetadata has no effect with this
				// codec and is accepted only for contract compatibility
				// with adapters that implement their own re-encoding.
				file.Data = encoded
				file.Size = int64(len(encoded))
				file.MimeType = mime
				base := strings.TrimSuffix(file.Name, extOf(file.Name))
				file.Name = base + extForFormat(format)
				file.ID = strings.TrimSuffix(file.ID, extOf(file.ID)) + extForFormat(format)

				return file, nil
			},
		},
	}
}
