package processors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/uploadkit/uploadkit/pkg/plugin"
)

const thumbnailMetaKey = "processors.thumbnailData"

// NewThumbnailGenerator builds the built-in thumbnail generator plugin. In
// its preprocess hook, it decodes images (excluding GIF and vector formats)
// and scales them within opts.Width/Height at opts.Quality, writing the
// result to file.Preview as a data URL. Videos are not thumbnailed: frame
// extraction needs a decoder outside this module's dependency set, so the
// hook logs and skips rather than failing the file (thumbnailing is always
// a non-fatal, best-effort enhancement per the specification).
//
// If opts.Upload is set, the process hook re-uploads the generated
// thumbnail through the storage adapter's auxiliary upload path and records
// file.Thumbnail.
func NewThumbnailGenerator(opts ThumbnailOptions, logger *slog.Logger) plugin.Plugin {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return plugin.Plugin{
		ID: "thumbnail-generator",
		Hooks: plugin.Hooks{
			Preprocess: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) (plugin.TrackedFile, error) {
				if !file.IsLocal() {
					return file, nil
				}
				if isVideo(file.MimeType) {
					logger.Debug("thumbnail generator: video thumbnailing not supported, skipping", "file", file.ID)
					return file, nil
				}
				if !isCompressibleImage(file.MimeType) {
					return file, nil
				}

				img, err := decodeImage(file.Data)
				if err != nil {
					logger.Warn("thumbnail generator: decode failed, skipping", "file", file.ID, "error", err)
					return file, nil
				}

				thumb := imaging.Fit(img, opts.Width, opts.Height, imaging.Lanczos)
				encoded, mime, err := encodeImage(thumb, formatForMime(file.MimeType), opts.Quality)
				if err != nil {
					logger.Warn("thumbnail generator: encode failed, skipping", "file", file.ID, "error", err)
					return file, nil
				}

				url := dataURL(mime, encoded)
				file.Preview = url
				if opts.Upload {
					if file.Meta == nil {
						file.Meta = make(map[string]any)
					}
					file.Meta[thumbnailMetaKey] = url
				}
				return file, nil
			},
			Process: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) (plugin.TrackedFile, error) {
				if !opts.Upload {
					return file, nil
				}
				rawURL, ok := file.Meta[thumbnailMetaKey].(string)
				if !ok || rawURL == "" {
					return file, nil
				}
				delete(file.Meta, thumbnailMetaKey)

				uploader, ok := pctx.Storage.(plugin.AuxiliaryUploader)
				if !ok || uploader == nil {
					logger.Warn("thumbnail generator: storage adapter has no auxiliary upload support", "file", file.ID)
					return file, nil
				}

				data, err := decodeDataURL(rawURL)
				if err != nil {
					logger.Warn("thumbnail generator: invalid thumbnail data, skipping upload", "file", file.ID, "error", err)
					return file, nil
				}

				key := insertSuffix(file.ID, "_thumb")
				url, err := uploader.UploadAuxiliary(ctx, key, data, "image/jpeg")
				if err != nil {
					logger.Warn("thumbnail generator: auxiliary upload failed", "file", file.ID, "error", err)
					pctx.Emit("skip", map[string]any{"file": file.ID, "reason": fmt.Sprintf("upload failed: %v", err)})
					return file, nil
				}

				file.Thumbnail = &plugin.Thumbnail{URL: url, StorageKey: key}
				return file, nil
			},
		},
	}
}
