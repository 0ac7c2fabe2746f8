package processors

// ThumbnailOptions configures the thumbnail generator processor. The zero
// value is a usable default: a 200x200 preview at quality 80, not uploaded.
type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int
	// Upload, if true, pushes the generated thumbnail to the storage
	// adapter's auxiliary upload path during the process stage.
	Upload bool
}

// withDefaults fills zero fields with the package defaults.
func (o ThumbnailOptions) withDefaults() ThumbnailOptions {
	if o.Width <= 0 {
		o.Width = 200
	}
	if o.Height <= 0 {
		o.Height = 200
	}
	if o.Quality <= 0 {
		o.Quality = 80
	}
	return o
}

// ImageCompressionOptions configures the image compressor processor. The
// zero value is a usable default: bound to 1920x1080, quality 80, format
// "auto" (PNG stays PNG, every other input becomes JPEG), compressing
// anything of 200KB or more.
type ImageCompressionOptions struct {
	MaxWidth          int
	MaxHeight         int
	Quality           int
	OutputFormat      string // "auto", "jpeg", or "png"
	MinSizeToCompress int64
	PreserveMetadata  bool
}

func (o ImageCompressionOptions) withDefaults() ImageCompressionOptions {
	if o.MaxWidth <= 0 {
		o.MaxWidth = 1920
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = 1080
	}
	if o.Quality <= 0 {
		o.Quality = 80
	}
	if o.OutputFormat == "" {
		o.OutputFormat = "auto"
	}
	if o.MinSizeToCompress <= 0 {
		o.MinSizeToCompress = 200 * 1024
	}
	return o
}
