package uploadkit

import (
	"log/slog"

	"github.com/uploadkit/uploadkit/pkg/metrics"
	"github.com/uploadkit/uploadkit/pkg/plugin"
	"github.com/uploadkit/uploadkit/pkg/processors"
)

// Disabled is the sentinel used for MaxFiles/MaxFileSize to mean "no limit
// enforced", matching the teacher's own convention in pkg/handler/config.go
// (MaxSize <= 0 means unlimited).
const Disabled = 0

// InitialFiles describes how a manager should pre-populate itself from
// remote references at construction time. The zero value means "absent":
// readiness is true immediately and no files are resolved.
//
// Exactly one of Static or Reactive should be set. If both are nil/empty,
// the source is absent.
type InitialFiles struct {
	// Static is a fixed, ordered list of storage keys resolved once at
	// construction. An empty-but-non-nil slice resolves synchronously to
	// readiness with no files.
	Static []string

	// Reactive subscribes onChange to a lazily-produced value. The manager
	// calls Subscribe once; whenever onChange is invoked with a non-empty
	// slice, the manager resolves it using the same semantics as Static and
	// then calls the returned unsubscribe function. Subsequent invocations
	// of onChange are ignored (one-shot latch).
	Reactive func(onChange func([]string)) (unsubscribe func())
}

// isAbsent reports whether no initial files were configured at all.
func (i InitialFiles) isAbsent() bool {
	return i.Static == nil && i.Reactive == nil
}

// StaticInitialFiles builds a static InitialFiles source from one or more
// storage keys.
func StaticInitialFiles(keys ...string) InitialFiles {
	return InitialFiles{Static: keys}
}

// ReactiveInitialFiles builds a lazy InitialFiles source from a subscribe
// function.
func ReactiveInitialFiles(subscribe func(onChange func([]string)) (unsubscribe func())) InitialFiles {
	return InitialFiles{Reactive: subscribe}
}

// ManagerConfig is the construction-time input for New. Only Storage is
// commonly required; every other field has a documented default.
type ManagerConfig struct {
	// Storage is the adapter used for uploads, remote metadata fetch, and
	// delete. It may be nil if the manager will only ever hold local files
	// and never call Upload/InitializeExistingFiles.
	Storage plugin.StorageAdapter

	// Plugins is an ordered sequence of additional plugins appended after
	// the built-ins selected by the flags below.
	Plugins []plugin.Plugin

	// MaxFiles caps the number of tracked files. Disabled (0) means
	// unlimited.
	MaxFiles int

	// MaxFileSize caps a single file's byte size. Disabled (0) means
	// unlimited.
	MaxFileSize int64

	// AllowedFileTypes restricts admitted MIME types. Nil or empty means
	// unrestricted.
	AllowedFileTypes []string

	// SkipDuplicateCheck disables the built-in duplicate-file validator.
	SkipDuplicateCheck bool

	// Thumbnails enables the built-in thumbnail generator processor when
	// non-nil. A zero-value *processors.ThumbnailOptions enables it with
	// defaults.
	Thumbnails *processors.ThumbnailOptions

	// ImageCompression enables the built-in image compressor processor
	// when non-nil. A zero-value *processors.ImageCompressionOptions
	// enables it with defaults.
	ImageCompression *processors.ImageCompressionOptions

	// AutoUpload, if set, schedules upload() immediately after preprocess
	// completes for every newly admitted file.
	AutoUpload bool

	// InitialFiles pre-populates the manager from remote references. See
	// InitialFiles for the static/reactive encoding.
	InitialFiles InitialFiles

	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives counters/gauges for registry size, files
	// added/removed/errored, and upload outcomes. Per-plugin invocation
	// counters are kept by pkg/plugin, not here. Defaults to the process-wide
	// collector (metrics.Default()).
	Metrics *metrics.Collector
}

// validate fills in defaults and rejects configurations that cannot be
// satisfied, following the same single-pass validate() shape as the
// teacher's handler.Config.validate.
func (c *ManagerConfig) validate() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Default()
	}
	if c.MaxFiles < 0 {
		c.MaxFiles = Disabled
	}
	if c.MaxFileSize < 0 {
		c.MaxFileSize = Disabled
	}
	if !c.InitialFiles.isAbsent() && c.Storage == nil {
		return ErrNoStorageAdapter
	}
	return nil
}

func (c ManagerConfig) pluginConfig() plugin.ManagerConfig {
	return plugin.ManagerConfig{
		MaxFiles:         c.MaxFiles,
		MaxFileSize:      c.MaxFileSize,
		AllowedFileTypes: c.AllowedFileTypes,
		AutoUpload:       c.AutoUpload,
	}
}
