package uploadkit

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/uploadkit/uploadkit/internal/uid"
	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// newFileID derives {timestamp}-{random}.{ext} from name, returning
// ErrInvalidFileName if name has no extension.
func newFileID(name string) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", ErrInvalidFileName
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uid.Uid(), ext), nil
}

func (m *Manager) snapshotConfig() plugin.Context {
	return plugin.Context{
		Files:   m.registry.List(),
		Config:  m.pluginConfigSnapshot(),
		Storage: m.storage,
	}
}

// AddFile admits source as a new local TrackedFile, running it through the
// validate and preprocess stages. On a validate or preprocess failure the
// file is still pushed into the registry with status=error (per the file
// operations contract), file:error is emitted, and the same error is
// returned to the caller; AddFiles relies on this to keep rejected files
// visible to the UI while still reporting per-item failure.
func (m *Manager) AddFile(ctx context.Context, source FileSource) (TrackedFile, error) {
	id, err := newFileID(source.Name)
	if err != nil {
		return TrackedFile{}, err
	}

	size := source.Size
	if size == 0 {
		size = int64(len(source.Data))
	}

	file := plugin.TrackedFile{
		ID:           id,
		Name:         source.Name,
		Size:         size,
		MimeType:     source.MimeType,
		Source:       plugin.SourceLocal,
		Status:       plugin.StatusWaiting,
		LastModified: source.LastModified,
		Data:         source.Data,
	}

	files := m.registry.List()
	cfg := m.pluginConfigSnapshot()

	if verr := m.runner.RunValidate(ctx, file, files, cfg, m.storage); verr != nil {
		file.Status = plugin.StatusError
		file.Error = asFileError(verr)
		m.registry.Push(file)
		m.cfg.Metrics.FileAdded()
		m.cfg.Metrics.FileErrored()
		m.bus.Emit("file:error", map[string]any{"file": file, "error": file.Error})
		return file, verr
	}

	updated, perr := m.runner.RunPreprocess(ctx, file, files, cfg, m.storage)
	if perr != nil {
		updated.Status = plugin.StatusError
		updated.Error = asFileError(perr)
		m.registry.Push(updated)
		m.cfg.Metrics.FileAdded()
		m.cfg.Metrics.FileErrored()
		m.bus.Emit("file:error", map[string]any{"file": updated, "error": updated.Error})
		return updated, perr
	}
	file = updated

	m.registry.Push(file)
	m.cfg.Metrics.FileAdded()
	m.bus.Emit("file:added", file)

	if m.cfg.AutoUpload {
		m.scheduleUpload()
	}

	return file, nil
}

// AddFiles admits each source in order via AddFile, never aborting the
// batch on an individual failure, and returns the sequence of
// successfully admitted (non-error) files.
func (m *Manager) AddFiles(ctx context.Context, sources []FileSource) []TrackedFile {
	var admitted []TrackedFile
	for _, s := range sources {
		f, err := m.AddFile(ctx, s)
		if err == nil {
			admitted = append(admitted, f)
		}
	}
	return admitted
}

// asFileError coerces an arbitrary hook error into the *FileError shape
// attached to a TrackedFile, wrapping opaque errors in a message-only value.
func asFileError(err error) *plugin.FileError {
	if fe, ok := err.(*plugin.FileError); ok {
		return fe
	}
	return &plugin.FileError{Message: err.Error()}
}

// scheduleUpload launches upload() on a separate goroutine so that it runs
// after the current synchronous call (and the file:added emission within
// it) has returned to its caller, mirroring the source's microtask-deferred
// auto-upload scheduling.
func (m *Manager) scheduleUpload() {
	go func() {
		if err := m.Upload(backgroundContext()); err != nil {
			m.cfg.Logger.Error("scheduled upload failed", "error", err)
		}
	}()
}

// RemoveFile removes the tracked file with id, optionally deleting its
// remote object first. Unknown ids are a silent no-op.
func (m *Manager) RemoveFile(ctx context.Context, id string, opts RemoveOptions) error {
	file, ok := m.registry.ByID(id)
	if !ok {
		return nil
	}

	if opts.DeleteFromStorage == DeleteAlways && file.RemoteURL != "" && m.storage != nil {
		if err := m.storage.Remove(ctx, file, m.snapshotConfig()); err != nil {
			m.cfg.Logger.Warn("storage adapter remove failed", "file", id, "error", err)
		}
	}

	m.resources.Release(id)
	m.registry.RemoveWhere(func(f plugin.TrackedFile) bool { return f.ID == id })
	m.cfg.Metrics.FileRemoved()
	m.bus.Emit("file:removed", file)
	return nil
}

// RemoveFiles removes every id in ids without ever contacting the storage
// adapter (bulk removal is local-only per the file operations contract).
func (m *Manager) RemoveFiles(ctx context.Context, ids []string) error {
	for _, id := range ids {
		file, ok := m.registry.ByID(id)
		if !ok {
			continue
		}
		m.resources.Release(id)
		m.registry.RemoveWhere(func(f plugin.TrackedFile) bool { return f.ID == id })
		m.cfg.Metrics.FileRemoved()
		m.bus.Emit("file:removed", file)
	}
	return nil
}

// ClearFiles releases every tracked object URL and truncates the registry,
// emitting file:removed for each file that was present.
func (m *Manager) ClearFiles() {
	removed := m.registry.Clear()
	m.resources.Cleanup()
	for _, f := range removed {
		m.cfg.Metrics.FileRemoved()
		m.bus.Emit("file:removed", f)
	}
}

// ReorderFile moves the file at oldIndex to newIndex. It is a no-op, logged
// at debug level, when the indices are equal or out of bounds.
func (m *Manager) ReorderFile(oldIndex, newIndex int) {
	if !m.registry.Move(oldIndex, newIndex) {
		m.cfg.Logger.Debug("reorder ignored: indices equal or out of bounds", "oldIndex", oldIndex, "newIndex", newIndex)
		return
	}
	m.bus.Emit("files:reorder", map[string]any{"oldIndex": oldIndex, "newIndex": newIndex})
}

// GetFile returns the tracked file with id, or ErrNotFound.
func (m *Manager) GetFile(id string) (TrackedFile, error) {
	f, ok := m.registry.ByID(id)
	if !ok {
		return TrackedFile{}, ErrNotFound
	}
	return f, nil
}

// UpdateFile applies patch to the tracked file with id in place. No events
// are emitted; this is an escape hatch for plugin-driven bookkeeping (e.g.
// Meta updates) that should not disturb UI subscribers.
func (m *Manager) UpdateFile(id string, patch func(*TrackedFile)) error {
	if !m.registry.Update(id, patch) {
		return ErrNotFound
	}
	return nil
}

// Reset releases every tracked object URL and truncates the registry
// silently: no per-file events are emitted, matching teardown semantics.
func (m *Manager) Reset() {
	m.registry.Clear()
	m.resources.Cleanup()
}
