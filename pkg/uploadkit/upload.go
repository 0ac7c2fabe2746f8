package uploadkit

import (
	"context"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// Upload drives every currently `waiting` file through process → upload →
// complete, strictly in registry order. A file already past waiting
// (uploading, complete, or error) is skipped, which is what makes calling
// Upload twice in a row idempotent: the second call simply finds nothing
// left to do for files the first call already claimed.
//
// A single file's process or adapter failure marks it error and continues
// to the next file; it never aborts the batch. After every snapshot file
// has been handled, upload:complete fires with the ones that reached
// complete, and files:uploaded fires exactly once per completion cycle if
// every tracked file (not just this batch) is now complete.
func (m *Manager) Upload(ctx context.Context) error {
	snapshot := m.registry.List()
	var pending []plugin.TrackedFile
	for _, f := range snapshot {
		if f.Status == plugin.StatusWaiting {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	m.bus.Emit("upload:start", pending)

	var completed []plugin.TrackedFile
	for _, f := range pending {
		result := m.uploadOne(ctx, f)
		if result.Status == plugin.StatusComplete {
			completed = append(completed, result)
		}
	}

	m.bus.Emit("upload:complete", completed)

	if m.registry.AllComplete() && !m.uploadedFired.Swap(true) {
		m.bus.Emit("files:uploaded", m.registry.List())
	}

	return nil
}

// uploadOne claims f (atomically transitioning it from waiting to
// uploading), then runs process and the storage adapter's upload, and
// returns the resulting TrackedFile after the registry has been updated to
// match. If f is no longer waiting by the time this runs — another
// goroutine already claimed it, e.g. a second AutoUpload-triggered Upload
// call racing this one — the claim fails and f is returned unchanged
// without ever reaching the adapter, which is what makes concurrent Upload
// calls safe to invoke for the same file. The file may still be removed
// from the registry entirely while this runs; registry.Update then becomes
// a harmless no-op and the returned result is still reported accurately to
// upload:complete's caller-visible summary.
func (m *Manager) uploadOne(ctx context.Context, f plugin.TrackedFile) plugin.TrackedFile {
	claimed, ok := m.registry.TryClaim(f.ID)
	if !ok {
		return f
	}
	f = claimed

	cfg := m.pluginConfigSnapshot()
	files := m.registry.List()

	processed, err := m.runner.RunProcess(ctx, f, files, cfg, m.storage)
	if err != nil {
		return m.failUpload(f, err)
	}

	// Process hooks may change the id (e.g. an extension change), so the
	// registry entry is looked up by the claimed id and replaced wholesale.
	m.registry.Update(f.ID, func(tf *plugin.TrackedFile) {
		*tf = processed
	})

	if m.storage == nil {
		return m.failUpload(processed, ErrNoStorageAdapter)
	}

	m.cfg.Metrics.UploadAttempt()

	uploadCtx := plugin.UploadContext{
		Context: plugin.Context{
			Files:   files,
			Config:  cfg,
			Storage: m.storage,
			Emit:    func(event string, payload any) { m.bus.Emit(event, payload) },
		},
		OnProgress: func(percentage int) {
			m.registry.Update(processed.ID, func(tf *plugin.TrackedFile) {
				tf.Progress.Percentage = percentage
			})
			current, _ := m.registry.ByID(processed.ID)
			m.bus.Emit("upload:progress", map[string]any{"file": current, "progress": current.Progress})
		},
	}

	result, err := m.storage.Upload(ctx, processed, uploadCtx)
	if err != nil {
		m.cfg.Metrics.UploadFailure()
		return m.failUpload(processed, NewAdapterError("upload", err))
	}

	var final plugin.TrackedFile
	m.registry.Update(processed.ID, func(tf *plugin.TrackedFile) {
		tf.Status = plugin.StatusComplete
		tf.Progress.Percentage = 100
		tf.UploadResult = result
		tf.RemoteURL = result.URL
		if result.StorageKey != "" {
			tf.StorageKey = result.StorageKey
		}
		if tf.Preview == "" {
			tf.Preview = result.URL
		}
		final = *tf
	})
	if final.ID == "" {
		final = processed
		final.Status = plugin.StatusComplete
	}

	m.runner.RunComplete(ctx, final, m.registry.List(), cfg, m.storage)

	return final
}

func (m *Manager) failUpload(f plugin.TrackedFile, err error) plugin.TrackedFile {
	fe := asFileError(err)
	m.registry.Update(f.ID, func(tf *plugin.TrackedFile) {
		tf.Status = plugin.StatusError
		tf.Error = fe
	})
	m.cfg.Metrics.FileErrored()
	f.Status = plugin.StatusError
	f.Error = fe
	m.bus.Emit("file:error", map[string]any{"file": f, "error": fe})
	return f
}
