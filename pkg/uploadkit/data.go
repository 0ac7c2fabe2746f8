package uploadkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// largeFileWarningThreshold matches the specification's "~100 MB" advisory
// logged by GetFileData for remote fetches of large objects.
const largeFileWarningThreshold = 100 * 1024 * 1024

// GetFileData returns the bytes of the tracked file with id. A local file
// returns its owned buffer directly; a remote file is fetched over HTTP
// from its RemoteURL.
func (m *Manager) GetFileData(ctx context.Context, id string) ([]byte, error) {
	file, ok := m.registry.ByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	if file.IsLocal() {
		return file.Data, nil
	}

	if file.Size > largeFileWarningThreshold {
		m.cfg.Logger.Warn("fetching large remote file", "file", id, "size", file.Size)
	}

	resp, err := m.fetchRemote(ctx, file.RemoteURL)
	if err != nil {
		return nil, NewAdapterError("getFileData", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// GetFileURL returns a stable handle for the tracked file's bytes: a
// tracked object URL for local files (created on first use), or the
// RemoteURL for remote files.
func (m *Manager) GetFileURL(id string) (string, error) {
	file, ok := m.registry.ByID(id)
	if !ok {
		return "", ErrNotFound
	}
	if file.IsLocal() {
		return m.resources.URLFor(file.ID, file.Data, file.MimeType), nil
	}
	return file.RemoteURL, nil
}

// GetFileStream returns a readable stream of the tracked file's bytes. The
// caller must Close it.
func (m *Manager) GetFileStream(ctx context.Context, id string) (io.ReadCloser, error) {
	file, ok := m.registry.ByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	if file.IsLocal() {
		return io.NopCloser(bytes.NewReader(file.Data)), nil
	}

	resp, err := m.fetchRemote(ctx, file.RemoteURL)
	if err != nil {
		return nil, NewAdapterError("getFileStream", err)
	}
	return resp.Body, nil
}

func (m *Manager) fetchRemote(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("remote fetch %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// ReplaceFileData replaces the bytes backing a tracked file, keeping its
// id, transitioning it back to waiting, clearing upload results, and
// re-running preprocess. It emits file:replaced then file:added, and
// clears the files:uploaded latch so a subsequent full completion fires
// again.
func (m *Manager) ReplaceFileData(ctx context.Context, id string, data []byte, name string, autoUploadOverride *bool) (TrackedFile, error) {
	existing, ok := m.registry.ByID(id)
	if !ok {
		return TrackedFile{}, ErrNotFound
	}

	m.resources.Release(id)

	newName := existing.Name
	if name != "" {
		newName = name
	}

	replacement := plugin.TrackedFile{
		ID:           existing.ID,
		Name:         newName,
		Size:         int64(len(data)),
		MimeType:     existing.MimeType,
		Source:       plugin.SourceLocal,
		Status:       plugin.StatusWaiting,
		LastModified: existing.LastModified,
		Data:         data,
	}

	files := m.registry.List()
	cfg := m.pluginConfigSnapshot()
	updated, err := m.runner.RunPreprocess(ctx, replacement, files, cfg, m.storage)
	if err != nil {
		updated.Status = plugin.StatusError
		updated.Error = asFileError(err)
	}

	m.registry.ReplaceAt(id, updated)
	m.uploadedFired.Store(false)
	m.bus.Emit("file:replaced", updated)
	m.bus.Emit("file:added", updated)

	shouldUpload := m.cfg.AutoUpload
	if autoUploadOverride != nil {
		shouldUpload = *autoUploadOverride
	}
	if shouldUpload && updated.Status != plugin.StatusError {
		m.scheduleUpload()
	}

	return updated, nil
}
