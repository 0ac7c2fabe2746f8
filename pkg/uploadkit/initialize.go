package uploadkit

import (
	"context"
	"path"
	"sync"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// runInitializationProtocol resolves ManagerConfig.InitialFiles once, at
// construction time. An absent source settles readiness immediately; a
// static source resolves synchronously before New returns (a blocking Go
// constructor has no equivalent of the source's async microtask, so
// resolution simply runs inline — see DESIGN.md); a reactive source
// subscribes and resolves exactly once, the first time its callback
// reports a non-empty value, then unsubscribes.
func (m *Manager) runInitializationProtocol() {
	initial := m.cfg.InitialFiles

	if initial.isAbsent() {
		m.ready.Store(true)
		return
	}

	if initial.Reactive != nil {
		var once sync.Once
		var unsubscribe func()
		unsubscribe = initial.Reactive(func(keys []string) {
			if len(keys) == 0 {
				return
			}
			once.Do(func() {
				m.resolveInitialFiles(backgroundContext(), keys)
				if unsubscribe != nil {
					unsubscribe()
				}
			})
		})
		return
	}

	m.resolveInitialFiles(backgroundContext(), initial.Static)
}

// resolveInitialFiles fetches metadata for each key via the storage
// adapter and pushes a Remote TrackedFile for each into the registry, in
// order. It always settles readiness, even on failure, so the UI is never
// stuck waiting.
func (m *Manager) resolveInitialFiles(ctx context.Context, keys []string) {
	var resolved []plugin.TrackedFile

	for _, key := range keys {
		if key == "" {
			continue
		}
		f, err := m.resolveRemoteFile(ctx, key)
		if err != nil {
			m.cfg.Logger.Error("initial file resolution failed", "key", key, "error", err)
			m.bus.Emit("initialFiles:error", NewAdapterError("getRemoteFile", err))
			m.ready.Store(true)
			return
		}
		m.registry.Push(f)
		m.cfg.Metrics.FileAdded()
		resolved = append(resolved, f)
	}

	m.bus.Emit("initialFiles:loaded", resolved)
	m.ready.Store(true)
}

// resolveRemoteFile builds the Remote TrackedFile for storage key, per the
// initialization protocol's identity rules: id is the storage key (or its
// last path segment if the key looks like a path), source=storage,
// status=complete, progress=100.
func (m *Manager) resolveRemoteFile(ctx context.Context, key string) (plugin.TrackedFile, error) {
	pctx := plugin.Context{
		Files:   m.registry.List(),
		Config:  m.pluginConfigSnapshot(),
		Storage: m.storage,
	}
	info, err := m.storage.GetRemoteFile(ctx, key, pctx)
	if err != nil {
		return plugin.TrackedFile{}, err
	}
	return remoteFileFrom(key, info), nil
}

// remoteFileFrom builds the Remote TrackedFile for key from already-resolved
// metadata, shared by the one-key-at-a-time path (resolveRemoteFile) and the
// BulkResolver path (resolveInitialFilesBulk).
func remoteFileFrom(key string, info plugin.RemoteFileInfo) plugin.TrackedFile {
	return plugin.TrackedFile{
		ID:           path.Base(key),
		Name:         path.Base(key),
		Size:         info.Size,
		MimeType:     info.MimeType,
		Source:       plugin.SourceStorage,
		Status:       plugin.StatusComplete,
		Progress:     plugin.Progress{Percentage: 100},
		RemoteURL:    info.RemoteURL,
		StorageKey:   key,
		Preview:      info.Preview,
		UploadResult: info.UploadResult,
	}
}

// InitializeExistingFiles replaces the current registry with the Remote
// files resolved from refs, resetting readiness until it settles again.
// refs is a fixed, ordered list known up front (unlike the startup
// initialization protocol's keys, which may arrive from a reactive source
// over time), so when the configured adapter implements
// plugin.BulkResolver, all of refs is resolved concurrently via ResolveMany
// and reassembled in ref order; otherwise resolution falls back to the
// one-key-at-a-time path.
func (m *Manager) InitializeExistingFiles(ctx context.Context, refs []string) error {
	if m.storage == nil {
		return ErrNoStorageAdapter
	}
	m.resources.Cleanup()
	m.registry.Clear()
	m.ready.Store(false)

	if resolver, ok := m.storage.(plugin.BulkResolver); ok {
		m.resolveInitialFilesBulk(ctx, refs, resolver)
		return nil
	}
	m.resolveInitialFiles(ctx, refs)
	return nil
}

// resolveInitialFilesBulk is InitializeExistingFiles's fast path when the
// adapter implements plugin.BulkResolver.
func (m *Manager) resolveInitialFilesBulk(ctx context.Context, refs []string, resolver plugin.BulkResolver) {
	var keys []string
	for _, key := range refs {
		if key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		m.ready.Store(true)
		return
	}

	infos, err := resolver.ResolveMany(ctx, keys)
	if err != nil {
		m.cfg.Logger.Error("bulk initial file resolution failed", "error", err)
		m.bus.Emit("initialFiles:error", NewAdapterError("resolveMany", err))
		m.ready.Store(true)
		return
	}

	resolved := make([]plugin.TrackedFile, 0, len(keys))
	for i, key := range keys {
		f := remoteFileFrom(key, infos[i])
		m.registry.Push(f)
		m.cfg.Metrics.FileAdded()
		resolved = append(resolved, f)
	}

	m.bus.Emit("initialFiles:loaded", resolved)
	m.ready.Store(true)
}

// AppendExistingFiles resolves refs the same way as the initialization
// protocol, but without replacing the registry: it deduplicates against
// already-tracked storage keys, respects MaxFiles, and emits file:added
// per admitted file instead of a single initialFiles:loaded batch event.
func (m *Manager) AppendExistingFiles(ctx context.Context, refs []string) ([]TrackedFile, error) {
	if m.storage == nil {
		return nil, ErrNoStorageAdapter
	}

	seen := make(map[string]struct{})
	for _, f := range m.registry.List() {
		if f.StorageKey != "" {
			seen[f.StorageKey] = struct{}{}
		}
	}

	var admitted []plugin.TrackedFile
	for _, key := range refs {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if m.cfg.MaxFiles != Disabled && m.registry.Len() >= m.cfg.MaxFiles {
			break
		}

		f, err := m.resolveRemoteFile(ctx, key)
		if err != nil {
			m.cfg.Logger.Error("append existing file failed", "key", key, "error", err)
			continue
		}

		m.registry.Push(f)
		seen[key] = struct{}{}
		m.cfg.Metrics.FileAdded()
		m.bus.Emit("file:added", f)
		admitted = append(admitted, f)
	}

	return admitted, nil
}
