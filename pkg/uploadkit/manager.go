// Package uploadkit implements the core of a reactive, plugin-driven file
// upload manager: a lifecycle state machine per file, a plugin pipeline
// (validate → preprocess → process → upload → complete), a storage adapter
// port, and an initialization protocol for pre-populating the manager from
// remote references. It is the in-process analogue of the teacher's
// (tusd's) server-side upload handler: where tusd drives one upload
// resource through a state machine against a DataStore and hook pipeline,
// uploadkit drives a set of in-memory tracked files through the same shape
// of pipeline against a StorageAdapter and a plugin pipeline.
package uploadkit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/uploadkit/uploadkit/pkg/plugin"
	"github.com/uploadkit/uploadkit/pkg/processors"
	"github.com/uploadkit/uploadkit/pkg/validators"
)

// Manager is the reactive upload manager core. It is safe for concurrent
// use, but not by synchronizing broadly behind one mutex: mu only guards
// the plugin list mutated by AddPlugin. The file lifecycle is instead
// serialized per file, through the Registry's own locking — in particular
// uploadOne claims a file atomically (waiting -> uploading, see
// Registry.TryClaim) before acting on it, so two goroutines racing to
// upload the same file can never both invoke the storage adapter for it.
// This is what makes Go's actual goroutine concurrency behave like the
// single-threaded-cooperative scheduling model the specification describes,
// without serializing unrelated files' uploads behind each other.
type Manager struct {
	cfg ManagerConfig

	mu        sync.Mutex
	bus       *EventBus
	registry  *Registry
	resources *ResourceTracker
	runner    *plugin.Runner
	storage   plugin.StorageAdapter

	ready         atomic.Bool
	uploadedFired atomic.Bool
}

// New constructs a Manager from config, installing built-in plugins for
// every enabled flag, then the user-supplied config.Plugins in order, and
// finally kicking off the initialization protocol (§4.8) if configured.
func New(config ManagerConfig) (*Manager, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       config,
		bus:       NewEventBus(config.Logger),
		registry:  NewRegistry(),
		resources: NewResourceTracker(),
		storage:   config.Storage,
	}
	m.runner = plugin.NewRunner(m.bus, config.Logger)

	for _, p := range m.builtinPlugins() {
		m.runner.Use(p)
	}
	for _, p := range config.Plugins {
		m.runner.Use(p)
	}

	m.registry.Subscribe(func(files []plugin.TrackedFile) {
		m.cfg.Metrics.SetRegistrySize(len(files))
		for _, f := range files {
			if f.Status != plugin.StatusComplete {
				m.uploadedFired.Store(false)
				return
			}
		}
	})

	m.runInitializationProtocol()

	return m, nil
}

func (m *Manager) builtinPlugins() []plugin.Plugin {
	var out []plugin.Plugin
	if m.cfg.MaxFiles != Disabled {
		out = append(out, validators.NewMaxFiles(m.cfg.MaxFiles))
	}
	if m.cfg.MaxFileSize != Disabled {
		out = append(out, validators.NewMaxFileSize(m.cfg.MaxFileSize))
	}
	if len(m.cfg.AllowedFileTypes) > 0 {
		out = append(out, validators.NewAllowedFileTypes(m.cfg.AllowedFileTypes))
	}
	if !m.cfg.SkipDuplicateCheck {
		out = append(out, validators.NewDuplicateFile())
	}
	if m.cfg.Thumbnails != nil {
		out = append(out, processors.NewThumbnailGenerator(*m.cfg.Thumbnails, m.cfg.Logger))
	}
	if m.cfg.ImageCompression != nil {
		out = append(out, processors.NewImageCompressor(*m.cfg.ImageCompression, m.cfg.Logger))
	}
	return out
}

// AddPlugin appends a plugin to the runner. It takes effect on subsequent
// file operations; files already admitted are unaffected.
func (m *Manager) AddPlugin(p plugin.Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runner.Use(p)
}

// On subscribes handler to event, accepting both canonical names
// ("file:added") and plugin-scoped names ("<pluginId>:x"). It returns an
// unsubscribe function.
func (m *Manager) On(event string, handler Handler) (unsubscribe func()) {
	return m.bus.On(event, handler)
}

// Files returns a snapshot of the currently tracked files in order.
func (m *Manager) Files() []TrackedFile {
	return m.registry.List()
}

// TotalProgress returns the floor of the mean progress percentage across
// all tracked files, 0 when empty.
func (m *Manager) TotalProgress() int {
	return m.registry.DerivedTotalProgress()
}

// Status derives a coarse aggregate status across every tracked file:
// uploading takes priority (something is actively in flight), then error
// (at least one file needs attention), then complete (every file is done),
// else idle.
func (m *Manager) Status() ManagerStatus {
	files := m.registry.List()
	if len(files) == 0 {
		return ManagerIdle
	}
	hasError := false
	for _, f := range files {
		if f.Status == plugin.StatusUploading {
			return ManagerUploading
		}
		if f.Status == plugin.StatusError {
			hasError = true
		}
	}
	if hasError {
		return ManagerHasErrors
	}
	if m.registry.AllComplete() {
		return ManagerComplete
	}
	return ManagerIdle
}

// IsReady reports whether the initialization protocol (§4.8) has settled,
// either because no initialFiles were configured, or because resolution
// completed (successfully or not).
func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

// pluginConfigSnapshot returns the plugin-visible subset of the manager's
// configuration, safe to hand to hooks without exposing internals.
func (m *Manager) pluginConfigSnapshot() plugin.ManagerConfig {
	return m.cfg.pluginConfig()
}

// backgroundContext is used internally wherever a caller method does not accept one,
// mirroring the teacher's use of context.Background() for background
// notification consumers; all blocking adapter/plugin calls in this
// package take a context.Context parameter on their public entry points.
func backgroundContext() context.Context {
	return context.Background()
}
