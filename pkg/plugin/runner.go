package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage identifies one of the four hook points a plugin may implement.
type Stage string

const (
	StageValidate   Stage = "validate"
	StagePreprocess Stage = "preprocess"
	StageProcess    Stage = "process"
	StageComplete   Stage = "complete"
)

// AvailableStages lists every stage the runner executes, in pipeline order.
var AvailableStages = []Stage{StageValidate, StagePreprocess, StageProcess, StageComplete}

var MetricsHookInvocationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "uploadkit_plugin_invocations_total",
		Help: "Total number of plugin hook invocations per stage.",
	},
	[]string{"stage", "plugin"},
)

var MetricsHookErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "uploadkit_plugin_errors_total",
		Help: "Total number of plugin hook errors per stage.",
	},
	[]string{"stage", "plugin"},
)

// Runner executes a given lifecycle stage across the registered plugin
// sequence for at most one file at a time. It caches the per-plugin emit
// closure so that ctx.Emit("x", p) always reaches "<pluginId>:x" on the bus,
// regardless of how many times the stage is invoked.
type Runner struct {
	plugins []Plugin
	emits   map[string]EmitFunc
	bus     Emitter
	logger  *slog.Logger
}

// NewRunner constructs a Runner that delivers plugin-scoped events onto bus
// and logs failures via logger.
func NewRunner(bus Emitter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		emits:  make(map[string]EmitFunc),
		bus:    bus,
		logger: logger,
	}
}

// Use appends a plugin to the end of the registration order. Plugins run in
// registration order within each stage.
func (r *Runner) Use(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Plugins returns the currently registered plugin sequence.
func (r *Runner) Plugins() []Plugin {
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// emitterFor returns the cached emit closure for pluginID, creating it on
// first use. The closure is bound for the manager's lifetime.
func (r *Runner) emitterFor(pluginID string) EmitFunc {
	if fn, ok := r.emits[pluginID]; ok {
		return fn
	}
	fn := EmitFunc(func(event string, payload any) {
		r.bus.Emit(fmt.Sprintf("%s:%s", pluginID, event), payload)
	})
	r.emits[pluginID] = fn
	return fn
}

func (r *Runner) context(files []TrackedFile, cfg ManagerConfig, storage StorageAdapter, pluginID string) Context {
	return Context{
		Files:   files,
		Config:  cfg,
		Storage: storage,
		Emit:    r.emitterFor(pluginID),
	}
}

func (r *Runner) observe(stage Stage, pluginID string, err error) {
	MetricsHookInvocationsTotal.WithLabelValues(string(stage), pluginID).Inc()
	if err != nil {
		MetricsHookErrorsTotal.WithLabelValues(string(stage), pluginID).Inc()
	}
}

// RunValidate runs every plugin's Validate hook in registration order. It
// aborts on the first error: the returned error is the one the caller
// should surface, and the caller decides how to handle admission (the
// manager records the rejected file with an error status).
func (r *Runner) RunValidate(ctx context.Context, file TrackedFile, files []TrackedFile, cfg ManagerConfig, storage StorageAdapter) error {
	for _, p := range r.plugins {
		if p.Hooks.Validate == nil {
			continue
		}
		pctx := r.context(files, cfg, storage, p.ID)
		err := p.Hooks.Validate(ctx, file, pctx)
		r.observe(StageValidate, p.ID, err)
		if err != nil {
			r.logger.Debug("plugin validate rejected file", "plugin", p.ID, "file", file.ID, "error", err)
			return err
		}
	}
	return nil
}

// RunPreprocess runs every plugin's Preprocess hook in registration order,
// threading the possibly-updated file through the chain. It stops and
// returns an error on the first failing hook; the caller decides how to
// handle admission (spec: preprocess failures still admit the file with an
// error status).
func (r *Runner) RunPreprocess(ctx context.Context, file TrackedFile, files []TrackedFile, cfg ManagerConfig, storage StorageAdapter) (TrackedFile, error) {
	for _, p := range r.plugins {
		if p.Hooks.Preprocess == nil {
			continue
		}
		pctx := r.context(files, cfg, storage, p.ID)
		updated, err := p.Hooks.Preprocess(ctx, file, pctx)
		r.observe(StagePreprocess, p.ID, err)
		if err != nil {
			r.logger.Warn("plugin preprocess failed", "plugin", p.ID, "file", file.ID, "error", err)
			return file, err
		}
		file = updated
	}
	return file, nil
}

// RunProcess runs every plugin's Process hook in registration order,
// threading the possibly-transformed file through the chain. It stops and
// returns an error on the first failing hook.
func (r *Runner) RunProcess(ctx context.Context, file TrackedFile, files []TrackedFile, cfg ManagerConfig, storage StorageAdapter) (TrackedFile, error) {
	for _, p := range r.plugins {
		if p.Hooks.Process == nil {
			continue
		}
		pctx := r.context(files, cfg, storage, p.ID)
		updated, err := p.Hooks.Process(ctx, file, pctx)
		r.observe(StageProcess, p.ID, err)
		if err != nil {
			r.logger.Warn("plugin process failed", "plugin", p.ID, "file", file.ID, "error", err)
			return file, err
		}
		file = updated
	}
	return file, nil
}

// RunComplete runs every plugin's Complete hook. Unlike the other stages,
// a failing hook does not stop the chain: these are post-upload side
// effects and one plugin's failure must not suppress another's.
func (r *Runner) RunComplete(ctx context.Context, file TrackedFile, files []TrackedFile, cfg ManagerConfig, storage StorageAdapter) {
	for _, p := range r.plugins {
		if p.Hooks.Complete == nil {
			continue
		}
		pctx := r.context(files, cfg, storage, p.ID)
		err := p.Hooks.Complete(ctx, file, pctx)
		r.observe(StageComplete, p.ID, err)
		if err != nil {
			r.logger.Warn("plugin complete hook failed", "plugin", p.ID, "file", file.ID, "error", err)
		}
	}
}
