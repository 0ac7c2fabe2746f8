package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	events []string
}

func (b *recordingBus) Emit(event string, payload any) {
	b.events = append(b.events, event)
}

func TestRunnerEmitsUnderPluginNamespace(t *testing.T) {
	bus := &recordingBus{}
	runner := NewRunner(bus, nil)

	runner.Use(Plugin{
		ID: "thumbnailer",
		Hooks: Hooks{
			Preprocess: func(ctx context.Context, file TrackedFile, pctx Context) (TrackedFile, error) {
				pctx.Emit("skip", nil)
				return file, nil
			},
		},
	})

	_, err := runner.RunPreprocess(context.Background(), TrackedFile{ID: "f"}, nil, ManagerConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"thumbnailer:skip"}, bus.events)
}

func TestRunnerValidateStopsOnFirstFailure(t *testing.T) {
	runner := NewRunner(&recordingBus{}, nil)
	var secondRan bool

	runner.Use(Plugin{ID: "a", Hooks: Hooks{Validate: func(ctx context.Context, file TrackedFile, pctx Context) error {
		return errors.New("rejected")
	}}})
	runner.Use(Plugin{ID: "b", Hooks: Hooks{Validate: func(ctx context.Context, file TrackedFile, pctx Context) error {
		secondRan = true
		return nil
	}}})

	err := runner.RunValidate(context.Background(), TrackedFile{}, nil, ManagerConfig{}, nil)
	require.Error(t, err)
	assert.False(t, secondRan)
}

func TestRunnerPreprocessThreadsFileThroughChain(t *testing.T) {
	runner := NewRunner(&recordingBus{}, nil)
	runner.Use(Plugin{ID: "a", Hooks: Hooks{Preprocess: func(ctx context.Context, file TrackedFile, pctx Context) (TrackedFile, error) {
		file.Preview = "from-a"
		return file, nil
	}}})
	runner.Use(Plugin{ID: "b", Hooks: Hooks{Preprocess: func(ctx context.Context, file TrackedFile, pctx Context) (TrackedFile, error) {
		file.Preview += "+b"
		return file, nil
	}}})

	out, err := runner.RunPreprocess(context.Background(), TrackedFile{}, nil, ManagerConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-a+b", out.Preview)
}

func TestRunnerCompleteDoesNotStopOnFailure(t *testing.T) {
	runner := NewRunner(&recordingBus{}, nil)
	var secondRan bool

	runner.Use(Plugin{ID: "a", Hooks: Hooks{Complete: func(ctx context.Context, file TrackedFile, pctx Context) error {
		return errors.New("boom")
	}}})
	runner.Use(Plugin{ID: "b", Hooks: Hooks{Complete: func(ctx context.Context, file TrackedFile, pctx Context) error {
		secondRan = true
		return nil
	}}})

	runner.RunComplete(context.Background(), TrackedFile{}, nil, ManagerConfig{}, nil)
	assert.True(t, secondRan)
}
