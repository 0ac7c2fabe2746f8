package uploadkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

func TestRegistryPushAndByID(t *testing.T) {
	r := NewRegistry()
	r.Push(plugin.TrackedFile{ID: "a"})
	r.Push(plugin.TrackedFile{ID: "b"})

	f, ok := r.ByID("b")
	require.True(t, ok)
	assert.Equal(t, "b", f.ID)

	_, ok = r.ByID("missing")
	assert.False(t, ok)
}

func TestRegistryNotifiesSubscribersSynchronously(t *testing.T) {
	r := NewRegistry()
	var seen []int
	r.Subscribe(func(files []plugin.TrackedFile) { seen = append(seen, len(files)) })

	r.Push(plugin.TrackedFile{ID: "a"})
	assert.Equal(t, []int{1}, seen)

	r.Push(plugin.TrackedFile{ID: "b"})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRegistryMoveNoOpOnInvalidIndices(t *testing.T) {
	r := NewRegistry()
	r.Push(plugin.TrackedFile{ID: "a"})
	r.Push(plugin.TrackedFile{ID: "b"})

	assert.False(t, r.Move(0, 0))
	assert.False(t, r.Move(0, 5))
	assert.True(t, r.Move(0, 1))

	ids := []string{}
	for _, f := range r.List() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"b", "a"}, ids)
}

func TestRegistryDerivedTotalProgress(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.DerivedTotalProgress())

	r.Push(plugin.TrackedFile{ID: "a", Progress: plugin.Progress{Percentage: 100}})
	r.Push(plugin.TrackedFile{ID: "b", Progress: plugin.Progress{Percentage: 0}})
	assert.Equal(t, 50, r.DerivedTotalProgress())
}

func TestRegistryAllComplete(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.AllComplete())

	r.Push(plugin.TrackedFile{ID: "a", Status: plugin.StatusComplete})
	assert.True(t, r.AllComplete())

	r.Push(plugin.TrackedFile{ID: "b", Status: plugin.StatusWaiting})
	assert.False(t, r.AllComplete())
}

func TestRegistryRemoveWhere(t *testing.T) {
	r := NewRegistry()
	r.Push(plugin.TrackedFile{ID: "a"})
	r.Push(plugin.TrackedFile{ID: "b"})

	removed := r.RemoveWhere(func(f plugin.TrackedFile) bool { return f.ID == "a" })
	require.Len(t, removed, 1)
	assert.Equal(t, 1, r.Len())
	_, ok := r.ByID("a")
	assert.False(t, ok)
}
