package uploadkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceTrackerURLForIsCachedPerFile(t *testing.T) {
	tracker := NewResourceTracker()
	url1 := tracker.URLFor("file-1", []byte("data"), "image/jpeg")
	url2 := tracker.URLFor("file-1", []byte("data"), "image/jpeg")

	assert.Equal(t, url1, url2)
	assert.Equal(t, 1, tracker.Count())
}

func TestResourceTrackerReleaseAndCleanup(t *testing.T) {
	tracker := NewResourceTracker()
	tracker.URLFor("a", nil, "")
	tracker.URLFor("b", nil, "")
	assert.Equal(t, 2, tracker.Count())

	tracker.Release("a")
	assert.Equal(t, 1, tracker.Count())

	tracker.Cleanup()
	assert.Equal(t, 0, tracker.Count())
}
