package uploadkit

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ResourceTracker owns every transient handle the core creates on behalf of
// a local file — in a browser this would be an object URL backed by the
// file's bytes; here it is an opaque "blob:" identifier. The tracker
// guarantees release on every exit path: removal, data replacement, clear,
// reset, and manager teardown.
type ResourceTracker struct {
	mu      sync.Mutex
	urls    map[string]string
	counter atomic.Uint64
}

// NewResourceTracker constructs an empty tracker.
func NewResourceTracker() *ResourceTracker {
	return &ResourceTracker{urls: make(map[string]string)}
}

// URLFor returns the cached handle for fileID, creating and registering one
// from data/mimeType on first use.
func (t *ResourceTracker) URLFor(fileID string, data []byte, mimeType string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if url, ok := t.urls[fileID]; ok {
		return url
	}
	n := t.counter.Add(1)
	url := fmt.Sprintf("blob:uploadkit/%s-%d", fileID, n)
	t.urls[fileID] = url
	return url
}

// Release drops the tracked handle for fileID, if any. It is a no-op if
// fileID has no tracked handle.
func (t *ResourceTracker) Release(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.urls, fileID)
}

// Cleanup drains every tracked handle, releasing all of them. Used on
// clear(), reset() and manager teardown.
func (t *ResourceTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls = make(map[string]string)
}

// Count reports how many handles are currently tracked. Used by tests to
// assert resource safety: after reset or teardown, Count must be zero.
func (t *ResourceTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.urls)
}
