package uploadkit

import (
	"sync"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// Registry is the authoritative, ordered sequence of tracked files. Every
// mutation is observable by subscribers registered before the mutation
// returns: Subscribe callbacks are invoked synchronously, under the same
// lock discipline as the mutating call, before that call returns to its
// caller.
type Registry struct {
	mu          sync.RWMutex
	files       []plugin.TrackedFile
	subscribers []func([]plugin.TrackedFile)
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// List returns a snapshot of the current order. Mutating the result does
// not affect the registry.
func (r *Registry) List() []plugin.TrackedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.TrackedFile, len(r.files))
	copy(out, r.files)
	return out
}

// ByID looks up a file by id. The bool is false if no such file is tracked.
func (r *Registry) ByID(id string) (plugin.TrackedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files {
		if f.ID == id {
			return f, true
		}
	}
	return plugin.TrackedFile{}, false
}

// IndexOf returns the position of id in the current order, or -1.
func (r *Registry) IndexOf(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, f := range r.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Push appends f to the end of the sequence.
func (r *Registry) Push(f plugin.TrackedFile) {
	r.mu.Lock()
	r.files = append(r.files, f)
	r.mu.Unlock()
	r.notify()
}

// ReplaceAt overwrites the file at id in place, preserving its position.
// It reports whether a file with that id was found.
func (r *Registry) ReplaceAt(id string, f plugin.TrackedFile) bool {
	r.mu.Lock()
	found := false
	for i := range r.files {
		if r.files[i].ID == id {
			r.files[i] = f
			found = true
			break
		}
	}
	r.mu.Unlock()
	if found {
		r.notify()
	}
	return found
}

// Update applies fn to the file at id in place and reports whether it was
// found.
func (r *Registry) Update(id string, fn func(*plugin.TrackedFile)) bool {
	r.mu.Lock()
	found := false
	for i := range r.files {
		if r.files[i].ID == id {
			fn(&r.files[i])
			found = true
			break
		}
	}
	r.mu.Unlock()
	if found {
		r.notify()
	}
	return found
}

// TryClaim atomically transitions the file at id from waiting to uploading
// and returns the claimed file. It reports false, leaving the registry
// untouched, if id is unknown or the file is not currently waiting. This is
// the sole synchronization point between concurrent Upload calls: at most
// one caller can ever claim a given file, so two goroutines racing to
// upload the same file (e.g. AddFiles with AutoUpload spawning one upload
// goroutine per admitted file) can never both invoke the storage adapter
// for it.
func (r *Registry) TryClaim(id string) (plugin.TrackedFile, bool) {
	r.mu.Lock()
	var claimed plugin.TrackedFile
	ok := false
	for i := range r.files {
		if r.files[i].ID == id {
			if r.files[i].Status == plugin.StatusWaiting {
				r.files[i].Status = plugin.StatusUploading
				claimed = r.files[i]
				ok = true
			}
			break
		}
	}
	r.mu.Unlock()
	if ok {
		r.notify()
	}
	return claimed, ok
}

// RemoveWhere removes every file matching pred and returns the removed
// files in their original order.
func (r *Registry) RemoveWhere(pred func(plugin.TrackedFile) bool) []plugin.TrackedFile {
	r.mu.Lock()
	var removed []plugin.TrackedFile
	kept := r.files[:0:0]
	for _, f := range r.files {
		if pred(f) {
			removed = append(removed, f)
		} else {
			kept = append(kept, f)
		}
	}
	r.files = kept
	r.mu.Unlock()
	if len(removed) > 0 {
		r.notify()
	}
	return removed
}

// Move relocates the file at oldIndex to newIndex, shifting the files in
// between. It is a no-op (returning false) when the indices are equal or
// out of bounds.
func (r *Registry) Move(oldIndex, newIndex int) bool {
	r.mu.Lock()
	n := len(r.files)
	if oldIndex == newIndex || oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		r.mu.Unlock()
		return false
	}
	f := r.files[oldIndex]
	r.files = append(r.files[:oldIndex], r.files[oldIndex+1:]...)
	r.files = append(r.files[:newIndex], append([]plugin.TrackedFile{f}, r.files[newIndex:]...)...)
	r.mu.Unlock()
	r.notify()
	return true
}

// Clear truncates the registry and returns the files that were present.
func (r *Registry) Clear() []plugin.TrackedFile {
	r.mu.Lock()
	removed := r.files
	r.files = nil
	r.mu.Unlock()
	if len(removed) > 0 {
		r.notify()
	}
	return removed
}

// Len reports the current number of tracked files.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// DerivedTotalProgress returns the floor of the mean progress percentage
// across all tracked files, or 0 when empty.
func (r *Registry) DerivedTotalProgress() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.files) == 0 {
		return 0
	}
	sum := 0
	for _, f := range r.files {
		sum += f.Progress.Percentage
	}
	return sum / len(r.files)
}

// AllComplete reports whether every tracked file has reached StatusComplete.
// An empty registry is not considered complete (there is nothing to have
// completed).
func (r *Registry) AllComplete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.files) == 0 {
		return false
	}
	for _, f := range r.files {
		if f.Status != plugin.StatusComplete {
			return false
		}
	}
	return true
}

// Subscribe registers fn to be invoked with the full current snapshot after
// every mutation. It returns an unsubscribe function.
func (r *Registry) Subscribe(fn func([]plugin.TrackedFile)) (unsubscribe func()) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	idx := len(r.subscribers) - 1
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx >= 0 && idx < len(r.subscribers) {
			r.subscribers[idx] = nil
		}
	}
}

func (r *Registry) notify() {
	snapshot := r.List()
	r.mu.RLock()
	subs := make([]func([]plugin.TrackedFile), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()

	for _, fn := range subs {
		if fn != nil {
			fn(snapshot)
		}
	}
}
