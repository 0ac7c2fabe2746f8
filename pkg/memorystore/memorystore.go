// Package memorystore provides a reference, in-process plugin.StorageAdapter
// backed by a plain Go map, grounded on the teacher's pkg/filestore: where
// filestore persists an upload's bytes and handler.FileInfo metadata to the
// local disk, memorystore keeps the same two things (bytes + metadata) in
// memory, behind the same kind of mutex-guarded map the teacher's
// memorylocker uses for its lock table.
//
// It exists to make the rest of the module runnable and testable without a
// real object-store dependency; production users are expected to supply
// their own plugin.StorageAdapter.
package memorystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uploadkit/uploadkit/internal/semaphore"
	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// object is the stored representation of one uploaded blob.
type object struct {
	Data         []byte
	MimeType     string
	UploadResult any
}

// Options configures a Store.
type Options struct {
	// SimulatedLatency, if non-zero, paces Upload with a handful of
	// progress callbacks spread evenly across this duration, so callers
	// can exercise upload:progress ordering without a real network.
	SimulatedLatency time.Duration

	// MaxConcurrentUploads bounds how many Upload calls may be in flight
	// at once, and how many keys a single ResolveMany call resolves
	// concurrently. Zero means unbounded.
	MaxConcurrentUploads int
}

// Store is an in-memory plugin.StorageAdapter and plugin.AuxiliaryUploader.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*object

	latency time.Duration
	sem     semaphore.Semaphore
}

// New constructs an empty Store.
func New(opts Options) *Store {
	s := &Store{
		objects: make(map[string]*object),
		latency: opts.SimulatedLatency,
	}
	if opts.MaxConcurrentUploads > 0 {
		s.sem = semaphore.New(opts.MaxConcurrentUploads)
	}
	return s
}

// Upload stores file's bytes under a freshly minted storage key and reports
// a handful of evenly spaced progress callbacks before resolving.
func (s *Store) Upload(ctx context.Context, file plugin.TrackedFile, uploadCtx plugin.UploadContext) (plugin.UploadResult, error) {
	if s.sem != nil {
		s.sem.Acquire()
		defer s.sem.Release()
	}

	key := file.ID + "-" + uuid.NewString()
	s.reportProgress(ctx, uploadCtx.OnProgress)

	s.mu.Lock()
	s.objects[key] = &object{Data: append([]byte(nil), file.Data...), MimeType: file.MimeType}
	s.mu.Unlock()

	return plugin.UploadResult{
		URL:        s.urlFor(key),
		StorageKey: key,
	}, nil
}

// reportProgress emits 25, 50, 75, 100 spaced across s.latency (or
// immediately, all at once, when no latency is configured).
func (s *Store) reportProgress(ctx context.Context, onProgress func(int)) {
	if onProgress == nil {
		return
	}
	steps := []int{25, 50, 75, 100}
	if s.latency <= 0 {
		for _, p := range steps {
			onProgress(p)
		}
		return
	}
	tick := s.latency / time.Duration(len(steps))
	for _, p := range steps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(tick):
		}
		onProgress(p)
	}
}

// GetRemoteFile resolves the metadata for a previously uploaded object.
func (s *Store) GetRemoteFile(ctx context.Context, storageKey string, pctx plugin.Context) (plugin.RemoteFileInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[storageKey]
	s.mu.RUnlock()
	if !ok {
		return plugin.RemoteFileInfo{}, fmt.Errorf("memorystore: object %q not found", storageKey)
	}
	return plugin.RemoteFileInfo{
		Size:         int64(len(obj.Data)),
		MimeType:     obj.MimeType,
		RemoteURL:    s.urlFor(storageKey),
		UploadResult: obj.UploadResult,
	}, nil
}

// ResolveMany resolves many storage keys concurrently, bounded by
// MaxConcurrentUploads when configured. On success the returned slice has
// the same length and order as keys; if resolving any key fails, the slice
// is nil and the first error encountered is returned.
func (s *Store) ResolveMany(ctx context.Context, keys []string) ([]plugin.RemoteFileInfo, error) {
	out := make([]plugin.RemoteFileInfo, len(keys))
	group, gctx := errgroup.WithContext(ctx)
	if s.sem != nil {
		group.SetLimit(cap(s.sem))
	}

	for i, key := range keys {
		i, key := i, key
		group.Go(func() error {
			info, err := s.GetRemoteFile(gctx, key, plugin.Context{})
			if err != nil {
				return err
			}
			out[i] = info
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes the object referenced by file.StorageKey. Removing a key
// that is not present succeeds silently, per the adapter's idempotent
// delete contract.
func (s *Store) Remove(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
	s.mu.Lock()
	delete(s.objects, file.StorageKey)
	s.mu.Unlock()
	return nil
}

// UploadAuxiliary stores a plugin-originated artifact (e.g. a standalone
// thumbnail) under an explicit key, implementing plugin.AuxiliaryUploader.
func (s *Store) UploadAuxiliary(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	s.objects[key] = &object{Data: append([]byte(nil), data...), MimeType: contentType}
	s.mu.Unlock()
	return s.urlFor(key), nil
}

func (s *Store) urlFor(key string) string {
	return fmt.Sprintf("memorystore://%s", key)
}

// Len reports how many objects (uploads and auxiliary artifacts) are
// currently stored. Used by tests to assert cleanup behavior.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
