package uploadkit

import "github.com/uploadkit/uploadkit/pkg/plugin"

// Re-export the shared domain types from pkg/plugin so that ordinary
// callers of this package never need to import pkg/plugin directly for the
// common case of reading back a TrackedFile. Plugin authors still import
// pkg/plugin for the hook/contract types.
type (
	TrackedFile = plugin.TrackedFile
	FileError   = plugin.FileError
	Thumbnail   = plugin.Thumbnail
	Progress    = plugin.Progress
	Source      = plugin.Source
	Status      = plugin.Status
	Plugin      = plugin.Plugin
	UploadResult = plugin.UploadResult
	RemoteFileInfo = plugin.RemoteFileInfo
	StorageAdapter = plugin.StorageAdapter
)

const (
	SourceLocal   = plugin.SourceLocal
	SourceStorage = plugin.SourceStorage

	StatusWaiting   = plugin.StatusWaiting
	StatusUploading = plugin.StatusUploading
	StatusComplete  = plugin.StatusComplete
	StatusError     = plugin.StatusError
)

// FileSource describes a file handed to AddFile/AddFiles. It stands in for
// the browser's File/Blob object: a name (used to derive the id and
// extension), declared size and MIME type, the owned bytes, and an
// optional last-modified timestamp used by the duplicate-file validator.
type FileSource struct {
	Name         string
	MimeType     string
	Data         []byte
	LastModified int64

	// Size overrides the declared byte size. Zero means "use len(Data)";
	// a non-zero value lets callers simulate a File object whose declared
	// size differs from the bytes actually held (as browser File objects
	// permit), which the validator test scenarios rely on.
	Size int64
}

// DeleteMode controls whether RemoveFile asks the storage adapter to delete
// the remote object backing a file.
type DeleteMode int

const (
	// DeleteAlways calls the adapter's Remove whenever the file has a
	// RemoteURL. This is the default.
	DeleteAlways DeleteMode = iota
	// DeleteNever never calls the adapter; only the local registry entry
	// (and its tracked object URL) is removed.
	DeleteNever
	// DeleteLocalOnly behaves like DeleteNever; it exists as a distinct,
	// explicit spelling for callers documenting intent ("remove locally,
	// the remote object is managed elsewhere") rather than merely opting
	// out of deletion.
	DeleteLocalOnly
)

// RemoveOptions configures RemoveFile.
type RemoveOptions struct {
	DeleteFromStorage DeleteMode
}

// ManagerStatus is the coarse, derived aggregate status across every
// tracked file, exposed by Manager.Status() as the "status" observable
// from the public API surface.
type ManagerStatus string

const (
	ManagerIdle       ManagerStatus = "idle"
	ManagerUploading  ManagerStatus = "uploading"
	ManagerComplete   ManagerStatus = "complete"
	ManagerHasErrors  ManagerStatus = "error"
)
