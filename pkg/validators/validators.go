// Package validators implements the built-in validate-stage plugins
// described in the specification's C9 component: max file count, max file
// size, allowed MIME types, and duplicate detection. Each is an ordinary
// plugin.Plugin; the manager installs them conditionally based on
// ManagerConfig flags, but nothing here depends on the manager package.
package validators

import (
	"context"
	"fmt"

	"github.com/uploadkit/uploadkit/pkg/plugin"
)

// NewMaxFiles builds a validator that rejects admission once the registry
// already holds max files. A non-positive max disables the check.
func NewMaxFiles(max int) plugin.Plugin {
	return plugin.Plugin{
		ID: "max-files-validator",
		Hooks: plugin.Hooks{
			Validate: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
				if max <= 0 {
					return nil
				}
				if len(pctx.Files) >= max {
					return &plugin.FileError{
						Message: fmt.Sprintf("cannot add more than %d files", max),
						Details: map[string]any{"limit": max},
					}
				}
				return nil
			},
		},
	}
}

// NewMaxFileSize builds a validator that rejects a file larger than limit
// bytes. A non-positive limit disables the check.
func NewMaxFileSize(limit int64) plugin.Plugin {
	return plugin.Plugin{
		ID: "max-file-size-validator",
		Hooks: plugin.Hooks{
			Validate: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
				if limit <= 0 {
					return nil
				}
				if file.Size > limit {
					return &plugin.FileError{
						Message: fmt.Sprintf("file %q exceeds the maximum size of %d bytes", file.Name, limit),
						Details: map[string]any{"limit": limit, "size": file.Size},
					}
				}
				return nil
			},
		},
	}
}

// NewAllowedFileTypes builds a validator that rejects files whose MIME type
// is not in allowed. An empty/nil allowed list disables the check.
func NewAllowedFileTypes(allowed []string) plugin.Plugin {
	set := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}
	return plugin.Plugin{
		ID: "allowed-file-types-validator",
		Hooks: plugin.Hooks{
			Validate: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
				if len(set) == 0 {
					return nil
				}
				if _, ok := set[file.MimeType]; !ok {
					return &plugin.FileError{
						Message: fmt.Sprintf("file type %q is not allowed", file.MimeType),
						Details: map[string]any{"mimeType": file.MimeType},
					}
				}
				return nil
			},
		},
	}
}

// NewDuplicateFile builds a validator that rejects a file matching an
// already-registered file's name, size, and (when both are known)
// last-modified timestamp.
func NewDuplicateFile() plugin.Plugin {
	return plugin.Plugin{
		ID: "duplicate-file-validator",
		Hooks: plugin.Hooks{
			Validate: func(ctx context.Context, file plugin.TrackedFile, pctx plugin.Context) error {
				for _, existing := range pctx.Files {
					if existing.Name != file.Name || existing.Size != file.Size {
						continue
					}
					if existing.LastModified != 0 && file.LastModified != 0 && existing.LastModified != file.LastModified {
						continue
					}
					return &plugin.FileError{
						Message: fmt.Sprintf("file %q has already been added", file.Name),
						Details: map[string]any{"name": file.Name, "size": file.Size},
					}
				}
				return nil
			},
		},
	}
}
