// Command uploaddemo wires an uploadkit Manager to the in-memory
// memorystore adapter and drives a handful of files through it from the
// command line, printing each lifecycle event as it fires. It is grounded
// on the teacher's cmd/tusd entrypoint: a flag.FlagSet parsed into a small
// config struct, then one composition root that wires the library.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/uploadkit/uploadkit/pkg/memorystore"
	"github.com/uploadkit/uploadkit/pkg/processors"
	"github.com/uploadkit/uploadkit/pkg/uploadkit"
)

type config struct {
	maxFiles     int
	maxFileSize  int64
	autoUpload   bool
	thumbnails   bool
	files        []string
}

func parseFlags(args []string) config {
	fs := flag.NewFlagSet("uploaddemo", flag.ExitOnError)
	cfg := config{}
	fs.IntVar(&cfg.maxFiles, "max-files", 0, "maximum number of files to admit (0 = unlimited)")
	fs.Int64Var(&cfg.maxFileSize, "max-file-size", 0, "maximum file size in bytes (0 = unlimited)")
	fs.BoolVar(&cfg.autoUpload, "auto-upload", true, "upload each file immediately after it is admitted")
	fs.BoolVar(&cfg.thumbnails, "thumbnails", false, "generate preview thumbnails for admitted images")
	fs.Parse(args)
	cfg.files = fs.Args()
	return cfg
}

func main() {
	cfg := parseFlags(os.Args[1:])
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store := memorystore.New(memorystore.Options{MaxConcurrentUploads: 4})

	managerConfig := uploadkit.ManagerConfig{
		Storage:     store,
		MaxFiles:    cfg.maxFiles,
		MaxFileSize: cfg.maxFileSize,
		AutoUpload:  cfg.autoUpload,
		Logger:      logger,
	}
	if cfg.thumbnails {
		managerConfig.Thumbnails = &processors.ThumbnailOptions{}
	}

	manager, err := uploadkit.New(managerConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, "uploaddemo:", err)
		os.Exit(1)
	}

	for _, event := range []string{
		"file:added", "file:error", "file:removed",
		"upload:start", "upload:progress", "upload:complete", "files:uploaded",
	} {
		event := event
		manager.On(event, func(payload any) {
			fmt.Printf("%-20s %v\n", event, payload)
		})
	}

	ctx := context.Background()
	for _, path := range cfg.files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "uploaddemo: read", path, err)
			continue
		}
		_, err = manager.AddFile(ctx, uploadkit.FileSource{
			Name:     filepath.Base(path),
			MimeType: mimeFor(path),
			Data:     data,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "uploaddemo: add", path, err)
		}
	}

	if !cfg.autoUpload {
		if err := manager.Upload(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "uploaddemo: upload:", err)
		}
	}

	fmt.Printf("total progress: %d%%\n", manager.TotalProgress())
}

func mimeFor(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
