// Package inbox ingests documents dropped into a local directory.
//
// The inbox is the file-based ingest source: each new file is read as one
// document and handed to intake, then moved into a processed/ subdirectory
// so it is never ingested twice. A filesystem watcher nudges the daemon to
// run a pass as soon as a file lands; a periodic sweep catches anything
// the watcher missed.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/orchestrator"
)

// processedDir is where ingested files are moved, relative to the inbox.
const processedDir = "processed"

// maxDocumentSize caps how much of a dropped file is read.
const maxDocumentSize = 1 << 20 // 1MB

// Inbox is a drop-folder ingest source.
type Inbox struct {
	dir    string
	logger *zap.Logger
}

// New creates the inbox, making the directory tree if needed.
func New(dir string, logger *zap.Logger) (*Inbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dir, processedDir), 0o755); err != nil {
		return nil, &orchestrator.SourceError{
			Kind: orchestrator.KindSourceDisabled,
			Err:  fmt.Errorf("failed to create inbox directory: %w", err),
		}
	}
	return &Inbox{dir: dir, logger: logger}, nil
}

// Name identifies the source.
func (i *Inbox) Name() string { return "inbox" }

// Poll returns one document per unprocessed file in the inbox.
func (i *Inbox) Poll(ctx context.Context) ([]orchestrator.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, &orchestrator.SourceError{
			Kind: orchestrator.KindSourceDisabled,
			Err:  fmt.Errorf("failed to read inbox: %w", err),
		}
	}

	var docs []orchestrator.Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(i.dir, entry.Name())
		content, err := readCapped(path)
		if err != nil {
			i.logger.Warn("skipping unreadable inbox file",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		docs = append(docs, orchestrator.Document{
			Content: content,
			Source:  path,
		})
	}
	return docs, nil
}

// MarkProcessed moves the document's file into the processed subdirectory.
func (i *Inbox) MarkProcessed(ctx context.Context, doc orchestrator.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := filepath.Join(i.dir, processedDir, filepath.Base(doc.Source))
	if err := os.Rename(doc.Source, dest); err != nil {
		return &orchestrator.SourceError{
			Kind: orchestrator.KindSourceDenied,
			Err:  fmt.Errorf("failed to archive inbox file: %w", err),
		}
	}
	return nil
}

// Watch invokes notify whenever a file lands in the inbox, until ctx is
// cancelled. Watcher errors are logged; the periodic sweep remains the
// fallback delivery path.
func (i *Inbox) Watch(ctx context.Context, notify func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create inbox watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(i.dir); err != nil {
		return fmt.Errorf("failed to watch inbox directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				notify()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			i.logger.Warn("inbox watcher error", zap.Error(err))
		}
	}
}

func readCapped(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) > maxDocumentSize {
		data = data[:maxDocumentSize]
	}
	return string(data), nil
}
