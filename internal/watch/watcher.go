// Package watch discovers invoice files dropped into a hot folder. Each
// emitted path is a candidate single-file batch; sequencing is the caller's
// concern.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docupay/invoice-capture/constants"
)

type Config struct {
	Root        string        // directory to watch, recursive
	InitialScan bool          // emit files already present under Root
	Debounce    time.Duration // coalesce write bursts while a scan lands
}

// Start watches cfg.Root and emits paths of recognized invoice files
// (constants.AllowedExtensions). Channels close when ctx is cancelled.
func Start(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("watch: no root directory")
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	paths := make(chan string, 256)
	errs := make(chan error, 1)

	// Register every subdirectory; fsnotify does not recurse on its own.
	addTree := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && constants.IsAllowedExt(filepath.Ext(path)) {
				select {
				case paths <- path:
				default:
				}
			}
			return nil
		})
	}
	if err := addTree(cfg.Root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(paths)
		defer close(errs)
		defer func() {
			_ = w.Close()
		}()

		var timer *time.Timer
		var timerC <-chan time.Time
		pending := map[string]struct{}{}
		flush := func() {
			for p := range pending {
				select {
				case paths <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timerC:
				timerC = nil
				flush()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create != 0 {
					// new subdirectories join the watch; Add on a file fails
					// harmlessly
					_ = w.Add(e.Name)
				}
				if !constants.IsAllowedExt(filepath.Ext(e.Name)) {
					continue
				}
				// Rename carries the old path of a file moved away; files
				// moved into the tree arrive as Create.
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.NewTimer(cfg.Debounce)
					timerC = timer.C
				} else {
					flush()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "root", cfg.Root, "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	logger.Info("watch.start", "root", cfg.Root, "initial_scan", cfg.InitialScan)
	return paths, errs, nil
}
