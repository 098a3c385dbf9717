package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// WatchResult is one reload of a watched catalog file. Err is set when
// the file could not be read or parsed; Catalog is nil in that case.
type WatchResult struct {
	Catalog  *Catalog
	Warnings []Warning
	Err      error
}

// WatchFile loads path once, then again each time it is written or
// recreated, emitting a result per load. Bursts of events within debounce
// collapse into one reload. The channel is closed when ctx is done.
//
// The parent directory is watched rather than the file so editors that
// save by rename keep being followed.
func WatchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger) (<-chan WatchResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.ErrCatalogSource.WithMessage(fmt.Sprintf("resolving %s", path)).WithCause(err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.ErrCatalogSource.WithMessage("creating file watcher").WithCause(err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, apperrors.ErrCatalogSource.WithMessage(fmt.Sprintf("watching %s", filepath.Dir(abs))).WithCause(err)
	}

	out := make(chan WatchResult, 1)
	src := FileSource{Path: abs}
	logger = logger.With("component", "catalog", "source", src.String())

	go func() {
		defer close(out)
		defer fsw.Close()

		emit := func() bool {
			var res WatchResult
			res.Catalog, res.Err = Load(ctx, src)
			if res.Err == nil {
				res.Warnings = res.Catalog.Lint()
				logger.Info("Catalog reloaded", "archetypes", len(res.Catalog.archetypes), "warnings", len(res.Warnings))
			} else {
				logger.Warn("Catalog reload failed", "error", res.Err)
			}
			select {
			case out <- res:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				logger.Debug("Catalog file changed", "op", ev.Op.String())
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Error("Watcher error", "error", err)

			case <-fire:
				fire = nil
				if !emit() {
					return
				}
			}
		}
	}()

	return out, nil
}
