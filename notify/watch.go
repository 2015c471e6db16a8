package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// templateFlushDuration sets the time given to wait for multiple editor
// writes before reloading.
const templateFlushDuration time.Duration = 25 * time.Millisecond

// WatchTemplates watches the configured template directory override for
// writes to .tmpl files, reloading the template set on change. It is only
// useful in development and returns immediately when no template directory
// is configured. WatchTemplates blocks, so needs to be run in a goroutine.
func (m *Mailer) WatchTemplates(ctx context.Context) error {

	dir := m.cfg.Mail.TemplatesPath
	if dir == "" {
		return nil
	}
	dir = filepath.Clean(dir)
	check, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("template dir %q not found: %w", dir, err)
	}
	if !check.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("fsnotify add error for dir %q: %w", dir, err)
	}

	// eventChan is an internal chan used for buffering editor writes.
	eventChan := make(chan bool)

	g, ctx := errgroup.WithContext(ctx)

	// This goroutine watches for *fsnotify.Watcher events.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				// skip events that aren't writes
				if !e.Has(fsnotify.Write) {
					continue
				}
				basename := filepath.Base(e.Name)
				if len(basename) > 0 && basename[0] == '.' {
					continue
				}
				if strings.HasSuffix(strings.ToLower(basename), ".tmpl") {
					eventChan <- true
				}
			}
		}
	})

	// Simple buffer of double writes by editors like vim.
	g.Go(func() error {
		flush := false
		timer := time.NewTicker(templateFlushDuration)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-eventChan:
				if !ok {
					return nil
				}
				flush = true
				timer.Reset(templateFlushDuration)
			case <-timer.C:
				if !flush {
					continue
				}
				flush = false
				if err := m.loadTemplates(); err != nil {
					m.log.Error("mail template reload failed", "error", err)
					continue
				}
				m.log.Info("mail templates reloaded", "dir", dir)
			}
		}
	})

	err = g.Wait()
	close(eventChan)
	return err
}
