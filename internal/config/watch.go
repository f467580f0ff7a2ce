package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever the file changes on disk and
// invokes the change callback. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors
// which replace the file by rename keep triggering reloads.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(m.configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	m.log.Debugf("watching %s", dir)

	name := filepath.Base(m.configPath)
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warnf("watcher error: %v", err)

		case <-timer.C:
			if err := m.reload(); err != nil {
				m.log.Warnf("reload failed, keeping previous config: %v", err)
			}
		}
	}
}

// reload re-reads the file without the create-on-missing behavior of Load.
func (m *Manager) reload() error {
	cfg, _, err := m.read()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	m.log.Infof("reloaded configuration from %s", m.configPath)
	if onChanged != nil {
		onChanged()
	}
	return nil
}
