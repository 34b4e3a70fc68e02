package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quorum/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Loader reads weight profiles from a yaml file and hot-reloads on change.
// A bad edit keeps the last good snapshot active; the error is only logged.
type Loader struct {
	path string

	mu       sync.RWMutex
	snapshot Snapshot

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewLoader(path string) (*Loader, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("profiles path cannot be empty")
	}
	l := &Loader{path: path, done: make(chan struct{})}
	snap, err := l.loadFile()
	if err != nil {
		return nil, err
	}
	l.snapshot = snap
	return l, nil
}

// Snapshot returns the current profile set. Callers keep the returned value;
// a concurrent reload never mutates an already handed out snapshot.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Watch starts the fsnotify loop. Editors often replace files via rename, so
// the parent directory is watched rather than the file itself.
func (l *Loader) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		return err
	}
	l.watcher = w
	go l.watchLoop()
	return nil
}

func (l *Loader) Close() error {
	close(l.done)
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Loader) watchLoop() {
	var debounce *time.Timer
	target := filepath.Clean(l.path)
	for {
		select {
		case <-l.done:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, l.reload)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("profile watcher: %v", err)
		}
	}
}

func (l *Loader) reload() {
	snap, err := l.loadFile()
	if err != nil {
		logger.Warnf("profile reload rejected, keeping previous snapshot: %v", err)
		return
	}
	l.mu.Lock()
	snap.Version = l.snapshot.Version + 1
	l.snapshot = snap
	l.mu.Unlock()
	logger.Infof("profiles reloaded: version=%d profiles=%d default=%s",
		snap.Version, len(snap.Profiles), snap.Default)
}

func (l *Loader) loadFile() (Snapshot, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading profiles failed: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Snapshot{}, fmt.Errorf("parsing profiles failed: %w", err)
	}
	if len(fc.Profiles) == 0 {
		return Snapshot{}, fmt.Errorf("profiles file %s defines no profiles", l.path)
	}
	out := make(map[string]Profile, len(fc.Profiles))
	defaultName := ""
	for name, p := range fc.Profiles {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return Snapshot{}, fmt.Errorf("profile name cannot be empty")
		}
		p.Name = key
		p.normalize()
		if err := p.validate(); err != nil {
			return Snapshot{}, err
		}
		if p.Default {
			if defaultName != "" {
				return Snapshot{}, fmt.Errorf("multiple default profiles: %s and %s", defaultName, key)
			}
			defaultName = key
		}
		out[key] = p
	}
	if defaultName == "" {
		if p, ok := out["default"]; ok {
			defaultName = p.Name
		} else {
			return Snapshot{}, fmt.Errorf("no default profile marked and none named \"default\"")
		}
	}
	return Snapshot{
		Version:  1,
		LoadedAt: time.Now().UTC(),
		Profiles: out,
		Default:  defaultName,
	}, nil
}
