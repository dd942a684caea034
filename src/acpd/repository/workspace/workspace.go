// Package workspace stores the workspace entries and the application settings.
package workspace

import (
	"bytes"
	"context"
	stderr "errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	_workspacesKey = "workspaces"
	_settingsKey   = "settings"

	// _reloadDelay collapses the burst of events a single save produces.
	_reloadDelay = 100 * time.Millisecond
)

// errEmptyFile is reported for a workspaces file without content. Writers truncate before they
// write, so an empty file on reload is usually a save in progress.
var errEmptyFile = stderr.New("file is empty")

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Repository gives read access to workspaces and settings.
type Repository interface {
	// Get returns the entry of a workspace, or WorkspaceNotFoundError.
	Get(ctx context.Context, id string) (*entity.WorkspaceEntry, error)
	// List returns every workspace ordered by id.
	List(ctx context.Context) ([]entity.WorkspaceEntry, error)
	Settings(ctx context.Context) (*entity.AppSettings, error)
}

// Config is the workspaces block of the service configuration.
type Config struct {
	Entries []entity.WorkspaceEntry `yaml:"entries"`
	// File optionally names a YAML document with settings and entries, reloaded when it changes.
	File string `yaml:"file"`
}

// Document is the layout of the workspaces file.
type Document struct {
	Settings   *entity.AppSettings     `yaml:"settings"`
	Workspaces []entity.WorkspaceEntry `yaml:"workspaces"`
}

// Params define values to be used by Repository.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	FS        fs.FS
}

type snapshot struct {
	entries  map[string]entity.WorkspaceEntry
	settings entity.AppSettings
}

type repository struct {
	mu      sync.RWMutex
	current snapshot

	base         Config
	baseSettings entity.AppSettings
	file         string
	fs           fs.FS
	logger       *zap.SugaredLogger

	watcher *fsnotify.Watcher
	closer  chan struct{}
	done    chan struct{}
}

// New creates a workspace repository. When a workspaces file is configured it is loaded now and
// watched for changes while the application runs.
func New(p Params) (Repository, error) {
	var cfg Config
	if err := p.Config.Get(_workspacesKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _workspacesKey, err)
	}
	var settings entity.AppSettings
	if err := p.Config.Get(_settingsKey).Populate(&settings); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _settingsKey, err)
	}

	r := &repository{
		base:         cfg,
		baseSettings: settings,
		fs:           p.FS,
		logger:       p.Logger.With("component", "workspaces"),
	}
	if cfg.File != "" {
		abs, err := filepath.Abs(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("resolving workspaces file %q: %w", cfg.File, err)
		}
		r.file = abs
	}

	s, err := r.load(true)
	if err != nil {
		return nil, err
	}
	r.current = s

	if r.file != "" {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return r.watch()
			},
			OnStop: func(ctx context.Context) error {
				return r.stop(ctx)
			},
		})
	}
	return r, nil
}

func (r *repository) Get(ctx context.Context, id string) (*entity.WorkspaceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.current.entries[id]
	if !ok {
		return nil, &errors.WorkspaceNotFoundError{ID: id}
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context) ([]entity.WorkspaceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]entity.WorkspaceEntry, 0, len(r.current.entries))
	for _, e := range r.current.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (r *repository) Settings(ctx context.Context) (*entity.AppSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings := r.current.settings
	return &settings, nil
}

// load builds a snapshot from the configuration, overlaid with the workspaces file when it exists.
// Entries of the file replace configured entries with the same id. An empty file counts as absent
// only when allowEmpty is set.
func (r *repository) load(allowEmpty bool) (snapshot, error) {
	s := snapshot{
		entries:  make(map[string]entity.WorkspaceEntry),
		settings: r.baseSettings,
	}
	for _, e := range r.base.Entries {
		if err := addEntry(s.entries, e); err != nil {
			return snapshot{}, err
		}
	}

	if r.file != "" {
		doc, err := r.readFile()
		if err != nil && !(allowEmpty && stderr.Is(err, errEmptyFile)) {
			return snapshot{}, err
		}
		if doc != nil {
			if doc.Settings != nil {
				s.settings = mergeSettings(s.settings, *doc.Settings)
			}
			for _, e := range doc.Workspaces {
				if err := addEntry(s.entries, e); err != nil {
					return snapshot{}, err
				}
			}
		}
	}

	if s.settings.DefaultAccessMode == "" {
		s.settings.DefaultAccessMode = entity.DefaultAccessMode
	}
	return s, nil
}

// readFile returns nil when the file does not exist.
func (r *repository) readFile() (*Document, error) {
	exists, err := r.fs.FileExists(r.file)
	if err != nil {
		return nil, err
	}
	if !exists {
		r.logger.Warnw("workspaces file not found", "path", r.file)
		return nil, nil
	}

	data, err := r.fs.ReadFile(r.file)
	if err != nil {
		return nil, fmt.Errorf("reading workspaces file %q: %w", r.file, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &errors.ParseError{What: "workspaces file " + r.file, Err: errEmptyFile}
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.ParseError{What: "workspaces file " + r.file, Err: err}
	}
	return &doc, nil
}

func (r *repository) reload() {
	s, err := r.load(false)
	if err != nil {
		r.logger.Warnw("keeping previous workspaces", "path", r.file, "error", err)
		return
	}
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	r.logger.Infow("reloaded workspaces", "path", r.file, "count", len(s.entries))
}

// watch observes the directory of the file, since editors often replace files instead of writing them.
func (r *repository) watch() error {
	if err := r.fs.MkdirAll(filepath.Dir(r.file)); err != nil {
		return fmt.Errorf("creating workspaces directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher for workspaces: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.file)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %q: %w", filepath.Dir(r.file), err)
	}

	r.watcher = watcher
	r.closer = make(chan struct{})
	r.done = make(chan struct{})
	go r.handleChanges()
	return nil
}

func (r *repository) handleChanges() {
	defer close(r.done)

	timer := time.NewTimer(_reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != r.file {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(_reloadDelay)
		case <-timer.C:
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warnw("failure in workspaces watcher", "error", err)
		case <-r.closer:
			return
		}
	}
}

func (r *repository) stop(ctx context.Context) error {
	if r.watcher == nil {
		return nil
	}
	close(r.closer)
	err := r.watcher.Close()
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func addEntry(entries map[string]entity.WorkspaceEntry, e entity.WorkspaceEntry) error {
	if e.ID == "" {
		return fmt.Errorf("missing field %q in workspace %q", "id", e.Name)
	}
	if e.Path == "" {
		return fmt.Errorf("missing field %q in workspace %q", "path", e.ID)
	}
	if e.Backend == "" {
		e.Backend = entity.BackendCodex
	}
	entries[e.ID] = e
	return nil
}

// mergeSettings overlays the non-empty fields of override on base.
func mergeSettings(base, override entity.AppSettings) entity.AppSettings {
	if override.CodexBin != "" {
		base.CodexBin = override.CodexBin
	}
	if override.OpencodeBin != "" {
		base.OpencodeBin = override.OpencodeBin
	}
	if override.DefaultAccessMode != "" {
		base.DefaultAccessMode = override.DefaultAccessMode
	}
	return base
}
