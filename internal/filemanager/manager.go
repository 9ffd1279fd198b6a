// Package filemanager caches imported file data by path, reference counts
// it across concurrent users, loads it asynchronously off a worker pool,
// and reloads it in response to filesystem change notifications.
package filemanager

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/fsnotify/fsnotify"
	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/importer"
	"github.com/quinnarbor/modelwrench/internal/logging"
)

type entry struct {
	refCount int
	status   Status
	data     *asset.FileData
}

// Manager is the implementation of the process.FileDataSource interface used
// by the whole pipeline: a thread-safe, reference-counted cache of imported
// file data, with loads dispatched to a worker pool and reloads driven by
// filesystem change events.
type Manager struct {
	mu    sync.RWMutex
	files map[string]*entry

	watcher *fsnotify.Watcher
	pool    worker.DynamicWorkerPool
	nextID  int
	idMu    sync.Mutex

	log logging.Logger
}

// NewManager returns a Manager with its compute pool sized to one less than
// the host's CPU count (at least one worker), leaving one core free.
func NewManager(log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNullLogger()
	}
	workers := max(runtime.NumCPU()-1, 1)
	return &Manager{
		files: make(map[string]*entry),
		pool:  worker.NewDynamicWorkerPool(workers, 256, 5*time.Second),
		log:   log,
	}
}

// StartWatch begins watching the filesystem for changes to every currently
// and subsequently loaded file. It must be called at most once per Manager.
func (m *Manager) StartWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filemanager: start watch: %w", err)
	}
	m.watcher = w

	m.mu.RLock()
	for path := range m.files {
		if err := w.Add(path); err != nil {
			logging.Warn(m.log, logging.CategoryFileManager, "failed to watch %q: %v", path, err)
		}
	}
	m.mu.RUnlock()

	go m.watchLoop()
	return nil
}

func (m *Manager) watchLoop() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logging.Error(m.log, logging.CategoryFileManager, "file watch error: %v", err)
		}
	}
}

func (m *Manager) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create:
		if status, ok := m.GetFileStatus(path); ok && status == StatusLoading {
			return
		}

		m.mu.Lock()
		if e, ok := m.files[path]; ok {
			e.status = StatusLoading
		}
		m.mu.Unlock()

		// A save often shows up as several rapid events; give the writer
		// time to finish before reading the file back.
		time.Sleep(50 * time.Millisecond)
		m.loadFileData(path)

	case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
		m.mu.Lock()
		if e, ok := m.files[path]; ok {
			e.status = StatusFailed
		}
		m.mu.Unlock()
	}
}

// LoadFile loads path's data if it is not already tracked, otherwise
// increments its reference count. Loading happens asynchronously; poll
// GetFileStatus or GetFileData to observe completion.
func (m *Manager) LoadFile(path string) {
	path = filepath.Clean(path)

	m.mu.Lock()
	if e, ok := m.files[path]; ok {
		e.refCount++
		m.mu.Unlock()
		return
	}
	m.files[path] = &entry{refCount: 1, status: StatusLoading}
	m.mu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Add(path); err != nil {
			logging.Warn(m.log, logging.CategoryFileManager, "failed to watch %q: %v", path, err)
		}
	}

	m.loadFileData(path)
}

// loadFileData submits a background load of path to the worker pool. Panics
// from a format parser are caught and reported as a load failure rather than
// crashing the pool.
func (m *Manager) loadFileData(path string) {
	m.idMu.Lock()
	id := m.nextID
	m.nextID++
	m.idMu.Unlock()

	m.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			data, err := m.readAndImport(path)
			m.finishLoad(path, data, err)
			return nil, nil
		},
	})
}

func (m *Manager) readAndImport(path string) (data *asset.FileData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unhandled panic importing %q: %v", path, r)
		}
	}()

	if _, statErr := os.Stat(path); statErr != nil {
		return nil, fmt.Errorf("file does not exist: %w", statErr)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, fmt.Errorf("file does not have an extension")
	}

	src, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("failed to open file: %w", readErr)
	}

	loaded, loadErr := importer.Load(path, src)
	if loadErr != nil {
		return nil, loadErr
	}

	if len(loaded.Skeleton) == 0 {
		return nil, fmt.Errorf("file source must have at least one bone")
	}
	if len(loaded.Animations) == 0 {
		return nil, fmt.Errorf("file source must have at least one animation")
	}
	if loaded.Forward.IsParallel(loaded.Up) {
		return nil, fmt.Errorf("file source up/forward directions are parallel")
	}

	logging.Info(m.log, logging.CategoryFileManager, "loaded %q", path)
	return loaded, nil
}

func (m *Manager) finishLoad(path string, data *asset.FileData, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.files[path]
	if !ok {
		return
	}
	if err != nil {
		logging.Error(m.log, logging.CategoryFileManager, "failed to load %q: %v", path, err)
		e.status = StatusFailed
		return
	}
	e.data = data
	e.status = StatusLoaded
}

// UnloadFile decrements path's reference count, removing it from the cache
// and stopping its watch once the count reaches zero.
func (m *Manager) UnloadFile(path string) {
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.files[path]
	if !ok {
		return
	}
	e.refCount--
	if e.refCount > 0 {
		return
	}

	delete(m.files, path)
	if m.watcher != nil {
		_ = m.watcher.Remove(path)
	}
	logging.Info(m.log, logging.CategoryFileManager, "unloaded %q", path)
}

// GetFileStatus reports a tracked path's current load status.
func (m *Manager) GetFileStatus(path string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.files[filepath.Clean(path)]
	if !ok {
		return StatusFailed, false
	}
	return e.status, true
}

// GetFileData implements process.FileDataSource: it returns the cached data
// for path, if it has finished loading successfully.
func (m *Manager) GetFileData(path string) (*asset.FileData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.files[filepath.Clean(path)]
	if !ok || e.status != StatusLoaded {
		return nil, false
	}
	return e.data, true
}
