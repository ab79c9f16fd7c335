// Package watcher reports directories whose listing changed, so that lazily
// loaded directory nodes can be reloaded. It uses fsnotify and falls back to
// polling on remote filesystems or when asked to.
package watcher

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/treelist/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrDirRemoved     = errors.New("watched directory was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked with the directories that changed.
func WithOnChange(fn func(dirs []string)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors a set of directories for entries being created, removed,
// renamed or written.
type Watcher struct {
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func([]string)
	onError          func(error)
	forcePoll        bool
	forcePollEnv     bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool

	// dirs maps each watched directory to its last polled fingerprint.
	dirs    map[string]uint64
	pending map[string]struct{}
	ready   map[string]struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for dirs. More directories can be added
// later with Add or Sync.
func NewWatcher(dirs []string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func([]string) {},
		onError:          func(error) {},
		dirs:             make(map[string]uint64),
		pending:          make(map[string]struct{}),
		ready:            make(map[string]struct{}),
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)

	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, err
		}
		w.dirs[abs] = 0
	}
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	// Reset per-start state.
	w.useFallback = false
	w.forcePollEnv = envBool("TL_FORCE_POLL")
	w.fsType = FSTypeUnknown
	for d := range w.dirs {
		w.fsType = DetectFilesystemType(d)
		break
	}
	if isRemoteFilesystem(w.fsType) {
		w.useFallback = true
	}

	forcePoll := w.forcePoll || w.forcePollEnv
	if forcePoll {
		w.useFallback = true
	}

	if !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.useFallback = true
		} else {
			w.fsWatcher = fsw
			for d := range w.dirs {
				if err := fsw.Add(d); err != nil {
					debug.Log("watcher: add %s: %v", d, err)
				}
			}
			go w.watchFsnotify()
		}
	}

	for d := range w.dirs {
		w.dirs[d] = fingerprint(d)
	}
	if w.useFallback {
		go w.watchPolling()
	}

	debug.Log("watcher: started on %d dirs (polling=%v, fs=%s)", len(w.dirs), w.useFallback, w.fsType)
	w.started = true
	return nil
}

// Stop stops watching. The Changed channel stays open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debouncer.Cancel()
	w.started = false
}

// Add starts watching dir.
func (w *Watcher) Add(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addLocked(abs)
	return nil
}

func (w *Watcher) addLocked(dir string) {
	if _, ok := w.dirs[dir]; ok {
		return
	}
	w.dirs[dir] = 0
	if !w.started {
		return
	}
	w.dirs[dir] = fingerprint(dir)
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Add(dir); err != nil {
			debug.Log("watcher: add %s: %v", dir, err)
		}
	}
}

func (w *Watcher) removeLocked(dir string) {
	if _, ok := w.dirs[dir]; !ok {
		return
	}
	delete(w.dirs, dir)
	if w.fsWatcher != nil {
		_ = w.fsWatcher.Remove(dir)
	}
}

// Remove stops watching dir.
func (w *Watcher) Remove(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(abs)
}

// Sync makes the watched set exactly dirs.
func (w *Watcher) Sync(dirs []string) {
	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			want[abs] = true
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for d := range w.dirs {
		if !want[d] {
			w.removeLocked(d)
		}
	}
	for d := range want {
		w.addLocked(d)
	}
}

// Dirs returns the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when changed directories are
// ready to be collected with Drain.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Drain returns and forgets the directories reported since the last call,
// sorted.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.ready))
	for d := range w.ready {
		out = append(out, d)
	}
	clear(w.ready)
	slices.Sort(out)
	return out
}

// FilesystemType returns the best-effort filesystem classification of the
// first watched directory.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// mark queues dir for the next debounced notification.
func (w *Watcher) mark(dir string) {
	w.mu.Lock()
	w.pending[dir] = struct{}{}
	w.mu.Unlock()
	w.debouncer.Trigger(w.notifyChange)
}

// watchFsnotify monitors using fsnotify events.
func (w *Watcher) watchFsnotify() {
	// Capture channel references to avoid race with Stop() setting fsWatcher to nil
	w.mu.RLock()
	if w.fsWatcher == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors
	ctx := w.ctx
	w.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dir := filepath.Dir(event.Name)

			w.mu.RLock()
			_, watched := w.dirs[dir]
			_, self := w.dirs[event.Name]
			w.mu.RUnlock()

			if self && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.onError(ErrDirRemoved)
			}
			if watched {
				w.mark(dir)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// watchPolling monitors using periodic directory listings.
func (w *Watcher) watchPolling() {
	w.mu.RLock()
	ctx := w.ctx
	interval := w.pollInterval
	w.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.RLock()
	dirs := make(map[string]uint64, len(w.dirs))
	for d, fp := range w.dirs {
		dirs[d] = fp
	}
	w.mu.RUnlock()

	for d, old := range dirs {
		fp := fingerprint(d)
		if fp == old {
			continue
		}
		w.mu.Lock()
		if _, ok := w.dirs[d]; ok {
			w.dirs[d] = fp
		}
		w.mu.Unlock()
		if fp == 0 {
			if _, err := os.Stat(d); os.IsPermission(err) {
				w.onError(ErrPermission)
			} else {
				w.onError(ErrDirRemoved)
			}
		}
		w.mark(d)
	}
}

// fingerprint hashes the entry names of dir together with the size and
// modification time of its files. It returns 0 when dir cannot be read.
func fingerprint(dir string) uint64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte{1})
	for _, e := range entries {
		h.Write([]byte(e.Name()))
		if e.IsDir() {
			h.Write([]byte{'/'})
		} else if info, err := e.Info(); err == nil {
			var buf [16]byte
			binary.LittleEndian.PutUint64(buf[:8], uint64(info.Size()))
			binary.LittleEndian.PutUint64(buf[8:], uint64(info.ModTime().UnixNano()))
			h.Write(buf[:])
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// notifyChange moves pending directories to the ready set, invokes the
// onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	w.mu.Lock()
	started := w.started
	if !started || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	dirs := make([]string, 0, len(w.pending))
	for d := range w.pending {
		dirs = append(dirs, d)
		w.ready[d] = struct{}{}
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(dirs)
	w.onChange(dirs)

	// Non-blocking send to change channel
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
