// Package hotplug watches /dev/input for device nodes appearing and
// disappearing and feeds them into an evdevsource.Source.
package hotplug

import (
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/char5742/inputreader/internal/logger"
)

// Sink is the subset of evdevsource.Source that hotplug drives; kept as
// an interface so the watcher can be tested without opening real evdev
// character devices.
type Sink interface {
	AddDevice(path string) error
	RemoveDevice(path string)
}

// Watcher watches one directory (/dev/input) for eventN nodes being
// created or removed and pushes them into a Sink. It also re-scans on a
// timer, since some drivers create their device node slightly before
// udev finishes setting permissions and the initial open can fail.
type Watcher struct {
	dir     string
	sink    Sink
	watcher *fsnotify.Watcher
	log     *logger.Logger
	stop    chan struct{}
	known   map[string]bool
}

// New creates a Watcher over dir, ready for Start.
func New(dir string, sink Sink) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		sink:    sink,
		watcher: fw,
		log:     logger.New("hotplug"),
		stop:    make(chan struct{}),
		known:   map[string]bool{},
	}, nil
}

// Start begins watching dir and launches the background event-draining
// and periodic-rescan goroutines. It does not perform an initial scan;
// callers typically do that via Source.ScanDir before Start so the
// reader sees every pre-existing device before any hotplug event.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	go w.watchEvents()
	go w.periodicRescan()
	return nil
}

// Stop tears down the watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.watcher.Close()
}

func (w *Watcher) watchEvents() {
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isEventNode(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.add(ev.Name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.remove(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("fsnotify: %v", err)
		}
	}
}

// periodicRescan re-checks the directory every five seconds, covering
// any eventN that appeared without a usable fsnotify event (e.g. the
// device existed before Start but permissions weren't ready yet at scan
// time).
func (w *Watcher) periodicRescan() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			entries, err := readDirNames(w.dir)
			if err != nil {
				continue
			}
			seen := map[string]bool{}
			for _, name := range entries {
				path := w.dir + "/" + name
				seen[path] = true
				if isEventNode(path) {
					w.add(path)
				}
			}
			for path := range w.known {
				if !seen[path] {
					w.remove(path)
				}
			}
		}
	}
}

func (w *Watcher) add(path string) {
	if w.known[path] {
		return
	}
	if err := w.sink.AddDevice(path); err != nil {
		w.log.Warnf("add %s: %v", path, err)
		return
	}
	w.known[path] = true
}

func (w *Watcher) remove(path string) {
	if !w.known[path] {
		return
	}
	w.sink.RemoveDevice(path)
	delete(w.known, path)
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func isEventNode(path string) bool {
	base := path[strings.LastIndexByte(path, '/')+1:]
	return strings.HasPrefix(base, "event")
}
