package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher reports keys of a FileStore rewritten by any process.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan string
	stop    chan struct{}
	logger  *zap.Logger
}

// NewWatcher watches the directory of s.
func NewWatcher(s *FileStore, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := fw.Add(s.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", s.Dir(), err)
	}
	return &Watcher{
		watcher: fw,
		changes: make(chan string, 16),
		stop:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Changes delivers the key of every rewritten or removed value.
// Sends are dropped while the consumer is behind.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start processes filesystem events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop releases the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Atomic writes surface as Create (rename onto target) on most
			// platforms; plain writes surface as Write.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
				continue
			}
			key, ok := keyFromPath(event.Name)
			if !ok {
				continue
			}
			select {
			case w.changes <- key:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("store watcher error", zap.Error(err))
		}
	}
}
