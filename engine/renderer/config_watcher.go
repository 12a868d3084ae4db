package renderer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a TOML config file whenever it is written and delivers the
// decoded values on Configs. Invalid files are logged and skipped.
type ConfigWatcher struct {
	path    string
	logger  *log.Logger
	watcher *fsnotify.Watcher

	configs chan Config
	errs    chan error
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewConfigWatcher starts watching the directory that holds path. Watching the directory
// rather than the file survives editors that save by rename.
//
// Parameters:
//   - path: the config file to watch
//   - logger: the logger for reload messages, nil for the default logger
//
// Returns:
//   - *ConfigWatcher: the running watcher
//   - error: error if the watch cannot be established
func NewConfigWatcher(path string, logger *log.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	cw := &ConfigWatcher{
		path:    abs,
		logger:  logger,
		watcher: w,
		configs: make(chan Config, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw, nil
}

// Configs returns the channel that receives each successfully reloaded config.
// Only the newest pending value is kept.
func (cw *ConfigWatcher) Configs() <-chan Config {
	return cw.configs
}

// Errors returns the channel that receives reload and watch errors.
func (cw *ConfigWatcher) Errors() <-chan error {
	return cw.errs
}

// Close stops the watcher and closes both channels.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.closeOnce.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
		close(cw.configs)
		close(cw.errs)
	})
	return err
}

func (cw *ConfigWatcher) run() {
	defer cw.wg.Done()
	for {
		select {
		case e, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != cw.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				cw.logger.Warn("config reload failed", "path", cw.path, "err", err)
				cw.sendErr(err)
				continue
			}
			cw.logger.Info("config reloaded", "path", cw.path)
			cw.sendConfig(cfg)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.sendErr(err)

		case <-cw.done:
			return
		}
	}
}

// sendConfig replaces any value the consumer has not drained yet.
func (cw *ConfigWatcher) sendConfig(cfg Config) {
	for {
		select {
		case cw.configs <- cfg:
			return
		case <-cw.done:
			return
		default:
		}
		select {
		case <-cw.configs:
		default:
		}
	}
}

func (cw *ConfigWatcher) sendErr(err error) {
	if errors.Is(err, fsnotify.ErrClosed) {
		return
	}
	select {
	case cw.errs <- err:
	default:
	}
}
