package loader

import (
	"github.com/charmbracelet/log"
)

// LoaderBuilderOption is a functional option for configuring a Loader.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger upload results are reported to.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger to the Loader
func WithLogger(logger *log.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithWorkers sets how many uploads may run at once.
//
// Parameters:
//   - n: the worker count; values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to the Loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize sets how many uploads may wait for a worker before Load calls block.
//
// Parameters:
//   - n: the queue capacity; values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the queue size to the Loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.queue = n
		}
	}
}
