// Package loader finalizes assets on the device. Meshes and textures are queued from
// any goroutine, copied to the device by a worker pool, and become usable once their
// upload completes; the renderer skips anything still pending.
package loader

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	device  Uploader
	logger  *log.Logger
	workers int
	queue   int

	pool    worker.DynamicWorkerPool
	pending sync.WaitGroup
	count   atomic.Int64
	taskID  atomic.Int64

	// queued holds every asset with an upload in flight, so repeat requests are no-ops.
	queued   map[uuid.UUID]struct{}
	statics  map[string]model.Static
	animated map[string]model.Animated
	errs     []error
	closed   bool
}

// Loader defines the public-facing interface for finalizing meshes, textures and whole
// models on a device, and for caching the models it was given by name.
type Loader interface {
	// LoadMesh queues an upload of the mesh unless it is already usable or queued.
	//
	// Parameters:
	//   - m: the mesh to upload
	LoadMesh(m *model.Mesh)

	// LoadTexture queues an upload of the texture unless it is already usable or queued.
	//
	// Parameters:
	//   - t: the texture to upload
	LoadTexture(t *material.Texture)

	// LoadMaterial queues every texture the material references.
	//
	// Parameters:
	//   - mat: the material whose textures to upload
	LoadMaterial(mat material.Material)

	// LoadStatic queues every mesh and material texture of the model and caches the
	// model under its name, when it has one.
	//
	// Parameters:
	//   - s: the model to finalize
	LoadStatic(s model.Static)

	// LoadAnimated queues every keyframe mesh and material texture of the model and caches
	// the model under its name, when it has one.
	//
	// Parameters:
	//   - a: the model to finalize
	LoadAnimated(a model.Animated)

	// Get retrieves a cached static model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Static: the cached model or nil
	Get(name string) model.Static

	// GetAnimated retrieves a cached animated model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Animated: the cached model or nil
	GetAnimated(name string) model.Animated

	// Pending returns the number of uploads queued or in flight.
	//
	// Returns:
	//   - int: the number of outstanding uploads
	Pending() int

	// Wait blocks until every queued upload has finished.
	//
	// Returns:
	//   - error: the joined upload failures since the previous Wait, or nil
	Wait() error

	// ReleaseMesh frees the mesh's device geometry and marks it unusable.
	//
	// Parameters:
	//   - m: the mesh to release
	ReleaseMesh(m *model.Mesh)

	// ReleaseTexture frees the texture's device image and marks it unusable.
	//
	// Parameters:
	//   - t: the texture to release
	ReleaseTexture(t *material.Texture)

	// Close waits for outstanding uploads and stops the worker pool. Later Load calls
	// are ignored.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader uploading through the given device.
//
// Parameters:
//   - device: the device, or any Uploader, assets are copied to
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader with its worker pool started
func NewLoader(device Uploader, options ...LoaderBuilderOption) Loader {
	l := &loader{
		device:   device,
		workers:  defaultWorkers,
		queue:    defaultQueueSize,
		queued:   make(map[uuid.UUID]struct{}),
		statics:  make(map[string]model.Static),
		animated: make(map[string]model.Animated),
	}
	for _, option := range options {
		option(l)
	}
	if l.logger == nil {
		l.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "loader"})
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queue, time.Second)
	return l
}

func (l *loader) LoadMesh(m *model.Mesh) {
	if m == nil {
		return
	}
	l.submit(assetMesh, m.ID(), m.Label(), m.IsUsable, func() error {
		h, err := l.device.UploadMesh(m.Data())
		if err != nil {
			return err
		}
		m.MarkUploaded(h)
		return nil
	})
}

func (l *loader) LoadTexture(t *material.Texture) {
	if t == nil {
		return
	}
	l.submit(assetTexture, t.ID(), t.Label(), t.IsUsable, func() error {
		h, err := l.device.UploadTexture(t.Data())
		if err != nil {
			return err
		}
		t.MarkUploaded(h)
		return nil
	})
}

func (l *loader) LoadMaterial(mat material.Material) {
	if mat == nil {
		return
	}
	for _, t := range mat.Textures() {
		l.LoadTexture(t)
	}
}

func (l *loader) LoadStatic(s model.Static) {
	if s == nil {
		return
	}
	if name := s.Name(); name != "" {
		l.mu.Lock()
		l.statics[name] = s
		l.mu.Unlock()
	}
	for _, shape := range s.Shapes() {
		l.LoadMesh(shape.Mesh)
		l.LoadMaterial(shape.Material)
	}
}

func (l *loader) LoadAnimated(a model.Animated) {
	if a == nil {
		return
	}
	if name := a.Name(); name != "" {
		l.mu.Lock()
		l.animated[name] = a
		l.mu.Unlock()
	}
	for _, f := range a.Frames() {
		l.LoadMesh(f)
	}
	l.LoadMaterial(a.Material())
}

func (l *loader) Get(name string) model.Static {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.statics[name]
}

func (l *loader) GetAnimated(name string) model.Animated {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.animated[name]
}

func (l *loader) Pending() int {
	return int(l.count.Load())
}

func (l *loader) Wait() error {
	l.pending.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	err := errors.Join(l.errs...)
	l.errs = nil
	return err
}

func (l *loader) ReleaseMesh(m *model.Mesh) {
	if m == nil {
		return
	}
	if h := m.MarkReleased(); h != 0 {
		l.device.ReleaseMesh(h)
	}
}

func (l *loader) ReleaseTexture(t *material.Texture) {
	if t == nil {
		return
	}
	if h := t.MarkReleased(); h != 0 {
		l.device.ReleaseTexture(h)
	}
}

func (l *loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.Wait(); err != nil {
		l.logger.Warn("uploads failed before close", "err", err)
	}
	l.pool.Stop()
}

// submit queues one upload task, skipping assets that are usable or already queued.
func (l *loader) submit(kind assetKind, id uuid.UUID, label string, usable func() bool, upload func() error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Warn("upload after close ignored", "kind", kind, "label", label)
		return
	}
	if _, ok := l.queued[id]; ok || usable() {
		l.mu.Unlock()
		return
	}
	l.queued[id] = struct{}{}
	l.pending.Add(1)
	l.count.Add(1)
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID:      int(l.taskID.Add(1)),
		Payload: id,
		Do: func() (any, error) {
			defer l.pending.Done()
			defer l.count.Add(-1)

			start := time.Now()
			err := upload()

			l.mu.Lock()
			delete(l.queued, id)
			if err != nil {
				err = fmt.Errorf("loader: upload %s %q: %w", kind, label, err)
				l.errs = append(l.errs, err)
			}
			l.mu.Unlock()

			if err != nil {
				l.logger.Error("upload failed", "kind", kind, "label", label, "err", err)
				return nil, err
			}
			l.logger.Debug("uploaded", "kind", kind, "label", label, "took", time.Since(start))
			return id, nil
		},
	})
}
