// Package scene groups the game objects, lights and camera of one view and feeds them
// to a deferred renderer each frame.
package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
)

// Queue is what a scene submits a frame to. deferred.Renderer satisfies it.
type Queue interface {
	game_object.RenderQueue
	AddDirectional(l light.Directional)
}

type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool
	cam    camera.Camera
	loader loader.Loader

	registry  map[uint64]game_object.GameObject
	ephemeral []game_object.GameObject
	nextID    uint64
	// initial holds WithObjects objects until the scene is fully built.
	initial []game_object.GameObject

	directionals []light.Directional
	points       []light.Point

	// updatePool runs object updates in parallel. Workers persist across frames.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
	taskID        int
}

// Scene holds the objects and lights drawn from one camera.
type Scene interface {
	// Name returns the name of the scene.
	Name() string

	// Active reports whether the engine renders this scene.
	Active() bool

	// SetActive toggles whether the engine renders this scene.
	SetActive(active bool)

	// Camera returns the viewing camera.
	Camera() camera.Camera

	// SetCamera replaces the viewing camera. Nil is ignored.
	SetCamera(cam camera.Camera)

	// Add registers an object, assigning an ID when it has none, and queues its model's
	// assets on the scene's loader. Ephemeral objects are kept for one Submit only.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Remove unregisters the object with the given ID.
	Remove(id uint64)

	// Object returns the registered object with the given ID, or nil.
	Object(id uint64) game_object.GameObject

	// Objects returns the registered objects ordered by ID.
	Objects() []game_object.GameObject

	// AddDirectional adds a directional light.
	AddDirectional(l light.Directional)

	// RemoveDirectional removes a directional light.
	RemoveDirectional(l light.Directional)

	// Directionals returns the directional lights in insertion order.
	Directionals() []light.Directional

	// AddPoint adds a free-standing point light. Lights attached to objects are submitted
	// with their object instead.
	AddPoint(l light.Point)

	// RemovePoint removes a free-standing point light.
	RemovePoint(l light.Point)

	// Points returns the free-standing point lights in insertion order.
	Points() []light.Point

	// Update advances every registered and ephemeral object by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Submit queues every enabled object and every light for the next frame, then drops
	// the ephemeral objects.
	//
	// Parameters:
	//   - q: the queue to submit to
	Submit(q Queue)

	// Close stops the update workers.
	Close()
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene viewed through cam. NewScene panics if cam is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created, active scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		name:          name,
		active:        true,
		cam:           cam,
		registry:      make(map[uint64]game_object.GameObject),
		nextID:        1,
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Created after options so WithUpdateWorkers can override the default.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	initial := s.initial
	s.initial = nil
	for _, obj := range initial {
		s.Add(obj)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	s.cam = cam
	s.mu.Unlock()
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	if obj == nil {
		return 0
	}
	s.mu.Lock()
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	if obj.Ephemeral() {
		s.ephemeral = append(s.ephemeral, obj)
	} else {
		s.registry[obj.ID()] = obj
	}
	ldr := s.loader
	s.mu.Unlock()

	if ldr != nil {
		if st := obj.Static(); st != nil {
			ldr.LoadStatic(st)
		}
		if an := obj.Animated(); an != nil {
			ldr.LoadAnimated(an)
		}
	}
	return obj.ID()
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()
}

func (s *scene) Object(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedObjects()
}

// sortedObjects returns the registry ordered by ID. Callers hold mu.
func (s *scene) sortedObjects() []game_object.GameObject {
	objs := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		objs = append(objs, obj)
	}
	slices.SortFunc(objs, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return objs
}

func (s *scene) AddDirectional(l light.Directional) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.directionals = append(s.directionals, l)
	s.mu.Unlock()
}

func (s *scene) RemoveDirectional(l light.Directional) {
	s.mu.Lock()
	s.directionals = slices.DeleteFunc(s.directionals, func(d light.Directional) bool { return d == l })
	s.mu.Unlock()
}

func (s *scene) Directionals() []light.Directional {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.directionals)
}

func (s *scene) AddPoint(l light.Point) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.points = append(s.points, l)
	s.mu.Unlock()
}

func (s *scene) RemovePoint(l light.Point) {
	s.mu.Lock()
	s.points = slices.DeleteFunc(s.points, func(p light.Point) bool { return p == l })
	s.mu.Unlock()
}

func (s *scene) Points() []light.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.points)
}

func (s *scene) Update(dt float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs := append(s.sortedObjects(), s.ephemeral...)
	if len(objs) == 0 {
		return
	}

	// Objects are independent, so each update is its own task. The pool's Wait does not
	// track in-flight tasks, hence the WaitGroup.
	var wg sync.WaitGroup
	for _, obj := range objs {
		wg.Add(1)
		o := obj
		s.taskID++
		s.updatePool.SubmitTask(worker.Task{
			ID:      s.taskID,
			Payload: o.ID(),
			Do: func() (any, error) {
				defer wg.Done()
				o.Update(dt)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) Submit(q Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.directionals {
		q.AddDirectional(d)
	}
	for _, p := range s.points {
		q.AddPoint(p)
	}
	for _, obj := range s.sortedObjects() {
		obj.Submit(q)
	}
	for _, obj := range s.ephemeral {
		obj.Submit(q)
	}
	s.ephemeral = s.ephemeral[:0]
}

func (s *scene) Close() {
	s.updatePool.Stop()
}
