package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/webgpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/charmbracelet/log"
)

// presentModeSetter is implemented by devices with a swapchain.
type presentModeSetter interface {
	SetPresentMode(mode renderer.PresentMode) error
}

// engine implements the Engine interface.
// Runs the tick loop on its own goroutine and renders on the window thread.
type engine struct {
	// frameMu serializes tick updates against scene submission and rendering.
	frameMu sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running      atomic.Bool
	started      atomic.Bool // Run was called
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	logger     *log.Logger
	config     renderer.Config
	configPath string
	watcher    *renderer.ConfigWatcher

	window   window.Window
	headless bool
	device   renderer.Device
	renderer deferred.Renderer
	loader   loader.Loader

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastRender       time.Time

	resizeMu      sync.Mutex
	pendingResize *[2]int
}

// Engine is the main entry point for the engine.
// It owns the window, the device, the deferred renderer and the asset loader, and
// drives the tick and render loops.
type Engine interface {
	// Window returns the underlying window, nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Device returns the device frames are recorded against.
	Device() renderer.Device

	// Renderer returns the deferred renderer.
	Renderer() deferred.Renderer

	// Loader returns the asset loader uploading to the engine's device.
	Loader() loader.Loader

	// Config returns the renderer configuration currently applied.
	Config() renderer.Config

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback and scene updates run at this rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, before the
	// scenes are updated. Use this for game logic and input processing.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given key. Each frame the active scene with the
	// lowest key is rendered.
	//
	// Parameters:
	//   - key: the priority key (lower wins)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by priority.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Step runs one tick and renders one frame on the calling goroutine. Headless
	// programs drive the engine with Step instead of Run.
	//
	// Parameters:
	//   - dt: the time step in seconds
	//
	// Returns:
	//   - error: the render error of the frame, if any
	Step(dt float32) error

	// Run starts the tick loop and runs the window message loop, rendering once per
	// iteration. Blocks until the window closes or Quit is called, then releases
	// every engine-owned resource.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine. When Run was
	// never called, Quit releases the engine's resources itself.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine with the provided options applied. Unless a device is
// supplied it opens a window and acquires a WebGPU device for it; headless engines get
// a software device instead. NewEngine panics when the window or device cannot be
// created, since nothing can be rendered without them.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		config:          renderer.DefaultConfig(),
		engineTickRate:  time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "engine"})
	}

	if e.configPath != "" {
		cfg, err := renderer.LoadConfig(e.configPath)
		if err != nil {
			e.logger.Error("config not loaded, using defaults", "path", e.configPath, "err", err)
		} else {
			e.config = cfg
		}
		if w, err := renderer.NewConfigWatcher(e.configPath, e.logger.WithPrefix("config")); err != nil {
			e.logger.Warn("config hot reload disabled", "err", err)
		} else {
			e.watcher = w
		}
	}

	if e.device == nil {
		e.device = e.createDevice()
	}
	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.resizeMu.Lock()
			e.pendingResize = &[2]int{width, height}
			e.resizeMu.Unlock()
		})
	}

	r, err := deferred.New(e.device, deferred.WithLogger(e.logger.WithPrefix("deferred")), deferred.WithConfig(e.config))
	if err != nil {
		panic(fmt.Sprintf("engine: failed to create renderer: %v", err))
	}
	e.renderer = r
	e.loader = loader.NewLoader(e.device, loader.WithLogger(e.logger.WithPrefix("loader")))
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger.WithPrefix("profiler")))
	}
	return e
}

// createDevice opens the window if needed and acquires the device for it.
func (e *engine) createDevice() renderer.Device {
	if e.headless {
		if e.config.Backend != renderer.BackendSoftware {
			e.logger.Debug("headless engine renders on the software device", "configured", e.config.Backend)
		}
		return software.New(e.config.Width, e.config.Height, software.WithLogger(e.logger.WithPrefix("software")))
	}
	if e.config.Backend == renderer.BackendSoftware {
		panic("engine: the software backend cannot present to a window; use a headless engine")
	}

	if e.window == nil {
		w, err := window.NewWindow(window.WithSize(e.config.Width, e.config.Height))
		if err != nil {
			panic(fmt.Sprintf("engine: failed to create window: %v", err))
		}
		e.window = w
	}
	dev, err := webgpu.New(e.window.SurfaceDescriptor(), e.window.Width(), e.window.Height(),
		webgpu.WithLogger(e.logger.WithPrefix("webgpu")),
		webgpu.WithPresentMode(e.config.PresentMode),
	)
	if err != nil {
		panic(fmt.Sprintf("engine: failed to acquire device: %v", err))
	}
	return dev
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() renderer.Device {
	return e.device
}

func (e *engine) Renderer() deferred.Renderer {
	return e.renderer
}

func (e *engine) Loader() loader.Loader {
	return e.loader
}

func (e *engine) Config() renderer.Config {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.config
}

func (e *engine) Run() {
	e.started.Store(true)
	e.running.Store(true)
	e.lastRender = time.Now()
	e.handle()

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.window.RequestClose()
				return
			default:
			}
			e.renderFrame()
		})
		e.window.ProcessMessages()
	} else {
		for e.running.Load() {
			e.renderFrame()
		}
	}

	e.signalQuit()
	e.wg.Wait()
	e.shutdownOnce.Do(e.shutdown)
}

func (e *engine) Step(dt float32) error {
	e.frameMu.Lock()
	e.tick(dt)
	e.frameMu.Unlock()
	return e.render(dt)
}

// Quit signals all engine goroutines to stop. Step-driven engines are shut down here,
// Run shuts down its own.
func (e *engine) Quit() {
	e.signalQuit()
	if !e.started.Load() {
		e.shutdownOnce.Do(e.shutdown)
	}
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the engine and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback and scene updates at the configured tick rate and listens
// for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.frameMu.Lock()
			e.tick(dt)
			e.frameMu.Unlock()
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick runs the tick callback and updates every active scene. Callers hold frameMu.
func (e *engine) tick(dt float32) {
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
	for _, s := range e.scenes {
		if s.Active() {
			s.Update(dt)
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// renderFrame renders one frame on the window thread and applies the frame limit.
func (e *engine) renderFrame() {
	// Recover from panics inside a frame to shut down cleanly instead of crashing
	// with the window open.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	now := time.Now()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now

	if err := e.render(dt); errors.Is(err, renderer.ErrDeviceLost) {
		e.logger.Error("device lost, shutting down", "err", err)
		e.signalQuit()
		return
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// render applies pending config and resize events, then draws the active scene.
func (e *engine) render(dt float32) error {
	e.applyConfigUpdates()
	if !e.applyResize() {
		return nil
	}

	e.frameMu.Lock()
	active := e.activeScene()
	var err error
	if active != nil {
		active.Submit(e.renderer)
		err = e.renderer.Render(active.Camera())
	}
	e.frameMu.Unlock()

	if err != nil {
		e.logger.Error("frame failed", "err", err)
	}
	if e.renderCallback != nil {
		e.renderCallback(dt)
	}
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(e.renderer.LastFrameStats())
	}
	return err
}

// activeScene returns the active scene with the lowest key. Callers hold frameMu.
func (e *engine) activeScene() scene.Scene {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			return s
		}
	}
	return nil
}

// applyResize resizes the renderer to the latest window size. It returns false while
// the window is minimized.
func (e *engine) applyResize() bool {
	e.resizeMu.Lock()
	size := e.pendingResize
	e.pendingResize = nil
	e.resizeMu.Unlock()
	if size == nil {
		w, h := e.device.Size()
		return w > 0 && h > 0
	}

	width, height := size[0], size[1]
	if width <= 0 || height <= 0 {
		e.resizeMu.Lock()
		if e.pendingResize == nil {
			// Keep the zero size pending so rendering stays paused until restored.
			e.pendingResize = size
		}
		e.resizeMu.Unlock()
		return false
	}

	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Error("resize failed", "width", width, "height", height, "err", err)
		return false
	}
	aspect := float32(width) / float32(height)
	for _, s := range e.scenes {
		if c := s.Camera(); c != nil {
			c.SetAspect(aspect)
		}
	}
	return true
}

// applyConfigUpdates drains the config watcher and applies the newest config.
func (e *engine) applyConfigUpdates() {
	if e.watcher == nil {
		return
	}
	for {
		select {
		case err := <-e.watcher.Errors():
			e.logger.Warn("config reload failed", "err", err)
		case cfg := <-e.watcher.Configs():
			e.applyConfig(cfg)
		default:
			return
		}
	}
}

func (e *engine) applyConfig(cfg renderer.Config) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if err := e.renderer.ApplyConfig(cfg); err != nil {
		e.logger.Error("config rejected", "err", err)
		return
	}
	if cfg.PresentMode != e.config.PresentMode {
		if p, ok := e.device.(presentModeSetter); ok {
			if err := p.SetPresentMode(cfg.PresentMode); err != nil {
				e.logger.Warn("present mode not changed", "mode", cfg.PresentMode, "err", err)
				cfg.PresentMode = e.config.PresentMode
			}
		}
	}
	e.config = cfg
	e.logger.Info("config reloaded", "display", cfg.Display, "exposure", cfg.Exposure, "gamma", cfg.Gamma)
}

// shutdown releases everything the engine created, newest first.
func (e *engine) shutdown() {
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			e.logger.Warn("config watcher close failed", "err", err)
		}
	}
	e.loader.Close()
	e.device.WaitIdle()
	e.renderer.Release()
	e.device.Release()
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			e.logger.Warn("window close failed", "err", err)
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send; a pending update is replaced by the newer rate.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.frameMu.Lock()
	e.tickCallback = callback
	e.frameMu.Unlock()
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.frameMu.Lock()
	e.scenes[key] = s
	e.frameMu.Unlock()
}

func (e *engine) RemoveScene(key int) {
	e.frameMu.Lock()
	delete(e.scenes, key)
	e.frameMu.Unlock()
}

func (e *engine) Scene(key int) scene.Scene {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
