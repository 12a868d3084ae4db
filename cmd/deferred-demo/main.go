// deferred-demo opens a window and renders the showcase scene with the deferred renderer.
//
// Usage:
//
//	deferred-demo [options]
//
// Controls:
//
//	WASD/QE      move the camera
//	arrows       turn the camera; right mouse drag looks around
//	scroll       zoom
//	1-6          display type (normal, wireframe, world normals, albedo, lighting, shadows)
//	C            toggle shadow depth clamp
//	L            toggle wide wireframe lines
//	P            toggle profiler output
//	Space        pause the lamp orbit
//	R            reset the camera
//	Esc          quit
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/Carmen-Shannon/oxy-deferred/examples/showcase"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	moveSpeed = 6.0 // units per second
	turnSpeed = 1.2 // radians per second
	lookScale = 0.003
)

func main() {
	configPath := flag.String("config", "config/renderer.toml", "renderer config file, reloaded on save")
	grid := flag.Int("grid", 3, "cubes per side of the cube grid")
	lamps := flag.Int("lamps", 4, "number of orbiting point lights")
	profile := flag.Bool("profile", false, "log frame statistics")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "deferred-demo"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := renderer.DefaultConfig()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = renderer.LoadConfig(*configPath); err != nil {
			logger.Fatal("invalid config", "path", *configPath, "err", err)
		}
	} else {
		logger.Warn("config file not found, using defaults", "path", *configPath)
		*configPath = ""
	}

	win, err := window.NewWindow(
		window.WithTitle("Deferred Renderer"),
		window.WithSize(cfg.Width, cfg.Height),
	)
	if err != nil {
		logger.Fatal("failed to open window", "err", err)
	}

	opts := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithProfiling(*profile),
		engine.WithTickRate(60),
	}
	if *configPath != "" {
		opts = append(opts, engine.WithConfigFile(*configPath))
	}
	eng := engine.NewEngine(opts...)

	sc := showcase.New(eng.Loader(), float32(win.Width())/float32(win.Height()),
		showcase.WithGrid(*grid),
		showcase.WithLamps(*lamps),
	)
	eng.AddScene(0, sc.Scene)

	setupInput(eng, sc, logger, *profile)

	fmt.Println("Deferred Renderer")
	fmt.Println("  WASD/QE move, arrows or right drag look, scroll zoom")
	fmt.Println("  1-6 display type, C depth clamp, L wide lines, P profiler")
	fmt.Println("  Space pause lamps, R reset camera, Esc quit")

	logger.Info("starting", "backend", cfg.Backend, "display", cfg.Display, "objects", len(sc.Scene.Objects()))
	eng.Run()
	sc.Scene.Close()
}

// setupInput wires the keyboard and mouse to the camera, the display type and the
// renderer toggles.
//
// Parameters:
//   - eng: the engine providing the window and renderer
//   - sc: the showcase being displayed
//   - logger: where toggles are reported
//   - profiling: the initial profiler state
func setupInput(eng engine.Engine, sc *showcase.Showcase, logger *log.Logger, profiling bool) {
	var mu sync.Mutex
	keyState := make(map[common.Key]bool)
	cam := sc.Camera
	r := eng.Renderer()
	depthClamp, wideLines := eng.Config().DepthClamp, eng.Config().WideLines

	eng.Window().SetKeyDownCallback(func(key common.Key) {
		mu.Lock()
		keyState[key] = true
		mu.Unlock()

		if idx, ok := key.DigitIndex(); ok {
			d := renderer.DisplayType(idx)
			if d > renderer.DisplayShadows {
				return
			}
			r.SetDisplayType(d)
			logger.Info("display", "type", d)
			return
		}

		switch key {
		case common.KeyC:
			if !r.SetDepthClamp(!depthClamp) {
				logger.Warn("depth clamp not supported by this device")
				return
			}
			depthClamp = !depthClamp
			logger.Info("depth clamp", "enabled", depthClamp)
		case common.KeyL:
			if !r.SetWideLines(!wideLines) {
				logger.Warn("wide lines not supported by this device")
				return
			}
			wideLines = !wideLines
			logger.Info("wide lines", "enabled", wideLines)
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		case common.KeySpace:
			logger.Info("lamp orbit", "moving", sc.ToggleOrbit())
		case common.KeyR:
			sc.ResetCamera()
		}
	})

	eng.Window().SetKeyUpCallback(func(key common.Key) {
		mu.Lock()
		keyState[key] = false
		mu.Unlock()
	})

	var dragging bool
	var lastX, lastY float32
	eng.Window().SetMouseButtonCallback(func(button common.MouseButton, pressed bool, x, y float32) {
		if button != common.MouseRight {
			return
		}
		dragging = pressed
		lastX, lastY = x, y
	})
	eng.Window().SetMouseMoveCallback(func(x, y float32) {
		if !dragging {
			return
		}
		turn(cam, (lastX-x)*lookScale, (lastY-y)*lookScale)
		lastX, lastY = x, y
	})

	eng.Window().SetScrollCallback(func(delta float32) {
		fov := cam.Fov() - delta*0.05
		cam.SetFov(mgl32.Clamp(fov, 15*math.Pi/180, 100*math.Pi/180))
	})

	eng.SetTickCallback(func(dt float32) {
		sc.Animate(dt)

		mu.Lock()
		defer mu.Unlock()
		forward := cam.Forward()
		right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
		var move mgl32.Vec3
		axis := func(key common.Key, dir mgl32.Vec3) {
			if keyState[key] {
				move = move.Add(dir)
			}
		}
		axis(common.KeyW, forward)
		axis(common.KeyS, forward.Mul(-1))
		axis(common.KeyD, right)
		axis(common.KeyA, right.Mul(-1))
		axis(common.KeyE, mgl32.Vec3{0, 1, 0})
		axis(common.KeyQ, mgl32.Vec3{0, -1, 0})
		if move.Len() > 0 {
			cam.SetPosition(cam.Position().Add(move.Normalize().Mul(moveSpeed * dt)))
		}

		var yaw, pitch float32
		if keyState[common.KeyLeft] {
			yaw += turnSpeed * dt
		}
		if keyState[common.KeyRight] {
			yaw -= turnSpeed * dt
		}
		if keyState[common.KeyUp] {
			pitch += turnSpeed * dt
		}
		if keyState[common.KeyDown] {
			pitch -= turnSpeed * dt
		}
		if yaw != 0 || pitch != 0 {
			turn(cam, yaw, pitch)
		}
	})
}

// turn yaws the camera around world up and pitches it around its own right axis.
func turn(cam camera.Camera, yaw, pitch float32) {
	q := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}).Mul(cam.Orientation()).Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0}))
	cam.SetOrientation(q.Normalize())
}
