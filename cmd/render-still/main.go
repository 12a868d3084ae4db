// render-still renders the showcase scene on the software device and writes the
// tone-mapped frame as PNG and, optionally, the HDR light buffer as OpenEXR.
//
// Usage:
//
//	render-still [options]
package main

import (
	"flag"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-deferred/examples/showcase"
	"github.com/charmbracelet/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "renderer config file (optional)")
		width      = flag.Int("width", 640, "image width")
		height     = flag.Int("height", 360, "image height")
		display    = flag.String("display", "", "display type: normal, wireframe, world-normals, albedo, lighting, shadows")
		frames     = flag.Int("frames", 1, "frames to simulate before capturing")
		output     = flag.String("output", "frame.png", "tone-mapped PNG output")
		hdrOutput  = flag.String("exr", "", "HDR light buffer output (OpenEXR), empty to skip")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "render-still"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := renderer.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = renderer.LoadConfig(*configPath); err != nil {
			logger.Fatal("invalid config", "path", *configPath, "err", err)
		}
	}
	cfg.Backend = renderer.BackendSoftware
	cfg.Width, cfg.Height = *width, *height
	if *display != "" {
		d, err := renderer.ParseDisplayType(*display)
		if err != nil {
			logger.Fatal("invalid display type", "err", err)
		}
		cfg.Display = d
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid settings", "err", err)
	}

	eng := engine.NewEngine(
		engine.WithHeadless(true),
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	)
	dev, ok := eng.Device().(*software.Device)
	if !ok {
		logger.Fatal("headless engine did not create a software device")
	}

	sc := showcase.New(eng.Loader(), float32(cfg.Width)/float32(cfg.Height))
	defer sc.Scene.Close()
	eng.AddScene(0, sc.Scene)

	start := time.Now()
	if err := eng.Loader().Wait(); err != nil {
		logger.Fatal("asset upload failed", "err", err)
	}
	logger.Debug("assets uploaded", "elapsed", time.Since(start))

	for i := 0; i < max(*frames, 1); i++ {
		if err := eng.Step(1.0 / 60); err != nil {
			logger.Fatal("frame failed", "frame", i, "err", err)
		}
	}
	stats := eng.Renderer().LastFrameStats()
	logger.Info("rendered",
		"size", cfg.Width*cfg.Height,
		"display", cfg.Display,
		"geometry", stats.GeometryDraws,
		"shadow", stats.ShadowDraws,
		"lights", stats.DirectionalLights+stats.PointLights,
		"culled", stats.ObjectsCulled,
		"elapsed", time.Since(start),
	)

	if err := dev.SavePNG(*output); err != nil {
		logger.Fatal("failed to save image", "err", err)
	}
	logger.Info("saved", "path", *output)

	if *hdrOutput != "" {
		if cfg.Display.IsDebug() {
			logger.Warn("debug display types skip the light buffer; the EXR will be black", "display", cfg.Display)
		}
		if err := dev.SaveEXR(eng.Renderer().HDRTarget(), *hdrOutput); err != nil {
			logger.Fatal("failed to save HDR buffer", "err", err)
		}
		logger.Info("saved", "path", *hdrOutput)
	}
	eng.Quit()
}
