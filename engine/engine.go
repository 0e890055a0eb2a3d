package engine

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Context
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64
	lastFPSLog   float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and application config are required")
	}
	if g.FnInitialize == nil || g.FnUpdate == nil || g.FnRender == nil || g.FnOnResize == nil {
		return nil, errors.New("game must provide initialize, update, render and resize functions")
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     platform.New(),
		assetManager: assets.NewAssetManager(),
		isRunning:    true,
		isSuspended:  false,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventInitialize() {
		return errors.New("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}
	e.registerEvents()

	if err := e.platform.Startup(cfg.Name, cfg.StartPosX, cfg.StartPosY, cfg.StartWidth, cfg.StartHeight); err != nil {
		return err
	}
	if err := platform.InitVulkan(); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(cfg.AssetsDirectory); err != nil {
		core.LogError(err.Error())
		return err
	}
	if cfg.WatchAssets {
		if err := e.assetManager.Watch(); err != nil {
			core.LogWarn("asset hot reload disabled: %s", err)
		}
	}

	vertex, err := e.assetManager.LoadShader(cfg.VertexShader)
	if err != nil {
		err = errors.Mark(err, core.ErrShaderMissing)
		core.LogError(err.Error())
		return err
	}
	fragment, err := e.assetManager.LoadShader(cfg.FragmentShader)
	if err != nil {
		err = errors.Mark(err, core.ErrShaderMissing)
		core.LogError(err.Error())
		return err
	}

	// The framebuffer may differ from the window size on high DPI displays.
	e.width, e.height = e.platform.FramebufferSize()
	e.renderer, err = renderer.Init(
		e.platform.RequiredInstanceExtensions(),
		e.platform.SurfaceFactory(),
		e.width, e.height,
		renderer.WithApplicationName(cfg.Name),
		renderer.WithFramesInFlight(cfg.FramesInFlight),
		renderer.WithImagePoolCapacity(cfg.ImagePoolCapacity),
		renderer.WithClearColor(cfg.ClearColor),
		renderer.WithShaders(vertex, fragment),
		renderer.WithValidation(cfg.Validation),
		renderer.WithImageDecoder(e.assetManager.DecodeImage),
	)
	if err != nil {
		return err
	}

	if err := e.gameInstance.FnInitialize(e.renderer); err != nil {
		core.LogError("Game failed to initialize: %s", err)
		return err
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized (%dx%d).", e.width, e.height)
	return nil
}

func (e *Engine) registerEvents() {
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, e, e.onAssetChanged)
}

// Run drives the frame loop until the window closes, ctx is cancelled, MaxFrames is reached
// or a frame fails in a way the renderer cannot recover from.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	maxFrames := e.gameInstance.ApplicationConfig.MaxFrames
	r := e.renderer.GetRenderer()

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("Interrupted, shutting down.")
			e.isRunning = false
			continue
		default:
		}

		if !e.platform.PumpMessages() {
			e.isRunning = false
		}
		core.EventDispatch()

		if e.isSuspended {
			e.platform.WaitWhileMinimized()
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		core.MetricsFrameBegin()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			return err
		}

		if err := e.handleFrameError(e.drawFrame(delta)); err != nil {
			return err
		}

		core.MetricsFrameEnd()
		if currentTime-e.lastFPSLog >= 1.0 {
			fps, ms := core.MetricsFrame()
			core.LogDebug("FPS: %.0f (%.2f ms)", fps, ms)
			e.lastFPSLog = currentTime
		}

		core.InputUpdate(delta)
		e.lastTime = currentTime

		if maxFrames > 0 && r.FrameCount() >= maxFrames {
			core.LogInfo("Rendered %d frames, stopping.", r.FrameCount())
			e.isRunning = false
		}
	}
	return nil
}

// drawFrame lets the game record between StartRender and EndRender. A failing game render
// still closes the frame so the slot can be reused.
func (e *Engine) drawFrame(delta float64) error {
	r := e.renderer.GetRenderer()
	if err := r.StartRender(); err != nil {
		return err
	}
	if err := e.gameInstance.FnRender(r, delta); err != nil {
		if endErr := r.EndRender(); endErr != nil {
			return errors.CombineErrors(err, endErr)
		}
		return err
	}
	return r.EndRender()
}

// handleFrameError returns the errors that must stop the loop. Swapchain trouble costs one
// frame and nothing else, unless the device went away underneath it.
func (e *Engine) handleFrameError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrSwapchainOutOfDate):
		core.LogDebug("Frame skipped: %s", err)
		return nil
	case errors.Is(err, core.ErrDeviceLost):
		core.LogError("Device lost, shutting down: %s", err)
		return err
	case errors.Is(err, core.ErrSwapchainAcquireFailed), errors.Is(err, core.ErrPresentFailed):
		core.LogWarn("Frame dropped: %s", err)
		return nil
	default:
		core.LogError("Frame failed, shutting down: %s", err)
		return err
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogWarn("game shutdown: %s", err)
		}
	}
	if e.renderer != nil {
		e.renderer.Quit()
		e.renderer = nil
	}
	if err := e.assetManager.Close(); err != nil {
		return err
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	if err := core.EventShutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}
	core.LogInfo("Engine shut down.")
	return nil
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	if context.Type == core.EVENT_CODE_KEY_PRESSED {
		if ke.KeyCode == core.KEY_ESCAPE {
			core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
			return true
		}
		core.LogDebug("'%c' key pressed in window.", ke.KeyCode)
	} else {
		core.LogDebug("'%c' key released in window.", ke.KeyCode)
	}
	// Let the game see keys too.
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	re, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	if re.Width == e.width && re.Height == e.height {
		return true
	}
	e.width, e.height = re.Width, re.Height
	core.LogDebug("Window resize: %d, %d", re.Width, re.Height)

	if e.renderer != nil {
		if err := e.renderer.Resize(re.Width, re.Height); err != nil {
			core.LogError(err.Error())
		}
	}

	if re.Width == 0 || re.Height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(re.Width, re.Height); err != nil {
		core.LogError(err.Error())
	}
	return true
}

func (e *Engine) onAssetChanged(context core.EventContext) bool {
	ae, ok := context.Data.(*core.AssetEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	core.LogDebug("Asset changed: %s", filepath.Base(ae.Path))
	if e.gameInstance.FnOnAssetChanged == nil {
		return false
	}
	if err := e.gameInstance.FnOnAssetChanged(ae.Path); err != nil {
		core.LogWarn("reloading %s: %s", ae.Path, err)
	}
	return true
}
