package testbed

import (
	"path/filepath"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	emath "github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

// Pixels the rectangle moves per key press.
const moveStep float32 = 10

var textureNames = []string{"textures/role.png", "textures/checker.png"}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	ctx *renderer.Context

	width  uint32
	height uint32

	rect       emath.Rect
	color      emath.Color
	colorDirty bool

	textures map[string]*vulkan.VulkanTexture
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				width:  config.StartWidth,
				height: config.StartHeight,
				rect: emath.Rect{
					Position: emath.Vec2{X: 100, Y: 100},
					Size:     emath.Size{W: 200, H: 200},
				},
				color:      emath.ColorWhite,
				colorDirty: true,
				textures:   make(map[string]*vulkan.VulkanTexture),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnOnAssetChanged = tg.OnAssetChanged
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(ctx *renderer.Context) error {
	core.LogInfo("initializing testbed...")
	state := g.State.(*gameState)
	state.ctx = ctx

	textures, err := ctx.LoadTextures(textureNames...)
	if err != nil {
		// The rectangle still works without textures.
		core.LogWarn("testbed textures unavailable: %s", err)
	}
	for _, t := range textures {
		state.textures[t.Path] = t
	}

	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, g, g.gameOnKey)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	if state.colorDirty && state.ctx != nil {
		if err := state.ctx.GetRenderer().SetDrawColor(state.color); err != nil {
			return err
		}
		state.colorDirty = false
	}
	return nil
}

func (g *TestGame) Render(r *vulkan.VulkanRenderer, deltaTime float64) error {
	state := g.State.(*gameState)

	x := float32(state.width) / 4
	for _, name := range textureNames {
		t, ok := state.textures[name]
		if !ok {
			continue
		}
		rect := emath.Rect{
			Position: emath.Vec2{X: x, Y: float32(state.height) * 3 / 4},
			Size:     emath.Size{W: float32(t.Width), H: float32(t.Height)},
		}
		if err := r.DrawTexture(rect, t); err != nil {
			return err
		}
		x += float32(state.width) / 2
	}

	return r.DrawRect(state.rect)
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

// OnAssetChanged reloads a texture whose file was rewritten.
func (g *TestGame) OnAssetChanged(path string) error {
	state := g.State.(*gameState)
	name, ok := g.textureName(path)
	if !ok || state.ctx == nil {
		return nil
	}
	t, err := state.ctx.ReloadTexture(name)
	if err != nil {
		return err
	}
	state.textures[name] = t
	return nil
}

func (g *TestGame) textureName(path string) (string, bool) {
	state := g.State.(*gameState)
	path = filepath.Clean(path)
	for name := range state.textures {
		if path == name || path == filepath.Join(g.ApplicationConfig.AssetsDirectory, name) {
			return name, true
		}
	}
	return "", false
}

func (g *TestGame) Shutdown() error {
	core.EventUnregister(core.EVENT_CODE_KEY_PRESSED, g)
	core.LogInfo("testbed shut down.")
	return nil
}

var keyColors = map[core.KeyCode]emath.Color{
	core.KEY_0: emath.ColorRed,
	core.KEY_1: emath.ColorGreen,
	core.KEY_2: emath.ColorBlue,
	core.KEY_3: emath.ColorWhite,
}

func (g *TestGame) gameOnKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	state := g.State.(*gameState)

	switch ke.KeyCode {
	case core.KEY_A:
		state.rect.Position.X -= moveStep
	case core.KEY_D:
		state.rect.Position.X += moveStep
	case core.KEY_W:
		state.rect.Position.Y -= moveStep
	case core.KEY_S:
		state.rect.Position.Y += moveStep
	default:
		c, ok := keyColors[ke.KeyCode]
		if !ok {
			return false
		}
		state.color = c
		state.colorDirty = true
	}
	return true
}
