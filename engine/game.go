package engine

import (
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	// Optional. Called for every asset file that was created or rewritten.
	FnOnAssetChanged OnAssetChanged
	// Optional. Called before the renderer is torn down.
	FnShutdown Shutdown
}

type Initialize func(ctx *renderer.Context) error
type Update func(deltaTime float64) error

// Render records one frame. The engine opens and closes the frame around it.
type Render func(r *vulkan.VulkanRenderer, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type OnAssetChanged func(path string) error
type Shutdown func() error
