package platform

import (
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window

	startTime float64
}

func New() *Platform {
	return &Platform{}
}

func (p *Platform) Startup(applicationName string, x, y int32, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		err = errors.Wrap(err, "failed to initialize glfw")
		core.LogError(err.Error())
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		err := errors.New("glfw reports no Vulkan loader")
		core.LogError(err.Error())
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		err = errors.Wrap(err, "failed to create window")
		core.LogError(err.Error())
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetCloseCallback(closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()
	core.LogInfo("Window %q created (%dx%d).", applicationName, width, height)
	return nil
}

// InitVulkan points the Vulkan loader at GLFW's instance proc address. It must run after
// Startup and before the backend creates its instance.
func InitVulkan() error {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		err = errors.Wrap(err, "loading Vulkan")
		core.LogError(err.Error())
		return err
	}
	return nil
}

// RequiredInstanceExtensions lists the instance extensions the window surface needs.
func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// SurfaceFactory creates the window surface once the backend has an instance.
func (p *Platform) SurfaceFactory() vulkan.SurfaceFactory {
	return func(instance vk.Instance) (vk.Surface, error) {
		addr, err := p.Window.CreateWindowSurface(instance, nil)
		if err != nil {
			return nil, errors.Wrap(err, "glfw surface")
		}
		return vk.SurfaceFromPointer(addr), nil
	}
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// PumpMessages polls window events and reports false once the window was asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitWhileMinimized blocks on window events instead of spinning while nothing can be drawn.
func (p *Platform) WaitWhileMinimized() {
	glfw.WaitEventsTimeout(0.1)
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// GetAbsoluteTime returns seconds since glfw was initialized.
func GetAbsoluteTime() float64 {
	return glfw.GetTime()
}

func (p *Platform) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := translateKey(key)
	if code == core.KEY_UNKNOWN {
		return
	}
	core.InputProcessKey(code, action == glfw.Press)
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.EventPost(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.ResizeEvent{Width: uint32(width), Height: uint32(height)},
	})
}

func closeCallback(w *glfw.Window) {
	core.EventPost(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}
