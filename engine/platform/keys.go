package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/anima2d/engine/core"
)

var specialKeys = map[glfw.Key]core.KeyCode{
	glfw.KeySpace:     core.KEY_SPACE,
	glfw.KeyEscape:    core.KEY_ESCAPE,
	glfw.KeyEnter:     core.KEY_ENTER,
	glfw.KeyTab:       core.KEY_TAB,
	glfw.KeyBackspace: core.KEY_BACKSPACE,
	glfw.KeyLeft:      core.KEY_LEFT,
	glfw.KeyRight:     core.KEY_RIGHT,
	glfw.KeyUp:        core.KEY_UP,
	glfw.KeyDown:      core.KEY_DOWN,
}

// translateKey maps a GLFW key to the engine's key codes. Letters and digits share their
// ASCII values in both.
func translateKey(key glfw.Key) core.KeyCode {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return core.KEY_A + core.KeyCode(key-glfw.KeyA)
	case key >= glfw.Key0 && key <= glfw.Key9:
		return core.KEY_0 + core.KeyCode(key-glfw.Key0)
	}
	if code, ok := specialKeys[key]; ok {
		return code
	}
	return core.KEY_UNKNOWN
}
