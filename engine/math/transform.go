package math

import "github.com/go-gl/mathgl/mgl32"

func Identity() Mat4 {
	return mgl32.Ident4()
}

// Ortho builds an orthographic projection for the given bounds.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	return mgl32.Ortho(left, right, bottom, top, near, far)
}

// ScreenProjection maps pixel coordinates to clip space. With the Vulkan viewport the
// origin ends up in the top left corner and y grows downwards.
func ScreenProjection(width, height float32) Mat4 {
	return Ortho(0, width, 0, height, -1, 1)
}

// Model returns translate(position) * scale(size) for the unit quad.
func Model(rect Rect) Mat4 {
	t := mgl32.Translate3D(rect.Position.X, rect.Position.Y, 0)
	s := mgl32.Scale3D(rect.Size.W, rect.Size.H, 1)
	return t.Mul4(s)
}
