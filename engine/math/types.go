package math

import "github.com/go-gl/mathgl/mgl32"

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float32
}

/**
 * @brief An axis aligned rectangle. Position is the rectangle centre, matching the
 * unit quad which spans [-0.5, 0.5] on both axes.
 */
type Rect struct {
	Position Vec2
	Size     Size
}

/** @brief A linear RGB colour with components in [0, 1]. */
type Color struct {
	R, G, B float32
}

var (
	ColorRed   = Color{R: 1}
	ColorGreen = Color{G: 1}
	ColorBlue  = Color{B: 1}
	ColorWhite = Color{R: 1, G: 1, B: 1}
)

/** @brief a 4x4 column-major matrix. */
type Mat4 = mgl32.Mat4

/**
 * @brief Represents a single vertex of a 2D quad.
 */
type Vertex2D struct {
	/** @brief The position of the vertex */
	Position [2]float32
	/** @brief The texture coordinate of the vertex. */
	Texcoord [2]float32
}

// QuadVertices is the unit quad centred on the origin.
var QuadVertices = [4]Vertex2D{
	{Position: [2]float32{-0.5, -0.5}, Texcoord: [2]float32{0, 0}},
	{Position: [2]float32{0.5, -0.5}, Texcoord: [2]float32{1, 0}},
	{Position: [2]float32{0.5, 0.5}, Texcoord: [2]float32{1, 1}},
	{Position: [2]float32{-0.5, 0.5}, Texcoord: [2]float32{0, 1}},
}

var QuadIndices = [6]uint32{0, 1, 3, 1, 2, 3}
