package vulkan

import vk "github.com/goki/vulkan"

/**
 * @brief Default number of frames the CPU may record ahead of the GPU.
 */
const VULKAN_DEFAULT_FRAMES_IN_FLIGHT uint32 = 2

/**
 * @brief Default capacity of each combined image sampler pool.
 */
const VULKAN_DEFAULT_IMAGE_POOL_CAPACITY uint32 = 10

// Swapchain image count the engine asks for before clamping to the surface limits.
const VULKAN_PREFERRED_SWAPCHAIN_IMAGE_COUNT uint32 = 2

// Texture format used for every decoded image.
const VULKAN_TEXTURE_FORMAT = vk.FormatR8g8b8a8Srgb

// Size in bytes of one column-major 4x4 float matrix.
const VULKAN_MAT4_SIZE = 16 * 4

// Push constant block: the model matrix.
const VULKAN_PUSH_CONSTANT_SIZE uint32 = VULKAN_MAT4_SIZE

// Uniform block at binding 0: projection and view.
const VULKAN_MVP_UNIFORM_SIZE = 2 * VULKAN_MAT4_SIZE

// Uniform block at binding 1: draw colour (vec3).
const VULKAN_COLOR_UNIFORM_SIZE = 3 * 4

const VULKAN_QUAD_INDEX_COUNT uint32 = 6

// Size in bytes of one Vertex2D: vec2 position, vec2 texture coordinate.
const VULKAN_VERTEX_STRIDE uint32 = 4 * 4
