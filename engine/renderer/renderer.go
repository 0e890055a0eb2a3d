package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

/**
 * @brief Entry point for applications: owns the Vulkan backend and the textures loaded
 * through it, keyed by path so they can be reloaded when the file changes.
 */
type Context struct {
	backend  *vulkan.VulkanBackend
	decode   vulkan.ImageDecodeFunc
	textures map[string]*vulkan.VulkanTexture
}

// Init creates the whole rendering stack. extensions are the instance extensions the window
// needs and createSurface makes the window surface once the instance exists.
func Init(extensions []string, createSurface vulkan.SurfaceFactory, width, height uint32, opts ...Option) (*Context, error) {
	o := buildOptions(extensions, width, height, opts)
	if len(o.config.VertexShader) == 0 || len(o.config.FragmentShader) == 0 {
		err := errors.Wrap(core.ErrShaderMissing, "renderer init")
		core.LogError(err.Error())
		return nil, err
	}

	backend, err := vulkan.NewBackend(o.config, createSurface)
	if err != nil {
		return nil, err
	}
	return &Context{
		backend:  backend,
		decode:   o.decode,
		textures: make(map[string]*vulkan.VulkanTexture),
	}, nil
}

func (c *Context) GetRenderer() *vulkan.VulkanRenderer {
	return c.backend.Renderer
}

// LoadTexture returns the texture already loaded from path, or decodes and uploads it.
func (c *Context) LoadTexture(path string) (*vulkan.VulkanTexture, error) {
	if t, ok := c.textures[path]; ok {
		return t, nil
	}
	t, err := c.backend.Renderer.LoadTexture(path, c.decode)
	if err != nil {
		return nil, err
	}
	c.textures[path] = t
	return t, nil
}

// LoadTextures decodes the images concurrently and uploads them as one batch. Nothing is
// kept if any of them fails. The result lines up with paths; a path named twice is uploaded
// once and both entries share the texture.
func (c *Context) LoadTextures(paths ...string) ([]*vulkan.VulkanTexture, error) {
	unique := uniquePaths(paths)
	textures, err := c.backend.Renderer.LoadTextures(c.decode, unique...)
	if err != nil {
		return nil, err
	}
	for _, t := range textures {
		if old, ok := c.textures[t.Path]; ok && old != t {
			if err := c.backend.Renderer.DestroyTexture(old); err != nil {
				core.LogWarn("replacing texture %s: %s", t.Path, err)
			}
		}
		c.textures[t.Path] = t
	}

	result := make([]*vulkan.VulkanTexture, len(paths))
	for i, path := range paths {
		result[i] = c.textures[path]
	}
	return result, nil
}

// uniquePaths drops repeated paths, keeping the first occurrence of each.
func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		unique = append(unique, path)
	}
	return unique
}

// ReloadTexture uploads path again and destroys the previous texture. Callers holding the old
// pointer must swap it for the returned one. The old texture survives a failed reload.
func (c *Context) ReloadTexture(path string) (*vulkan.VulkanTexture, error) {
	old, ok := c.textures[path]
	if !ok {
		return nil, errors.Newf("texture %s was never loaded", path)
	}
	t, err := c.backend.Renderer.LoadTexture(path, c.decode)
	if err != nil {
		return old, err
	}
	if err := c.backend.Renderer.DestroyTexture(old); err != nil {
		return t, err
	}
	c.textures[path] = t
	core.LogInfo("Texture %s reloaded.", path)
	return t, nil
}

// Resize tells the swapchain the framebuffer changed size.
func (c *Context) Resize(width, height uint32) error {
	return c.backend.Resized(width, height)
}

// Quit waits for the GPU and releases every Vulkan object.
func (c *Context) Quit() {
	c.textures = nil
	c.backend.Shutdown()
}
