package vulkan

import (
	"image"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/core"
	"golang.org/x/sync/errgroup"
)

// ImageDecodeFunc reads the file at path and returns its pixels as RGBA8.
type ImageDecodeFunc func(path string) (*image.RGBA, error)

/**
 * @brief A sampled 2D image plus the image descriptor set that binds it.
 */
type VulkanTexture struct {
	ID     uuid.UUID
	Path   string
	Width  uint32
	Height uint32
	Image  *VulkanImage
	Set    vk.DescriptorSet
}

// LoadTexture decodes the file and uploads it. A decode failure is reported as
// core.ErrImageDecodeFailed and creates no GPU object.
func LoadTexture(context *VulkanContext, sampler vk.Sampler, path string, decode ImageDecodeFunc) (*VulkanTexture, error) {
	pixels, err := decode(path)
	if err != nil {
		err = errors.Mark(errors.Wrapf(err, "decoding %q", path), core.ErrImageDecodeFailed)
		core.LogError(err.Error())
		return nil, err
	}
	return NewTextureFromPixels(context, sampler, path, pixels)
}

// LoadTextures decodes every file concurrently and then uploads them one by one in
// argument order. If anything fails the textures created so far are destroyed.
func LoadTextures(context *VulkanContext, sampler vk.Sampler, decode ImageDecodeFunc, paths ...string) ([]*VulkanTexture, error) {
	decoded := make([]*image.RGBA, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			pixels, err := decode(path)
			if err != nil {
				return errors.Mark(errors.Wrapf(err, "decoding %q", path), core.ErrImageDecodeFailed)
			}
			decoded[i] = pixels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	textures := make([]*VulkanTexture, 0, len(paths))
	for i, pixels := range decoded {
		texture, err := NewTextureFromPixels(context, sampler, paths[i], pixels)
		if err != nil {
			for _, t := range textures {
				t.Destroy(context)
			}
			return nil, err
		}
		textures = append(textures, texture)
	}
	return textures, nil
}

// NewTextureFromPixels uploads already decoded pixels: stage, create the image, move it to
// the transfer layout, copy, move it to the shader read layout, then create the view and
// the descriptor set.
func NewTextureFromPixels(context *VulkanContext, sampler vk.Sampler, name string, pixels *image.RGBA) (*VulkanTexture, error) {
	bounds := pixels.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	if width == 0 || height == 0 {
		err := errors.Wrapf(core.ErrImageDecodeFailed, "%q has no pixels", name)
		core.LogError(err.Error())
		return nil, err
	}
	data := packRGBA(pixels)

	staging, err := NewBuffer(context, vk.DeviceSize(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.Upload(data); err != nil {
		return nil, err
	}

	texture := &VulkanTexture{
		ID:     uuid.New(),
		Path:   name,
		Width:  width,
		Height: height,
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	img, err := ImageCreate(context, width, height, VULKAN_TEXTURE_FORMAT, usage, false)
	if err != nil {
		return nil, err
	}
	texture.Image = img

	queue := context.Device.GraphicsQueue
	commands := context.Commands

	err = commands.ExecuteOneShot(queue, func(cb *VulkanCommandBuffer) error {
		return img.TransitionLayout(context, cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	})
	if err == nil {
		err = commands.ExecuteOneShot(queue, func(cb *VulkanCommandBuffer) error {
			img.CopyFromBuffer(context, staging.Handle, cb)
			return nil
		})
	}
	if err == nil {
		err = commands.ExecuteOneShot(queue, func(cb *VulkanCommandBuffer) error {
			return img.TransitionLayout(context, cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
		})
	}
	if err != nil {
		texture.Destroy(context)
		return nil, err
	}

	view, err := createImageView(context, img.Handle, VULKAN_TEXTURE_FORMAT)
	if err != nil {
		texture.Destroy(context)
		return nil, err
	}
	img.View = view

	set, err := context.Descriptors.AllocImageSet()
	if err != nil {
		texture.Destroy(context)
		return nil, err
	}
	texture.Set = set
	context.Descriptors.WriteImageSet(set, view, sampler)

	core.LogDebug("Texture %s loaded from %q (%dx%d).", texture.ID, name, width, height)
	return texture, nil
}

// Destroy returns the descriptor set to its pool and releases the image. Safe to call twice.
func (t *VulkanTexture) Destroy(context *VulkanContext) {
	if t.Set != nil {
		if err := context.Descriptors.FreeImageSet(t.Set); err != nil {
			core.LogWarn("texture %s: %s", t.ID, err)
		}
		t.Set = nil
	}
	if t.Image != nil {
		t.Image.Destroy(context)
		t.Image = nil
	}
}

// packRGBA returns the pixels with rows laid out back to back.
func packRGBA(pixels *image.RGBA) []byte {
	bounds := pixels.Bounds()
	rowBytes := bounds.Dx() * 4
	if pixels.Stride == rowBytes && len(pixels.Pix) == rowBytes*bounds.Dy() {
		return pixels.Pix
	}
	data := make([]byte, 0, rowBytes*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := pixels.PixOffset(bounds.Min.X, y)
		data = append(data, pixels.Pix[start:start+rowBytes]...)
	}
	return data
}
