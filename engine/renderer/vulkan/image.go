package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
	Layout vk.ImageLayout
}

// ImageCreate creates a 2D optimal tiling image, backs it with device local memory and,
// when createView is set, a colour view. Partial work is released on failure.
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags, createView bool) (*VulkanImage, error) {
	image := &VulkanImage{
		Format: format,
		Width:  width,
		Height: height,
		Layout: vk.ImageLayoutUndefined,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	device := context.logicalDevice()
	if res := context.Driver.CreateImage(device, &imageCreateInfo, context.Allocator, &image.Handle); res != vk.Success {
		return nil, resultError(res, "failed to create %dx%d image", width, height)
	}

	var requirements vk.MemoryRequirements
	context.Driver.GetImageMemoryRequirements(device, image.Handle, &requirements)

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		image.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if res := context.Driver.AllocateMemory(device, &allocateInfo, context.Allocator, &image.Memory); res != vk.Success {
		image.Destroy(context)
		return nil, resultError(res, "failed to allocate image memory")
	}

	if res := context.Driver.BindImageMemory(device, image.Handle, image.Memory, 0); res != vk.Success {
		image.Destroy(context)
		return nil, resultError(res, "failed to bind image memory")
	}

	if createView {
		view, err := createImageView(context, image.Handle, format)
		if err != nil {
			image.Destroy(context)
			return nil, err
		}
		image.View = view
	}
	return image, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := context.Driver.CreateImageView(context.logicalDevice(), &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		return nil, resultError(res, "failed to create image view")
	}
	return view, nil
}

// TransitionLayout records a barrier moving the image between the two layouts a texture
// upload goes through. Any other pair is rejected.
func (vi *VulkanImage) TransitionLayout(context *VulkanContext, commandBuffer *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var sourceStage, destStage vk.PipelineStageFlags

	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		// Don't care what stage the pipeline is in at the start.
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		// Transition from a transfer destination layout to a shader-readonly layout.
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		err := errors.Newf("unsupported layout transition %d -> %d", oldLayout, newLayout)
		core.LogError(err.Error())
		return err
	}

	context.Driver.CmdPipelineBarrier(commandBuffer.Handle, sourceStage, destStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	vi.Layout = newLayout
	return nil
}

// CopyFromBuffer records a copy of the whole buffer into the image, which must be in the
// transfer destination layout.
func (vi *VulkanImage) CopyFromBuffer(context *VulkanContext, buffer vk.Buffer, commandBuffer *VulkanCommandBuffer) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  vi.Width,
			Height: vi.Height,
			Depth:  1,
		},
	}
	context.Driver.CmdCopyBufferToImage(commandBuffer.Handle, buffer, vi.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	device := context.logicalDevice()
	if vi.View != nil {
		context.Driver.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Memory != nil {
		context.Driver.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		context.Driver.DestroyImage(device, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
}
