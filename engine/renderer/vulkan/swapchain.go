package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	emath "github.com/spaghettifunk/anima2d/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	// framebuffers used for on-screen rendering, one per view.
	Framebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

// SwapchainRecreate rebuilds the whole chain, views and framebuffers included, for the
// current framebuffer size. The device is idled first.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width uint32, height uint32) error {
	if context.RecreatingSwapchain {
		return core.ErrSwapchainBooting
	}
	context.RecreatingSwapchain = true
	defer func() { context.RecreatingSwapchain = false }()

	if err := context.WaitIdle(); err != nil {
		return err
	}
	if context.QuerySurfaceSupport != nil {
		if err := context.QuerySurfaceSupport(&context.Device.SwapchainSupport); err != nil {
			return err
		}
	}

	vs.destroySwapchain(context)
	fresh, err := createSwapchain(context, width, height)
	if err != nil {
		return err
	}
	*vs = *fresh

	if context.MainRenderpass != nil {
		if err := vs.CreateFramebuffers(context, context.MainRenderpass); err != nil {
			return err
		}
	}
	context.FramebufferSizeLastGeneration = context.FramebufferSizeGeneration
	core.LogInfo("Swapchain recreated at %dx%d.", vs.Extent.Width, vs.Extent.Height)
	return nil
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex asks for the next presentable image. The semaphore is
// signaled once the image is ready; the call itself does not wait for that. An out of
// date chain is rebuilt and reported as core.ErrSwapchainOutOfDate so the frame is skipped.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := context.Driver.AcquireNextImage(context.logicalDevice(), vs.Handle, timeoutNS, imageAvailableSemaphore, fence, &imageIndex)

	switch result {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		if err := vs.SwapchainRecreate(context, context.FramebufferWidth, context.FramebufferHeight); err != nil {
			return 0, err
		}
		return 0, core.ErrSwapchainOutOfDate
	default:
		err := errors.Mark(resultError(result, "acquire next image"), core.ErrSwapchainAcquireFailed)
		return 0, err
	}
}

// SwapchainPresent returns the image to the chain once renderCompleteSemaphore signals.
// Out of date, suboptimal or resized chains are rebuilt and are not errors.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	result := vk.Success
	_ = context.Locks.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		result = context.Driver.QueuePresent(presentQueue, &presentInfo)
		return nil
	})

	resized := context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration
	switch {
	case result == vk.ErrorOutOfDate || result == vk.Suboptimal || (result == vk.Success && resized):
		return vs.SwapchainRecreate(context, context.FramebufferWidth, context.FramebufferHeight)
	case result != vk.Success:
		return errors.Mark(resultError(result, "present swapchain image %d", presentImageIndex), core.ErrPresentFailed)
	}
	return nil
}

func (vs *VulkanSwapchain) CreateFramebuffers(context *VulkanContext, renderpass *VulkanRenderpass) error {
	vs.Framebuffers = make([]*VulkanFramebuffer, 0, len(vs.Views))
	for _, view := range vs.Views {
		fb, err := FramebufferCreate(context, renderpass, vs.Extent.Width, vs.Extent.Height, []vk.ImageView{view})
		if err != nil {
			vs.destroyFramebuffers(context)
			return err
		}
		vs.Framebuffers = append(vs.Framebuffers, fb)
	}
	return nil
}

func (vs *VulkanSwapchain) destroyFramebuffers(context *VulkanContext) {
	for _, fb := range vs.Framebuffers {
		fb.Destroy(context)
	}
	vs.Framebuffers = nil
}

// ChooseSwapchainImageCount clamps the preferred count to the surface limits. A zero
// maximum means the surface has no upper bound.
func ChooseSwapchainImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	return emath.ClampUpper(VULKAN_PREFERRED_SWAPCHAIN_IMAGE_COUNT, capabilities.MinImageCount, capabilities.MaxImageCount)
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  emath.Clamp(width, min.Width, max.Width),
		Height: emath.Clamp(height, min.Height, max.Height),
	}
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := context.Device.SwapchainSupport
	if len(support.Formats) == 0 {
		err := errors.New("surface reports no formats")
		core.LogError(err.Error())
		return nil, err
	}

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes),
		Extent:      chooseExtent(support.Capabilities, width, height),
	}
	imageCount := ChooseSwapchainImageCount(support.Capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if res := context.Driver.CreateSwapchain(context.logicalDevice(), &swapchainCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "failed to create swapchain")
	}
	swapchain.Handle = handle

	// Images
	if res := context.Driver.GetSwapchainImages(context.logicalDevice(), handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.destroySwapchain(context)
		return nil, resultError(res, "failed to get swapchain images")
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := context.Driver.GetSwapchainImages(context.logicalDevice(), handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		swapchain.destroySwapchain(context)
		return nil, resultError(res, "failed to get swapchain images")
	}

	// Views
	swapchain.Views = make([]vk.ImageView, 0, swapchain.ImageCount)
	for _, image := range swapchain.Images {
		view, err := createImageView(context, image, swapchain.ImageFormat.Format)
		if err != nil {
			swapchain.destroySwapchain(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	core.LogInfo("Swapchain created: %d images, %dx%d.", swapchain.ImageCount, swapchain.Extent.Width, swapchain.Extent.Height)
	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vs.destroyFramebuffers(context)

	// Only destroy the views, not the images, since those are owned by the swapchain and are thus
	// destroyed when it is.
	for _, view := range vs.Views {
		context.Driver.DestroyImageView(context.logicalDevice(), view, context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	vs.ImageCount = 0

	if vs.Handle != nil {
		context.Driver.DestroySwapchain(context.logicalDevice(), vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}
