package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// VulkanContext is the explicit owner of every device level object. It is created once
// by the backend and handed to each component constructor.
type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match FramebufferSizeLastGeneration,
	// a new swapchain should be generated.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when it was last created.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Driver Driver
	Locks  *VulkanLockPool

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
	Pipeline       *VulkanPipeline
	Commands       *VulkanCommandManager
	Descriptors    *VulkanDescriptorManager

	MaxFramesInFlight uint32
	ImagePoolCapacity uint32

	// Refreshes the cached surface capabilities before a swapchain rebuild.
	QuerySurfaceSupport func(info *VulkanSwapchainSupportInfo) error

	RecreatingSwapchain bool
}

// NewContext wires a context around an already created device.
func NewContext(driver Driver, device *VulkanDevice, framesInFlight uint32) *VulkanContext {
	if framesInFlight == 0 {
		framesInFlight = VULKAN_DEFAULT_FRAMES_IN_FLIGHT
	}
	locks := NewVulkanLockPool()
	if device != nil {
		locks.SetQueueFamily(uint32(device.GraphicsQueueIndex))
	}
	return &VulkanContext{
		Driver:            driver,
		Locks:             locks,
		Device:            device,
		MaxFramesInFlight: framesInFlight,
		ImagePoolCapacity: VULKAN_DEFAULT_IMAGE_POOL_CAPACITY,
	}
}

func (vc *VulkanContext) logicalDevice() vk.Device {
	return vc.Device.LogicalDevice
}

// FindMemoryIndex returns the first memory type allowed by typeFilter whose properties
// contain every bit of propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	memoryProperties := vc.Device.Memory
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	err := errors.Wrapf(core.ErrNoCompatibleMemoryType, "type filter %#x, properties %#x", typeFilter, uint32(propertyFlags))
	core.LogWarn(err.Error())
	return 0, err
}

// GraphicsSubmit submits to the graphics queue while holding its queue lock.
func (vc *VulkanContext) GraphicsSubmit(submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	result := vk.Success
	_ = vc.Locks.SafeQueueCall(uint32(vc.Device.GraphicsQueueIndex), func() error {
		result = vc.Driver.QueueSubmit(vc.Device.GraphicsQueue, uint32(len(submits)), submits, fence)
		return nil
	})
	return result
}

func (vc *VulkanContext) WaitIdle() error {
	if vc.Device == nil || vc.Device.LogicalDevice == nil {
		return nil
	}
	if res := vc.Driver.DeviceWaitIdle(vc.Device.LogicalDevice); res != vk.Success {
		return resultError(res, "device wait idle")
	}
	return nil
}
