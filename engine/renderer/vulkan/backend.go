package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// SurfaceFactory creates the window surface for a freshly created instance.
type SurfaceFactory func(instance vk.Instance) (vk.Surface, error)

type BackendConfig struct {
	ApplicationName   string
	Width             uint32
	Height            uint32
	FramesInFlight    uint32
	ImagePoolCapacity uint32
	ClearColor        [4]float32
	VertexShader      []uint32
	FragmentShader    []uint32
	Validation        bool
	// Instance extensions the window system needs.
	Extensions []string
}

/**
 * @brief Owns the Vulkan instance and everything built on it. Creation order is instance,
 * surface, device, swapchain, render pass, framebuffers, shader, descriptors, pipeline,
 * commands and finally the frame renderer; Shutdown runs it backwards.
 */
type VulkanBackend struct {
	context  *VulkanContext
	shader   *VulkanShader
	Renderer *VulkanRenderer

	validation bool
}

// NewBackend needs the instance loader to be set up already (see platform.InitVulkan).
func NewBackend(config BackendConfig, createSurface SurfaceFactory) (*VulkanBackend, error) {
	context := NewContext(NewDriver(), nil, config.FramesInFlight)
	b := &VulkanBackend{
		context:    context,
		validation: config.Validation,
	}

	if err := b.createInstance(config); err != nil {
		return nil, err
	}

	if b.validation {
		if err := b.createDebugCallback(); err != nil {
			// Validation output is a convenience; keep going without it.
			core.LogWarn("validation messages disabled: %s", err)
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := createSurface(context.Instance)
	if err != nil {
		b.destroyInstance()
		err = errors.Wrap(err, "creating window surface")
		core.LogError(err.Error())
		return nil, err
	}
	context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(context); err != nil {
		b.destroyInstance()
		return nil, err
	}
	context.QuerySurfaceSupport = func(info *VulkanSwapchainSupportInfo) error {
		return DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, info)
	}

	if err := b.build(config); err != nil {
		DeviceDestroy(context)
		b.destroyInstance()
		return nil, err
	}
	core.LogInfo("Vulkan backend initialized successfully.")
	return b, nil
}

// newBackendFromContext builds everything above the device on an existing context.
func newBackendFromContext(context *VulkanContext, config BackendConfig) (*VulkanBackend, error) {
	b := &VulkanBackend{context: context}
	if err := b.build(config); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *VulkanBackend) build(config BackendConfig) error {
	context := b.context
	context.FramebufferWidth = config.Width
	context.FramebufferHeight = config.Height
	if config.ImagePoolCapacity != 0 {
		context.ImagePoolCapacity = config.ImagePoolCapacity
	}

	// The shader is checked first so a missing file fails before any GPU object exists.
	shader, err := NewShader(context, config.VertexShader, config.FragmentShader)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	b.shader = shader

	if context.Swapchain, err = SwapchainCreate(context, config.Width, config.Height); err != nil {
		b.teardown()
		return err
	}

	clear := config.ClearColor
	if context.MainRenderpass, err = RenderpassCreate(context, context.Swapchain.ImageFormat.Format, clear[0], clear[1], clear[2], clear[3]); err != nil {
		b.teardown()
		return err
	}

	if err := context.Swapchain.CreateFramebuffers(context, context.MainRenderpass); err != nil {
		b.teardown()
		return err
	}

	if context.Descriptors, err = NewDescriptorManager(context, context.MaxFramesInFlight, context.ImagePoolCapacity); err != nil {
		b.teardown()
		return err
	}

	pipelineConfig := SpritePipelineConfig(context.MainRenderpass, shader, context.Descriptors.Layouts())
	if context.Pipeline, err = NewGraphicsPipeline(context, pipelineConfig); err != nil {
		b.teardown()
		return err
	}

	if context.Commands, err = NewCommandManager(context, uint32(context.Device.GraphicsQueueIndex)); err != nil {
		b.teardown()
		return err
	}

	if b.Renderer, err = NewRenderer(context); err != nil {
		b.teardown()
		return err
	}

	extent := context.Swapchain.Extent
	if err := b.Renderer.SetProjection(0, float32(extent.Width), 0, float32(extent.Height), -1, 1); err != nil {
		b.teardown()
		return err
	}
	return nil
}

func (b *VulkanBackend) Context() *VulkanContext {
	return b.context
}

// Resized forwards a new window size to the renderer; the swapchain follows at the next
// present.
func (b *VulkanBackend) Resized(width, height uint32) error {
	if b.Renderer == nil {
		return nil
	}
	return b.Renderer.Resize(width, height)
}

// Shutdown destroys everything in reverse creation order.
func (b *VulkanBackend) Shutdown() {
	b.teardown()
	DeviceDestroy(b.context)
	b.destroyInstance()
}

// teardown releases everything build created, skipping what was never made.
func (b *VulkanBackend) teardown() {
	context := b.context
	if err := context.WaitIdle(); err != nil {
		core.LogWarn("shutdown: %s", err)
	}

	if b.Renderer != nil {
		b.Renderer.Destroy()
		b.Renderer = nil
	}
	if context.Commands != nil {
		context.Commands.Destroy()
		context.Commands = nil
	}
	if context.Pipeline != nil {
		context.Pipeline.Destroy(context)
		context.Pipeline = nil
	}
	if context.Descriptors != nil {
		context.Descriptors.Destroy()
		context.Descriptors = nil
	}
	if context.Swapchain != nil {
		context.Swapchain.SwapchainDestroy(context)
		context.Swapchain = nil
	}
	if context.MainRenderpass != nil {
		context.MainRenderpass.RenderpassDestroy(context)
		context.MainRenderpass = nil
	}
	if b.shader != nil {
		b.shader.Destroy(context)
		b.shader = nil
	}
}

func (b *VulkanBackend) createInstance(config BackendConfig) error {
	// Setup Vulkan instance.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("Anima2D"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := append([]string{}, config.Extensions...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if b.validation {
		if hasInstanceLayer("VK_LAYER_KHRONOS_validation") {
			layers = append(layers, "VK_LAYER_KHRONOS_validation")
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		} else {
			core.LogWarn("VK_LAYER_KHRONOS_validation is not installed, validation disabled.")
			b.validation = false
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &b.context.Instance); res != vk.Success {
		return resultError(res, "failed to create Vulkan instance")
	}
	if err := vk.InitInstance(b.context.Instance); err != nil {
		err = errors.Wrap(err, "loading instance functions")
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if VulkanString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (b *VulkanBackend) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(b.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
		return err
	}
	b.context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (b *VulkanBackend) destroyInstance() {
	context := b.context
	if context.Surface != nil {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = nil
	}
	if context.debugCallback != nil {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(context.Instance, context.debugCallback, context.Allocator)
		context.debugCallback = nil
	}
	if context.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
