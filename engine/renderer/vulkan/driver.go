package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Driver is the set of device level Vulkan entry points used by the renderer. The
// signatures follow github.com/goki/vulkan so the default driver is a direct pass-through.
// Instance level bootstrap (instance, surface, physical device selection) is not part of
// it and lives in backend.go and device.go.
type Driver interface {
	DeviceWaitIdle(device vk.Device) vk.Result

	// memory and buffers
	CreateBuffer(device vk.Device, info *vk.BufferCreateInfo, alloc *vk.AllocationCallbacks, buffer *vk.Buffer) vk.Result
	DestroyBuffer(device vk.Device, buffer vk.Buffer, alloc *vk.AllocationCallbacks)
	GetBufferMemoryRequirements(device vk.Device, buffer vk.Buffer, req *vk.MemoryRequirements)
	BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result
	AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo, alloc *vk.AllocationCallbacks, memory *vk.DeviceMemory) vk.Result
	FreeMemory(device vk.Device, memory vk.DeviceMemory, alloc *vk.AllocationCallbacks)
	MapMemory(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize, flags vk.MemoryMapFlags, data *unsafe.Pointer) vk.Result
	UnmapMemory(device vk.Device, memory vk.DeviceMemory)

	// images
	CreateImage(device vk.Device, info *vk.ImageCreateInfo, alloc *vk.AllocationCallbacks, image *vk.Image) vk.Result
	DestroyImage(device vk.Device, image vk.Image, alloc *vk.AllocationCallbacks)
	GetImageMemoryRequirements(device vk.Device, image vk.Image, req *vk.MemoryRequirements)
	BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result
	DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks)
	CreateSampler(device vk.Device, info *vk.SamplerCreateInfo, alloc *vk.AllocationCallbacks, sampler *vk.Sampler) vk.Result
	DestroySampler(device vk.Device, sampler vk.Sampler, alloc *vk.AllocationCallbacks)

	// descriptors
	CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.DescriptorSetLayout) vk.Result
	DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout, alloc *vk.AllocationCallbacks)
	CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.DescriptorPool) vk.Result
	DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool, alloc *vk.AllocationCallbacks)
	AllocateDescriptorSets(device vk.Device, info *vk.DescriptorSetAllocateInfo, sets *vk.DescriptorSet) vk.Result
	FreeDescriptorSets(device vk.Device, pool vk.DescriptorPool, count uint32, sets *vk.DescriptorSet) vk.Result
	UpdateDescriptorSets(device vk.Device, writeCount uint32, writes []vk.WriteDescriptorSet, copyCount uint32, copies []vk.CopyDescriptorSet)

	// commands
	CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.CommandPool) vk.Result
	DestroyCommandPool(device vk.Device, pool vk.CommandPool, alloc *vk.AllocationCallbacks)
	AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers []vk.CommandBuffer) vk.Result
	FreeCommandBuffers(device vk.Device, pool vk.CommandPool, count uint32, buffers []vk.CommandBuffer)
	BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result
	EndCommandBuffer(buffer vk.CommandBuffer) vk.Result
	ResetCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferResetFlags) vk.Result

	CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, regionCount uint32, regions []vk.BufferCopy)
	CmdCopyBufferToImage(buffer vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regionCount uint32, regions []vk.BufferImageCopy)
	CmdPipelineBarrier(buffer vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, deps vk.DependencyFlags, memoryBarrierCount uint32, memoryBarriers []vk.MemoryBarrier, bufferBarrierCount uint32, bufferBarriers []vk.BufferMemoryBarrier, imageBarrierCount uint32, imageBarriers []vk.ImageMemoryBarrier)
	CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents)
	CmdEndRenderPass(buffer vk.CommandBuffer)
	CmdBindPipeline(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline)
	CmdSetViewport(buffer vk.CommandBuffer, first, count uint32, viewports []vk.Viewport)
	CmdSetScissor(buffer vk.CommandBuffer, first, count uint32, scissors []vk.Rect2D)
	CmdBindVertexBuffers(buffer vk.CommandBuffer, firstBinding, bindingCount uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType)
	CmdBindDescriptorSets(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet, setCount uint32, sets []vk.DescriptorSet, dynamicOffsetCount uint32, dynamicOffsets []uint32)
	CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer)
	CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)

	// synchronization and queues
	CreateFence(device vk.Device, info *vk.FenceCreateInfo, alloc *vk.AllocationCallbacks, fence *vk.Fence) vk.Result
	DestroyFence(device vk.Device, fence vk.Fence, alloc *vk.AllocationCallbacks)
	WaitForFences(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result
	ResetFences(device vk.Device, count uint32, fences []vk.Fence) vk.Result
	CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo, alloc *vk.AllocationCallbacks, semaphore *vk.Semaphore) vk.Result
	DestroySemaphore(device vk.Device, semaphore vk.Semaphore, alloc *vk.AllocationCallbacks)
	QueueSubmit(queue vk.Queue, count uint32, submits []vk.SubmitInfo, fence vk.Fence) vk.Result
	QueueWaitIdle(queue vk.Queue) vk.Result

	// swapchain
	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks)
	GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result
	AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result
	QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result

	// render pass and pipeline
	CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo, alloc *vk.AllocationCallbacks, renderPass *vk.RenderPass) vk.Result
	DestroyRenderPass(device vk.Device, renderPass vk.RenderPass, alloc *vk.AllocationCallbacks)
	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo, alloc *vk.AllocationCallbacks, framebuffer *vk.Framebuffer) vk.Result
	DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer, alloc *vk.AllocationCallbacks)
	CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo, alloc *vk.AllocationCallbacks, module *vk.ShaderModule) vk.Result
	DestroyShaderModule(device vk.Device, module vk.ShaderModule, alloc *vk.AllocationCallbacks)
	CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.PipelineLayout) vk.Result
	DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout, alloc *vk.AllocationCallbacks)
	CreateGraphicsPipelines(device vk.Device, cache vk.PipelineCache, count uint32, infos []vk.GraphicsPipelineCreateInfo, alloc *vk.AllocationCallbacks, pipelines []vk.Pipeline) vk.Result
	DestroyPipeline(device vk.Device, pipeline vk.Pipeline, alloc *vk.AllocationCallbacks)
}

type vkDriver struct{}

// NewDriver returns the driver that calls straight into the Vulkan loader.
func NewDriver() Driver {
	return vkDriver{}
}

func (vkDriver) DeviceWaitIdle(device vk.Device) vk.Result {
	return vk.DeviceWaitIdle(device)
}

func (vkDriver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo, alloc *vk.AllocationCallbacks, buffer *vk.Buffer) vk.Result {
	return vk.CreateBuffer(device, info, alloc, buffer)
}

func (vkDriver) DestroyBuffer(device vk.Device, buffer vk.Buffer, alloc *vk.AllocationCallbacks) {
	vk.DestroyBuffer(device, buffer, alloc)
}

func (vkDriver) GetBufferMemoryRequirements(device vk.Device, buffer vk.Buffer, req *vk.MemoryRequirements) {
	vk.GetBufferMemoryRequirements(device, buffer, req)
	req.Deref()
}

func (vkDriver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	return vk.BindBufferMemory(device, buffer, memory, offset)
}

func (vkDriver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo, alloc *vk.AllocationCallbacks, memory *vk.DeviceMemory) vk.Result {
	return vk.AllocateMemory(device, info, alloc, memory)
}

func (vkDriver) FreeMemory(device vk.Device, memory vk.DeviceMemory, alloc *vk.AllocationCallbacks) {
	vk.FreeMemory(device, memory, alloc)
}

func (vkDriver) MapMemory(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize, flags vk.MemoryMapFlags, data *unsafe.Pointer) vk.Result {
	return vk.MapMemory(device, memory, offset, size, flags, data)
}

func (vkDriver) UnmapMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.UnmapMemory(device, memory)
}

func (vkDriver) CreateImage(device vk.Device, info *vk.ImageCreateInfo, alloc *vk.AllocationCallbacks, image *vk.Image) vk.Result {
	return vk.CreateImage(device, info, alloc, image)
}

func (vkDriver) DestroyImage(device vk.Device, image vk.Image, alloc *vk.AllocationCallbacks) {
	vk.DestroyImage(device, image, alloc)
}

func (vkDriver) GetImageMemoryRequirements(device vk.Device, image vk.Image, req *vk.MemoryRequirements) {
	vk.GetImageMemoryRequirements(device, image, req)
	req.Deref()
}

func (vkDriver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	return vk.BindImageMemory(device, image, memory, offset)
}

func (vkDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
	return vk.CreateImageView(device, info, alloc, view)
}

func (vkDriver) DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
	vk.DestroyImageView(device, view, alloc)
}

func (vkDriver) CreateSampler(device vk.Device, info *vk.SamplerCreateInfo, alloc *vk.AllocationCallbacks, sampler *vk.Sampler) vk.Result {
	return vk.CreateSampler(device, info, alloc, sampler)
}

func (vkDriver) DestroySampler(device vk.Device, sampler vk.Sampler, alloc *vk.AllocationCallbacks) {
	vk.DestroySampler(device, sampler, alloc)
}

func (vkDriver) CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.DescriptorSetLayout) vk.Result {
	return vk.CreateDescriptorSetLayout(device, info, alloc, layout)
}

func (vkDriver) DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout, alloc *vk.AllocationCallbacks) {
	vk.DestroyDescriptorSetLayout(device, layout, alloc)
}

func (vkDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.DescriptorPool) vk.Result {
	return vk.CreateDescriptorPool(device, info, alloc, pool)
}

func (vkDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool, alloc *vk.AllocationCallbacks) {
	vk.DestroyDescriptorPool(device, pool, alloc)
}

func (vkDriver) AllocateDescriptorSets(device vk.Device, info *vk.DescriptorSetAllocateInfo, sets *vk.DescriptorSet) vk.Result {
	return vk.AllocateDescriptorSets(device, info, sets)
}

func (vkDriver) FreeDescriptorSets(device vk.Device, pool vk.DescriptorPool, count uint32, sets *vk.DescriptorSet) vk.Result {
	return vk.FreeDescriptorSets(device, pool, count, sets)
}

func (vkDriver) UpdateDescriptorSets(device vk.Device, writeCount uint32, writes []vk.WriteDescriptorSet, copyCount uint32, copies []vk.CopyDescriptorSet) {
	vk.UpdateDescriptorSets(device, writeCount, writes, copyCount, copies)
}

func (vkDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.CommandPool) vk.Result {
	return vk.CreateCommandPool(device, info, alloc, pool)
}

func (vkDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool, alloc *vk.AllocationCallbacks) {
	vk.DestroyCommandPool(device, pool, alloc)
}

func (vkDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers []vk.CommandBuffer) vk.Result {
	return vk.AllocateCommandBuffers(device, info, buffers)
}

func (vkDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, count uint32, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(device, pool, count, buffers)
}

func (vkDriver) BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	return vk.BeginCommandBuffer(buffer, info)
}

func (vkDriver) EndCommandBuffer(buffer vk.CommandBuffer) vk.Result {
	return vk.EndCommandBuffer(buffer)
}

func (vkDriver) ResetCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferResetFlags) vk.Result {
	return vk.ResetCommandBuffer(buffer, flags)
}

func (vkDriver) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, regionCount uint32, regions []vk.BufferCopy) {
	vk.CmdCopyBuffer(buffer, src, dst, regionCount, regions)
}

func (vkDriver) CmdCopyBufferToImage(buffer vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regionCount uint32, regions []vk.BufferImageCopy) {
	vk.CmdCopyBufferToImage(buffer, src, dst, layout, regionCount, regions)
}

func (vkDriver) CmdPipelineBarrier(buffer vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, deps vk.DependencyFlags, memoryBarrierCount uint32, memoryBarriers []vk.MemoryBarrier, bufferBarrierCount uint32, bufferBarriers []vk.BufferMemoryBarrier, imageBarrierCount uint32, imageBarriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(buffer, srcStage, dstStage, deps, memoryBarrierCount, memoryBarriers, bufferBarrierCount, bufferBarriers, imageBarrierCount, imageBarriers)
}

func (vkDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	vk.CmdBeginRenderPass(buffer, info, contents)
}

func (vkDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	vk.CmdEndRenderPass(buffer)
}

func (vkDriver) CmdBindPipeline(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(buffer, bindPoint, pipeline)
}

func (vkDriver) CmdSetViewport(buffer vk.CommandBuffer, first, count uint32, viewports []vk.Viewport) {
	vk.CmdSetViewport(buffer, first, count, viewports)
}

func (vkDriver) CmdSetScissor(buffer vk.CommandBuffer, first, count uint32, scissors []vk.Rect2D) {
	vk.CmdSetScissor(buffer, first, count, scissors)
}

func (vkDriver) CmdBindVertexBuffers(buffer vk.CommandBuffer, firstBinding, bindingCount uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(buffer, firstBinding, bindingCount, buffers, offsets)
}

func (vkDriver) CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(buffer, indexBuffer, offset, indexType)
}

func (vkDriver) CmdBindDescriptorSets(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet, setCount uint32, sets []vk.DescriptorSet, dynamicOffsetCount uint32, dynamicOffsets []uint32) {
	vk.CmdBindDescriptorSets(buffer, bindPoint, layout, firstSet, setCount, sets, dynamicOffsetCount, dynamicOffsets)
}

func (vkDriver) CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer) {
	vk.CmdPushConstants(buffer, layout, stages, offset, size, values)
}

func (vkDriver) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(buffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (vkDriver) CreateFence(device vk.Device, info *vk.FenceCreateInfo, alloc *vk.AllocationCallbacks, fence *vk.Fence) vk.Result {
	return vk.CreateFence(device, info, alloc, fence)
}

func (vkDriver) DestroyFence(device vk.Device, fence vk.Fence, alloc *vk.AllocationCallbacks) {
	vk.DestroyFence(device, fence, alloc)
}

func (vkDriver) WaitForFences(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result {
	return vk.WaitForFences(device, count, fences, waitAll, timeout)
}

func (vkDriver) ResetFences(device vk.Device, count uint32, fences []vk.Fence) vk.Result {
	return vk.ResetFences(device, count, fences)
}

func (vkDriver) CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo, alloc *vk.AllocationCallbacks, semaphore *vk.Semaphore) vk.Result {
	return vk.CreateSemaphore(device, info, alloc, semaphore)
}

func (vkDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore, alloc *vk.AllocationCallbacks) {
	vk.DestroySemaphore(device, semaphore, alloc)
}

func (vkDriver) QueueSubmit(queue vk.Queue, count uint32, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	return vk.QueueSubmit(queue, count, submits, fence)
}

func (vkDriver) QueueWaitIdle(queue vk.Queue) vk.Result {
	return vk.QueueWaitIdle(queue)
}

func (vkDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result {
	return vk.CreateSwapchain(device, info, alloc, swapchain)
}

func (vkDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks) {
	vk.DestroySwapchain(device, swapchain, alloc)
}

func (vkDriver) GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result {
	return vk.GetSwapchainImages(device, swapchain, count, images)
}

func (vkDriver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result {
	return vk.AcquireNextImage(device, swapchain, timeout, semaphore, fence, index)
}

func (vkDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, info)
}

func (vkDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo, alloc *vk.AllocationCallbacks, renderPass *vk.RenderPass) vk.Result {
	return vk.CreateRenderPass(device, info, alloc, renderPass)
}

func (vkDriver) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass, alloc *vk.AllocationCallbacks) {
	vk.DestroyRenderPass(device, renderPass, alloc)
}

func (vkDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo, alloc *vk.AllocationCallbacks, framebuffer *vk.Framebuffer) vk.Result {
	return vk.CreateFramebuffer(device, info, alloc, framebuffer)
}

func (vkDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer, alloc *vk.AllocationCallbacks) {
	vk.DestroyFramebuffer(device, framebuffer, alloc)
}

func (vkDriver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo, alloc *vk.AllocationCallbacks, module *vk.ShaderModule) vk.Result {
	return vk.CreateShaderModule(device, info, alloc, module)
}

func (vkDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule, alloc *vk.AllocationCallbacks) {
	vk.DestroyShaderModule(device, module, alloc)
}

func (vkDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.PipelineLayout) vk.Result {
	return vk.CreatePipelineLayout(device, info, alloc, layout)
}

func (vkDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout, alloc *vk.AllocationCallbacks) {
	vk.DestroyPipelineLayout(device, layout, alloc)
}

func (vkDriver) CreateGraphicsPipelines(device vk.Device, cache vk.PipelineCache, count uint32, infos []vk.GraphicsPipelineCreateInfo, alloc *vk.AllocationCallbacks, pipelines []vk.Pipeline) vk.Result {
	return vk.CreateGraphicsPipelines(device, cache, count, infos, alloc, pipelines)
}

func (vkDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline, alloc *vk.AllocationCallbacks) {
	vk.DestroyPipeline(device, pipeline, alloc)
}
