package vulkan

import (
	vk "github.com/goki/vulkan"
)

type FrameState int

const (
	FRAME_STATE_IDLE FrameState = iota
	FRAME_STATE_RECORDING
	FRAME_STATE_SUBMITTED
)

/**
 * @brief Everything one frame in flight owns. A slot is only touched again once its
 * InFlight fence has been observed signaled.
 */
type FrameSlot struct {
	CommandBuffer *VulkanCommandBuffer
	/** @brief Signaled by the presentation engine once the acquired image can be drawn to. */
	ImageAvailable vk.Semaphore
	/** @brief Signaled when the submitted commands finish, waited on by present. */
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence

	BufferSet vk.DescriptorSet
	MVP       *StagedBuffer
	Color     *StagedBuffer

	State FrameState

	// Renderer uniform generation last copied into MVP and Color, and the one recorded into
	// the frame being built. The latter is committed once the frame is submitted.
	uniformGeneration  uint64
	recordedGeneration uint64
}

func newFrameSlot(context *VulkanContext, commandBuffer *VulkanCommandBuffer, bufferSet vk.DescriptorSet) (*FrameSlot, error) {
	slot := &FrameSlot{
		CommandBuffer: commandBuffer,
		BufferSet:     bufferSet,
		State:         FRAME_STATE_IDLE,
	}

	var err error
	if slot.ImageAvailable, err = newSemaphore(context); err != nil {
		slot.destroy(context)
		return nil, err
	}
	if slot.RenderFinished, err = newSemaphore(context); err != nil {
		slot.destroy(context)
		return nil, err
	}
	// Created signaled so the first wait on this slot returns immediately.
	if slot.InFlight, err = NewFence(context, true); err != nil {
		slot.destroy(context)
		return nil, err
	}

	uniform := vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	if slot.MVP, err = NewStagedBuffer(context, VULKAN_MVP_UNIFORM_SIZE, uniform); err != nil {
		slot.destroy(context)
		return nil, err
	}
	if slot.Color, err = NewStagedBuffer(context, VULKAN_COLOR_UNIFORM_SIZE, uniform); err != nil {
		slot.destroy(context)
		return nil, err
	}
	context.Descriptors.WriteBufferSet(bufferSet, slot.MVP.Device, slot.Color.Device)
	return slot, nil
}

func newSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := context.Driver.CreateSemaphore(context.logicalDevice(), &info, context.Allocator, &semaphore); res != vk.Success {
		return nil, resultError(res, "failed to create semaphore")
	}
	return semaphore, nil
}

// replaceSync swaps in a fresh ImageAvailable semaphore and a signaled fence. Used when a
// frame died after the acquire and nothing could be submitted against either of them.
func (f *FrameSlot) replaceSync(context *VulkanContext) error {
	semaphore, err := newSemaphore(context)
	if err != nil {
		return err
	}
	context.Driver.DestroySemaphore(context.logicalDevice(), f.ImageAvailable, context.Allocator)
	f.ImageAvailable = semaphore

	fence, err := NewFence(context, true)
	if err != nil {
		return err
	}
	f.InFlight.FenceDestroy(context)
	f.InFlight = fence
	return nil
}

// destroy releases what the slot created. The command buffer and the descriptor set belong
// to their pools.
func (f *FrameSlot) destroy(context *VulkanContext) {
	device := context.logicalDevice()
	if f.Color != nil {
		f.Color.Destroy(context)
		f.Color = nil
	}
	if f.MVP != nil {
		f.MVP.Destroy(context)
		f.MVP = nil
	}
	if f.InFlight != nil {
		f.InFlight.FenceDestroy(context)
		f.InFlight = nil
	}
	if f.RenderFinished != nil {
		context.Driver.DestroySemaphore(device, f.RenderFinished, context.Allocator)
		f.RenderFinished = nil
	}
	if f.ImageAvailable != nil {
		context.Driver.DestroySemaphore(device, f.ImageAvailable, context.Allocator)
		f.ImageAvailable = nil
	}
	f.State = FRAME_STATE_IDLE
}
