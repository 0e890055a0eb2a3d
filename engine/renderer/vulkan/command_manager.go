package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// VulkanCommandManager owns one command pool and hands out buffers from it.
type VulkanCommandManager struct {
	Pool        vk.CommandPool
	QueueFamily uint32

	context *VulkanContext
}

func NewCommandManager(context *VulkanContext, queueFamily uint32) (*VulkanCommandManager, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := context.Driver.CreateCommandPool(context.logicalDevice(), &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return nil, resultError(res, "failed to create command pool")
	}
	core.LogDebug("Command pool created for queue family %d.", queueFamily)
	return &VulkanCommandManager{
		Pool:        pool,
		QueueFamily: queueFamily,
		context:     context,
	}, nil
}

// Allocate returns count primary command buffers. On failure the ones already allocated
// are freed.
func (m *VulkanCommandManager) Allocate(count uint32) ([]*VulkanCommandBuffer, error) {
	buffers := make([]*VulkanCommandBuffer, 0, count)
	err := m.context.Locks.SafeCall(CommandPoolManagement, func() error {
		for i := uint32(0); i < count; i++ {
			cb, err := NewVulkanCommandBuffer(m.context, m.Pool, true)
			if err != nil {
				return err
			}
			buffers = append(buffers, cb)
		}
		return nil
	})
	if err != nil {
		m.Free(buffers...)
		return nil, err
	}
	return buffers, nil
}

func (m *VulkanCommandManager) Free(buffers ...*VulkanCommandBuffer) {
	_ = m.context.Locks.SafeCall(CommandPoolManagement, func() error {
		for _, cb := range buffers {
			if cb != nil {
				cb.Free(m.context, m.Pool)
			}
		}
		return nil
	})
}

/**
 * Allocates a command buffer and begins recording it for a single submission.
 */
func (m *VulkanCommandManager) BeginSingleUse() (*VulkanCommandBuffer, error) {
	buffers, err := m.Allocate(1)
	if err != nil {
		return nil, err
	}
	cb := buffers[0]
	if err := cb.Begin(m.context, true, false, false); err != nil {
		m.Free(cb)
		return nil, err
	}
	return cb, nil
}

/**
 * Ends recording, submits to the queue, waits for the queue to go idle and frees the
 * command buffer. The buffer is freed on every path.
 */
func (m *VulkanCommandManager) EndSingleUse(cb *VulkanCommandBuffer, queue vk.Queue) error {
	defer m.Free(cb)

	if err := cb.End(m.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}

	return m.context.Locks.SafeQueueCall(m.QueueFamily, func() error {
		if res := m.context.Driver.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
			return resultError(res, "failed to submit single use command buffer")
		}
		cb.UpdateSubmitted()
		if res := m.context.Driver.QueueWaitIdle(queue); res != vk.Success {
			return resultError(res, "queue failed to wait in idle mode")
		}
		return nil
	})
}

// ExecuteOneShot records with fn into a fresh buffer, submits it and blocks until the
// queue is idle. Meant for load time transfers, not for per-frame work.
func (m *VulkanCommandManager) ExecuteOneShot(queue vk.Queue, fn func(cb *VulkanCommandBuffer) error) error {
	cb, err := m.BeginSingleUse()
	if err != nil {
		return err
	}
	if err := fn(cb); err != nil {
		_ = cb.End(m.context)
		m.Free(cb)
		return errors.Wrap(err, "recording one shot command buffer")
	}
	return m.EndSingleUse(cb, queue)
}

func (m *VulkanCommandManager) Destroy() {
	if m.Pool != nil {
		m.context.Driver.DestroyCommandPool(m.context.logicalDevice(), m.Pool, m.context.Allocator)
		m.Pool = nil
	}
}
