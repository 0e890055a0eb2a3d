package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if res := context.Driver.CreateFence(context.logicalDevice(), &fenceCreateInfo, context.Allocator, &pFence); res != vk.Success {
		return nil, resultError(res, "failed to create fence")
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf.Handle != nil {
		context.Driver.DestroyFence(context.logicalDevice(), vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// FenceWait blocks until the fence signals. A timeout is reported as device loss, the
// renderer has no way to recover from either.
func (vf *VulkanFence) FenceWait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := context.Driver.WaitForFences(context.logicalDevice(), 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		err := errors.Wrapf(core.ErrDeviceLost, "fence wait timed out after %dns", timeoutNs)
		core.LogError(err.Error())
		return err
	default:
		return errors.Mark(resultError(result, "fence wait"), core.ErrDeviceLost)
	}
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if vf.IsSignaled {
		if res := context.Driver.ResetFences(context.logicalDevice(), 1, []vk.Fence{vf.Handle}); res != vk.Success {
			return resultError(res, "failed to reset fence")
		}
		vf.IsSignaled = false
	}
	return nil
}
