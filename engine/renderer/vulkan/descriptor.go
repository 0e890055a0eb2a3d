package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

type DescriptorPoolState int

const (
	POOL_STATE_AVAILABLE DescriptorPoolState = iota
	POOL_STATE_FULL
)

func (s DescriptorPoolState) String() string {
	if s == POOL_STATE_FULL {
		return "full"
	}
	return "available"
}

/**
 * @brief One fixed size image sampler pool and its remaining capacity.
 */
type descriptorPool struct {
	Handle    vk.DescriptorPool
	Capacity  uint32
	Remaining uint32
	State     DescriptorPoolState
	// Position in the available list, -1 while full.
	availableSlot int
}

// DescriptorPoolStats is a snapshot of one image pool.
type DescriptorPoolStats struct {
	Capacity  uint32
	Remaining uint32
	State     DescriptorPoolState
}

/**
 * @brief Hands out uniform buffer sets (one per frame in flight, allocated once) and image
 * sampler sets (one per texture). Image pools are kept in one table; the available ones are
 * indexed by a second slice so moving a pool between states is a swap remove. When every
 * pool is full a new one is created.
 */
type VulkanDescriptorManager struct {
	BufferLayout vk.DescriptorSetLayout
	ImageLayout  vk.DescriptorSetLayout

	bufferPool      vk.DescriptorPool
	bufferCapacity  uint32
	bufferAllocated uint32

	imagePoolCapacity uint32
	pools             []*descriptorPool
	available         []int
	owners            map[vk.DescriptorSet]int

	context *VulkanContext
}

func NewDescriptorManager(context *VulkanContext, framesInFlight, imagePoolCapacity uint32) (*VulkanDescriptorManager, error) {
	if imagePoolCapacity == 0 {
		imagePoolCapacity = VULKAN_DEFAULT_IMAGE_POOL_CAPACITY
	}
	dm := &VulkanDescriptorManager{
		bufferCapacity:    framesInFlight,
		imagePoolCapacity: imagePoolCapacity,
		owners:            make(map[vk.DescriptorSet]int),
		context:           context,
	}

	if err := dm.createLayouts(); err != nil {
		dm.Destroy()
		return nil, err
	}

	// Two uniform bindings per frame set: MVP and colour.
	bufferPoolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       framesInFlight,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: framesInFlight * 2,
		}},
	}
	if res := context.Driver.CreateDescriptorPool(context.logicalDevice(), &bufferPoolInfo, context.Allocator, &dm.bufferPool); res != vk.Success {
		dm.Destroy()
		return nil, resultError(res, "failed to create uniform descriptor pool")
	}

	if _, err := dm.addImagePool(); err != nil {
		dm.Destroy()
		return nil, err
	}
	return dm, nil
}

func (dm *VulkanDescriptorManager) createLayouts() error {
	device := dm.context.logicalDevice()

	bufferBindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	bufferLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bufferBindings)),
		PBindings:    bufferBindings,
	}
	if res := dm.context.Driver.CreateDescriptorSetLayout(device, &bufferLayoutInfo, dm.context.Allocator, &dm.BufferLayout); res != vk.Success {
		return resultError(res, "failed to create uniform descriptor set layout")
	}

	imageBindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	imageLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(imageBindings)),
		PBindings:    imageBindings,
	}
	if res := dm.context.Driver.CreateDescriptorSetLayout(device, &imageLayoutInfo, dm.context.Allocator, &dm.ImageLayout); res != vk.Success {
		return resultError(res, "failed to create image descriptor set layout")
	}
	return nil
}

// Layouts returns the set layouts in pipeline order.
func (dm *VulkanDescriptorManager) Layouts() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{dm.BufferLayout, dm.ImageLayout}
}

// AllocBufferSets allocates from the uniform pool, which never grows.
func (dm *VulkanDescriptorManager) AllocBufferSets(count uint32) ([]vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, count)
	err := dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		if dm.bufferAllocated+count > dm.bufferCapacity {
			return errors.Wrapf(core.ErrPoolExhausted, "uniform pool holds %d sets, %d in use, %d requested", dm.bufferCapacity, dm.bufferAllocated, count)
		}
		if count == 0 {
			return nil
		}
		layouts := make([]vk.DescriptorSetLayout, count)
		for i := range layouts {
			layouts[i] = dm.BufferLayout
		}
		allocInfo := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     dm.bufferPool,
			DescriptorSetCount: count,
			PSetLayouts:        layouts,
		}
		if res := dm.context.Driver.AllocateDescriptorSets(dm.context.logicalDevice(), &allocInfo, &sets[0]); res != vk.Success {
			return resultError(res, "failed to allocate %d uniform descriptor sets", count)
		}
		dm.bufferAllocated += count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// AllocImageSet takes one combined image sampler set from the most recently available pool.
func (dm *VulkanDescriptorManager) AllocImageSet() (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	err := dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		for attempt := 0; attempt < 2; attempt++ {
			if len(dm.available) == 0 {
				if _, err := dm.addImagePool(); err != nil {
					return err
				}
			}
			index := dm.available[len(dm.available)-1]
			pool := dm.pools[index]

			allocInfo := vk.DescriptorSetAllocateInfo{
				SType:              vk.StructureTypeDescriptorSetAllocateInfo,
				DescriptorPool:     pool.Handle,
				DescriptorSetCount: 1,
				PSetLayouts:        []vk.DescriptorSetLayout{dm.ImageLayout},
			}
			res := dm.context.Driver.AllocateDescriptorSets(dm.context.logicalDevice(), &allocInfo, &set)
			switch res {
			case vk.Success:
				dm.owners[set] = index
				pool.Remaining--
				if pool.Remaining == 0 {
					dm.markFull(index)
				}
				return nil
			case vk.ErrorOutOfPoolMemory, vk.ErrorFragmentedPool:
				// The driver disagrees with our count; retire the pool and try a fresh one.
				core.LogWarn("image descriptor pool %d reported %s with %d sets left", index, VulkanResultString(res, false), pool.Remaining)
				dm.markFull(index)
			default:
				return resultError(res, "failed to allocate image descriptor set")
			}
		}
		return errors.Wrap(core.ErrPoolExhausted, "image descriptor pools")
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// FreeImageSet gives a set back to its pool. Freeing a set the manager does not own, or
// freeing twice, is rejected without touching any pool.
func (dm *VulkanDescriptorManager) FreeImageSet(set vk.DescriptorSet) error {
	return dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		index, ok := dm.owners[set]
		if !ok {
			err := errors.Wrapf(core.ErrDescriptorSetDoubleFree, "set %v", set)
			core.LogError(err.Error())
			return err
		}
		pool := dm.pools[index]
		sets := []vk.DescriptorSet{set}
		if res := dm.context.Driver.FreeDescriptorSets(dm.context.logicalDevice(), pool.Handle, 1, &sets[0]); res != vk.Success {
			return resultError(res, "failed to free image descriptor set")
		}
		delete(dm.owners, set)
		pool.Remaining++
		if pool.State == POOL_STATE_FULL {
			dm.markAvailable(index)
		}
		return nil
	})
}

// WriteBufferSet points a frame set at its MVP (binding 0) and colour (binding 1) buffers.
func (dm *VulkanDescriptorManager) WriteBufferSet(set vk.DescriptorSet, mvp, color *VulkanBuffer) {
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{{Buffer: mvp.Handle, Offset: 0, Range: mvp.Size}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      1,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{{Buffer: color.Handle, Offset: 0, Range: color.Size}},
		},
	}
	dm.context.Driver.UpdateDescriptorSets(dm.context.logicalDevice(), uint32(len(writes)), writes, 0, nil)
}

// WriteImageSet binds a sampled view to binding 0 of an image set.
func (dm *VulkanDescriptorManager) WriteImageSet(set vk.DescriptorSet, view vk.ImageView, sampler vk.Sampler) {
	writes := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}}
	dm.context.Driver.UpdateDescriptorSets(dm.context.logicalDevice(), 1, writes, 0, nil)
}

// ImagePoolStats returns a snapshot of every image pool in creation order.
func (dm *VulkanDescriptorManager) ImagePoolStats() []DescriptorPoolStats {
	stats := make([]DescriptorPoolStats, 0, len(dm.pools))
	_ = dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		for _, p := range dm.pools {
			stats = append(stats, DescriptorPoolStats{Capacity: p.Capacity, Remaining: p.Remaining, State: p.State})
		}
		return nil
	})
	return stats
}

// Remaining reports how many sets are left in the pool that owns set.
func (dm *VulkanDescriptorManager) Remaining(set vk.DescriptorSet) (uint32, bool) {
	var remaining uint32
	var ok bool
	_ = dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		var index int
		if index, ok = dm.owners[set]; ok {
			remaining = dm.pools[index].Remaining
		}
		return nil
	})
	return remaining, ok
}

func (dm *VulkanDescriptorManager) PoolCount() int {
	count := 0
	_ = dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		count = len(dm.pools)
		return nil
	})
	return count
}

func (dm *VulkanDescriptorManager) AvailableCount() int {
	count := 0
	_ = dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		count = len(dm.available)
		return nil
	})
	return count
}

func (dm *VulkanDescriptorManager) OutstandingImageSets() int {
	count := 0
	_ = dm.context.Locks.SafeCall(DescriptorManagement, func() error {
		count = len(dm.owners)
		return nil
	})
	return count
}

func (dm *VulkanDescriptorManager) addImagePool() (int, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       dm.imagePoolCapacity,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: dm.imagePoolCapacity,
		}},
	}
	var handle vk.DescriptorPool
	if res := dm.context.Driver.CreateDescriptorPool(dm.context.logicalDevice(), &poolInfo, dm.context.Allocator, &handle); res != vk.Success {
		return -1, resultError(res, "failed to create image descriptor pool")
	}
	index := len(dm.pools)
	dm.pools = append(dm.pools, &descriptorPool{
		Handle:        handle,
		Capacity:      dm.imagePoolCapacity,
		Remaining:     dm.imagePoolCapacity,
		State:         POOL_STATE_FULL,
		availableSlot: -1,
	})
	dm.markAvailable(index)
	if index > 0 {
		core.LogInfo("Image descriptor pools grown to %d.", len(dm.pools))
	}
	return index, nil
}

func (dm *VulkanDescriptorManager) markAvailable(index int) {
	pool := dm.pools[index]
	pool.State = POOL_STATE_AVAILABLE
	pool.availableSlot = len(dm.available)
	dm.available = append(dm.available, index)
}

func (dm *VulkanDescriptorManager) markFull(index int) {
	pool := dm.pools[index]
	slot := pool.availableSlot
	last := len(dm.available) - 1
	if slot >= 0 {
		moved := dm.available[last]
		dm.available[slot] = moved
		dm.pools[moved].availableSlot = slot
		dm.available = dm.available[:last]
	}
	pool.State = POOL_STATE_FULL
	pool.availableSlot = -1
}

// Destroy releases every pool, which frees all sets allocated from them, and both layouts.
func (dm *VulkanDescriptorManager) Destroy() {
	device := dm.context.logicalDevice()
	for _, p := range dm.pools {
		dm.context.Driver.DestroyDescriptorPool(device, p.Handle, dm.context.Allocator)
	}
	dm.pools = nil
	dm.available = nil
	dm.owners = make(map[vk.DescriptorSet]int)

	if dm.bufferPool != nil {
		dm.context.Driver.DestroyDescriptorPool(device, dm.bufferPool, dm.context.Allocator)
		dm.bufferPool = nil
	}
	if dm.ImageLayout != nil {
		dm.context.Driver.DestroyDescriptorSetLayout(device, dm.ImageLayout, dm.context.Allocator)
		dm.ImageLayout = nil
	}
	if dm.BufferLayout != nil {
		dm.context.Driver.DestroyDescriptorSetLayout(device, dm.BufferLayout, dm.context.Allocator)
		dm.BufferLayout = nil
	}
}
