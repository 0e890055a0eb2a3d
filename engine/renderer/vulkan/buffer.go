package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

/**
 * @brief A buffer and its backing allocation. Host visible buffers are mapped once at
 * creation and stay mapped until Destroy.
 */
type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	Size        vk.DeviceSize
	Usage       vk.BufferUsageFlags
	HostVisible bool
	MemoryIndex uint32

	mapped unsafe.Pointer
}

func NewBuffer(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, hostVisible bool) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		HostVisible: hostVisible,
	}

	properties := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if hostVisible {
		properties = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	device := context.logicalDevice()
	if res := context.Driver.CreateBuffer(device, &bufferInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, resultError(res, "failed to create buffer of %d bytes", size)
	}

	var requirements vk.MemoryRequirements
	context.Driver.GetBufferMemoryRequirements(device, buffer.Handle, &requirements)

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	buffer.MemoryIndex = memoryIndex

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if res := context.Driver.AllocateMemory(device, &allocateInfo, context.Allocator, &buffer.Memory); res != vk.Success {
		buffer.Destroy(context)
		return nil, resultError(res, "failed to allocate %d bytes of buffer memory", requirements.Size)
	}

	if res := context.Driver.BindBufferMemory(device, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, resultError(res, "failed to bind buffer memory")
	}

	if hostVisible {
		var data unsafe.Pointer
		if res := context.Driver.MapMemory(device, buffer.Memory, 0, size, 0, &data); res != vk.Success {
			buffer.Destroy(context)
			return nil, resultError(res, "failed to map buffer memory")
		}
		buffer.mapped = data
	}

	return buffer, nil
}

// Mapped returns the persistent host pointer, nil for device local buffers.
func (b *VulkanBuffer) Mapped() unsafe.Pointer {
	return b.mapped
}

// Upload copies data into the mapped memory of a host visible buffer.
func (b *VulkanBuffer) Upload(data []byte) error {
	if !b.HostVisible || b.mapped == nil {
		return errors.Wrapf(core.ErrBufferNotHostVisible, "upload of %d bytes", len(data))
	}
	if vk.DeviceSize(len(data)) > b.Size {
		return errors.Wrapf(core.ErrBufferOverflow, "%d bytes into a %d byte buffer", len(data), b.Size)
	}
	vk.Memcopy(b.mapped, data)
	return nil
}

// CopyTo records a single copy into a one shot command buffer, submits it and waits for
// the queue to go idle.
func (b *VulkanBuffer) CopyTo(context *VulkanContext, commands *VulkanCommandManager, queue vk.Queue, dst *VulkanBuffer, size vk.DeviceSize) error {
	if size > b.Size || size > dst.Size {
		return errors.Wrapf(core.ErrBufferOverflow, "copy of %d bytes (src %d, dst %d)", size, b.Size, dst.Size)
	}
	return commands.ExecuteOneShot(queue, func(cb *VulkanCommandBuffer) error {
		context.Driver.CmdCopyBuffer(cb.Handle, b.Handle, dst.Handle, 1, []vk.BufferCopy{{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}})
		return nil
	})
}

// Destroy unmaps, destroys and frees. Safe to call on a partially created buffer and
// more than once.
func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	device := context.logicalDevice()
	if b.mapped != nil {
		context.Driver.UnmapMemory(device, b.Memory)
		b.mapped = nil
	}
	if b.Handle != nil {
		context.Driver.DestroyBuffer(device, b.Handle, context.Allocator)
		b.Handle = nil
	}
	if b.Memory != nil {
		context.Driver.FreeMemory(device, b.Memory, context.Allocator)
		b.Memory = nil
	}
}

/**
 * @brief A host visible staging buffer paired with a device local buffer of the same size.
 */
type StagedBuffer struct {
	Host   *VulkanBuffer
	Device *VulkanBuffer
}

// NewStagedBuffer creates the pair. usage is the device side usage; transfer bits are
// added on both sides.
func NewStagedBuffer(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags) (*StagedBuffer, error) {
	host, err := NewBuffer(context, size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true)
	if err != nil {
		return nil, err
	}
	device, err := NewBuffer(context, size, usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), false)
	if err != nil {
		host.Destroy(context)
		return nil, err
	}
	return &StagedBuffer{Host: host, Device: device}, nil
}

// Write uploads data into the staging side and copies it to the device side.
func (s *StagedBuffer) Write(context *VulkanContext, commands *VulkanCommandManager, queue vk.Queue, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := s.Host.Upload(data); err != nil {
		return err
	}
	return s.Host.CopyTo(context, commands, queue, s.Device, vk.DeviceSize(len(data)))
}

// RecordCopy records a copy of the whole staging side into cb, followed by a barrier that
// makes the device side visible to shader reads. The staging side must not change until
// cb has executed.
func (s *StagedBuffer) RecordCopy(context *VulkanContext, cb *VulkanCommandBuffer, dstStage vk.PipelineStageFlags) {
	context.Driver.CmdCopyBuffer(cb.Handle, s.Host.Handle, s.Device.Handle, 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      s.Device.Size,
	}})
	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessUniformReadBit),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              s.Device.Handle,
		Offset:              0,
		Size:                s.Device.Size,
	}
	context.Driver.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), dstStage,
		0, 0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

func (s *StagedBuffer) Destroy(context *VulkanContext) {
	if s.Host != nil {
		s.Host.Destroy(context)
	}
	if s.Device != nil {
		s.Device.Destroy(context)
	}
}
