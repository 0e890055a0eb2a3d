package vulkan

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// fakeHandle turns a counter into an opaque handle. The values sit far below the Go heap so
// the collector never mistakes them for live objects.
func fakeHandle[T any](n uintptr) T {
	return *(*T)(unsafe.Pointer(&n))
}

type fakeFence struct {
	signaled  bool
	submitted bool
	observed  bool
}

type fakeCommandBuffer struct {
	recording bool
	ended     bool
	ops       []func()
	fence     vk.Fence
	pending   bool
}

type fakeDescriptorPool struct {
	maxSets  uint32
	freeable bool
	sets     map[vk.DescriptorSet]bool
}

type bindCall struct {
	commandBuffer vk.CommandBuffer
	firstSet      uint32
	sets          []vk.DescriptorSet
}

type bufferBinding struct {
	memory vk.DeviceMemory
	offset vk.DeviceSize
	size   vk.DeviceSize
}

/**
 * @brief In-memory Driver. Memory is plain byte slices, submitted copies run at submit
 * time and every fence signals immediately. It records how the engine synchronizes so tests
 * can check that no slot is reused before its fence was waited on.
 */
type fakeDriver struct {
	mu   sync.Mutex
	next uintptr

	live     map[string]int
	injected map[string][]vk.Result

	memory   map[vk.DeviceMemory][]byte
	mapped   map[vk.DeviceMemory]bool
	buffers  map[vk.Buffer]*bufferBinding
	images   map[vk.Image]vk.Extent3D
	fences   map[vk.Fence]*fakeFence
	// Semaphores with a signal that no submission has waited on yet.
	pendingSignal map[vk.Semaphore]bool
	commands map[vk.CommandBuffer]*fakeCommandBuffer
	pools    map[vk.DescriptorPool]*fakeDescriptorPool
	setPool  map[vk.DescriptorSet]vk.DescriptorPool

	swapchainImageCount uint32
	swapchainImages     []vk.Image
	nextImage           uint32
	acquireResults      []vk.Result
	presentResults      []vk.Result

	imageWrites map[vk.DescriptorSet]vk.ImageView
	bindLog     []bindCall
	draws       int
	submits     int
	presents    int

	maxInFlight int
	violations  []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		next:                0x100000,
		live:                make(map[string]int),
		injected:            make(map[string][]vk.Result),
		memory:              make(map[vk.DeviceMemory][]byte),
		mapped:              make(map[vk.DeviceMemory]bool),
		buffers:             make(map[vk.Buffer]*bufferBinding),
		images:              make(map[vk.Image]vk.Extent3D),
		fences:              make(map[vk.Fence]*fakeFence),
		pendingSignal:       make(map[vk.Semaphore]bool),
		commands:            make(map[vk.CommandBuffer]*fakeCommandBuffer),
		pools:               make(map[vk.DescriptorPool]*fakeDescriptorPool),
		setPool:             make(map[vk.DescriptorSet]vk.DescriptorPool),
		imageWrites:         make(map[vk.DescriptorSet]vk.ImageView),
		swapchainImageCount: 3,
	}
}

func (fd *fakeDriver) id() uintptr {
	fd.next += 0x10
	return fd.next
}

// inject queues results for the named call; each call consumes one.
func (fd *fakeDriver) inject(call string, results ...vk.Result) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.injected[call] = append(fd.injected[call], results...)
}

func (fd *fakeDriver) result(call string) vk.Result {
	queue := fd.injected[call]
	if len(queue) == 0 {
		return vk.Success
	}
	fd.injected[call] = queue[1:]
	return queue[0]
}

func (fd *fakeDriver) violate(format string, args ...interface{}) {
	fd.violations = append(fd.violations, fmt.Sprintf(format, args...))
}

func (fd *fakeDriver) inFlight() int {
	n := 0
	for _, f := range fd.fences {
		if f.submitted && !f.observed {
			n++
		}
	}
	return n
}

func (fd *fakeDriver) pendingBuffer(cb *fakeCommandBuffer) bool {
	if !cb.pending {
		return false
	}
	if cb.fence == nil {
		return true
	}
	f, ok := fd.fences[cb.fence]
	return ok && f.submitted && !f.observed
}

// leaks lists every object kind with a non zero live count.
func (fd *fakeDriver) leaks() map[string]int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	out := make(map[string]int)
	for kind, n := range fd.live {
		if n != 0 {
			out[kind] = n
		}
	}
	return out
}

func (fd *fakeDriver) liveCount(kind string) int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.live[kind]
}

func (fd *fakeDriver) bufferBytes(buffer vk.Buffer) []byte {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	b := fd.buffers[buffer]
	mem := fd.memory[b.memory]
	return mem[b.offset : b.offset+b.size]
}

func (fd *fakeDriver) DeviceWaitIdle(device vk.Device) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.drain()
	return fd.result("DeviceWaitIdle")
}

func (fd *fakeDriver) drain() {
	for _, f := range fd.fences {
		if f.submitted {
			f.observed = true
		}
	}
	for _, cb := range fd.commands {
		cb.pending = false
	}
}

func (fd *fakeDriver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo, alloc *vk.AllocationCallbacks, buffer *vk.Buffer) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("CreateBuffer"); res != vk.Success {
		return res
	}
	*buffer = fakeHandle[vk.Buffer](fd.id())
	fd.buffers[*buffer] = &bufferBinding{size: info.Size}
	fd.live["buffer"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyBuffer(device vk.Device, buffer vk.Buffer, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if _, ok := fd.buffers[buffer]; !ok {
		fd.violate("destroy of unknown buffer")
		return
	}
	delete(fd.buffers, buffer)
	fd.live["buffer"]--
}

func (fd *fakeDriver) GetBufferMemoryRequirements(device vk.Device, buffer vk.Buffer, req *vk.MemoryRequirements) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	req.Size = fd.buffers[buffer].size
	req.Alignment = 16
	req.MemoryTypeBits = 0x3
}

func (fd *fakeDriver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("BindBufferMemory"); res != vk.Success {
		return res
	}
	b := fd.buffers[buffer]
	b.memory = memory
	b.offset = offset
	return vk.Success
}

func (fd *fakeDriver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo, alloc *vk.AllocationCallbacks, memory *vk.DeviceMemory) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("AllocateMemory"); res != vk.Success {
		return res
	}
	*memory = fakeHandle[vk.DeviceMemory](fd.id())
	fd.memory[*memory] = make([]byte, info.AllocationSize)
	fd.live["memory"]++
	return vk.Success
}

func (fd *fakeDriver) FreeMemory(device vk.Device, memory vk.DeviceMemory, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if _, ok := fd.memory[memory]; !ok {
		fd.violate("free of unknown memory")
		return
	}
	if fd.mapped[memory] {
		fd.violate("memory freed while mapped")
	}
	delete(fd.memory, memory)
	fd.live["memory"]--
}

func (fd *fakeDriver) MapMemory(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize, flags vk.MemoryMapFlags, data *unsafe.Pointer) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("MapMemory"); res != vk.Success {
		return res
	}
	mem := fd.memory[memory]
	*data = unsafe.Pointer(&mem[offset])
	if fd.mapped[memory] {
		fd.violate("memory mapped twice")
	}
	fd.mapped[memory] = true
	fd.live["mapped"]++
	return vk.Success
}

func (fd *fakeDriver) UnmapMemory(device vk.Device, memory vk.DeviceMemory) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if !fd.mapped[memory] {
		fd.violate("unmap of memory that is not mapped")
	}
	delete(fd.mapped, memory)
	fd.live["mapped"]--
}

func (fd *fakeDriver) CreateImage(device vk.Device, info *vk.ImageCreateInfo, alloc *vk.AllocationCallbacks, image *vk.Image) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("CreateImage"); res != vk.Success {
		return res
	}
	*image = fakeHandle[vk.Image](fd.id())
	fd.images[*image] = info.Extent
	fd.live["image"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyImage(device vk.Device, image vk.Image, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	delete(fd.images, image)
	fd.live["image"]--
}

func (fd *fakeDriver) GetImageMemoryRequirements(device vk.Device, image vk.Image, req *vk.MemoryRequirements) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	extent := fd.images[image]
	req.Size = vk.DeviceSize(extent.Width * extent.Height * 4)
	req.Alignment = 256
	req.MemoryTypeBits = 0x3
}

func (fd *fakeDriver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.result("BindImageMemory")
}

func (fd *fakeDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("CreateImageView"); res != vk.Success {
		return res
	}
	*view = fakeHandle[vk.ImageView](fd.id())
	fd.live["view"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["view"]--
}

func (fd *fakeDriver) CreateSampler(device vk.Device, info *vk.SamplerCreateInfo, alloc *vk.AllocationCallbacks, sampler *vk.Sampler) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("CreateSampler"); res != vk.Success {
		return res
	}
	*sampler = fakeHandle[vk.Sampler](fd.id())
	fd.live["sampler"]++
	return vk.Success
}

func (fd *fakeDriver) DestroySampler(device vk.Device, sampler vk.Sampler, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["sampler"]--
}

func (fd *fakeDriver) CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.DescriptorSetLayout) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*layout = fakeHandle[vk.DescriptorSetLayout](fd.id())
	fd.live["set layout"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["set layout"]--
}

func (fd *fakeDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.DescriptorPool) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("CreateDescriptorPool"); res != vk.Success {
		return res
	}
	*pool = fakeHandle[vk.DescriptorPool](fd.id())
	fd.pools[*pool] = &fakeDescriptorPool{
		maxSets:  info.MaxSets,
		freeable: info.Flags&vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit) != 0,
		sets:     make(map[vk.DescriptorSet]bool),
	}
	fd.live["descriptor pool"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	p, ok := fd.pools[pool]
	if !ok {
		fd.violate("destroy of unknown descriptor pool")
		return
	}
	for set := range p.sets {
		delete(fd.setPool, set)
	}
	delete(fd.pools, pool)
	fd.live["descriptor pool"]--
}

func (fd *fakeDriver) AllocateDescriptorSets(device vk.Device, info *vk.DescriptorSetAllocateInfo, sets *vk.DescriptorSet) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("AllocateDescriptorSets"); res != vk.Success {
		return res
	}
	p := fd.pools[info.DescriptorPool]
	if uint32(len(p.sets))+info.DescriptorSetCount > p.maxSets {
		return vk.ErrorOutOfPoolMemory
	}
	out := unsafe.Slice(sets, info.DescriptorSetCount)
	for i := range out {
		out[i] = fakeHandle[vk.DescriptorSet](fd.id())
		p.sets[out[i]] = true
		fd.setPool[out[i]] = info.DescriptorPool
	}
	return vk.Success
}

func (fd *fakeDriver) FreeDescriptorSets(device vk.Device, pool vk.DescriptorPool, count uint32, sets *vk.DescriptorSet) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	p := fd.pools[pool]
	if !p.freeable {
		fd.violate("free from a pool without the free flag")
	}
	for _, set := range unsafe.Slice(sets, count) {
		if fd.setPool[set] != pool {
			fd.violate("set freed into the wrong pool or twice")
			continue
		}
		delete(p.sets, set)
		delete(fd.setPool, set)
	}
	return vk.Success
}

func (fd *fakeDriver) UpdateDescriptorSets(device vk.Device, writeCount uint32, writes []vk.WriteDescriptorSet, copyCount uint32, copies []vk.CopyDescriptorSet) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for _, w := range writes[:writeCount] {
		if _, ok := fd.setPool[w.DstSet]; !ok {
			fd.violate("write to a set that is not allocated")
		}
		if w.DescriptorType == vk.DescriptorTypeCombinedImageSampler {
			fd.imageWrites[w.DstSet] = w.PImageInfo[0].ImageView
		}
	}
}

func (fd *fakeDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo, alloc *vk.AllocationCallbacks, pool *vk.CommandPool) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*pool = fakeHandle[vk.CommandPool](fd.id())
	fd.live["command pool"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["command pool"]--
}

func (fd *fakeDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers []vk.CommandBuffer) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("AllocateCommandBuffers"); res != vk.Success {
		return res
	}
	for i := uint32(0); i < info.CommandBufferCount; i++ {
		buffers[i] = fakeHandle[vk.CommandBuffer](fd.id())
		fd.commands[buffers[i]] = &fakeCommandBuffer{}
		fd.live["command buffer"]++
	}
	return vk.Success
}

func (fd *fakeDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, count uint32, buffers []vk.CommandBuffer) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for _, b := range buffers[:count] {
		cb, ok := fd.commands[b]
		if !ok {
			fd.violate("free of unknown command buffer")
			continue
		}
		if fd.pendingBuffer(cb) {
			fd.violate("command buffer freed while pending")
		}
		delete(fd.commands, b)
		fd.live["command buffer"]--
	}
}

func (fd *fakeDriver) BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	cb := fd.commands[buffer]
	if fd.pendingBuffer(cb) {
		fd.violate("command buffer begun while its previous submission is unobserved")
	}
	if res := fd.result("BeginCommandBuffer"); res != vk.Success {
		return res
	}
	cb.recording = true
	cb.ended = false
	cb.pending = false
	cb.ops = nil
	return vk.Success
}

func (fd *fakeDriver) EndCommandBuffer(buffer vk.CommandBuffer) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	cb := fd.commands[buffer]
	if !cb.recording {
		fd.violate("end of a command buffer that is not recording")
	}
	cb.recording = false
	cb.ended = true
	return fd.result("EndCommandBuffer")
}

func (fd *fakeDriver) ResetCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferResetFlags) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	cb := fd.commands[buffer]
	if fd.pendingBuffer(cb) {
		fd.violate("command buffer reset while its previous submission is unobserved")
	}
	if res := fd.result("ResetCommandBuffer"); res != vk.Success {
		return res
	}
	cb.recording = false
	cb.ended = false
	cb.pending = false
	cb.ops = nil
	return vk.Success
}

func (fd *fakeDriver) record(buffer vk.CommandBuffer, op func()) {
	cb := fd.commands[buffer]
	if !cb.recording {
		fd.violate("command recorded outside of recording state")
	}
	if op != nil {
		cb.ops = append(cb.ops, op)
	}
}

func (fd *fakeDriver) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, regionCount uint32, regions []vk.BufferCopy) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	copied := append([]vk.BufferCopy(nil), regions[:regionCount]...)
	fd.record(buffer, func() {
		s, d := fd.buffers[src], fd.buffers[dst]
		for _, r := range copied {
			from := fd.memory[s.memory][s.offset+r.SrcOffset : s.offset+r.SrcOffset+r.Size]
			to := fd.memory[d.memory][d.offset+r.DstOffset : d.offset+r.DstOffset+r.Size]
			copy(to, from)
		}
	})
}

func (fd *fakeDriver) CmdCopyBufferToImage(buffer vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regionCount uint32, regions []vk.BufferImageCopy) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if layout != vk.ImageLayoutTransferDstOptimal {
		fd.violate("image copy into layout %d", layout)
	}
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdPipelineBarrier(buffer vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, deps vk.DependencyFlags, memoryBarrierCount uint32, memoryBarriers []vk.MemoryBarrier, bufferBarrierCount uint32, bufferBarriers []vk.BufferMemoryBarrier, imageBarrierCount uint32, imageBarriers []vk.ImageMemoryBarrier) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdBindPipeline(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdSetViewport(buffer vk.CommandBuffer, first, count uint32, viewports []vk.Viewport) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdSetScissor(buffer vk.CommandBuffer, first, count uint32, scissors []vk.Rect2D) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdBindVertexBuffers(buffer vk.CommandBuffer, firstBinding, bindingCount uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdBindDescriptorSets(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet, setCount uint32, sets []vk.DescriptorSet, dynamicOffsetCount uint32, dynamicOffsets []uint32) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
	fd.bindLog = append(fd.bindLog, bindCall{
		commandBuffer: buffer,
		firstSet:      firstSet,
		sets:          append([]vk.DescriptorSet(nil), sets[:setCount]...),
	})
}

func (fd *fakeDriver) CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
}

func (fd *fakeDriver) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.record(buffer, nil)
	fd.draws++
}

func (fd *fakeDriver) CreateFence(device vk.Device, info *vk.FenceCreateInfo, alloc *vk.AllocationCallbacks, fence *vk.Fence) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*fence = fakeHandle[vk.Fence](fd.id())
	fd.fences[*fence] = &fakeFence{
		signaled: info.Flags&vk.FenceCreateFlags(vk.FenceCreateSignaledBit) != 0,
	}
	fd.live["fence"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyFence(device vk.Device, fence vk.Fence, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if f := fd.fences[fence]; f != nil && f.submitted && !f.observed {
		fd.violate("fence destroyed while its submission is unobserved")
	}
	delete(fd.fences, fence)
	fd.live["fence"]--
}

func (fd *fakeDriver) WaitForFences(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("WaitForFences"); res != vk.Success {
		return res
	}
	for _, handle := range fences[:count] {
		f := fd.fences[handle]
		if !f.signaled {
			// Nothing will ever signal it: a real device would hang here.
			fd.violate("wait on a fence that was never submitted")
			return vk.Timeout
		}
		f.observed = true
	}
	return vk.Success
}

func (fd *fakeDriver) ResetFences(device vk.Device, count uint32, fences []vk.Fence) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for _, handle := range fences[:count] {
		f := fd.fences[handle]
		if f.submitted && !f.observed {
			fd.violate("fence reset before its submission was observed")
		}
		f.signaled = false
		f.submitted = false
		f.observed = false
	}
	return vk.Success
}

func (fd *fakeDriver) CreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo, alloc *vk.AllocationCallbacks, semaphore *vk.Semaphore) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*semaphore = fakeHandle[vk.Semaphore](fd.id())
	fd.live["semaphore"]++
	return vk.Success
}

func (fd *fakeDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	delete(fd.pendingSignal, semaphore)
	fd.live["semaphore"]--
}

func (fd *fakeDriver) QueueSubmit(queue vk.Queue, count uint32, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if res := fd.result("QueueSubmit"); res != vk.Success {
		return res
	}
	for _, submit := range submits[:count] {
		for _, wait := range submit.PWaitSemaphores[:submit.WaitSemaphoreCount] {
			if !fd.pendingSignal[wait] {
				fd.violate("submit waits on a semaphore nothing signals")
			}
			delete(fd.pendingSignal, wait)
		}
		for _, handle := range submit.PCommandBuffers[:submit.CommandBufferCount] {
			cb := fd.commands[handle]
			if !cb.ended {
				fd.violate("submit of a command buffer that was not ended")
			}
			for _, op := range cb.ops {
				op()
			}
			cb.pending = true
			cb.fence = fence
		}
	}
	if fence != nil {
		f := fd.fences[fence]
		if f.signaled {
			fd.violate("submit with a fence that is still signaled")
		}
		f.signaled = true
		f.submitted = true
		f.observed = false
		if n := fd.inFlight(); n > fd.maxInFlight {
			fd.maxInFlight = n
		}
	}
	fd.submits++
	return vk.Success
}

func (fd *fakeDriver) QueueWaitIdle(queue vk.Queue) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.drain()
	return vk.Success
}

func (fd *fakeDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*swapchain = fakeHandle[vk.Swapchain](fd.id())
	fd.swapchainImages = make([]vk.Image, fd.swapchainImageCount)
	for i := range fd.swapchainImages {
		fd.swapchainImages[i] = fakeHandle[vk.Image](fd.id())
	}
	fd.nextImage = 0
	fd.live["swapchain"]++
	return vk.Success
}

func (fd *fakeDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["swapchain"]--
}

func (fd *fakeDriver) GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if images == nil {
		*count = uint32(len(fd.swapchainImages))
		return vk.Success
	}
	*count = uint32(copy(images, fd.swapchainImages))
	return vk.Success
}

func (fd *fakeDriver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if len(fd.acquireResults) > 0 {
		res := fd.acquireResults[0]
		fd.acquireResults = fd.acquireResults[1:]
		if res != vk.Success && res != vk.Suboptimal {
			return res
		}
	}
	if semaphore != nil {
		if fd.pendingSignal[semaphore] {
			fd.violate("acquire with a semaphore whose signal was never waited on")
		}
		fd.pendingSignal[semaphore] = true
	}
	*index = fd.nextImage
	fd.nextImage = (fd.nextImage + 1) % uint32(len(fd.swapchainImages))
	return vk.Success
}

func (fd *fakeDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.presents++
	if len(fd.presentResults) > 0 {
		res := fd.presentResults[0]
		fd.presentResults = fd.presentResults[1:]
		return res
	}
	return vk.Success
}

func (fd *fakeDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo, alloc *vk.AllocationCallbacks, renderPass *vk.RenderPass) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*renderPass = fakeHandle[vk.RenderPass](fd.id())
	fd.live["render pass"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["render pass"]--
}

func (fd *fakeDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo, alloc *vk.AllocationCallbacks, framebuffer *vk.Framebuffer) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*framebuffer = fakeHandle[vk.Framebuffer](fd.id())
	fd.live["framebuffer"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["framebuffer"]--
}

func (fd *fakeDriver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo, alloc *vk.AllocationCallbacks, module *vk.ShaderModule) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*module = fakeHandle[vk.ShaderModule](fd.id())
	fd.live["shader module"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["shader module"]--
}

func (fd *fakeDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo, alloc *vk.AllocationCallbacks, layout *vk.PipelineLayout) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	*layout = fakeHandle[vk.PipelineLayout](fd.id())
	fd.live["pipeline layout"]++
	return vk.Success
}

func (fd *fakeDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["pipeline layout"]--
}

func (fd *fakeDriver) CreateGraphicsPipelines(device vk.Device, cache vk.PipelineCache, count uint32, infos []vk.GraphicsPipelineCreateInfo, alloc *vk.AllocationCallbacks, pipelines []vk.Pipeline) vk.Result {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for i := uint32(0); i < count; i++ {
		pipelines[i] = fakeHandle[vk.Pipeline](fd.id())
		fd.live["pipeline"]++
	}
	return vk.Success
}

func (fd *fakeDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline, alloc *vk.AllocationCallbacks) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.live["pipeline"]--
}

// newTestContext returns a context on a fake device with one device local and one host
// visible memory type and a 640x480 surface.
func newTestContext(t *testing.T, fd *fakeDriver) *VulkanContext {
	t.Helper()
	device := &VulkanDevice{
		PhysicalDevice:     fakeHandle[vk.PhysicalDevice](fd.id()),
		LogicalDevice:      fakeHandle[vk.Device](fd.id()),
		GraphicsQueueIndex: 0,
		PresentQueueIndex:  0,
		SwapchainSupport:   testSurfaceSupport(640, 480),
	}
	queue := fakeHandle[vk.Queue](fd.id())
	device.GraphicsQueue = queue
	device.PresentQueue = queue
	device.Memory.MemoryTypeCount = 2
	device.Memory.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	device.Memory.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	context := NewContext(fd, device, VULKAN_DEFAULT_FRAMES_IN_FLIGHT)
	context.Surface = fakeHandle[vk.Surface](fd.id())
	context.FramebufferWidth = 640
	context.FramebufferHeight = 480
	return context
}

func testSurfaceSupport(width, height uint32) VulkanSwapchainSupportInfo {
	var capabilities vk.SurfaceCapabilities
	capabilities.MinImageCount = 2
	capabilities.MaxImageCount = 3
	capabilities.CurrentExtent = vk.Extent2D{Width: width, Height: height}
	capabilities.MinImageExtent = vk.Extent2D{Width: 1, Height: 1}
	capabilities.MaxImageExtent = vk.Extent2D{Width: 4096, Height: 4096}
	capabilities.CurrentTransform = vk.SurfaceTransformIdentityBit
	return VulkanSwapchainSupportInfo{
		Capabilities: capabilities,
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}
}

var testSPIRV = []uint32{0x07230203, 0x00010000, 0, 1, 0}

func testBackendConfig() BackendConfig {
	return BackendConfig{
		ApplicationName: "test",
		Width:           640,
		Height:          480,
		FramesInFlight:  VULKAN_DEFAULT_FRAMES_IN_FLIGHT,
		ClearColor:      [4]float32{0.1, 0.1, 0.1, 1},
		VertexShader:    testSPIRV,
		FragmentShader:  testSPIRV,
	}
}

// newTestBackend builds the whole stack above the device on a fake driver.
func newTestBackend(t *testing.T) (*VulkanBackend, *fakeDriver) {
	t.Helper()
	fd := newFakeDriver()
	context := newTestContext(t, fd)
	backend, err := newBackendFromContext(context, testBackendConfig())
	if err != nil {
		t.Fatalf("building backend: %v", err)
	}
	return backend, fd
}

// newTestComponents gives a context with only a command manager and descriptor manager, for
// component level tests.
func newTestComponents(t *testing.T) (*VulkanContext, *fakeDriver) {
	t.Helper()
	fd := newFakeDriver()
	context := newTestContext(t, fd)
	commands, err := NewCommandManager(context, 0)
	if err != nil {
		t.Fatalf("command manager: %v", err)
	}
	context.Commands = commands
	descriptors, err := NewDescriptorManager(context, context.MaxFramesInFlight, 2)
	if err != nil {
		t.Fatalf("descriptor manager: %v", err)
	}
	context.Descriptors = descriptors
	return context, fd
}

func assertNoViolations(t *testing.T, fd *fakeDriver) {
	t.Helper()
	fd.mu.Lock()
	defer fd.mu.Unlock()
	for _, v := range fd.violations {
		t.Errorf("synchronization violation: %s", v)
	}
}

func assertNoLeaks(t *testing.T, fd *fakeDriver) {
	t.Helper()
	for kind, n := range fd.leaks() {
		t.Errorf("%d %s objects still alive", n, kind)
	}
}
