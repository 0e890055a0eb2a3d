package vulkan

import (
	"image"
	"image/color"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	emath "github.com/spaghettifunk/anima2d/engine/math"
)

/**
 * @brief Records draw calls into the current frame slot and submits them. Slots are used
 * round robin; a slot is reused only after its fence was observed signaled.
 */
type VulkanRenderer struct {
	context *VulkanContext

	frames     []*FrameSlot
	current    uint32
	imageIndex uint32
	frameOpen  bool
	frameCount uint64

	vertices *StagedBuffer
	indices  *StagedBuffer

	sampler     vk.Sampler
	placeholder *VulkanTexture
	textures    []*VulkanTexture

	drawColor  emath.Color
	projection emath.Mat4
	view       emath.Mat4
	// Bumped on every uniform change; each slot catches up when it next starts a frame.
	uniformGeneration uint64
}

// NewRenderer builds the per-frame resources on top of a context that already owns the
// swapchain, render pass, pipeline, command manager and descriptor manager.
func NewRenderer(context *VulkanContext) (*VulkanRenderer, error) {
	r := &VulkanRenderer{
		context:    context,
		drawColor:  emath.ColorGreen,
		projection: emath.Identity(),
		view:       emath.Identity(),

		uniformGeneration: 1,
	}

	if err := r.createQuad(); err != nil {
		r.Destroy()
		return nil, err
	}

	sampler, err := NewSampler(context)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	r.sampler = sampler

	if err := r.createFrames(); err != nil {
		r.Destroy()
		return nil, err
	}

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if r.placeholder, err = NewTextureFromPixels(context, r.sampler, "placeholder", white); err != nil {
		r.Destroy()
		return nil, err
	}

	core.LogInfo("Renderer ready with %d frames in flight.", len(r.frames))
	return r, nil
}

func (r *VulkanRenderer) createQuad() error {
	queue := r.context.Device.GraphicsQueue
	commands := r.context.Commands

	vertexData := unsafe.Slice((*byte)(unsafe.Pointer(&emath.QuadVertices[0])), int(unsafe.Sizeof(emath.QuadVertices)))
	vertices, err := NewStagedBuffer(r.context, vk.DeviceSize(len(vertexData)), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return err
	}
	r.vertices = vertices
	if err := vertices.Write(r.context, commands, queue, vertexData); err != nil {
		return err
	}

	indexData := unsafe.Slice((*byte)(unsafe.Pointer(&emath.QuadIndices[0])), int(unsafe.Sizeof(emath.QuadIndices)))
	indices, err := NewStagedBuffer(r.context, vk.DeviceSize(len(indexData)), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		return err
	}
	r.indices = indices
	return indices.Write(r.context, commands, queue, indexData)
}

func (r *VulkanRenderer) createFrames() error {
	count := r.context.MaxFramesInFlight
	buffers, err := r.context.Commands.Allocate(count)
	if err != nil {
		return err
	}
	sets, err := r.context.Descriptors.AllocBufferSets(count)
	if err != nil {
		r.context.Commands.Free(buffers...)
		return err
	}

	r.frames = make([]*FrameSlot, 0, count)
	for i := uint32(0); i < count; i++ {
		slot, err := newFrameSlot(r.context, buffers[i], sets[i])
		if err != nil {
			r.context.Commands.Free(buffers[i:]...)
			return err
		}
		r.frames = append(r.frames, slot)
	}
	return nil
}

// StartRender waits for the current slot, acquires a swapchain image and opens the render
// pass. core.ErrSwapchainOutOfDate means the frame must be skipped; the slot is untouched.
func (r *VulkanRenderer) StartRender() error {
	if r.frameOpen {
		return core.ErrFrameInProgress
	}
	if r.context.FramebufferWidth == 0 || r.context.FramebufferHeight == 0 {
		return errors.Wrap(core.ErrSwapchainOutOfDate, "framebuffer has no area")
	}

	slot := r.frames[r.current]
	if err := slot.InFlight.FenceWait(r.context, math.MaxUint64); err != nil {
		return err
	}
	slot.State = FRAME_STATE_IDLE

	if err := r.stageUniforms(slot); err != nil {
		return err
	}

	imageIndex, err := r.context.Swapchain.SwapchainAcquireNextImageIndex(r.context, math.MaxUint64, slot.ImageAvailable, vk.NullFence)
	if err != nil {
		return err
	}
	r.imageIndex = imageIndex

	// From here on the acquire has a pending signal on ImageAvailable, so every failure
	// goes through abandonFrame.
	cb := slot.CommandBuffer
	if err := cb.Reset(r.context); err != nil {
		return r.abandonFrame(slot, err)
	}
	if err := cb.Begin(r.context, true, false, false); err != nil {
		return r.abandonFrame(slot, err)
	}
	if err := slot.InFlight.FenceReset(r.context); err != nil {
		return r.abandonFrame(slot, err)
	}

	if slot.recordedGeneration != slot.uniformGeneration {
		slot.MVP.RecordCopy(r.context, cb, vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit))
		slot.Color.RecordCopy(r.context, cb, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	}

	extent := r.context.Swapchain.Extent
	framebuffer := r.context.Swapchain.Framebuffers[imageIndex]
	r.context.MainRenderpass.RenderpassBegin(r.context, cb, framebuffer.Handle, extent)
	r.context.Pipeline.Bind(r.context, cb)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	r.context.Driver.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	r.context.Driver.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	slot.State = FRAME_STATE_RECORDING
	r.frameOpen = true
	return nil
}

// DrawTexture records one textured quad into the open frame.
func (r *VulkanRenderer) DrawTexture(rect emath.Rect, texture *VulkanTexture) error {
	if !r.frameOpen {
		return core.ErrFrameNotStarted
	}
	if texture == nil || texture.Set == nil {
		return errors.New("texture was destroyed or never loaded")
	}
	r.drawQuad(rect, texture.Set)
	return nil
}

// DrawRect draws a rectangle in the current draw colour. Outside of an open frame it runs a
// whole frame of its own.
func (r *VulkanRenderer) DrawRect(rect emath.Rect) error {
	if r.frameOpen {
		r.drawQuad(rect, r.placeholder.Set)
		return nil
	}
	if err := r.StartRender(); err != nil {
		return err
	}
	r.drawQuad(rect, r.placeholder.Set)
	return r.EndRender()
}

func (r *VulkanRenderer) drawQuad(rect emath.Rect, imageSet vk.DescriptorSet) {
	slot := r.frames[r.current]
	cb := slot.CommandBuffer.Handle
	layout := r.context.Pipeline.PipelineLayout
	driver := r.context.Driver

	driver.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{r.vertices.Device.Handle}, []vk.DeviceSize{0})
	driver.CmdBindIndexBuffer(cb, r.indices.Device.Handle, 0, vk.IndexTypeUint32)
	driver.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, layout, 0, 2, []vk.DescriptorSet{slot.BufferSet, imageSet}, 0, nil)

	model := emath.Model(rect)
	driver.CmdPushConstants(cb, layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, VULKAN_PUSH_CONSTANT_SIZE, unsafe.Pointer(&model[0]))
	driver.CmdDrawIndexed(cb, VULKAN_QUAD_INDEX_COUNT, 1, 0, 0, 0)
}

// EndRender closes the pass, submits the slot and presents. The slot advances even when
// presenting fails, since the submission already happened.
func (r *VulkanRenderer) EndRender() error {
	if !r.frameOpen {
		return core.ErrFrameNotStarted
	}
	r.frameOpen = false

	slot := r.frames[r.current]
	cb := slot.CommandBuffer
	r.context.MainRenderpass.RenderpassEnd(r.context, cb)
	if err := cb.End(r.context); err != nil {
		return r.abandonFrame(slot, err)
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}
	if res := r.context.GraphicsSubmit([]vk.SubmitInfo{submitInfo}, slot.InFlight.Handle); res != vk.Success {
		return r.abandonFrame(slot, resultError(res, "failed to submit frame %d", r.frameCount))
	}
	cb.UpdateSubmitted()
	slot.State = FRAME_STATE_SUBMITTED
	slot.uniformGeneration = slot.recordedGeneration

	presentErr := r.context.Swapchain.SwapchainPresent(r.context, r.context.Device.PresentQueue, slot.RenderFinished, r.imageIndex)

	r.current = (r.current + 1) % uint32(len(r.frames))
	r.frameCount++
	return presentErr
}

// abandonFrame returns a slot whose frame failed after the acquire to a state the next
// StartRender can wait on. An empty batch consumes the acquire signal and arms the fence;
// if the queue refuses it, the semaphore and the fence are replaced instead.
func (r *VulkanRenderer) abandonFrame(slot *FrameSlot, cause error) error {
	slot.State = FRAME_STATE_IDLE
	if err := slot.InFlight.FenceReset(r.context); err == nil {
		drain := vk.SubmitInfo{
			SType:              vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount: 1,
			PWaitSemaphores:    []vk.Semaphore{slot.ImageAvailable},
			PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)},
		}
		if res := r.context.GraphicsSubmit([]vk.SubmitInfo{drain}, slot.InFlight.Handle); res == vk.Success {
			return cause
		}
	}
	core.LogWarn("frame %d abandoned without a queue, replacing its sync objects", r.frameCount)
	if err := slot.replaceSync(r.context); err != nil {
		return errors.CombineErrors(cause, err)
	}
	return cause
}

// SetDrawColor changes the colour used by DrawRect from the next frame on.
func (r *VulkanRenderer) SetDrawColor(c emath.Color) error {
	r.drawColor = c
	r.uniformGeneration++
	return nil
}

// SetProjection installs an orthographic projection.
func (r *VulkanRenderer) SetProjection(left, right, bottom, top, near, far float32) error {
	r.projection = emath.Ortho(left, right, bottom, top, near, far)
	r.uniformGeneration++
	return nil
}

func (r *VulkanRenderer) SetView(view emath.Mat4) error {
	r.view = view
	r.uniformGeneration++
	return nil
}

// Resize records the new framebuffer size and refits the projection to it. The swapchain is
// rebuilt at the next present.
func (r *VulkanRenderer) Resize(width, height uint32) error {
	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height
	r.context.FramebufferSizeGeneration++
	if width == 0 || height == 0 {
		return nil
	}
	r.projection = emath.ScreenProjection(float32(width), float32(height))
	r.uniformGeneration++
	return nil
}

// stageUniforms writes the current uniforms into the slot's staging buffers when the slot
// is behind. The slot's fence has been waited on, so no submitted work still reads them;
// StartRender then records the copies into the slot's own command buffer.
func (r *VulkanRenderer) stageUniforms(slot *FrameSlot) error {
	slot.recordedGeneration = slot.uniformGeneration
	if slot.uniformGeneration == r.uniformGeneration {
		return nil
	}

	mvp := [2]emath.Mat4{r.projection, r.view}
	if err := slot.MVP.Host.Upload(unsafe.Slice((*byte)(unsafe.Pointer(&mvp[0][0])), VULKAN_MVP_UNIFORM_SIZE)); err != nil {
		return err
	}
	rgb := [3]float32{r.drawColor.R, r.drawColor.G, r.drawColor.B}
	if err := slot.Color.Host.Upload(unsafe.Slice((*byte)(unsafe.Pointer(&rgb[0])), VULKAN_COLOR_UNIFORM_SIZE)); err != nil {
		return err
	}
	slot.recordedGeneration = r.uniformGeneration
	return nil
}

// LoadTexture decodes and uploads one image. The renderer destroys it on shutdown unless
// the caller destroys it first.
func (r *VulkanRenderer) LoadTexture(path string, decode ImageDecodeFunc) (*VulkanTexture, error) {
	texture, err := LoadTexture(r.context, r.sampler, path, decode)
	if err != nil {
		return nil, err
	}
	r.textures = append(r.textures, texture)
	return texture, nil
}

func (r *VulkanRenderer) LoadTextures(decode ImageDecodeFunc, paths ...string) ([]*VulkanTexture, error) {
	textures, err := LoadTextures(r.context, r.sampler, decode, paths...)
	if err != nil {
		return nil, err
	}
	r.textures = append(r.textures, textures...)
	return textures, nil
}

// DestroyTexture waits for the device so no in-flight frame still samples the texture,
// then releases it.
func (r *VulkanRenderer) DestroyTexture(texture *VulkanTexture) error {
	switch {
	case texture == nil:
		return errors.New("destroying a nil texture")
	case texture == r.placeholder:
		return errors.New("the placeholder texture is owned by the renderer")
	}
	if r.frameOpen {
		return errors.Wrap(core.ErrFrameInProgress, "destroying a texture")
	}
	if err := r.context.WaitIdle(); err != nil {
		return err
	}
	for i, t := range r.textures {
		if t == texture {
			r.textures = append(r.textures[:i], r.textures[i+1:]...)
			break
		}
	}
	texture.Destroy(r.context)
	return nil
}

// CurrentFrame is the slot the next StartRender uses.
func (r *VulkanRenderer) CurrentFrame() uint32 {
	return r.current
}

// FrameCount is the number of frames submitted so far.
func (r *VulkanRenderer) FrameCount() uint64 {
	return r.frameCount
}

func (r *VulkanRenderer) FramesInFlight() int {
	return len(r.frames)
}

// Destroy waits for the device and releases everything the renderer created.
func (r *VulkanRenderer) Destroy() {
	if err := r.context.WaitIdle(); err != nil {
		core.LogWarn("renderer shutdown: %s", err)
	}

	for _, t := range r.textures {
		t.Destroy(r.context)
	}
	r.textures = nil
	if r.placeholder != nil {
		r.placeholder.Destroy(r.context)
		r.placeholder = nil
	}

	for _, slot := range r.frames {
		slot.destroy(r.context)
		r.context.Commands.Free(slot.CommandBuffer)
	}
	r.frames = nil

	if r.sampler != nil {
		DestroySampler(r.context, r.sampler)
		r.sampler = nil
	}
	if r.indices != nil {
		r.indices.Destroy(r.context)
		r.indices = nil
	}
	if r.vertices != nil {
		r.vertices.Destroy(r.context)
		r.vertices = nil
	}
}
