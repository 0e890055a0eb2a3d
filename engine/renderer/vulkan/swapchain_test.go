package vulkan

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

func TestChooseSwapchainImageCount(t *testing.T) {
	tests := []struct {
		min, max uint32
		want     uint32
	}{
		{1, 3, 2},
		{2, 2, 2},
		{3, 8, 3},
		{1, 1, 1},
		{2, 0, 2},
		{4, 0, 4},
		{1, 0, 2},
	}
	for _, tt := range tests {
		var caps vk.SurfaceCapabilities
		caps.MinImageCount = tt.min
		caps.MaxImageCount = tt.max
		if got := ChooseSwapchainImageCount(caps); got != tt.want {
			t.Errorf("min %d max %d: got %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}); got.Format != preferred.Format {
		t.Errorf("got format %d, want the sRGB BGRA format", got.Format)
	}
	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other}); got.Format != other.Format {
		t.Errorf("got format %d, want the first offered", got.Format)
	}
}

func TestChoosePresentMode(t *testing.T) {
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}); got != vk.PresentModeMailbox {
		t.Errorf("got %d, want mailbox", got)
	}
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); got != vk.PresentModeFifo {
		t.Errorf("got %d, want FIFO", got)
	}
}

func TestChooseExtent(t *testing.T) {
	var caps vk.SurfaceCapabilities
	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	if got := chooseExtent(caps, 10, 10); got.Width != 800 || got.Height != 600 {
		t.Errorf("got %dx%d, want the surface's current extent", got.Width, got.Height)
	}

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	caps.MinImageExtent = vk.Extent2D{Width: 100, Height: 100}
	caps.MaxImageExtent = vk.Extent2D{Width: 1000, Height: 1000}
	if got := chooseExtent(caps, 5000, 50); got.Width != 1000 || got.Height != 100 {
		t.Errorf("got %dx%d, want 1000x100", got.Width, got.Height)
	}
}

func TestSwapchainCreateDestroy(t *testing.T) {
	context, fd := newTestComponents(t)

	swapchain, err := SwapchainCreate(context, 640, 480)
	if err != nil {
		t.Fatalf("SwapchainCreate: %v", err)
	}
	if swapchain.ImageCount != 3 || len(swapchain.Views) != 3 {
		t.Errorf("got %d images and %d views, want 3 each", swapchain.ImageCount, len(swapchain.Views))
	}
	if swapchain.Extent.Width != 640 || swapchain.Extent.Height != 480 {
		t.Errorf("extent %dx%d", swapchain.Extent.Width, swapchain.Extent.Height)
	}
	if swapchain.ImageFormat.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("format %d, want sRGB BGRA", swapchain.ImageFormat.Format)
	}

	swapchain.SwapchainDestroy(context)
	if n := fd.liveCount("view"); n != 0 {
		t.Errorf("%d views alive", n)
	}
	if n := fd.liveCount("swapchain"); n != 0 {
		t.Errorf("%d swapchains alive", n)
	}
}

func TestAcquireOutOfDateRecreatesAndSkipsFrame(t *testing.T) {
	backend, fd := newTestBackend(t)
	context := backend.Context()
	renderer := backend.Renderer

	context.QuerySurfaceSupport = func(info *VulkanSwapchainSupportInfo) error {
		*info = testSurfaceSupport(800, 600)
		return nil
	}
	context.FramebufferWidth, context.FramebufferHeight = 800, 600
	fd.acquireResults = []vk.Result{vk.ErrorOutOfDate}

	err := renderer.StartRender()
	if !errors.Is(err, core.ErrSwapchainOutOfDate) {
		t.Fatalf("StartRender: got %v, want ErrSwapchainOutOfDate", err)
	}
	if extent := context.Swapchain.Extent; extent.Width != 800 || extent.Height != 600 {
		t.Errorf("swapchain extent %dx%d after recreate, want 800x600", extent.Width, extent.Height)
	}
	if len(context.Swapchain.Framebuffers) != int(context.Swapchain.ImageCount) {
		t.Errorf("%d framebuffers for %d images", len(context.Swapchain.Framebuffers), context.Swapchain.ImageCount)
	}
	if renderer.CurrentFrame() != 0 || renderer.FrameCount() != 0 {
		t.Error("a skipped frame advanced the renderer")
	}

	// The slot was left untouched, so the next frame goes through normally.
	if err := renderer.StartRender(); err != nil {
		t.Fatalf("StartRender after recreate: %v", err)
	}
	if err := renderer.EndRender(); err != nil {
		t.Fatalf("EndRender: %v", err)
	}
	backend.teardown()
	assertNoViolations(t, fd)
	assertNoLeaks(t, fd)
}

func TestPresentSuboptimalRecreates(t *testing.T) {
	backend, fd := newTestBackend(t)
	renderer := backend.Renderer
	fd.presentResults = []vk.Result{vk.Suboptimal}

	if err := renderer.StartRender(); err != nil {
		t.Fatal(err)
	}
	if err := renderer.EndRender(); err != nil {
		t.Fatalf("suboptimal present should not be an error: %v", err)
	}
	if n := fd.liveCount("swapchain"); n != 1 {
		t.Errorf("%d swapchains alive, want 1", n)
	}
	if n := fd.liveCount("framebuffer"); n != 3 {
		t.Errorf("%d framebuffers alive, want 3", n)
	}
	if renderer.CurrentFrame() != 1 {
		t.Errorf("current frame %d, want 1", renderer.CurrentFrame())
	}
	backend.teardown()
	assertNoViolations(t, fd)
}

func TestPresentAndAcquireFailures(t *testing.T) {
	backend, fd := newTestBackend(t)
	renderer := backend.Renderer

	fd.presentResults = []vk.Result{vk.ErrorSurfaceLost}
	if err := renderer.StartRender(); err != nil {
		t.Fatal(err)
	}
	if err := renderer.EndRender(); !errors.Is(err, core.ErrPresentFailed) {
		t.Errorf("EndRender: got %v, want ErrPresentFailed", err)
	}
	if renderer.CurrentFrame() != 1 {
		t.Errorf("slot did not advance after a failed present")
	}

	fd.acquireResults = []vk.Result{vk.ErrorSurfaceLost}
	if err := renderer.StartRender(); !errors.Is(err, core.ErrSwapchainAcquireFailed) {
		t.Errorf("StartRender: got %v, want ErrSwapchainAcquireFailed", err)
	}

	// Device loss keeps its own mark next to the acquire one.
	fd.acquireResults = []vk.Result{vk.ErrorDeviceLost}
	err := renderer.StartRender()
	if !errors.Is(err, core.ErrSwapchainAcquireFailed) || !errors.Is(err, core.ErrDeviceLost) {
		t.Errorf("StartRender: got %v, want ErrSwapchainAcquireFailed and ErrDeviceLost", err)
	}
	backend.teardown()
	assertNoViolations(t, fd)
}

func TestResizeRecreatesAtPresent(t *testing.T) {
	backend, fd := newTestBackend(t)
	context := backend.Context()
	context.QuerySurfaceSupport = func(info *VulkanSwapchainSupportInfo) error {
		*info = testSurfaceSupport(1024, 768)
		return nil
	}

	if err := backend.Resized(1024, 768); err != nil {
		t.Fatal(err)
	}
	if err := backend.Renderer.DrawRect(testRect()); err != nil {
		t.Fatalf("DrawRect: %v", err)
	}
	if extent := context.Swapchain.Extent; extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("extent %dx%d, want 1024x768", extent.Width, extent.Height)
	}
	if context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration {
		t.Error("size generation not caught up after recreate")
	}
	backend.teardown()
	assertNoViolations(t, fd)
	assertNoLeaks(t, fd)
}
