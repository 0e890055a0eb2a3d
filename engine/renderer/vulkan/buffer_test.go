package vulkan

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

func TestStagedBufferRoundTrip(t *testing.T) {
	context, fd := newTestComponents(t)

	staged, err := NewStagedBuffer(context, 64, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		t.Fatalf("NewStagedBuffer: %v", err)
	}
	if staged.Host.Mapped() == nil {
		t.Fatal("host side is not mapped")
	}
	if staged.Device.Mapped() != nil {
		t.Fatal("device side should not be mapped")
	}

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 3)
	}
	if err := staged.Write(context, context.Commands, context.Device.GraphicsQueue, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := fd.bufferBytes(staged.Device.Handle); !bytes.Equal(got, data) {
		t.Errorf("device buffer holds %v, want %v", got, data)
	}

	staged.Destroy(context)
	for _, kind := range []string{"buffer", "memory", "mapped"} {
		if n := fd.liveCount(kind); n != 0 {
			t.Errorf("%d %s objects alive after Destroy", n, kind)
		}
	}
	assertNoViolations(t, fd)
}

func TestStagedBufferPartialWrite(t *testing.T) {
	context, fd := newTestComponents(t)

	staged, err := NewStagedBuffer(context, 16, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
	if err != nil {
		t.Fatalf("NewStagedBuffer: %v", err)
	}
	defer staged.Destroy(context)

	if err := staged.Write(context, context.Commands, context.Device.GraphicsQueue, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := fd.bufferBytes(staged.Device.Handle)
	want := []byte{1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("device buffer holds %v, want %v", got, want)
	}
}

func TestNewBufferNoCompatibleMemoryType(t *testing.T) {
	context, fd := newTestComponents(t)
	// Host visible but not coherent.
	context.Device.Memory.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)

	_, err := NewBuffer(context, 32, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true)
	if !errors.Is(err, core.ErrNoCompatibleMemoryType) {
		t.Fatalf("got %v, want ErrNoCompatibleMemoryType", err)
	}
	if n := fd.liveCount("buffer"); n != 0 {
		t.Errorf("%d buffers leaked", n)
	}
	if n := fd.liveCount("memory"); n != 0 {
		t.Errorf("%d allocations leaked", n)
	}
}

func TestNewBufferReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name string
		call string
	}{
		{"allocate", "AllocateMemory"},
		{"bind", "BindBufferMemory"},
		{"map", "MapMemory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			context, fd := newTestComponents(t)
			fd.inject(tt.call, vk.ErrorOutOfDeviceMemory)

			if _, err := NewBuffer(context, 32, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true); err == nil {
				t.Fatal("expected an error")
			}
			for _, kind := range []string{"buffer", "memory", "mapped"} {
				if n := fd.liveCount(kind); n != 0 {
					t.Errorf("%d %s objects leaked", n, kind)
				}
			}
			assertNoViolations(t, fd)
		})
	}
}

func TestBufferUploadErrors(t *testing.T) {
	context, _ := newTestComponents(t)

	local, err := NewBuffer(context, 8, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer local.Destroy(context)
	if err := local.Upload([]byte{1}); !errors.Is(err, core.ErrBufferNotHostVisible) {
		t.Errorf("upload to device local buffer: got %v", err)
	}

	host, err := NewBuffer(context, 8, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer host.Destroy(context)
	if err := host.Upload(make([]byte, 9)); !errors.Is(err, core.ErrBufferOverflow) {
		t.Errorf("oversized upload: got %v", err)
	}
	if err := host.CopyTo(context, context.Commands, context.Device.GraphicsQueue, local, 16); !errors.Is(err, core.ErrBufferOverflow) {
		t.Errorf("oversized copy: got %v", err)
	}
}

func TestBufferDestroyTwice(t *testing.T) {
	context, fd := newTestComponents(t)

	buffer, err := NewBuffer(context, 8, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	buffer.Destroy(context)
	buffer.Destroy(context)
	assertNoViolations(t, fd)
}

func TestFindMemoryIndex(t *testing.T) {
	context, _ := newTestComponents(t)
	hostFlags := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	tests := []struct {
		name    string
		filter  uint32
		flags   vk.MemoryPropertyFlags
		want    uint32
		wantErr bool
	}{
		{"device local", 0x3, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0, false},
		{"host visible", 0x3, hostFlags, 1, false},
		{"subset of flags", 0x3, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit), 1, false},
		{"filtered out", 0x1, hostFlags, 0, true},
		{"empty filter", 0x0, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := context.FindMemoryIndex(tt.filter, tt.flags)
			if tt.wantErr {
				if !errors.Is(err, core.ErrNoCompatibleMemoryType) {
					t.Fatalf("got %v, want ErrNoCompatibleMemoryType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got index %d, want %d", got, tt.want)
			}
		})
	}
}
