package core

import (
	"github.com/cockroachdb/errors"
)

// setup errors
var (
	ErrNoCompatibleMemoryType = errors.New("no compatible memory type")
	ErrMissingExtension       = errors.New("missing required device extension")
	ErrShaderMissing          = errors.New("shader bytecode missing")
	ErrImageDecodeFailed      = errors.New("image decode failed")
)

// resource errors
var (
	ErrPoolExhausted           = errors.New("descriptor pool exhausted")
	ErrDescriptorSetDoubleFree = errors.New("descriptor set not owned by any pool")
	ErrBufferNotHostVisible    = errors.New("buffer is not host visible")
	ErrBufferOverflow          = errors.New("data larger than buffer")
)

// per-frame errors
var (
	ErrSwapchainAcquireFailed = errors.New("failed to acquire swapchain image")
	ErrSwapchainOutOfDate     = errors.New("swapchain out of date")
	ErrPresentFailed          = errors.New("failed to present swapchain image")
	ErrDeviceLost             = errors.New("device lost")
	ErrFrameNotStarted        = errors.New("no frame in progress")
	ErrFrameInProgress        = errors.New("frame already in progress")
	ErrSwapchainBooting       = errors.New("swapchain resized or recreated, booting")
)
