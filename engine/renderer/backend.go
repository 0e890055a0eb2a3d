package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

type options struct {
	config vulkan.BackendConfig
	decode vulkan.ImageDecodeFunc
}

type Option func(*options)

func defaultOptions() options {
	return options{
		config: vulkan.BackendConfig{
			ApplicationName:   "Anima2D",
			FramesInFlight:    2,
			ImagePoolCapacity: 10,
			ClearColor:        [4]float32{0.1, 0.1, 0.1, 1.0},
		},
		decode: loaders.DecodeImage,
	}
}

func WithApplicationName(name string) Option {
	return func(o *options) { o.config.ApplicationName = name }
}

// WithFramesInFlight sets how many frames the CPU may record ahead of the GPU. Zero keeps
// the default.
func WithFramesInFlight(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.config.FramesInFlight = n
		}
	}
}

// WithImagePoolCapacity sizes each image descriptor pool. More pools are added on demand.
func WithImagePoolCapacity(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.config.ImagePoolCapacity = n
		}
	}
}

func WithClearColor(c [4]float32) Option {
	return func(o *options) { o.config.ClearColor = c }
}

// WithShaders sets the SPIR-V for the single quad pipeline.
func WithShaders(vertex, fragment []uint32) Option {
	return func(o *options) {
		o.config.VertexShader = vertex
		o.config.FragmentShader = fragment
	}
}

func WithValidation(enabled bool) Option {
	return func(o *options) { o.config.Validation = enabled }
}

// WithImageDecoder replaces the decoder LoadTexture uses, e.g. with the asset manager's.
func WithImageDecoder(decode vulkan.ImageDecodeFunc) Option {
	return func(o *options) {
		if decode != nil {
			o.decode = decode
		}
	}
}

func buildOptions(extensions []string, width, height uint32, opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.config.Extensions = extensions
	o.config.Width = width
	o.config.Height = height
	return o
}
