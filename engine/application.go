package engine

import "github.com/spaghettifunk/anima2d/engine/config"

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int32
	// Window starting position y axis, if applicable.
	StartPosY int32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel string

	FramesInFlight    uint32
	ImagePoolCapacity uint32
	ClearColor        [4]float32
	// Shader paths, relative to the asset directory or absolute.
	VertexShader   string
	FragmentShader string
	Validation     bool

	AssetsDirectory string
	WatchAssets     bool

	// Stop after this many rendered frames. Zero runs until the window closes.
	MaxFrames uint64
}

func NewApplicationConfig(cfg *config.Config) *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:         cfg.Application.StartX,
		StartPosY:         cfg.Application.StartY,
		StartWidth:        cfg.Application.Width,
		StartHeight:       cfg.Application.Height,
		Name:              cfg.Application.Name,
		LogLevel:          cfg.Log.Level,
		FramesInFlight:    cfg.Renderer.FramesInFlight,
		ImagePoolCapacity: cfg.Renderer.ImagePoolCapacity,
		ClearColor:        cfg.Renderer.ClearColor,
		VertexShader:      cfg.Renderer.VertexShader,
		FragmentShader:    cfg.Renderer.FragmentShader,
		Validation:        cfg.Renderer.Validation,
		AssetsDirectory:   cfg.Assets.Directory,
		WatchAssets:       cfg.Assets.Watch,
	}
}
