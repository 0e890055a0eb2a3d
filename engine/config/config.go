package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

type Application struct {
	Name   string `toml:"name"`
	StartX int32  `toml:"start_x"`
	StartY int32  `toml:"start_y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type Renderer struct {
	FramesInFlight    uint32     `toml:"frames_in_flight"`
	ImagePoolCapacity uint32     `toml:"image_pool_capacity"`
	ClearColor        [4]float32 `toml:"clear_color"`
	VertexShader      string     `toml:"vertex_shader"`
	FragmentShader    string     `toml:"fragment_shader"`
	Validation        bool       `toml:"validation"`
}

type Log struct {
	Level string `toml:"level"`
}

type Assets struct {
	Directory string `toml:"directory"`
	Watch     bool   `toml:"watch"`
}

type Config struct {
	Application Application `toml:"application"`
	Renderer    Renderer    `toml:"renderer"`
	Log         Log         `toml:"log"`
	Assets      Assets      `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Application: Application{
			Name:   "Anima2D",
			StartX: 100,
			StartY: 100,
			Width:  640,
			Height: 640,
		},
		Renderer: Renderer{
			FramesInFlight:    2,
			ImagePoolCapacity: 10,
			ClearColor:        [4]float32{0.1, 0.1, 0.1, 1.0},
			VertexShader:      "shaders/vert.spv",
			FragmentShader:    "shaders/frag.spv",
			Validation:        false,
		},
		Log: Log{
			Level: "info",
		},
		Assets: Assets{
			Directory: "assets",
			Watch:     false,
		},
	}
}

// Load reads a TOML file on top of the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return errors.Wrapf(err, "line %d column %d", row, col)
		}
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Newf("invalid window size %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Renderer.FramesInFlight == 0 {
		return errors.New("frames_in_flight must be at least 1")
	}
	if c.Renderer.ImagePoolCapacity == 0 {
		return errors.New("image_pool_capacity must be at least 1")
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		return errors.New("shader paths must be set")
	}
	for _, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Newf("clear_color component %f out of range", v)
		}
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
