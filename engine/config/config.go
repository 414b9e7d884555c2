package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/voxelforge/lumen/engine/core"
)

// Config is the engine configuration, loaded from a TOML file. Zero values
// fall back to the defaults below so a partial file is fine.
type Config struct {
	Window struct {
		Title  string `toml:"title"`
		PosX   uint32 `toml:"pos_x"`
		PosY   uint32 `toml:"pos_y"`
		Width  uint32 `toml:"width"`
		Height uint32 `toml:"height"`
	} `toml:"window"`
	Renderer struct {
		TargetFrameRate uint32 `toml:"target_frame_rate"`
		Validation      bool   `toml:"validation"`
	} `toml:"renderer"`
	Assets struct {
		Dir string `toml:"dir"`
	} `toml:"assets"`
	LogLevel string `toml:"log_level"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Window.Title = "Lumen"
	cfg.Window.Width = 1280
	cfg.Window.Height = 720
	cfg.Renderer.TargetFrameRate = 60
	cfg.Assets.Dir = "assets"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads the TOML file at path. A missing file is not an error, the
// defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogDebug("no config file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Window.Width == 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Renderer.TargetFrameRate == 0 {
		c.Renderer.TargetFrameRate = def.Renderer.TargetFrameRate
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = def.Assets.Dir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) CoreLogLevel() core.LogLevel {
	switch c.LogLevel {
	case "debug":
		return core.LogLevelDebug
	case "warn":
		return core.LogLevelWarn
	case "error":
		return core.LogLevelError
	default:
		return core.LogLevelInfo
	}
}
