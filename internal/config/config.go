// Package config loads and saves editor settings as TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Window struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Editor struct {
	FontSizePt int     `toml:"font_size_pt"`
	UIScale    float32 `toml:"ui_scale"`
	TitleLimit int     `toml:"title_limit"`
	BodyLimit  int     `toml:"body_limit"`
}

type Storage struct {
	Compression bool `toml:"compression"`
}

type Config struct {
	Window  Window  `toml:"window"`
	Editor  Editor  `toml:"editor"`
	Storage Storage `toml:"storage"`
}

func Default() Config {
	return Config{
		Window: Window{Width: 1280, Height: 800},
		Editor: Editor{FontSizePt: 13, UIScale: 1.0, TitleLimit: 256, BodyLimit: 1 << 16},
		Storage: Storage{
			Compression: true,
		},
	}
}

// Load reads the config file at path. A missing file is not an error and
// yields the defaults; unset fields fall back to their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	d := Default()
	if c.Window.Width < 640 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height < 480 {
		c.Window.Height = d.Window.Height
	}
	if c.Editor.FontSizePt < 8 || c.Editor.FontSizePt > 96 {
		c.Editor.FontSizePt = d.Editor.FontSizePt
	}
	if c.Editor.UIScale < 0.5 || c.Editor.UIScale > 4 {
		c.Editor.UIScale = d.Editor.UIScale
	}
	if c.Editor.TitleLimit <= 0 {
		c.Editor.TitleLimit = d.Editor.TitleLimit
	}
	if c.Editor.BodyLimit <= 0 {
		c.Editor.BodyLimit = d.Editor.BodyLimit
	}
}
