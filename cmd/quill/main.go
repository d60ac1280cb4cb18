package main

import (
	"fmt"
	"os"
	"path/filepath"

	"quill/internal/app"
	"quill/internal/config"
)

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quill.toml"
	}
	return filepath.Join(dir, "quill", "quill.toml")
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v (using defaults)\n", err)
	}
	application := app.New(cfg)
	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "quill failed: %v\n", err)
		os.Exit(1)
	}
}
