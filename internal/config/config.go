// Package config holds the server settings: file detection toggles and the
// budgets bounding definition scans.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jenkinsdoc/jenkinsfile-ls/internal/pipeline"
)

// FileName is looked up in the workspace root during initialization.
const FileName = ".jenkinsfile-ls.yaml"

// Definition bounds the file-system scan behind textDocument/definition.
type Definition struct {
	MaxFiles    int           `json:"maxFiles" yaml:"maxFiles"`
	MaxFileSize int64         `json:"maxFileSize" yaml:"maxFileSize"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// Config is the full server configuration.
type Config struct {
	Files      pipeline.Options `json:"files" yaml:"files"`
	Definition Definition       `json:"definition" yaml:"definition"`

	// DataFile optionally overrides the bundled documentation dataset.
	DataFile string `json:"dataFile" yaml:"dataFile"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Files: pipeline.DefaultOptions(),
		Definition: Definition{
			MaxFiles:    512,
			MaxFileSize: 1 << 20, // 1 MiB
			Timeout:     2 * time.Second,
		},
	}
}

// Load builds the configuration for a workspace: defaults, then the workspace
// config file if present, then LSP initializationOptions. Later sources win.
func Load(workspaceRoot string, initOptions json.RawMessage) (Config, error) {
	cfg := Default()

	if workspaceRoot != "" {
		path := filepath.Join(workspaceRoot, FileName)
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing %s: %w", FileName, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// No workspace config is the common case.
		default:
			return cfg, fmt.Errorf("reading %s: %w", FileName, err)
		}
	}

	if len(initOptions) > 0 {
		if err := json.Unmarshal(initOptions, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing initializationOptions: %w", err)
		}
	}

	cfg.clamp()
	return cfg, nil
}

// clamp keeps the scan budgets usable when a config zeroes them out.
func (c *Config) clamp() {
	def := Default().Definition
	if c.Definition.MaxFiles <= 0 {
		c.Definition.MaxFiles = def.MaxFiles
	}
	if c.Definition.MaxFileSize <= 0 {
		c.Definition.MaxFileSize = def.MaxFileSize
	}
	if c.Definition.Timeout <= 0 {
		c.Definition.Timeout = def.Timeout
	}
}
