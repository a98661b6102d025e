// Package config holds the processing options shared by the CLIs.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/archive"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/internalerr"
)

// Store backends for the pending-question store.
const (
	MemoryStore = "memory"
	SQLiteStore = "sqlite"
)

// Options configures a processing run.
type Options struct {
	// MinScore is the minimum score for a non-accepted answer to be kept.
	MinScore int `yaml:"min_score"`
	// MaxResponses caps the answers retained per question.
	MaxResponses int `yaml:"max_responses"`
	// OutFormat selects the archive encoding ("text" or "jsonl").
	OutFormat string `yaml:"out_format"`
	// OutputDir is where archive chunks are written.
	OutputDir string `yaml:"output_dir"`
	// Store selects the pending-question store backend ("memory" or "sqlite").
	Store string `yaml:"store"`
	// KeepSources retains the downloaded .7z and extracted XML afterwards.
	KeepSources bool `yaml:"keep_sources"`
	// MaxNumThreads is the worker pool size for multi-dump runs;
	// zero or negative means NumCPU-1.
	MaxNumThreads int `yaml:"max_num_threads"`
	// Stream decompresses Posts.xml on the fly instead of extracting it.
	Stream bool `yaml:"stream"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		MinScore:     3,
		MaxResponses: 3,
		OutFormat:    archive.TextFormat,
		OutputDir:    "out",
		Store:        SQLiteStore,
	}
}

// Load reads options from a YAML file, starting from the defaults.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}

	return opts, nil
}

// Threads resolves the worker pool size.
func (o Options) Threads() int {
	if o.MaxNumThreads > 0 {
		return o.MaxNumThreads
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	switch o.OutFormat {
	case archive.TextFormat, archive.JSONLFormat:
	default:
		return fmt.Errorf("out_format %q: %w", o.OutFormat, internalerr.ErrInvalidConfig)
	}
	switch o.Store {
	case MemoryStore, SQLiteStore:
	default:
		return fmt.Errorf("store %q: %w", o.Store, internalerr.ErrInvalidConfig)
	}
	if o.MaxResponses < 1 {
		return fmt.Errorf("max_responses must be at least 1: %w", internalerr.ErrInvalidConfig)
	}
	if o.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
