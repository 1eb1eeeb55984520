package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plexusviz/plexus"
)

// fileConfig is the TOML configuration a view session can start from.
// Every field is optional; zero values fall back to the engine defaults.
type fileConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`

	Layout               string  `toml:"layout"` // "force" or "layered"
	DarkMode             bool    `toml:"dark_mode"`
	ShowLabels           bool    `toml:"show_labels"`
	TopKEdges            int     `toml:"top_k_edges"`
	NeighborhoodHops     int     `toml:"neighborhood_hops"`
	EdgeOpacityThreshold float64 `toml:"edge_opacity_threshold"`
	EnableGPUPath        bool    `toml:"enable_gpu_path"`

	Fetch fetchSection `toml:"fetch"`
}

type fetchSection struct {
	URL                 string  `toml:"url"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinCorrelation      float64 `toml:"min_correlation"`
	MaxCrossEntropyGap  float64 `toml:"max_cross_entropy_gap"`
	IntraLayerOnly      bool    `toml:"intra_layer_only"`
}

// loadConfig reads a TOML config file. An empty path yields the zero config.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// options converts the file config into engine options, starting from the
// defaults so unset fields keep their shipped values.
func (c fileConfig) options() (plexus.Options, error) {
	opts := plexus.DefaultOptions()
	switch c.Layout {
	case "", "force":
		opts.Layout = plexus.LayoutForce
	case "layered":
		opts.Layout = plexus.LayoutLayered
	default:
		return opts, fmt.Errorf("config: unknown layout %q (want force or layered)", c.Layout)
	}
	opts.DarkMode = c.DarkMode
	opts.ShowLabels = c.ShowLabels
	if c.TopKEdges > 0 {
		opts.TopKEdges = c.TopKEdges
	}
	if c.NeighborhoodHops > 0 {
		opts.NeighborhoodHops = c.NeighborhoodHops
	}
	if c.EdgeOpacityThreshold > 0 {
		opts.EdgeOpacityThreshold = c.EdgeOpacityThreshold
	}
	opts.EnableGPUPath = c.EnableGPUPath
	return opts, nil
}

// fetchConfig extracts the reconstruction-service parameters, nil when the
// section carries no thresholds.
func (c fileConfig) fetchConfig() *plexus.FetchConfig {
	f := c.Fetch
	if f.SimilarityThreshold == 0 && f.MinCorrelation == 0 && f.MaxCrossEntropyGap == 0 && !f.IntraLayerOnly {
		return nil
	}
	return &plexus.FetchConfig{
		SimilarityThreshold: f.SimilarityThreshold,
		MinCorrelation:      f.MinCorrelation,
		MaxCrossEntropyGap:  f.MaxCrossEntropyGap,
		IntraLayerOnly:      f.IntraLayerOnly,
	}
}

func (c fileConfig) fetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
