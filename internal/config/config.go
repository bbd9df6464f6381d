package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFile is the per-directory override file, found by walking up from
// the working directory.
const ProjectFile = ".clustermap.toml"

// Config holds clustermap configuration.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas"`
	Graph    GraphConfig    `toml:"graph"`
	Physics  PhysicsConfig  `toml:"physics"`
	Render   RenderConfig   `toml:"render"`
	Interact InteractConfig `toml:"interact"`
	UI       UIConfig       `toml:"ui"`
	Parallel ParallelConfig `toml:"parallel"`
	Hooks    HooksConfig    `toml:"hooks"`
}

// CanvasConfig sizes the drawing surface.
type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// GraphConfig controls graph building.
type GraphConfig struct {
	Density       int     `toml:"density"` // 1..100
	Neighbors     int     `toml:"neighbors"`
	SpiralStep    float64 `toml:"spiral_step"`
	ClusterSpread float64 `toml:"cluster_spread"`
}

// PhysicsConfig tunes the force simulation.
type PhysicsConfig struct {
	Alpha                float64 `toml:"alpha"`
	AlphaMin             float64 `toml:"alpha_min"`
	AlphaDecay           float64 `toml:"alpha_decay"`
	AlphaTarget          float64 `toml:"alpha_target"`
	VelocityDecay        float64 `toml:"velocity_decay"`
	LinkDistance         float64 `toml:"link_distance"`
	LinkStrength         float64 `toml:"link_strength"` // 0 = degree-based default
	ChargeStrength       float64 `toml:"charge_strength"`
	CenterStrength       float64 `toml:"center_strength"`
	ClusterCollideRadius float64 `toml:"cluster_collide_radius"`
	ItemCollideRadius    float64 `toml:"item_collide_radius"`
	DragReheat           float64 `toml:"drag_reheat"`
	Seed                 uint64  `toml:"seed"`
	MaxTicks             int     `toml:"max_ticks"`
}

// RenderConfig controls painting.
type RenderConfig struct {
	ClusterRadius  float64 `toml:"cluster_radius"`
	ItemRadius     float64 `toml:"item_radius"`
	EdgeOpacity    float64 `toml:"edge_opacity"`
	ClusterOpacity float64 `toml:"cluster_opacity"`
	ItemOpacity    float64 `toml:"item_opacity"`
	Repaint        string  `toml:"repaint"` // "always", "dirty"
	FrameRate      int     `toml:"frame_rate"`
}

// InteractConfig controls gestures.
type InteractConfig struct {
	HoverTolerance   float64 `toml:"hover_tolerance"`
	MinScale         float64 `toml:"min_scale"`
	MaxScale         float64 `toml:"max_scale"`
	WheelSensitivity float64 `toml:"wheel_sensitivity"`
	OpenModifier     string  `toml:"open_modifier"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color bool `toml:"color"`
}

// ParallelConfig controls concurrent exports.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency"`
}

// HooksConfig defines commands run on graph events.
type HooksConfig struct {
	OpenDetails string `toml:"open_details"`
	Snapshot    string `toml:"snapshot"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 800, Height: 600, Background: "#ffffff"},
		Graph:  GraphConfig{Density: 100, Neighbors: 5, SpiralStep: 4, ClusterSpread: 60},
		Physics: PhysicsConfig{
			Alpha:                0.3,
			AlphaMin:             0.001,
			AlphaDecay:           0.05,
			VelocityDecay:        0.4,
			LinkDistance:         30,
			CenterStrength:       0.02,
			ClusterCollideRadius: 20,
			ItemCollideRadius:    8,
			DragReheat:           0.3,
			Seed:                 1,
			MaxTicks:             1000,
		},
		Render: RenderConfig{
			ClusterRadius:  15,
			ItemRadius:     5,
			EdgeOpacity:    0.3,
			ClusterOpacity: 0.9,
			ItemOpacity:    0.6,
			Repaint:        "always",
			FrameRate:      60,
		},
		Interact: InteractConfig{
			HoverTolerance:   5,
			MinScale:         0.1,
			MaxScale:         8,
			WheelSensitivity: 0.002,
			OpenModifier:     "ctrl+meta",
		},
		UI:       UIConfig{Color: true},
		Parallel: ParallelConfig{Concurrency: 4},
	}
}

// Normalize clamps out-of-range values back to something usable.
func (c *Config) Normalize() {
	d := Default()
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = d.Canvas.Width
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = d.Canvas.Height
	}
	c.Graph.Density = max(1, min(100, c.Graph.Density))
	if c.Graph.Neighbors <= 0 {
		c.Graph.Neighbors = d.Graph.Neighbors
	}
	c.Physics.AlphaDecay = clamp(c.Physics.AlphaDecay, 0, 1)
	c.Physics.VelocityDecay = clamp(c.Physics.VelocityDecay, 0, 1)
	if c.Physics.AlphaMin <= 0 {
		c.Physics.AlphaMin = d.Physics.AlphaMin
	}
	if c.Physics.MaxTicks <= 0 {
		c.Physics.MaxTicks = d.Physics.MaxTicks
	}
	if c.Render.Repaint != "always" && c.Render.Repaint != "dirty" {
		c.Render.Repaint = d.Render.Repaint
	}
	if c.Render.FrameRate <= 0 {
		c.Render.FrameRate = d.Render.FrameRate
	}
	if c.Interact.MinScale <= 0 {
		c.Interact.MinScale = d.Interact.MinScale
	}
	if c.Interact.MaxScale < c.Interact.MinScale {
		c.Interact.MaxScale = math.Max(d.Interact.MaxScale, c.Interact.MinScale)
	}
	if c.Parallel.Concurrency <= 0 {
		c.Parallel.Concurrency = 1
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ConfigDir returns the clustermap config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clustermap")
}

// Path returns the user config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config file and then the nearest project file on top
// of the defaults. Missing or unreadable files are skipped.
func Load() *Config {
	cfg := Default()
	if data, err := os.ReadFile(Path()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}
	if p := findProjectConfig(); p != "" {
		if data, err := os.ReadFile(p); err == nil {
			_ = toml.Unmarshal(data, cfg)
		}
	}
	cfg.Normalize()
	return cfg
}

// LoadFile reads an explicit config file on top of the defaults. Unlike Load,
// errors are returned.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// findProjectConfig walks up from the working directory looking for ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
