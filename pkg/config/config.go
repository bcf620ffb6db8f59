package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultBackend   = BackendRecord
	DefaultGravity   = 9.81
	DefaultMeshCells = 48
)

// Physics backend names.
const (
	BackendRecord = "record"
	BackendPlanar = "planar"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Joints  JointConfig   `yaml:"joints"`
	Physics PhysicsConfig `yaml:"physics"`
	Mesh    MeshConfig    `yaml:"mesh"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JointConfig struct {
	TwistSpring float64 `yaml:"twist_spring"`
	TwistDamper float64 `yaml:"twist_damper"`
}

type PhysicsConfig struct {
	Backend string  `yaml:"backend"`
	Gravity float64 `yaml:"gravity"`
}

type MeshConfig struct {
	Cells int `yaml:"cells"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Joints: JointConfig{
			TwistSpring: connect.DefaultTwistSpring,
			TwistDamper: connect.DefaultTwistDamper,
		},
		Physics: PhysicsConfig{
			Backend: DefaultBackend,
			Gravity: DefaultGravity,
		},
		Mesh: MeshConfig{
			Cells: DefaultMeshCells,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Physics.Backend {
	case BackendRecord, BackendPlanar:
	default:
		return fmt.Errorf("unknown physics backend %q", c.Physics.Backend)
	}
	if c.Joints.TwistSpring < 0 || c.Joints.TwistDamper < 0 {
		return errors.New("joint spring and damper must not be negative")
	}
	if c.Mesh.Cells <= 0 {
		return errors.New("mesh cells must be positive")
	}
	return nil
}

func (c *Config) JointConfig() connect.JointConfig {
	return connect.JointConfig{
		TwistSpring: c.Joints.TwistSpring,
		TwistDamper: c.Joints.TwistDamper,
	}
}
