package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/session"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTickPeriod   = 50 * time.Millisecond
	DefaultAutoDuration = 30 * time.Second
	DefaultPoolSize     = 3
	DefaultQueueSize    = 64
	DefaultDeadzone     = 0.7
	DefaultAddr         = ":8080"
	DefaultPath         = "/ws"

	envPrefix = "PIMSIM"
)

type Config struct {
	TickPeriod   time.Duration `yaml:"tick_period" mapstructure:"tick_period"`
	AutoDuration time.Duration `yaml:"auto_duration" mapstructure:"auto_duration"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	QueueSize    int           `yaml:"queue_size" mapstructure:"queue_size"`
	Deadzone     float64       `yaml:"deadzone" mapstructure:"deadzone"`
	Layout       string        `yaml:"layout" mapstructure:"layout"`
	Field        FieldConfig   `yaml:"field" mapstructure:"field"`
	Robot        RobotConfig   `yaml:"robot" mapstructure:"robot"`
	Server       ServerConfig  `yaml:"server" mapstructure:"server"`
	Log          LogConfig     `yaml:"log" mapstructure:"log"`
	Influx       InfluxConfig  `yaml:"influx" mapstructure:"influx"`
}

type FieldConfig struct {
	Width  float64 `yaml:"width" mapstructure:"width"`
	Height float64 `yaml:"height" mapstructure:"height"`
}

type RobotConfig struct {
	Type string  `yaml:"type" mapstructure:"type"`
	X    float64 `yaml:"x" mapstructure:"x"`
	Y    float64 `yaml:"y" mapstructure:"y"`
	Dir  string  `yaml:"dir" mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Path string `yaml:"path" mapstructure:"path"`
}

// InfluxConfig enables the per-tick sink when URL is set.
type InfluxConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Token  string `yaml:"token" mapstructure:"token"`
	Org    string `yaml:"org" mapstructure:"org"`
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

type LogConfig struct {
	Level   string `yaml:"level" mapstructure:"level"`
	File    string `yaml:"file" mapstructure:"file"`
	Graylog string `yaml:"graylog" mapstructure:"graylog"`
}

func DefaultConfig() *Config {
	return &Config{
		TickPeriod:   DefaultTickPeriod,
		AutoDuration: DefaultAutoDuration,
		PoolSize:     DefaultPoolSize,
		QueueSize:    DefaultQueueSize,
		Deadzone:     DefaultDeadzone,
		Layout:       "empty",
		Field:        FieldConfig{Width: field.DefaultWidth, Height: field.DefaultHeight},
		Robot: RobotConfig{
			Type: robot.DefaultType,
			X:    robot.DefaultStartX,
			Y:    robot.DefaultStartY,
			Dir:  "left",
		},
		Server: ServerConfig{Addr: DefaultAddr, Path: DefaultPath},
		Log:    LogConfig{Level: "info"},
		Influx: InfluxConfig{Org: "pimsim", Bucket: "pimsim"},
	}
}

// settings flattens c into viper keys. Durations are kept as strings so a
// saved file stays readable.
func (c *Config) settings() map[string]any {
	return map[string]any{
		"tick_period":   c.TickPeriod.String(),
		"auto_duration": c.AutoDuration.String(),
		"pool_size":     c.PoolSize,
		"queue_size":    c.QueueSize,
		"deadzone":      c.Deadzone,
		"layout":        c.Layout,
		"field.width":   c.Field.Width,
		"field.height":  c.Field.Height,
		"robot.type":    c.Robot.Type,
		"robot.x":       c.Robot.X,
		"robot.y":       c.Robot.Y,
		"robot.dir":     c.Robot.Dir,
		"server.addr":   c.Server.Addr,
		"server.path":   c.Server.Path,
		"log.level":     c.Log.Level,
		"log.file":      c.Log.File,
		"log.graylog":   c.Log.Graylog,
		"influx.url":    c.Influx.URL,
		"influx.token":  c.Influx.Token,
		"influx.org":    c.Influx.Org,
		"influx.bucket": c.Influx.Bucket,
	}
}

// Load reads the config file at path over the defaults. PIMSIM_*
// environment variables override both, e.g. PIMSIM_SERVER_ADDR. An empty
// path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range DefaultConfig().settings() {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	nested := map[string]any{}
	for key, val := range cfg.settings() {
		m := nested
		parts := strings.Split(key, ".")
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]any)
			if !ok {
				sub = map[string]any{}
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = val
	}
	data, err := yaml.Marshal(nested)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick_period must be positive, got %v", c.TickPeriod)
	}
	if c.AutoDuration <= 0 {
		return fmt.Errorf("auto_duration must be positive, got %v", c.AutoDuration)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1, got %d", c.PoolSize)
	}
	if c.Deadzone < 0 || c.Deadzone >= 1 {
		return fmt.Errorf("deadzone must be in [0, 1), got %g", c.Deadzone)
	}
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return fmt.Errorf("field size must be positive, got %gx%g", c.Field.Width, c.Field.Height)
	}
	if _, ok := field.StartDirection(c.Robot.Dir); !ok {
		return fmt.Errorf("robot.dir: %q is not a valid starting direction", c.Robot.Dir)
	}
	if c.Influx.URL != "" && c.Influx.Bucket == "" {
		return fmt.Errorf("influx.bucket is required when influx.url is set")
	}
	return nil
}

// Session returns the session settings.
func (c *Config) Session() session.Config {
	return session.Config{
		TickPeriod:   c.TickPeriod,
		AutoDuration: c.AutoDuration,
		PoolSize:     c.PoolSize,
		QueueSize:    c.QueueSize,
		Deadzone:     c.Deadzone,
	}
}

// Start returns where the robot begins. A start position in the layout
// wins over the configured one.
func (c *Config) Start(l *field.Layout) robot.StartInfo {
	x, y, dir := c.Robot.X, c.Robot.Y, c.Robot.Dir
	if l != nil && l.Start != nil {
		x, y, dir = l.Start.X, l.Start.Y, l.Start.Dir
	}
	heading, _ := field.StartDirection(dir)
	return robot.StartInfo{X: x, Y: y, Dir: heading, Type: c.Robot.Type}
}

// NewField returns an empty field of the configured size.
func (c *Config) NewField() *field.Field {
	f := field.New()
	f.Width, f.Height = c.Field.Width, c.Field.Height
	return f
}
