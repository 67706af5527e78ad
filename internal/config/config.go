package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Config represents the top-level logview configuration
type Config struct {
	Server  ServerConfig `yaml:"server" toml:"server"`
	Viewer  ViewerConfig `yaml:"viewer" toml:"viewer"`
	Index   IndexConfig  `yaml:"index" toml:"index"`
	Parser  ParserConfig `yaml:"parser" toml:"parser"`
	Input   InputConfig  `yaml:"input" toml:"input"`
	Log     LogConfig    `yaml:"log" toml:"log"`
	EnvFile string       `yaml:"env_file" toml:"env_file"`

	// Path is the file the configuration was loaded from, if any
	Path string `yaml:"-" toml:"-"`
}

// ServerConfig defines the HTTP server configuration
type ServerConfig struct {
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
	StaticDir string `yaml:"static_dir" toml:"static_dir"`
}

// ViewerConfig defines per-viewer limits and websocket timing
type ViewerConfig struct {
	MaxMessages  int    `yaml:"max_messages" toml:"max_messages"`
	LatestSize   *int   `yaml:"latest_size" toml:"latest_size"` // nil = default, 0 disables
	SendBuffer   int    `yaml:"send_buffer" toml:"send_buffer"`
	PingInterval string `yaml:"ping_interval" toml:"ping_interval"`
	WriteTimeout string `yaml:"write_timeout" toml:"write_timeout"`
}

// IndexConfig defines how records are indexed for filtering
type IndexConfig struct {
	Keys bool `yaml:"keys" toml:"keys"` // Index object keys as well as values
}

// ParserConfig selects the line parser
type ParserConfig struct {
	Name         string `yaml:"name" toml:"name"`
	ExpandNested bool   `yaml:"expand_nested" toml:"expand_nested"`
}

// InputConfig selects where log lines come from. With neither File nor
// Exec set, lines are read from stdin.
type InputConfig struct {
	File      string `yaml:"file" toml:"file"`
	FromStart bool   `yaml:"from_start" toml:"from_start"`
	ReOpen    bool   `yaml:"reopen" toml:"reopen"`
	Poll      bool   `yaml:"poll" toml:"poll"`
	Exec      string `yaml:"exec" toml:"exec"`
	Stdout    bool   `yaml:"stdout" toml:"stdout"` // Echo every line to stdout
}

// LogConfig defines the server's own logging
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json
}

// Default returns the configuration used when no file is present
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and parses a configuration file. The format is chosen by
// extension: .toml is TOML, anything else YAML. The env_file and
// LOGVIEW_* environment overrides are applied on top.
func Load(path string) (*Config, error) {
	// First check if file exists
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	// Check file permissions for security
	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}

	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path

	if err := c.applyEnvironment(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path, or the first config file found in the
// working directory when path is empty. With no file at all the
// defaults are used, still honoring LOGVIEW_* overrides.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		found, err := FindConfigFile()
		if err != nil {
			c := Default()
			if err := c.applyEnvironment(""); err != nil {
				return nil, err
			}
			return c, nil
		}
		path = found
	}
	return Load(path)
}

// Format is a configuration file format
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Parse parses configuration bytes, applies defaults and validates
func Parse(data []byte, format Format) (*Config, error) {
	var c Config
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	}

	c.applyDefaults()
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = constants.DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultPort
	}
	if c.Viewer.MaxMessages == 0 {
		c.Viewer.MaxMessages = constants.DefaultMaxMessages
	}
	if c.Viewer.LatestSize == nil {
		n := constants.DefaultLatestSize
		c.Viewer.LatestSize = &n
	}
	if c.Viewer.SendBuffer == 0 {
		c.Viewer.SendBuffer = constants.DefaultSendBuffer
	}
	if c.Parser.Name == "" {
		c.Parser.Name = "json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Latest returns the configured static "latest" buffer size
func (v ViewerConfig) Latest() int {
	if v.LatestSize == nil {
		return constants.DefaultLatestSize
	}
	return *v.LatestSize
}

// Ping returns the websocket ping interval
func (v ViewerConfig) Ping() time.Duration {
	return durationOr(v.PingInterval, constants.DefaultPingInterval)
}

// Write returns the websocket write timeout
func (v ViewerConfig) Write() time.Duration {
	return durationOr(v.WriteTimeout, constants.DefaultWriteTimeout)
}

// durationOr parses s, falling back to def when s is empty.
// Validate has already rejected unparsable values.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// InputDescription names the configured log input
func (c *Config) InputDescription() string {
	switch {
	case c.Input.Exec != "":
		return "exec: " + c.Input.Exec
	case c.Input.File != "":
		return "file: " + c.Input.File
	default:
		return "stdin"
	}
}
