package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the battle server configuration. Values are resolved in order:
// defaults, YAML file, environment, command line flags.
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		StaticDir    string        `yaml:"static_dir"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	WebSocket struct {
		ReadBufferSize  int           `yaml:"read_buffer_size"`
		WriteBufferSize int           `yaml:"write_buffer_size"`
		SendQueue       int           `yaml:"send_queue"`
		MaxMessageSize  int64         `yaml:"max_message_size"`
		WriteWait       time.Duration `yaml:"write_wait"`
		PongWait        time.Duration `yaml:"pong_wait"`
		PingPeriod      time.Duration `yaml:"ping_period"`
	} `yaml:"websocket"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Server.Port = 4000
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second

	c.WebSocket.ReadBufferSize = 1024
	c.WebSocket.WriteBufferSize = 1024
	c.WebSocket.SendQueue = 64
	c.WebSocket.MaxMessageSize = 8 * 1024
	c.WebSocket.WriteWait = 10 * time.Second
	c.WebSocket.PongWait = 60 * time.Second
	c.WebSocket.PingPeriod = 54 * time.Second

	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	// #nosec G304 - path comes from the operator's command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, c.Validate()
}

// ApplyEnv overrides values from PORT, STATIC_DIR, LOG_LEVEL and LOG_FORMAT.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.WebSocket.SendQueue <= 0 {
		return fmt.Errorf("websocket.send_queue must be positive")
	}
	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket.ping_period (%s) must be shorter than pong_wait (%s)",
			c.WebSocket.PingPeriod, c.WebSocket.PongWait)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ApplyFlags overrides values given on the command line. Zero values are ignored.
func (c *Config) ApplyFlags(port int, staticDir string) error {
	if port != 0 {
		c.Server.Port = port
	}
	if staticDir != "" {
		c.Server.StaticDir = staticDir
	}
	return c.Validate()
}
