// Package config loads the snapshot tool configuration.
//
// Values are layered: built-in defaults, an optional YAML file, environment
// variables and finally command line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects the frame acquisition strategy.
type Mode string

const (
	// ModeFFMPEG resolves a stream source and lets ffmpeg grab the frame.
	ModeFFMPEG Mode = "ffmpeg"
	// ModeStream reads the hub's MJPEG camera proxy stream directly.
	ModeStream Mode = "stream"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8123"
	DefaultOutput  = "/config/www/snapshots/ring_last_motion.jpg"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAccept    = "multipart/x-mixed-replace,image/jpeg,image/*;q=0.8,*/*;q=0.5"
)

var (
	// ErrMissingToken is returned when no bearer credential is configured.
	ErrMissingToken = errors.New("config: HA_TOKEN env var missing")
	// ErrInvalid wraps every other validation failure.
	ErrInvalid = errors.New("config: invalid configuration")
)

// Config is the root configuration.
type Config struct {
	Mode    Mode   `yaml:"mode"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`

	// Entity and Attribute default per mode when empty.
	Entity    string `yaml:"entity"`
	Attribute string `yaml:"attribute"`

	Output string `yaml:"output"`
	Width  uint   `yaml:"width"`
	Strict bool   `yaml:"strict"`

	// Timeout bounds the state request.
	Timeout  time.Duration `yaml:"timeout"`
	TokenTTL time.Duration `yaml:"token_ttl"`

	FFMPEG FFMPEGConfig `yaml:"ffmpeg"`
	Stream StreamConfig `yaml:"stream"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

// FFMPEGConfig contains the delegating acquirer settings.
type FFMPEGConfig struct {
	Binary   string        `yaml:"binary"`
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StreamConfig contains the streaming acquirer settings.
type StreamConfig struct {
	Attempts       int           `yaml:"attempts"`
	Delay          time.Duration `yaml:"delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Budget         time.Duration `yaml:"budget"`
	Fresh          time.Duration `yaml:"fresh"`
	ChunkSize      int           `yaml:"chunk_size"`
	MaxBuffer      int           `yaml:"max_buffer"`
	TailKeep       int           `yaml:"tail_keep"`
	UserAgent      string        `yaml:"user_agent"`
	Accept         string        `yaml:"accept"`
}

// MQTTConfig enables the snapshot notification when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:     ModeFFMPEG,
		BaseURL:  DefaultBaseURL,
		Output:   DefaultOutput,
		Timeout:  10 * time.Second,
		TokenTTL: 4 * time.Minute,
		FFMPEG: FFMPEGConfig{
			Binary:   "ffmpeg",
			Attempts: 3,
			Delay:    2 * time.Second,
			Timeout:  30 * time.Second,
		},
		Stream: StreamConfig{
			Attempts:       20,
			Delay:          2 * time.Second,
			ConnectTimeout: 30 * time.Second,
			Budget:         15 * time.Second,
			Fresh:          6 * time.Second,
			ChunkSize:      4096,
			MaxBuffer:      2000000,
			TailKeep:       2000,
			UserAgent:      defaultUserAgent,
			Accept:         defaultAccept,
		},
		MQTT: MQTTConfig{
			ClientID: "hasnatch",
			Topic:    "hasnatch/snapshot",
			QoS:      1,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment. An empty path only applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HA_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("HA_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("HASNATCH_MODE"); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	if v := os.Getenv("HASNATCH_ENTITY"); v != "" {
		c.Entity = v
	}
	if v := os.Getenv("HASNATCH_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("HASNATCH_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
}

// EntityID returns the configured entity or the default of the mode.
func (c *Config) EntityID() string {
	if c.Entity != "" {
		return c.Entity
	}
	if c.Mode == ModeStream {
		return "camera.front_door"
	}
	// the info sensor exposes the direct RTSP url, bypassing the hub proxy
	return "sensor.front_door_info"
}

// AttributeKey returns the configured attribute or the default of the mode.
func (c *Config) AttributeKey() string {
	if c.Attribute != "" {
		return c.Attribute
	}
	if c.Mode == ModeStream {
		return "access_token"
	}
	return "stream_Source"
}

// StreamHeaders returns the browser-like headers of stream requests.
func (c *Config) StreamHeaders() map[string]string {
	return map[string]string{
		"User-Agent": c.Stream.UserAgent,
		"Accept":     c.Stream.Accept,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}

	var errs []string
	switch c.Mode {
	case ModeFFMPEG, ModeStream:
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", c.Mode))
	}
	if c.BaseURL == "" {
		errs = append(errs, "base_url is empty")
	}
	if c.Output == "" {
		errs = append(errs, "output is empty")
	}
	if c.FFMPEG.Attempts < 1 || c.Stream.Attempts < 1 {
		errs = append(errs, "attempts must be at least 1")
	}
	if c.Stream.ChunkSize < 1 || c.Stream.MaxBuffer < 1 || c.Stream.TailKeep < 1 {
		errs = append(errs, "stream buffer sizes must be positive")
	}
	if c.Stream.TailKeep > c.Stream.MaxBuffer {
		errs = append(errs, "stream tail_keep exceeds max_buffer")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt qos must be 0, 1 or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}
