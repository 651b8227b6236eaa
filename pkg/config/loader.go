// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sizethree/loftili.core/pkg/core"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL        = "https://api.loftili.com"
	DefaultSubscribePath = "/sockets/devices"
	DefaultKeepAlivePath = "/system"
	DefaultTokenHeader   = "X-Loftili-Device-Token"
	DefaultSerialHeader  = "X-Loftili-Device-Serial"
	DefaultLogFile       = "loftili.log"

	SerialLength = 40

	UnknownActionStart  = "start"
	UnknownActionIgnore = "ignore"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Device    DeviceConfig    `yaml:"device"`
	Engine    EngineConfig    `yaml:"engine"`
	Transport TransportConfig `yaml:"transport"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type APIConfig struct {
	URL           string `yaml:"url"`
	SubscribePath string `yaml:"subscribe_path"`
	KeepAlivePath string `yaml:"keepalive_path"`
	TokenHeader   string `yaml:"token_header"`
	SerialHeader  string `yaml:"serial_header"`
	TopicPrefix   string `yaml:"topic_prefix"`
}

type DeviceConfig struct {
	Serial string `yaml:"serial"`
	Token  string `yaml:"token"`
}

type EngineConfig struct {
	MaxRetries         int           `yaml:"max_retries"`
	Backoff            time.Duration `yaml:"backoff"`
	KeepAliveInterval  time.Duration `yaml:"keepalive_interval"`
	UnknownAudioAction string        `yaml:"unknown_audio_action"`
	SkipOnStart        bool          `yaml:"skip_on_start"`
}

type TransportConfig struct {
	DialTimeout        time.Duration `yaml:"dial_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	InsecureSkipVerify bool          `yaml:"tls_insecure_skip_verify"`
}

type PlaybackConfig struct {
	Backend string    `yaml:"backend"`
	MPD     MPDConfig `yaml:"mpd"`
}

type MPDConfig struct {
	Network  string        `yaml:"network"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	Buffer int          `yaml:"buffer"`
	Sinks  []SinkConfig `yaml:"sinks"`
}

type SinkConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:           DefaultAPIURL,
			SubscribePath: DefaultSubscribePath,
			KeepAlivePath: DefaultKeepAlivePath,
			TokenHeader:   DefaultTokenHeader,
			SerialHeader:  DefaultSerialHeader,
			TopicPrefix:   "loftili/devices",
		},
		Engine: EngineConfig{
			MaxRetries:         5,
			Backoff:            3 * time.Second,
			KeepAliveInterval:  time.Second,
			UnknownAudioAction: UnknownActionStart,
			SkipOnStart:        true,
		},
		Transport: TransportConfig{
			DialTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Playback: PlaybackConfig{
			Backend: "none",
			MPD: MPDConfig{
				Network: "tcp",
				Address: "localhost:6600",
				Timeout: 3 * time.Second,
			},
		},
		Telemetry: TelemetryConfig{Buffer: 64},
		Logging: LoggingConfig{
			Level: "info",
			File:  DefaultLogFile,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables already set are left alone.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays LOFTILI_* variables onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.API.URL, "LOFTILI_API_URL")
	set(&cfg.Device.Serial, "LOFTILI_SERIAL")
	set(&cfg.Device.Token, "LOFTILI_TOKEN")
	set(&cfg.Logging.Level, "LOFTILI_LOG_LEVEL")
	set(&cfg.Logging.File, "LOFTILI_LOG_FILE")
	set(&cfg.Metrics.Listen, "LOFTILI_METRICS_LISTEN")
	set(&cfg.Playback.Backend, "LOFTILI_PLAYBACK")
	set(&cfg.Playback.MPD.Address, "LOFTILI_MPD_ADDRESS")
	set(&cfg.Playback.MPD.Password, "LOFTILI_MPD_PASSWORD")
}

func (c *Config) Validate() error {
	if len(c.Device.Serial) != SerialLength {
		return fmt.Errorf("%w: serial must be %d characters, got %d", core.ErrInvalidConfig, SerialLength, len(c.Device.Serial))
	}
	ep, err := c.API.Resolve()
	if err != nil {
		return err
	}
	if len(ep.Hostname) < 5 {
		return fmt.Errorf("%w: invalid api host %q", core.ErrInvalidConfig, ep.Hostname)
	}
	if c.Engine.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", core.ErrInvalidConfig)
	}
	if c.Engine.Backoff <= 0 || c.Engine.KeepAliveInterval <= 0 {
		return fmt.Errorf("%w: backoff and keepalive_interval must be positive", core.ErrInvalidConfig)
	}
	switch c.Engine.UnknownAudioAction {
	case UnknownActionStart, UnknownActionIgnore:
	default:
		return fmt.Errorf("%w: unknown_audio_action %q", core.ErrInvalidConfig, c.Engine.UnknownAudioAction)
	}
	for _, s := range c.Telemetry.Sinks {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("%w: telemetry sink needs name and type", core.ErrInvalidConfig)
		}
	}
	return nil
}

// Identity returns the header values sent with every request.
func (c *Config) Identity() (core.Identity, error) {
	ep, err := c.API.Resolve()
	if err != nil {
		return core.Identity{}, err
	}
	return core.Identity{
		Host:         ep.Hostname,
		TokenHeader:  c.API.TokenHeader,
		Token:        c.Device.Token,
		SerialHeader: c.API.SerialHeader,
		Serial:       c.Device.Serial,
	}, nil
}
