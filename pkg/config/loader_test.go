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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSerial = strings.Repeat("a", SerialLength)

func TestLoad(t *testing.T) {
	content := `
api:
  url: wss://commands.example.com:9443
device:
  serial: ` + testSerial + `
  token: secret
engine:
  max_retries: 7
  backoff: 500ms
  unknown_audio_action: ignore
  skip_on_start: false
telemetry:
  buffer: 16
  sinks:
    - name: audit
      type: kafka
      config:
        brokers: "localhost:9092"
        topic: device-events
metrics:
  listen: ":9110"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 7, cfg.Engine.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.Backoff)
	assert.Equal(t, time.Second, cfg.Engine.KeepAliveInterval, "unset keys keep defaults")
	assert.Equal(t, UnknownActionIgnore, cfg.Engine.UnknownAudioAction)
	assert.False(t, cfg.Engine.SkipOnStart)
	assert.Equal(t, DefaultSubscribePath, cfg.API.SubscribePath)
	require.Len(t, cfg.Telemetry.Sinks, 1)
	assert.Equal(t, "device-events", cfg.Telemetry.Sinks[0].Config["topic"])

	ep, err := cfg.API.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Hostname: "commands.example.com", Protocol: "wss", Port: 9443}, ep)
	assert.True(t, ep.Secure())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Engine.Backoff)
	assert.True(t, cfg.Engine.SkipOnStart)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path")
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOFTILI_TEST_ENVFILE_TOKEN=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOFTILI_TEST_ENVFILE_TOKEN") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("LOFTILI_TEST_ENVFILE_TOKEN"))
	assert.NoError(t, LoadEnvFile(""))
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LOFTILI_API_URL": "http://10.0.0.12:1337",
		"LOFTILI_SERIAL":  testSerial,
		"LOFTILI_TOKEN":   "tok",
	}
	cfg := Default()
	ApplyEnv(cfg, func(k string) string { return env[k] })

	assert.Equal(t, "http://10.0.0.12:1337", cfg.API.URL)
	assert.Equal(t, "tok", cfg.Device.Token)
	assert.Equal(t, "info", cfg.Logging.Level, "unset variables leave values alone")

	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.12", id.Host)
	assert.Equal(t, testSerial, id.Serial)
	assert.Equal(t, DefaultTokenHeader, id.TokenHeader)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short serial", func(c *Config) { c.Device.Serial = "abc" }},
		{"short host", func(c *Config) { c.API.URL = "https://a.b" }},
		{"zero retries", func(c *Config) { c.Engine.MaxRetries = 0 }},
		{"zero backoff", func(c *Config) { c.Engine.Backoff = 0 }},
		{"bad action policy", func(c *Config) { c.Engine.UnknownAudioAction = "skip" }},
		{"unnamed sink", func(c *Config) { c.Telemetry.Sinks = []SinkConfig{{Type: "kafka"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Device.Serial = testSerial
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
		})
	}
}

func TestResolveDefaultPorts(t *testing.T) {
	tests := []struct {
		url  string
		want Endpoint
	}{
		{"http://api.loftili.com", Endpoint{"api.loftili.com", "http", 80}},
		{"https://api.loftili.com", Endpoint{"api.loftili.com", "https", 443}},
		{"ws://api.loftili.com", Endpoint{"api.loftili.com", "ws", 80}},
		{"mqtt://broker.loftili.com", Endpoint{"broker.loftili.com", "mqtt", 1883}},
		{"mqtts://broker.loftili.com", Endpoint{"broker.loftili.com", "mqtts", 8883}},
	}
	for _, tt := range tests {
		got, err := APIConfig{URL: tt.url}.Resolve()
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}

	_, err := APIConfig{URL: "ftp://api.loftili.com"}.Resolve()
	assert.ErrorIs(t, err, core.ErrUnknownProtocol)

	_, err = APIConfig{URL: "http://api.loftili.com:99999"}.Resolve()
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
