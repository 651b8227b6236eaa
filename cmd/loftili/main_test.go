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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sizethree/loftili.core/pkg/config"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serial = strings.Repeat("f", config.SerialLength)

func noEnv(string) string { return "" }

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: 5 attempts", core.ErrRetriesExhausted)))
	assert.Equal(t, 1, exitCode(core.ErrResubscribe))
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loftili.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  url: http://file.example.com\ndevice:\n  token: from-file\n"), 0o600))

	env := map[string]string{"LOFTILI_TOKEN": "from-env", "LOFTILI_API_URL": "http://env.example.com"}
	cfg, err := loadConfig(flags{serial: serial, config: path, api: "https://flag.example.com:8443"}, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Device.Token)
	assert.Equal(t, "https://flag.example.com:8443", cfg.API.URL)
	assert.Equal(t, serial, cfg.Device.Serial)
}

func TestLoadConfigRejectsBadSerial(t *testing.T) {
	_, err := loadConfig(flags{serial: "short"}, noEnv)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestLoadConfigUnknownProtocol(t *testing.T) {
	_, err := loadConfig(flags{serial: serial, api: "gopher://loftili.example.com"}, noEnv)
	assert.ErrorIs(t, err, core.ErrUnknownProtocol)
}

func TestSubscribeCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- line
	}()

	cmd := newRootCmd(noEnv)
	cmd.SetArgs([]string{
		"subscribe",
		"-s", serial,
		"-a", "http://" + ln.Addr().String(),
		"-l", filepath.Join(t.TempDir(), "loftili.log"),
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "SUBSCRIBE /sockets/devices HTTP/1.1\r\n", <-got)
}

func TestRunTerminatesWhenServerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "loftili.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  skip_on_start: false\n"), 0o600))

	cmd := newRootCmd(noEnv)
	cmd.SetArgs([]string{"-s", serial, "-a", "http://" + addr, "-c", path, "-l", filepath.Join(dir, "loftili.log")})
	err = cmd.ExecuteContext(context.Background())
	assert.True(t, errors.Is(err, core.ErrSubscribe))
	assert.Equal(t, 1, exitCode(err))
}
