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

package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/pkg/config"
	"github.com/sizethree/loftili.core/pkg/core"
)

const (
	BackendNone = "none"
	BackendMPD  = "mpd"
)

// New returns the playback capability for the configured backend, or nil
// when playback is disabled.
func New(cfg config.PlaybackConfig, logger zerolog.Logger) (core.Playback, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMPD:
		return NewMPD(cfg.MPD, logger), nil
	default:
		return nil, fmt.Errorf("%w: playback backend %q", core.ErrInvalidConfig, cfg.Backend)
	}
}

// MPD drives a Music Player Daemon. A connection is opened for every call,
// so a restarted daemon never leaves a stale client behind.
type MPD struct {
	cfg    config.MPDConfig
	logger zerolog.Logger
}

func NewMPD(cfg config.MPDConfig, logger zerolog.Logger) *MPD {
	return &MPD{cfg: cfg, logger: logging.WithComponent(logger, "mpd")}
}

func (m *MPD) Start(ctx context.Context) error {
	return m.do(ctx, "play", func(c *mpd.Client) error { return c.Play(-1) })
}

func (m *MPD) Stop(ctx context.Context) error {
	return m.do(ctx, "stop", func(c *mpd.Client) error { return c.Stop() })
}

func (m *MPD) Skip(ctx context.Context) error {
	return m.do(ctx, "next", func(c *mpd.Client) error { return c.Next() })
}

func (m *MPD) dial() (*mpd.Client, error) {
	c, err := mpd.Dial(m.cfg.Network, m.cfg.Address)
	if err != nil {
		return nil, err
	}
	if m.cfg.Password != "" {
		if err := c.Command("password %s", m.cfg.Password).OK(); err != nil {
			c.Close()
			return nil, fmt.Errorf("password auth failed: %w", err)
		}
	}
	return c, nil
}

func (m *MPD) do(ctx context.Context, op string, fn func(*mpd.Client) error) error {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		c, err := m.dial()
		if err != nil {
			done <- err
			return
		}
		defer c.Close()
		done <- fn(c)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("op", op).
			Str("address", m.cfg.Address).
			Msg("mpd command failed")
		return fmt.Errorf("mpd %s: %w", op, err)
	}
	m.logger.Debug().Str("op", op).Dur("took", time.Since(start)).Msg("mpd command")
	return nil
}
