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

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

const DefaultStream = "loftili:events"

type Options struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// Sink appends events to a redis stream.
type Sink struct {
	name   string
	opts   Options
	client *redis.Client
	logger zerolog.Logger
}

func New(name string, opts Options, logger zerolog.Logger) *Sink {
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	return &Sink{name: name, opts: opts, logger: logger}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "redis" }

func (s *Sink) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     s.opts.Addr,
		Password: s.opts.Password,
		DB:       s.opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis connection failed: %w", err)
	}
	s.client = client
	s.logger.Info().Str("name", s.name).Str("stream", s.opts.Stream).Msg("redis sink connected")
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.Event) error {
	if s.client == nil {
		return core.ErrNotConnected
	}
	data, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.opts.Stream,
		MaxLen: s.opts.MaxLen,
		Values: map[string]any{
			"type":  string(evt.Type),
			"event": data,
		},
	}).Err()
}

func (s *Sink) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
