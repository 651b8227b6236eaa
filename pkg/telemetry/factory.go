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

package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/pkg/config"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/sizethree/loftili.core/pkg/telemetry/amqp"
	"github.com/sizethree/loftili.core/pkg/telemetry/kafka"
	"github.com/sizethree/loftili.core/pkg/telemetry/mqtt"
	"github.com/sizethree/loftili.core/pkg/telemetry/rabbitmq"
	"github.com/sizethree/loftili.core/pkg/telemetry/redis"
	"github.com/sizethree/loftili.core/pkg/telemetry/solace"
)

// NewSink builds the sink described by cfg. Required keys depend on the type.
func NewSink(cfg config.SinkConfig, logger zerolog.Logger) (core.Sink, error) {
	logger = logger.With().Str(logging.FieldSinkType, cfg.Type).Logger()
	get := func(key string) (string, error) {
		v := cfg.Config[key]
		if v == "" {
			return "", fmt.Errorf("%w: sink %s (%s) requires %q", core.ErrInvalidConfig, cfg.Name, cfg.Type, key)
		}
		return v, nil
	}

	switch cfg.Type {
	case "kafka":
		brokers, err := get("brokers")
		if err != nil {
			return nil, err
		}
		topic, err := get("topic")
		if err != nil {
			return nil, err
		}
		return kafka.New(cfg.Name, strings.Split(brokers, ","), topic, logger), nil

	case "rabbitmq":
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		queue, err := get("queue")
		if err != nil {
			return nil, err
		}
		return rabbitmq.New(cfg.Name, url, queue, logger), nil

	case "amqp":
		url, err := get("url")
		if err != nil {
			return nil, err
		}
		address, err := get("address")
		if err != nil {
			return nil, err
		}
		return amqp.New(cfg.Name, url, address, logger), nil

	case "solace":
		host, err := get("host")
		if err != nil {
			return nil, err
		}
		topic, err := get("topic")
		if err != nil {
			return nil, err
		}
		return solace.New(cfg.Name, solace.Options{
			Host:     host,
			VPN:      cfg.Config["vpn"],
			Username: cfg.Config["username"],
			Password: cfg.Config["password"],
			Topic:    topic,
		}, logger), nil

	case "mqtt":
		broker, err := get("broker")
		if err != nil {
			return nil, err
		}
		topic, err := get("topic")
		if err != nil {
			return nil, err
		}
		return mqtt.New(cfg.Name, broker, topic, cfg.Config["client_id"], logger), nil

	case "redis":
		addr, err := get("addr")
		if err != nil {
			return nil, err
		}
		opts := redis.Options{
			Addr:     addr,
			Password: cfg.Config["password"],
			Stream:   cfg.Config["stream"],
		}
		if v := cfg.Config["db"]; v != "" {
			if opts.DB, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%w: sink %s db %q", core.ErrInvalidConfig, cfg.Name, v)
			}
		}
		if v := cfg.Config["maxlen"]; v != "" {
			if opts.MaxLen, err = strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("%w: sink %s maxlen %q", core.ErrInvalidConfig, cfg.Name, v)
			}
		}
		return redis.New(cfg.Name, opts, logger), nil

	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSink, cfg.Type)
	}
}

// Build registers a sink for every configured entry. Nothing is connected yet.
func Build(cfg config.TelemetryConfig, logger zerolog.Logger) (*Registry, error) {
	logger = logging.WithComponent(logger, "telemetry")
	reg := NewRegistry(logger)
	for _, sc := range cfg.Sinks {
		s, err := NewSink(sc, logger)
		if err != nil {
			return nil, err
		}
		reg.Register(s)
	}
	return reg, nil
}
