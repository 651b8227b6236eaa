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

package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

const waitTimeout = 10 * time.Second

var errTimeout = errors.New("mqtt operation timed out")

type Sink struct {
	name     string
	broker   string
	topic    string
	clientID string
	client   mqtt.Client
	logger   zerolog.Logger
}

func New(name, broker, topic, clientID string, logger zerolog.Logger) *Sink {
	if clientID == "" {
		clientID = "loftili-telemetry-" + name
	}
	return &Sink{
		name:     name,
		broker:   broker,
		topic:    topic,
		clientID: clientID,
		logger:   logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "mqtt" }

func (s *Sink) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(waitTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn().Err(err).Str("name", s.name).Msg("mqtt sink connection lost")
		})

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.broker, err)
	}
	s.client = client
	s.logger.Info().Str("name", s.name).Str("broker", s.broker).Str("topic", s.topic).Msg("mqtt sink connected")
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.Event) error {
	if s.client == nil {
		return core.ErrNotConnected
	}
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	return wait(s.client.Publish(s.topic, 1, false, data))
}

func (s *Sink) Close(ctx context.Context) error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}

func wait(tok mqtt.Token) error {
	if !tok.WaitTimeout(waitTimeout) {
		return errTimeout
	}
	return tok.Error()
}
