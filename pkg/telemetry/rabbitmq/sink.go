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

package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

type Sink struct {
	name   string
	url    string
	queue  string
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger zerolog.Logger
}

func New(name, url, queue string, logger zerolog.Logger) *Sink {
	return &Sink{
		name:   name,
		url:    url,
		queue:  queue,
		logger: logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "rabbitmq" }

func (s *Sink) Connect(ctx context.Context) error {
	var err error
	s.conn, err = amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	s.ch, err = s.conn.Channel()
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := s.ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		s.conn.Close()
		return fmt.Errorf("rabbitmq queue declare %s: %w", s.queue, err)
	}
	s.logger.Info().Str("name", s.name).Str("queue", s.queue).Msg("rabbitmq sink connected")
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.Event) error {
	if s.ch == nil {
		return core.ErrNotConnected
	}
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	return s.ch.PublishWithContext(ctx,
		"",
		s.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: core.EventContentType,
			Body:        data,
			MessageId:   evt.ID,
			Timestamp:   evt.Timestamp,
			Type:        string(evt.Type),
		},
	)
}

func (s *Sink) Close(ctx context.Context) error {
	if s.ch != nil {
		s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
