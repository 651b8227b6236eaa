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

package kafka

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/sizethree/loftili.core/pkg/core"
)

type Sink struct {
	name    string
	brokers []string
	topic   string
	writer  *kafka.Writer
	logger  zerolog.Logger
}

func New(name string, brokers []string, topic string, logger zerolog.Logger) *Sink {
	return &Sink{
		name:    name,
		brokers: brokers,
		topic:   topic,
		logger:  logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "kafka" }

func (s *Sink) Connect(ctx context.Context) error {
	s.writer = &kafka.Writer{
		Addr:                   kafka.TCP(s.brokers...),
		Topic:                  s.topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	s.logger.Info().
		Str("name", s.name).
		Str("brokers", strings.Join(s.brokers, ",")).
		Str("topic", s.topic).
		Msg("kafka sink connected")
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.Event) error {
	if s.writer == nil {
		return core.ErrNotConnected
	}
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.Serial),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	})
}

func (s *Sink) Close(ctx context.Context) error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
