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

package amqp

import (
	"context"
	"fmt"

	"github.com/Azure/go-amqp"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

// Sink sends events to an AMQP 1.0 broker address.
type Sink struct {
	name    string
	url     string
	address string
	conn    *amqp.Conn
	session *amqp.Session
	sender  *amqp.Sender
	logger  zerolog.Logger
}

func New(name, url, address string, logger zerolog.Logger) *Sink {
	return &Sink{
		name:    name,
		url:     url,
		address: address,
		logger:  logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "amqp" }

func (s *Sink) Connect(ctx context.Context) error {
	var err error
	s.conn, err = amqp.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	s.session, err = s.conn.NewSession(ctx, nil)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("amqp session: %w", err)
	}
	s.sender, err = s.session.NewSender(ctx, s.address, nil)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("amqp sender: %w", err)
	}
	s.logger.Info().Str("name", s.name).Str("address", s.address).Msg("amqp sink connected")
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.Event) error {
	if s.sender == nil {
		return core.ErrNotConnected
	}
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	contentType, subject := core.EventContentType, string(evt.Type)
	return s.sender.Send(ctx, &amqp.Message{
		Data: [][]byte{data},
		Properties: &amqp.MessageProperties{
			MessageID:   evt.ID,
			ContentType: &contentType,
			Subject:     &subject,
		},
	}, nil)
}

func (s *Sink) Close(ctx context.Context) error {
	if s.sender != nil {
		s.sender.Close(ctx)
	}
	if s.session != nil {
		s.session.Close(ctx)
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
