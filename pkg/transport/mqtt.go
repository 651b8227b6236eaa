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

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/sizethree/loftili.core/pkg/core"
)

const DefaultTopicPrefix = "loftili/devices"

// CommandTopic is where the server publishes frames for a device.
func CommandTopic(prefix, serial string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + serial + "/commands"
}

// RequestTopic is where the device publishes its subscribe and keep-alive
// requests.
func RequestTopic(prefix, serial string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + serial + "/requests"
}

// inbox turns pushed messages into a byte stream with one newline-terminated
// frame per message.
type inbox struct {
	msgs    chan []byte
	errs    chan error
	closed  chan struct{}
	once    sync.Once
	pending []byte
}

func newInbox(size int) *inbox {
	return &inbox{
		msgs:   make(chan []byte, size),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

// push queues a copy of msg, blocking while the inbox is full. Messages
// pushed after close are dropped.
func (b *inbox) push(msg []byte) {
	select {
	case b.msgs <- append([]byte(nil), msg...):
	case <-b.closed:
	}
}

// fail makes the next read report err. Only the first pending error is kept.
func (b *inbox) fail(err error) {
	select {
	case b.errs <- err:
	default:
	}
}

func (b *inbox) close() {
	b.once.Do(func() { close(b.closed) })
}

func (b *inbox) Read(p []byte) (int, error) {
	if len(b.pending) == 0 {
		select {
		case msg := <-b.msgs:
			b.pending = append(msg, '\n')
		case err := <-b.errs:
			return 0, err
		case <-b.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

// MQTT carries the command stream over an MQTT v5 broker. Each message on the
// command topic is one frame.
type MQTT struct {
	opts Options

	cm     *autopaho.ConnectionManager
	cancel context.CancelFunc

	in   *inbox
	once sync.Once
}

func NewMQTT(opts Options) *MQTT {
	return &MQTT{opts: opts, in: newInbox(16)}
}

func (m *MQTT) Connect(ctx context.Context) error {
	scheme := "mqtt"
	if m.opts.Protocol == "mqtts" {
		scheme = "mqtts"
	}
	serverURL, err := url.Parse(fmt.Sprintf("%s://%s", scheme, m.opts.address()))
	if err != nil {
		return fmt.Errorf("mqtt invalid URL: %w", err)
	}

	clientID := m.opts.ClientID
	if clientID == "" {
		clientID = "loftili-" + uuid.New().String()[:8]
	}
	commands := CommandTopic(m.opts.TopicPrefix, m.opts.Serial)

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		TlsCfg: &tls.Config{
			ServerName:         m.opts.Host,
			InsecureSkipVerify: m.opts.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			m.opts.Logger.Debug().Str("client_id", clientID).Msg("mqtt connection up")
		},
		OnConnectError: func(err error) {
			m.opts.Logger.Debug().Err(err).Msg("mqtt connect attempt failed")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					if pr.Packet.Topic != commands {
						return false, nil
					}
					m.in.push(pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				m.in.fail(fmt.Errorf("mqtt client error: %w", err))
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				m.in.fail(fmt.Errorf("mqtt server disconnect: reason %d", d.ReasonCode))
			},
		},
	}

	connCtx, cancel := context.WithCancel(context.Background())
	cm, err := autopaho.NewConnection(connCtx, cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("mqtt connection: %w", err)
	}

	awaitCtx := ctx
	if m.opts.DialTimeout > 0 {
		var awaitCancel context.CancelFunc
		awaitCtx, awaitCancel = context.WithTimeout(ctx, m.opts.DialTimeout)
		defer awaitCancel()
	}
	if err := cm.AwaitConnection(awaitCtx); err != nil {
		cancel()
		<-cm.Done()
		return fmt.Errorf("mqtt await connection: %w", err)
	}

	if _, err := cm.Subscribe(awaitCtx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: commands, QoS: 1}},
	}); err != nil {
		cancel()
		<-cm.Done()
		return fmt.Errorf("mqtt subscribe %s: %w", commands, err)
	}

	m.cm, m.cancel = cm, cancel
	m.opts.Logger.Debug().Str("topic", commands).Msg("mqtt transport connected")
	return nil
}

func (m *MQTT) Read(p []byte) (int, error) {
	if m.cm == nil {
		return 0, core.ErrNotConnected
	}
	return m.in.Read(p)
}

func (m *MQTT) Write(p []byte) (int, error) {
	if m.cm == nil {
		return 0, core.ErrNotConnected
	}
	ctx := context.Background()
	if m.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.WriteTimeout)
		defer cancel()
	}
	if _, err := m.cm.Publish(ctx, &paho.Publish{
		Topic:   RequestTopic(m.opts.TopicPrefix, m.opts.Serial),
		QoS:     1,
		Payload: p,
	}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (m *MQTT) Close() error {
	var err error
	m.once.Do(func() {
		m.in.close()
		if m.cm == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = m.cm.Disconnect(ctx)
		m.cancel()
	})
	return err
}
