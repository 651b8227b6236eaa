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
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sizethree/loftili.core/pkg/core"
)

// WebSocket carries the command stream over a websocket. Every inbound text
// message is one frame; outbound requests are sent as text messages.
type WebSocket struct {
	opts    Options
	conn    *websocket.Conn
	pending []byte
}

func NewWebSocket(opts Options) *WebSocket {
	return &WebSocket{opts: opts}
}

func (w *WebSocket) url() string {
	u := url.URL{Scheme: w.opts.Protocol, Host: w.opts.address(), Path: w.opts.Path}
	return u.String()
}

func (w *WebSocket) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: w.opts.DialTimeout,
		TLSClientConfig: &tls.Config{
			ServerName:         w.opts.Host,
			InsecureSkipVerify: w.opts.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		},
	}
	conn, _, err := dialer.DialContext(ctx, w.url(), nil)
	if err != nil {
		return fmt.Errorf("ws dial %s: %w", w.url(), err)
	}
	w.conn = conn
	w.opts.Logger.Debug().Str("url", w.url()).Msg("websocket transport connected")
	return nil
}

// Read returns the buffered message followed by a newline, reading the next
// message once the buffer is drained.
func (w *WebSocket) Read(p []byte) (int, error) {
	if w.conn == nil {
		return 0, core.ErrNotConnected
	}
	if len(w.pending) == 0 {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.pending = append(msg, '\n')
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if w.conn == nil {
		return 0, core.ErrNotConnected
	}
	if w.opts.WriteTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout)); err != nil {
			return 0, err
		}
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocket) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
