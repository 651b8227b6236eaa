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
	"net"
	"time"

	"github.com/sizethree/loftili.core/pkg/core"
)

// TCP is a raw socket transport, optionally wrapped in TLS.
type TCP struct {
	opts   Options
	secure bool
	conn   net.Conn
}

func NewTCP(opts Options, secure bool) *TCP {
	return &TCP{opts: opts, secure: secure}
}

func (t *TCP) Connect(ctx context.Context) error {
	d := &net.Dialer{Timeout: t.opts.DialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if t.secure {
		td := &tls.Dialer{
			NetDialer: d,
			Config: &tls.Config{
				ServerName:         t.opts.Host,
				InsecureSkipVerify: t.opts.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		}
		conn, err = td.DialContext(ctx, "tcp", t.opts.address())
	} else {
		conn, err = d.DialContext(ctx, "tcp", t.opts.address())
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.opts.address(), err)
	}

	t.conn = conn
	t.opts.Logger.Debug().
		Str("address", t.opts.address()).
		Bool("tls", t.secure).
		Msg("tcp transport connected")
	return nil
}

func (t *TCP) Read(p []byte) (int, error) {
	if t.conn == nil {
		return 0, core.ErrNotConnected
	}
	return t.conn.Read(p)
}

func (t *TCP) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, core.ErrNotConnected
	}
	if t.opts.WriteTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.opts.WriteTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := t.conn.Write(p)
	if err == nil && n != len(p) {
		err = shortWrite(n, len(p))
	}
	return n, err
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
