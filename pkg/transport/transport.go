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
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

// Options describe how to reach the command server.
type Options struct {
	Protocol           string
	Host               string
	Port               int
	Path               string
	DialTimeout        time.Duration
	WriteTimeout       time.Duration
	InsecureSkipVerify bool

	// MQTT only.
	TopicPrefix string
	Serial      string
	ClientID    string

	Logger zerolog.Logger
}

func (o Options) address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// New returns an unconnected transport for the protocol.
func New(opts Options) (core.Transport, error) {
	switch opts.Protocol {
	case "http":
		return NewTCP(opts, false), nil
	case "https":
		return NewTCP(opts, true), nil
	case "ws", "wss":
		return NewWebSocket(opts), nil
	case "mqtt", "mqtts":
		return NewMQTT(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProtocol, opts.Protocol)
	}
}

// shortWrite wraps a partial write.
func shortWrite(n, want int) error {
	return fmt.Errorf("%w: %d of %d bytes", core.ErrShortWrite, n, want)
}
