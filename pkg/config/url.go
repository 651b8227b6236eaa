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

package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sizethree/loftili.core/pkg/core"
)

// Endpoint is the resolved location of the command server.
type Endpoint struct {
	Hostname string
	Protocol string
	Port     int
}

func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Hostname, e.Port)
}

// Secure reports whether the protocol runs over TLS.
func (e Endpoint) Secure() bool {
	switch e.Protocol {
	case "https", "wss", "mqtts":
		return true
	}
	return false
}

var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
	"mqtt":  1883,
	"mqtts": 8883,
}

// Resolve splits the api url into hostname, protocol and port.
func (a APIConfig) Resolve() (Endpoint, error) {
	u, err := url.Parse(a.URL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: api url: %v", core.ErrInvalidConfig, err)
	}
	def, ok := defaultPorts[u.Scheme]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", core.ErrUnknownProtocol, u.Scheme)
	}
	ep := Endpoint{Hostname: u.Hostname(), Protocol: u.Scheme, Port: def}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("%w: api port %q", core.ErrInvalidConfig, p)
		}
		ep.Port = port
	}
	return ep, nil
}
