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

package core

import (
	"bytes"
	"fmt"
)

const (
	MethodSubscribe = "SUBSCRIBE"
	MethodGet       = "GET"
)

// Identity carries the values every outbound request presents to the server.
type Identity struct {
	Host         string
	TokenHeader  string
	Token        string
	SerialHeader string
	Serial       string
}

// Request is an outbound protocol message. It is rebuilt for every send.
type Request struct {
	Method   string
	Path     string
	Identity Identity
}

func NewRequest(method, path string, id Identity) Request {
	return Request{Method: method, Path: path, Identity: id}
}

// Bytes renders the request head. Header order is fixed.
func (r Request) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", r.Method, r.Path)
	b.WriteString("Connection: Keep-alive\r\n")
	fmt.Fprintf(&b, "Host: %s\r\n", r.Identity.Host)
	b.WriteString("Content-Length: 0\r\n")
	fmt.Fprintf(&b, "%s: %s\r\n", r.Identity.TokenHeader, r.Identity.Token)
	fmt.Fprintf(&b, "%s: %s\r\n", r.Identity.SerialHeader, r.Identity.Serial)
	b.WriteString("\r\n")
	return b.Bytes()
}
