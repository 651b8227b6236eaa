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

import "errors"

var (
	ErrSubscribe        = errors.New("subscribe failed")
	ErrResubscribe      = errors.New("resubscribe failed")
	ErrRetriesExhausted = errors.New("stream retries exhausted")
	ErrNotConnected     = errors.New("transport not connected")
	ErrNotReading       = errors.New("connection not reading")
	ErrKeepAlive        = errors.New("keep-alive write failed")
	ErrShortWrite       = errors.New("short write")
	ErrUnknownProtocol  = errors.New("unknown protocol")
	ErrUnknownSink      = errors.New("unknown sink type")
	ErrInvalidConfig    = errors.New("invalid config")
)
