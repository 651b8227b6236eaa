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

import "context"

// Transport is a duplex byte connection to the command server. Implementations
// allow one concurrent reader and one concurrent writer.
type Transport interface {
	Connect(ctx context.Context) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Playback is the audio capability commands act on.
type Playback interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Skip(ctx context.Context) error
}

// Capabilities is the fixed set of device subsystems available to commands.
// It is populated before the engine starts and never mutated afterwards.
type Capabilities struct {
	Playback Playback
}

// Sink receives telemetry events.
type Sink interface {
	Name() string
	Type() string
	Connect(ctx context.Context) error
	Publish(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Notifier accepts telemetry events without blocking the caller.
type Notifier interface {
	Notify(evt Event)
}
