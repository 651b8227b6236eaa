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
	"encoding/json"
	"time"
)

// State is the lifecycle state of the command channel.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateErrored
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateErrored:
		return "errored"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Kind selects which capability call a Command performs.
type Kind int

const (
	KindNoOp Kind = iota
	KindStart
	KindStop
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	case KindSkip:
		return "skip"
	default:
		return "noop"
	}
}

// Command is one decoded frame. It is created per frame and discarded after
// dispatch.
type Command struct {
	Domain string
	Action string
	Kind   Kind
}

// NoOp is the command produced for frames that carry nothing to execute.
var NoOp = Command{Kind: KindNoOp}

func (c Command) IsNoOp() bool {
	return c.Kind == KindNoOp
}

type EventType string

const (
	EventTypeState      EventType = "state"
	EventTypeCommand    EventType = "command"
	EventTypeRetry      EventType = "retry"
	EventTypeTerminated EventType = "terminated"
)

// Event is a telemetry record describing something the engine did.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Serial    string    `json:"serial"`
	Epoch     string    `json:"epoch,omitempty"`
	State     string    `json:"state,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	Action    string    `json:"action,omitempty"`
	Retries   int       `json:"retries"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventContentType is the media type of an encoded Event.
const EventContentType = "application/json"

// Encode renders the event as every telemetry sink ships it.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
