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

package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
)

const (
	DefaultBuffer  = 64
	publishTimeout = 5 * time.Second
)

// Relay queues engine events and fans them out to the healthy sinks of a
// registry on a single goroutine. Notify never blocks the engine.
type Relay struct {
	registry *Registry
	events   chan core.Event
	logger   zerolog.Logger
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewRelay(registry *Registry, buffer int, logger zerolog.Logger) *Relay {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	r := &Relay{
		registry: registry,
		events:   make(chan core.Event, buffer),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Relay) Notify(evt core.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.events <- evt:
	default:
		metrics.TelemetryDroppedTotal.Inc()
		r.logger.Warn().Str("event_type", string(evt.Type)).Msg("telemetry buffer full, dropping event")
	}
}

func (r *Relay) run() {
	defer close(r.done)
	for evt := range r.events {
		for _, s := range r.registry.Healthy() {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err := s.Publish(ctx, evt)
			cancel()
			metrics.ObserveTelemetry(s.Name(), err)
			if err != nil {
				r.logger.Warn().
					Err(err).
					Str(logging.FieldSink, s.Name()).
					Str("event_type", string(evt.Type)).
					Msg("telemetry publish failed")
			}
		}
	}
}

// Close stops accepting events and waits until queued events are delivered.
func (r *Relay) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}
