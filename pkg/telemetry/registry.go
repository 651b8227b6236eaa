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
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/pkg/core"
)

// Registry holds the configured telemetry sinks and whether each one
// connected.
type Registry struct {
	sinks   map[string]core.Sink
	healthy map[string]bool
	logger  zerolog.Logger
	mu      sync.RWMutex
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		sinks:   make(map[string]core.Sink),
		healthy: make(map[string]bool),
		logger:  logger,
	}
}

func (r *Registry) Register(s core.Sink) {
	r.mu.Lock()
	r.sinks[s.Name()] = s
	r.mu.Unlock()
	r.logger.Info().
		Str(logging.FieldSink, s.Name()).
		Str(logging.FieldSinkType, s.Type()).
		Msg("registered telemetry sink")
}

func (r *Registry) Sinks() map[string]core.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]core.Sink, len(r.sinks))
	for k, v := range r.sinks {
		cp[k] = v
	}
	return cp
}

// ConnectAll connects every sink and returns how many succeeded. A sink that
// fails to connect stays registered but receives no events.
func (r *Registry) ConnectAll(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	connected := 0
	for name, s := range r.sinks {
		if err := s.Connect(ctx); err != nil {
			r.logger.Error().Err(err).Str(logging.FieldSink, name).Msg("telemetry sink connect failed")
			r.healthy[name] = false
			continue
		}
		r.healthy[name] = true
		connected++
	}
	return connected
}

func (r *Registry) IsHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthy[name]
}

// Healthy returns the connected sinks ordered by name.
func (r *Registry) Healthy() []core.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Sink, 0, len(r.sinks))
	for name, s := range r.sinks {
		if r.healthy[name] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *Registry) CloseAll(ctx context.Context) {
	for name, s := range r.Sinks() {
		r.logger.Info().Str(logging.FieldSink, name).Msg("closing telemetry sink")
		if err := s.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Str(logging.FieldSink, name).Msg("telemetry sink close failed")
		}
	}
}
