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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sizethree/loftili.core/pkg/core"
)

var (
	EngineState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loftili_engine_state",
		Help: "Current command channel state (1 for the active state)",
	}, []string{"state"})

	EngineRetries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loftili_engine_retries",
		Help: "Consecutive stream failures since the last dispatched command",
	})

	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loftili_commands_total",
		Help: "Commands dispatched by kind",
	}, []string{"kind"})

	DispatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loftili_dispatch_errors_total",
		Help: "Capability calls that returned an error, by kind",
	}, []string{"kind"})

	FramesRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loftili_frames_rejected_total",
		Help: "Frames that did not carry the CMD marker or were malformed",
	})

	KeepAlivePingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loftili_keepalive_pings_total",
		Help: "Keep-alive pings by result",
	}, []string{"result"})

	SubscribeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loftili_subscribe_total",
		Help: "Subscribe attempts by result",
	}, []string{"result"})

	TelemetryEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loftili_telemetry_events_total",
		Help: "Telemetry events published by sink and result",
	}, []string{"sink", "result"})

	TelemetryDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loftili_telemetry_dropped_total",
		Help: "Telemetry events dropped because the relay buffer was full",
	})
)

var allStates = []core.State{core.StateIdle, core.StateReading, core.StateErrored, core.StateTerminated}

// SetState marks s as the active engine state.
func SetState(s core.State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		EngineState.WithLabelValues(st.String()).Set(v)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveSubscribe(err error) {
	SubscribeTotal.WithLabelValues(result(err)).Inc()
}

func ObservePing(err error) {
	KeepAlivePingsTotal.WithLabelValues(result(err)).Inc()
}

func ObserveTelemetry(sink string, err error) {
	TelemetryEventsTotal.WithLabelValues(sink, result(err)).Inc()
}
