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

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
)

// keepAlive pings the server while the epoch is reading. A failed ping moves
// the engine to Errored and signals the engine loop through ep.kaFailed.
func (e *Engine) keepAlive(ctx context.Context, ep *epoch) {
	defer close(ep.kaDone)

	ep.logger.Info().Msg("keep alive started, sending occasional pings to server")

	ticker := time.NewTicker(e.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		ping := core.NewRequest(core.MethodGet, e.cfg.KeepAlivePath, e.cfg.Identity).Bytes()
		err := ep.out.submit(ctx, ping, true)
		switch {
		case err == nil:
			metrics.ObservePing(nil)
		case errors.Is(err, core.ErrNotReading), errors.Is(err, errOutboxClosed), ctx.Err() != nil:
			return
		default:
			metrics.ObservePing(err)
			if ep.stopped() {
				return
			}
			ep.logger.Warn().Err(err).Msg("keep alive ping unable to write")
			e.transition(core.StateReading, core.StateErrored)
			close(ep.kaFailed)
			return
		}

		select {
		case <-ep.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if e.State() != core.StateReading {
			return
		}
	}
}
