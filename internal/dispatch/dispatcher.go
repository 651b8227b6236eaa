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

package dispatch

import (
	"context"
	"fmt"

	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
)

// Dispatcher applies commands to the device capabilities. It is called from
// the engine goroutine only, so commands never run concurrently.
type Dispatcher struct {
	caps *core.Capabilities
}

func New(caps *core.Capabilities) *Dispatcher {
	if caps == nil {
		caps = &core.Capabilities{}
	}
	return &Dispatcher{caps: caps}
}

// Execute performs exactly one capability call for cmd. Errors returned by the
// capability are passed back unchanged. A missing capability makes the call
// a no-op.
func (d *Dispatcher) Execute(ctx context.Context, cmd core.Command) error {
	if cmd.IsNoOp() {
		return nil
	}

	pb := d.caps.Playback
	if pb == nil {
		return nil
	}

	var err error
	switch cmd.Kind {
	case core.KindStart:
		err = pb.Start(ctx)
	case core.KindStop:
		err = pb.Stop(ctx)
	case core.KindSkip:
		err = pb.Skip(ctx)
	default:
		return fmt.Errorf("unhandled command kind %d", cmd.Kind)
	}

	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
	if err != nil {
		metrics.DispatchErrorsTotal.WithLabelValues(cmd.Kind.String()).Inc()
	}
	return err
}
