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
	"errors"
	"sync"
	"testing"

	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayback struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingPlayback) record(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	return r.err
}

func (r *recordingPlayback) Start(context.Context) error { return r.record("start") }
func (r *recordingPlayback) Stop(context.Context) error  { return r.record("stop") }
func (r *recordingPlayback) Skip(context.Context) error  { return r.record("skip") }

func TestExecuteCallsCapabilityOnce(t *testing.T) {
	tests := []struct {
		kind core.Kind
		want string
	}{
		{core.KindStart, "start"},
		{core.KindStop, "stop"},
		{core.KindSkip, "skip"},
	}
	for _, tt := range tests {
		pb := &recordingPlayback{}
		d := New(&core.Capabilities{Playback: pb})

		require.NoError(t, d.Execute(context.Background(), core.Command{Domain: "audio", Kind: tt.kind}))
		assert.Equal(t, []string{tt.want}, pb.calls)
	}
}

func TestExecuteNoOpHasNoSideEffect(t *testing.T) {
	pb := &recordingPlayback{}
	d := New(&core.Capabilities{Playback: pb})

	assert.NoError(t, d.Execute(context.Background(), core.NoOp))
	assert.Empty(t, pb.calls)
}

func TestExecuteWithoutPlayback(t *testing.T) {
	d := New(nil)
	assert.NoError(t, d.Execute(context.Background(), core.Command{Domain: "audio", Kind: core.KindStart}))
}

func TestExecutePreservesOrder(t *testing.T) {
	pb := &recordingPlayback{}
	d := New(&core.Capabilities{Playback: pb})

	kinds := []core.Kind{core.KindStart, core.KindSkip, core.KindSkip, core.KindStop, core.KindStart}
	for _, k := range kinds {
		require.NoError(t, d.Execute(context.Background(), core.Command{Kind: k}))
	}
	assert.Equal(t, []string{"start", "skip", "skip", "stop", "start"}, pb.calls)
}

func TestExecuteReturnsCapabilityError(t *testing.T) {
	boom := errors.New("output device busy")
	pb := &recordingPlayback{err: boom}
	d := New(&core.Capabilities{Playback: pb})

	err := d.Execute(context.Background(), core.Command{Kind: core.KindStop})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"stop"}, pb.calls, "failed calls are not retried")
}
