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

package frame

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
)

func newTestParser(strict bool) (*Parser, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewParser(DefaultTable(strict), zerolog.New(&buf)), &buf
}

func TestParseAudioCommands(t *testing.T) {
	p, _ := newTestParser(false)

	tests := []struct {
		frame string
		want  core.Kind
	}{
		{"CMD audio:stop", core.KindStop},
		{"CMD audio:skip", core.KindSkip},
		{"CMD audio:start", core.KindStart},
	}
	for _, tt := range tests {
		cmd := p.Parse([]byte(tt.frame))
		assert.Equal(t, tt.want, cmd.Kind, tt.frame)
		assert.Equal(t, "audio", cmd.Domain, tt.frame)
	}
}

// Unknown audio actions fall back to Start by default. This reproduces the
// behaviour devices in the field already rely on.
func TestParseAudioUnknownActionFallsBackToStart(t *testing.T) {
	p, buf := newTestParser(false)

	for _, frame := range []string{"CMD audio:garbage", "CMD audio:", "CMD audio:STOP", "CMD audio:skip "} {
		cmd := p.Parse([]byte(frame))
		assert.Equal(t, core.KindStart, cmd.Kind, frame)
	}
	assert.NotContains(t, buf.String(), `"level":"warn"`)
}

// With the strict policy unknown audio actions are rejected instead.
func TestParseAudioUnknownActionIgnoredWhenStrict(t *testing.T) {
	p, buf := newTestParser(true)

	assert.True(t, p.Parse([]byte("CMD audio:garbage")).IsNoOp())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Equal(t, core.KindStart, p.Parse([]byte("CMD audio:start")).Kind)
	assert.Equal(t, core.KindStop, p.Parse([]byte("CMD audio:stop")).Kind)
}

func TestParseRejectsFramesWithoutMarker(t *testing.T) {
	for _, frame := range []string{"HTTP/1.1 200 OK", "cmd audio:stop", "CM", " CMD audio:stop", "audio:stop"} {
		p, buf := newTestParser(false)
		cmd := p.Parse([]byte(frame))
		assert.True(t, cmd.IsNoOp(), frame)
		assert.Contains(t, buf.String(), "unable to parse frame", frame)
	}
}

func TestParseUnregisteredDomainIsSilent(t *testing.T) {
	p, buf := newTestParser(false)

	cmd := p.Parse([]byte("CMD lights:on"))
	assert.True(t, cmd.IsNoOp())
	assert.Empty(t, buf.String())
}

func TestParseMalformedBody(t *testing.T) {
	p, buf := newTestParser(false)

	assert.True(t, p.Parse([]byte("CMD audio")).IsNoOp())
	assert.True(t, p.Parse([]byte("CMD")).IsNoOp())
	assert.Contains(t, buf.String(), "no domain separator")
}

func TestParseUsesRegisteredDomains(t *testing.T) {
	table := NewTable()
	table.Add("video", func(action string) (core.Command, error) {
		return core.Command{Domain: "video", Action: action, Kind: core.KindSkip}, nil
	})
	p := NewParser(table, zerolog.Nop())

	assert.Equal(t, core.KindSkip, p.Parse([]byte("CMD video:next")).Kind)
	assert.True(t, p.Parse([]byte("CMD audio:stop")).IsNoOp(), "audio is not registered in this table")
}
