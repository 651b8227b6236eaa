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
	"strings"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
)

// Marker prefixes every command frame.
const Marker = "CMD"

const maxLoggedFrame = 64

// Parser decodes single frames of the form "CMD <domain>:<action>".
type Parser struct {
	table  *Table
	logger zerolog.Logger
}

func NewParser(table *Table, logger zerolog.Logger) *Parser {
	return &Parser{table: table, logger: logger}
}

// Parse never fails: frames that cannot be executed decode to core.NoOp.
// Frames for domains missing from the table are dropped without a warning.
func (p *Parser) Parse(frame []byte) core.Command {
	if !bytes.HasPrefix(frame, []byte(Marker)) {
		p.reject(frame, "frame is missing the command marker")
		return core.NoOp
	}

	var body string
	if len(frame) > len(Marker)+1 {
		body = string(frame[len(Marker)+1:])
	}

	domain, action, ok := strings.Cut(body, ":")
	if !ok {
		p.reject(frame, "frame has no domain separator")
		return core.NoOp
	}

	handler, ok := p.table.Lookup(domain)
	if !ok {
		return core.NoOp
	}

	cmd, err := handler(action)
	if err != nil {
		p.reject(frame, err.Error())
		return core.NoOp
	}

	p.logger.Info().
		Str(logging.FieldDomain, cmd.Domain).
		Str(logging.FieldKind, cmd.Kind.String()).
		Msg("received command")
	return cmd
}

func (p *Parser) reject(frame []byte, reason string) {
	metrics.FramesRejectedTotal.Inc()
	shown := frame
	if len(shown) > maxLoggedFrame {
		shown = shown[:maxLoggedFrame]
	}
	p.logger.Warn().
		Bytes(logging.FieldFrame, shown).
		Int(logging.FieldSize, len(frame)).
		Msg("unable to parse frame: " + reason)
}
