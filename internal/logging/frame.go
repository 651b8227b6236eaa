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

package logging

import (
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/pkg/core"
)

// FrameLogger records every frame read from the command stream.
type FrameLogger struct {
	logger zerolog.Logger
}

func NewFrameLogger(logger zerolog.Logger) *FrameLogger {
	return &FrameLogger{logger: logger}
}

func (f *FrameLogger) Log(epoch string, frame []byte, cmd core.Command) {
	f.logger.Debug().
		Str(FieldEpoch, epoch).
		Int(FieldSize, len(frame)).
		Str(FieldKind, cmd.Kind.String()).
		Str(FieldDomain, cmd.Domain).
		Str(FieldAction, cmd.Action).
		Msg("frame")
}
