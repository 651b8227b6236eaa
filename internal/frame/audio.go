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
	"errors"
	"fmt"

	"github.com/sizethree/loftili.core/pkg/core"
)

const DomainAudio = "audio"

var ErrUnknownAction = errors.New("unknown action")

// AudioHandler builds audio commands. "stop" and "skip" match exactly. Any
// other action yields Start unless strict is set, in which case only "start"
// does and everything else is rejected.
func AudioHandler(strict bool) DomainHandler {
	return func(action string) (core.Command, error) {
		cmd := core.Command{Domain: DomainAudio, Action: action}
		switch action {
		case "stop":
			cmd.Kind = core.KindStop
		case "skip":
			cmd.Kind = core.KindSkip
		case "start":
			cmd.Kind = core.KindStart
		default:
			if strict {
				return core.NoOp, fmt.Errorf("%w: audio:%s", ErrUnknownAction, action)
			}
			cmd.Kind = core.KindStart
		}
		return cmd, nil
	}
}

// DefaultTable registers every domain the device understands.
func DefaultTable(strictAudio bool) *Table {
	t := NewTable()
	t.Add(DomainAudio, AudioHandler(strictAudio))
	return t
}
