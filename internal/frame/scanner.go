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
	"bufio"
	"io"
)

// MaxFrameSize bounds a single frame. Longer lines end the stream with
// bufio.ErrTooLong.
const MaxFrameSize = 64 * 1024

// Scanner splits a byte stream into newline terminated frames. A trailing
// carriage return is stripped and blank lines are skipped.
type Scanner struct {
	s *bufio.Scanner
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), MaxFrameSize)
	s.Split(bufio.ScanLines)
	return &Scanner{s: s}
}

// Next returns the next frame, or io.EOF once the stream ends cleanly. The
// returned slice is owned by the caller.
func (s *Scanner) Next() ([]byte, error) {
	for s.s.Scan() {
		line := s.s.Bytes()
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := s.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
