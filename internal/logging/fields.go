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

// Canonical field names for structured logging.
const (
	FieldComponent = "component"
	FieldEpoch     = "epoch"
	FieldSerial    = "serial"
	FieldHost      = "host"
	FieldProtocol  = "protocol"

	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldAttempt  = "attempt"
	FieldRetries  = "retries"

	FieldDomain = "domain"
	FieldAction = "action"
	FieldKind   = "kind"
	FieldFrame  = "frame"
	FieldSize   = "size"

	FieldSink     = "sink"
	FieldSinkType = "sink_type"
)
