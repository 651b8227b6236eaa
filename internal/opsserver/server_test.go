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

package opsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatus struct {
	state   core.State
	retries int
	epoch   string
}

func (s stubStatus) State() core.State { return s.state }
func (s stubStatus) Retries() int      { return s.retries }
func (s stubStatus) Epoch() string     { return s.epoch }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(stubStatus{state: core.StateReading, retries: 2, epoch: "e1"}), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, health{State: "reading", Retries: 2, Epoch: "e1"}, body)
}

func TestHealthzTerminated(t *testing.T) {
	rec := get(t, NewRouter(stubStatus{state: core.StateTerminated}), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"terminated"`)
}

func TestMetrics(t *testing.T) {
	metrics.SetState(core.StateReading)
	rec := get(t, NewRouter(stubStatus{}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loftili_engine_state{state="reading"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, NewRouter(stubStatus{}), "/control/play")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
