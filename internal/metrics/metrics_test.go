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

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestSetStateIsExclusive(t *testing.T) {
	SetState(core.StateReading)
	assert.Equal(t, 1.0, testutil.ToFloat64(EngineState.WithLabelValues("reading")))
	assert.Equal(t, 0.0, testutil.ToFloat64(EngineState.WithLabelValues("errored")))

	SetState(core.StateErrored)
	assert.Equal(t, 0.0, testutil.ToFloat64(EngineState.WithLabelValues("reading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(EngineState.WithLabelValues("errored")))
}

func TestObserveResultLabels(t *testing.T) {
	okBefore := testutil.ToFloat64(SubscribeTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(SubscribeTotal.WithLabelValues("error"))

	ObserveSubscribe(nil)
	ObserveSubscribe(errors.New("refused"))
	ObserveSubscribe(nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(SubscribeTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(SubscribeTotal.WithLabelValues("error")))
}
