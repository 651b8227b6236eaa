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
	"sync"

	"github.com/sizethree/loftili.core/pkg/core"
)

// DomainHandler turns the action part of a frame into a command for its domain.
type DomainHandler func(action string) (core.Command, error)

// Table maps a domain name to the handler that builds its commands.
type Table struct {
	domains sync.Map
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Add(domain string, h DomainHandler) {
	t.domains.Store(domain, h)
}

func (t *Table) Remove(domain string) {
	t.domains.Delete(domain)
}

func (t *Table) Lookup(domain string) (DomainHandler, bool) {
	v, ok := t.domains.Load(domain)
	if !ok {
		return nil, false
	}
	return v.(DomainHandler), true
}
