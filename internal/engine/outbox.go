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

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sizethree/loftili.core/pkg/core"
)

var errOutboxClosed = errors.New("outbox closed")

// gate admits keep-alive writes until the epoch shuts it. It is only held
// while checking, never across a write.
type gate struct {
	mu     sync.Mutex
	closed bool
}

func (g *gate) shut() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// admit refuses once the gate is shut or the engine has left Reading.
func (g *gate) admit(state func() core.State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || state() != core.StateReading {
		return core.ErrNotReading
	}
	return nil
}

type writeRequest struct {
	data    []byte
	guarded bool
	done    chan error
}

// outbox owns every write to one epoch's transport. Subscribe and keep-alive
// both submit through it so the byte stream is never written concurrently.
type outbox struct {
	w     io.Writer
	admit func() error
	reqs  chan writeRequest
	quit  chan struct{}
	once  sync.Once
	done  chan struct{}
}

// newOutbox starts the writer goroutine. admit is consulted right before each
// guarded write and may refuse it.
func newOutbox(w io.Writer, admit func() error) *outbox {
	o := &outbox{
		w:     w,
		admit: admit,
		reqs:  make(chan writeRequest),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *outbox) run() {
	defer close(o.done)
	for {
		select {
		case <-o.quit:
			return
		case req := <-o.reqs:
			if req.guarded && o.admit != nil {
				if err := o.admit(); err != nil {
					req.done <- err
					continue
				}
			}
			req.done <- o.write(req.data)
		}
	}
}

func (o *outbox) write(data []byte) error {
	n, err := o.w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d of %d bytes", core.ErrShortWrite, n, len(data))
	}
	return nil
}

// submit queues data and waits for the writer to report the result.
func (o *outbox) submit(ctx context.Context, data []byte, guarded bool) error {
	req := writeRequest{data: data, guarded: guarded, done: make(chan error, 1)}
	select {
	case o.reqs <- req:
	case <-o.quit:
		return errOutboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop tells the writer to exit without waiting for it.
func (o *outbox) stop() {
	o.once.Do(func() { close(o.quit) })
}

// close stops the writer and waits for it to exit. Requests already taken by
// the writer complete first.
func (o *outbox) close() {
	o.stop()
	<-o.done
}
