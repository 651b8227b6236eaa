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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/dispatch"
	"github.com/sizethree/loftili.core/internal/frame"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/internal/metrics"
	"github.com/sizethree/loftili.core/pkg/core"
)

// DialFunc returns a fresh, unconnected transport for each subscribe attempt.
type DialFunc func() (core.Transport, error)

type Config struct {
	MaxRetries        int
	Backoff           time.Duration
	KeepAliveInterval time.Duration
	SubscribePath     string
	KeepAlivePath     string
	Identity          core.Identity
	StrictAudio       bool
	SkipOnStart       bool
}

// Engine maintains the command stream: it subscribes, reads and dispatches
// frames in order, keeps the connection alive and resubscribes after a
// failure until the retry budget is spent.
type Engine struct {
	cfg        Config
	dial       DialFunc
	caps       *core.Capabilities
	parser     *frame.Parser
	dispatcher *dispatch.Dispatcher
	frameLog   *logging.FrameLogger
	notifier   core.Notifier
	logger     zerolog.Logger

	mu      sync.RWMutex
	state   core.State
	retries int
	epochID string
}

type Option func(*Engine)

// WithNotifier sends engine telemetry events to n.
func WithNotifier(n core.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func New(cfg Config, dial DialFunc, caps *core.Capabilities, logger zerolog.Logger, opts ...Option) *Engine {
	if caps == nil {
		caps = &core.Capabilities{}
	}
	logger = logging.WithComponent(logger, "engine")
	e := &Engine{
		cfg:        cfg,
		dial:       dial,
		caps:       caps,
		parser:     frame.NewParser(frame.DefaultTable(cfg.StrictAudio), logger),
		dispatcher: dispatch.New(caps),
		frameLog:   logging.NewFrameLogger(logger),
		logger:     logger,
		state:      core.StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	metrics.SetState(core.StateIdle)
	return e
}

func (e *Engine) State() core.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) Retries() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.retries
}

// Epoch returns the id of the current or most recent connection epoch.
func (e *Engine) Epoch() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.epochID
}

// epoch is one subscribed connection and the goroutines serving it.
type epoch struct {
	id     string
	conn   core.Transport
	out    *outbox
	gate   gate
	logger zerolog.Logger

	closeOnce sync.Once

	frames   chan []byte
	readErr  chan error
	stop     chan struct{}
	kaFailed chan struct{}
	kaDone   chan struct{}
	readDone chan struct{}
}

func (ep *epoch) stopped() bool {
	select {
	case <-ep.stop:
		return true
	default:
		return false
	}
}

func (ep *epoch) closeConn() {
	ep.closeOnce.Do(func() {
		if err := ep.conn.Close(); err != nil {
			ep.logger.Debug().Err(err).Msg("close transport")
		}
	})
}

// awaitOrClose waits for done. A write still blocked after grace is released
// by closing the transport.
func (ep *epoch) awaitOrClose(done <-chan struct{}, grace time.Duration) {
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
		return
	case <-t.C:
	}
	ep.logger.Warn().Dur("grace", grace).Msg("write still in flight, closing transport")
	ep.closeConn()
	<-done
}

// Subscribe connects and sends the subscription request, then closes the
// connection. It verifies the device can reach the command server.
func (e *Engine) Subscribe(ctx context.Context) error {
	ep, err := e.subscribe(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSubscribe, err)
	}
	ep.out.close()
	return ep.conn.Close()
}

// Run blocks until the engine terminates. The returned error is never nil:
// it wraps core.ErrSubscribe, core.ErrResubscribe or core.ErrRetriesExhausted,
// or is the context error after a shutdown.
func (e *Engine) Run(ctx context.Context) error {
	if e.cfg.SkipOnStart && e.caps.Playback != nil {
		e.logger.Info().Msg("telling playback to skip in case we were shut down")
		if err := e.caps.Playback.Skip(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("startup skip failed")
		}
	}

	e.logger.Info().Msg("opening command stream to api server")
	ep, err := e.subscribe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return e.terminate(ctx.Err())
		}
		logging.Critical(&e.logger).Err(err).Msg("unable to subscribe to command stream")
		return e.terminate(fmt.Errorf("%w: %w", core.ErrSubscribe, err))
	}

	for {
		cause := e.serve(ctx, ep)
		if ctx.Err() != nil {
			e.logger.Info().Msg("command stream shut down")
			return e.terminate(ctx.Err())
		}

		attempt := e.bumpRetries()
		e.logger.Warn().
			Err(cause).
			Int(logging.FieldAttempt, attempt).
			Dur("backoff", e.cfg.Backoff).
			Msg("engine stream reached bad state")
		e.emit(core.Event{Type: core.EventTypeRetry, Epoch: ep.id, Error: cause.Error()})

		if attempt >= e.cfg.MaxRetries {
			logging.Critical(&e.logger).Int(logging.FieldRetries, attempt).Msg("engine stream exited after retries")
			return e.terminate(fmt.Errorf("%w: %d attempts", core.ErrRetriesExhausted, attempt))
		}

		if err := sleep(ctx, e.cfg.Backoff); err != nil {
			return e.terminate(err)
		}

		e.logger.Info().Int(logging.FieldAttempt, attempt).Msg("attempting to re-subscribe")
		ep, err = e.subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return e.terminate(ctx.Err())
			}
			logging.Critical(&e.logger).Err(err).Msg("engine unable to recover, shutting down")
			return e.terminate(fmt.Errorf("%w: %w", core.ErrResubscribe, err))
		}
		e.logger.Info().Str(logging.FieldEpoch, ep.id).Msg("engine recovered, continuing with next read")
	}
}

// subscribe opens a new transport and writes the subscription request.
func (e *Engine) subscribe(ctx context.Context) (*epoch, error) {
	conn, err := e.dial()
	if err != nil {
		metrics.ObserveSubscribe(err)
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		metrics.ObserveSubscribe(err)
		return nil, fmt.Errorf("connect: %w", err)
	}

	id := uuid.NewString()
	ep := &epoch{
		id:       id,
		conn:     conn,
		logger:   e.logger.With().Str(logging.FieldEpoch, id).Logger(),
		frames:   make(chan []byte),
		readErr:  make(chan error, 1),
		stop:     make(chan struct{}),
		kaFailed: make(chan struct{}),
		kaDone:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
	ep.out = newOutbox(conn, func() error { return ep.gate.admit(e.State) })

	req := core.NewRequest(core.MethodSubscribe, e.cfg.SubscribePath, e.cfg.Identity)
	if err := ep.out.submit(ctx, req.Bytes(), false); err != nil {
		ep.closeConn()
		ep.out.close()
		metrics.ObserveSubscribe(err)
		return nil, fmt.Errorf("write subscription: %w", err)
	}
	metrics.ObserveSubscribe(nil)

	e.mu.Lock()
	e.epochID = id
	e.mu.Unlock()
	return ep, nil
}

// serve runs one Reading epoch and tears it down. It returns what ended it.
func (e *Engine) serve(ctx context.Context, ep *epoch) error {
	e.setState(core.StateReading)
	go e.read(ep)
	go e.keepAlive(ctx, ep)

	ep.logger.Info().Msg("subscription finished, reading command stream")
	cause := e.consume(ctx, ep)
	e.teardown(ep)
	return cause
}

func (e *Engine) consume(ctx context.Context, ep *epoch) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ep.kaFailed:
			return core.ErrKeepAlive
		case err := <-ep.readErr:
			return err
		case f := <-ep.frames:
			e.handle(ctx, ep, f)
		}
	}
}

func (e *Engine) handle(ctx context.Context, ep *epoch, f []byte) {
	cmd := e.parser.Parse(f)
	e.frameLog.Log(ep.id, f, cmd)
	if cmd.IsNoOp() {
		return
	}

	if err := e.dispatcher.Execute(ctx, cmd); err != nil {
		ep.logger.Error().
			Err(err).
			Str(logging.FieldDomain, cmd.Domain).
			Str(logging.FieldKind, cmd.Kind.String()).
			Msg("command execution failed")
		e.emit(core.Event{Type: core.EventTypeCommand, Epoch: ep.id, Domain: cmd.Domain, Action: cmd.Action, Error: err.Error()})
		return
	}

	e.resetRetries()
	e.emit(core.Event{Type: core.EventTypeCommand, Epoch: ep.id, Domain: cmd.Domain, Action: cmd.Action})
}

// read feeds frames to the engine loop until the transport fails or the
// epoch stops.
func (e *Engine) read(ep *epoch) {
	defer close(ep.readDone)
	sc := frame.NewScanner(ep.conn)
	for {
		f, err := sc.Next()
		if err != nil {
			ep.readErr <- err
			return
		}
		select {
		case ep.frames <- f:
		case <-ep.stop:
			return
		}
	}
}

// teardown ends the epoch. The gate is shut before the state leaves Reading,
// so no ping starts afterwards. A ping already blocked in the transport gets
// one keep-alive interval before the transport is closed underneath it.
func (e *Engine) teardown(ep *epoch) {
	ep.gate.shut()
	e.setState(core.StateErrored)
	close(ep.stop)

	ep.logger.Debug().Msg("joining keep alive")
	ep.awaitOrClose(ep.kaDone, e.cfg.KeepAliveInterval)
	ep.out.stop()
	ep.awaitOrClose(ep.out.done, e.cfg.KeepAliveInterval)
	ep.closeConn()
	<-ep.readDone
}

func (e *Engine) terminate(err error) error {
	e.setState(core.StateTerminated)
	e.emit(core.Event{Type: core.EventTypeTerminated, Error: err.Error()})
	return err
}

func (e *Engine) setState(s core.State) {
	e.mu.Lock()
	old := e.state
	e.state = s
	e.mu.Unlock()
	e.stateChanged(old, s)
}

// transition moves from one state to another only if the engine is still in
// from. It reports whether the state changed.
func (e *Engine) transition(from, to core.State) bool {
	e.mu.Lock()
	if e.state != from {
		e.mu.Unlock()
		return false
	}
	e.state = to
	e.mu.Unlock()
	e.stateChanged(from, to)
	return true
}

func (e *Engine) stateChanged(old, s core.State) {
	if old == s {
		return
	}
	metrics.SetState(s)
	e.logger.Info().
		Str(logging.FieldOldState, old.String()).
		Str(logging.FieldNewState, s.String()).
		Msg("engine state changed")
	e.emit(core.Event{Type: core.EventTypeState, State: s.String()})
}

func (e *Engine) bumpRetries() int {
	e.mu.Lock()
	e.retries++
	n := e.retries
	e.mu.Unlock()
	metrics.EngineRetries.Set(float64(n))
	return n
}

func (e *Engine) resetRetries() {
	e.mu.Lock()
	e.retries = 0
	e.mu.Unlock()
	metrics.EngineRetries.Set(0)
}

func (e *Engine) emit(evt core.Event) {
	if e.notifier == nil {
		return
	}
	evt.ID = uuid.NewString()
	evt.Serial = e.cfg.Identity.Serial
	if evt.Epoch == "" {
		evt.Epoch = e.Epoch()
	}
	evt.Retries = e.Retries()
	evt.Timestamp = time.Now().UTC()
	e.notifier.Notify(evt)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
