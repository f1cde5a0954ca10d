// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"
	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Poller loop.
type State int32

const (
	// StateIdle means no loop is running.
	StateIdle State = iota
	// StatePolling means a listen request is outstanding or its stream is
	// being consumed.
	StatePolling
	// StatePending means the previous stream ended and the next request is
	// about to be issued.
	StatePending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StatePending:
		return "pending"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Poller long-polls the listen endpoint of a bucket and hands every record
// to the registered notification callbacks.
//
// Callbacks run sequentially on the loop goroutine in stream order. Errors
// are delivered to the error callbacks; a caller that registers none only
// sees them in the log. Transport failures end the loop, malformed flush
// units do not.
type Poller struct {
	transport  Transport
	bucket     string
	prefix     string
	suffix     string
	events     []notification.EventType
	newDecoder DecoderFactory
	escape     Escape
	log        zerolog.Logger

	mu       sync.Mutex
	ending   bool
	running  bool
	state    State
	done     chan struct{}
	onRecord []func(Record)
	onError  []func(error)
}

// Option configures a Poller.
type Option func(*Poller)

// WithPrefix restricts notifications to keys starting with prefix.
func WithPrefix(prefix string) Option {
	return func(p *Poller) { p.prefix = prefix }
}

// WithSuffix restricts notifications to keys ending with suffix.
func WithSuffix(suffix string) Option {
	return func(p *Poller) { p.suffix = suffix }
}

// WithEvents restricts notifications to the given event names.
func WithEvents(events []notification.EventType) Option {
	return func(p *Poller) { p.events = append([]notification.EventType(nil), events...) }
}

// WithDecoder replaces the newline-delimited JSON decoder.
func WithDecoder(f DecoderFactory) Option {
	return func(p *Poller) {
		if f != nil {
			p.newDecoder = f
		}
	}
}

// WithEscape replaces the query value escaper.
func WithEscape(e Escape) Option {
	return func(p *Poller) {
		if e != nil {
			p.escape = e
		}
	}
}

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// OnNotification registers fn before the poller is started.
func OnNotification(fn func(Record)) Option {
	return func(p *Poller) { p.onRecord = append(p.onRecord, fn) }
}

// OnError registers fn before the poller is started.
func OnError(fn func(error)) Option {
	return func(p *Poller) { p.onError = append(p.onError, fn) }
}

// NewPoller returns an idle poller bound to bucket. Call Start to begin.
func NewPoller(transport Transport, bucket string, opts ...Option) *Poller {
	p := &Poller{
		transport:  transport,
		bucket:     bucket,
		newDecoder: NewLineDecoder,
		escape:     EscapeURI,
		log:        logger.Component("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("bucket", bucket).Logger()
	return p
}

// Bucket returns the bucket the poller listens on.
func (p *Poller) Bucket() string {
	return p.bucket
}

// Query returns the escaped query string sent with every listen request.
func (p *Poller) Query() string {
	return BuildQuery(p.prefix, p.suffix, p.events, p.escape)
}

// OnNotification registers a callback invoked once per received record.
func (p *Poller) OnNotification(fn func(Record)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRecord = append(p.onRecord, fn)
}

// OnError registers a callback invoked once per error.
func (p *Poller) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = append(p.onError, fn)
}

// Start clears a pending stop and launches the loop on its own goroutine.
// If a loop is already running it keeps running; no second loop is created.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ending = false
	if p.running {
		return
	}
	p.running = true
	p.done = make(chan struct{})
	go p.loop(p.done)
}

// Stop asks the loop to halt. An in-flight request is not aborted: the loop
// halts before the next request or after the next flush unit, whichever
// comes first.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ending = true
}

// Wait blocks until the current loop has halted. It returns immediately if
// the poller was never started.
func (p *Poller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the current loop state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) loop(done chan struct{}) {
	defer close(done)

	ctx := logger.WithLogger(context.Background(), &p.log)
	for {
		if p.haltIfEnding(nil) {
			p.log.Info().Msg("poller stopped")
			return
		}
		if !p.cycle(ctx) {
			return
		}
		p.setState(StatePending)
	}
}

// cycle issues one listen request and consumes its stream. It returns true
// when the stream ended and the next request should be sent. On false the
// loop has already been marked halted and the body is closed.
func (p *Poller) cycle(ctx context.Context) bool {
	query := p.Query()
	region := p.transport.Region()
	if region == "" {
		region = s3consts.DefaultRegion
	}

	PollCyclesTotal.WithLabelValues(p.bucket).Inc()
	p.log.Debug().Str("query", query).Str("region", region).Msg("issuing listen request")

	req := Request{Method: http.MethodGet, Bucket: p.bucket, Query: query}
	body, err := p.transport.MakeRequest(ctx, req, nil, []int{http.StatusOK}, region)
	if err != nil {
		p.halt(nil)
		p.fail("transport", fmt.Errorf("listen bucket notification %s: %w", p.bucket, err))
		return false
	}

	dec := p.newDecoder(body)
	for {
		unit, err := dec.Next()
		if err != nil {
			var decErr *DecodeError
			switch {
			case errors.Is(err, io.EOF):
				body.Close()
				p.log.Debug().Msg("listen stream ended")
				return true
			case errors.As(err, &decErr):
				p.fail("decode", err)
			default:
				p.halt(body)
				p.fail("stream", fmt.Errorf("read listen stream %s: %w", p.bucket, err))
				return false
			}
		} else if unit != nil {
			for _, r := range unit.Records {
				p.emitRecord(r)
			}
		}

		if p.haltIfEnding(body) {
			p.log.Info().Msg("poller stopped mid-stream")
			return false
		}
	}
}

// haltIfEnding marks the loop halted when a stop was requested. The check
// and the running flag flip share the lock with Start, so a racing Start
// either sees the loop alive or spawns a fresh one. body is closed before the
// lock is released.
func (p *Poller) haltIfEnding(body io.Closer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ending {
		p.state = StatePolling
		return false
	}
	if body != nil {
		body.Close()
	}
	p.running = false
	p.state = StateIdle
	return true
}

func (p *Poller) halt(body io.Closer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if body != nil {
		body.Close()
	}
	p.running = false
	p.state = StateIdle
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Poller) emitRecord(r Record) {
	p.mu.Lock()
	fns := p.onRecord
	p.mu.Unlock()

	RecordsReceivedTotal.WithLabelValues(r.EventName).Inc()
	for _, fn := range fns {
		fn(r)
	}
}

func (p *Poller) fail(kind string, err error) {
	p.mu.Lock()
	fns := p.onError
	p.mu.Unlock()

	PollErrorsTotal.WithLabelValues(kind).Inc()
	p.log.Warn().Err(err).Str("error_type", kind).Msg("poller error")
	for _, fn := range fns {
		fn(err)
	}
}
