// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	region  string
	respond func(call int) (io.ReadCloser, error)

	requested chan struct{}

	mu       sync.Mutex
	requests []Request
	regions  []string
	statuses [][]int
	payloads [][]byte
}

func newFakeTransport(respond func(call int) (io.ReadCloser, error)) *fakeTransport {
	return &fakeTransport{respond: respond, requested: make(chan struct{}, 64)}
}

func (f *fakeTransport) Region() string { return f.region }

func (f *fakeTransport) MakeRequest(_ context.Context, req Request, payload []byte, expected []int, region string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.regions = append(f.regions, region)
	f.statuses = append(f.statuses, expected)
	f.payloads = append(f.payloads, payload)
	call := len(f.requests)
	f.mu.Unlock()

	select {
	case f.requested <- struct{}{}:
	default:
	}
	return f.respond(call)
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTransport) waitRequest(t *testing.T) {
	t.Helper()
	select {
	case <-f.requested:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for listen request")
	}
}

type trackedBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	if c, ok := b.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type collector struct {
	mu      sync.Mutex
	records []Record
	errs    []error
}

func (c *collector) record(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *collector) err(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *collector) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r.EventName)
	}
	return out
}

func (c *collector) errList() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

var errTransport = errors.New("dial tcp: connection refused")

func TestPollerEmitsRecordsInOrder(t *testing.T) {
	t.Parallel()

	body := &trackedBody{Reader: strings.NewReader(
		`{"Records":[{"eventName":"r1"},{"eventName":"r2"}]}` + "\n" + `{"Records":null}` + "\n",
	)}
	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		if call == 1 {
			return body, nil
		}
		return nil, errTransport
	})

	var c collector
	p := NewPoller(tr, "photos", OnNotification(c.record), OnError(c.err))
	p.Start()
	p.Wait()

	assert.Equal(t, []string{"r1", "r2"}, c.names())
	assert.True(t, body.closed.Load())
	require.Len(t, c.errList(), 1)
	assert.ErrorIs(t, c.errList()[0], errTransport)
	assert.Equal(t, 2, tr.calls())
	assert.Equal(t, StateIdle, p.State())
}

func TestPollerRequestShape(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return nil, errTransport })
	p := NewPoller(tr, "photos",
		WithPrefix("a b"),
		WithEvents([]notification.EventType{notification.ObjectCreatedPut}),
	)
	p.Start()
	p.Wait()

	require.Equal(t, 1, tr.calls())
	assert.Equal(t, Request{
		Method: http.MethodGet,
		Bucket: "photos",
		Query:  "events=s3%3AObjectCreated%3APut&prefix=a%20b",
	}, tr.requests[0])
	assert.Equal(t, "us-east-1", tr.regions[0])
	assert.Equal(t, []int{http.StatusOK}, tr.statuses[0])
	assert.Nil(t, tr.payloads[0])
	assert.Equal(t, tr.requests[0].Query, p.Query())

	regional := newFakeTransport(func(int) (io.ReadCloser, error) { return nil, errTransport })
	regional.region = "eu-west-1"
	p = NewPoller(regional, "photos")
	p.Start()
	p.Wait()
	assert.Equal(t, "eu-west-1", regional.regions[0])
	assert.Empty(t, regional.requests[0].Query)
}

func TestPollerTransportErrorIsTerminal(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return nil, errTransport })

	var c collector
	p := NewPoller(tr, "photos")
	p.OnError(c.err)
	p.OnNotification(c.record)
	p.Start()
	p.Wait()

	require.Len(t, c.errList(), 1)
	assert.ErrorIs(t, c.errList()[0], errTransport)
	assert.Empty(t, c.names())
	assert.Equal(t, 1, tr.calls())
	assert.Equal(t, StateIdle, p.State())

	// A new Start resumes polling.
	p.Start()
	p.Wait()
	assert.Equal(t, 2, tr.calls())
	assert.Len(t, c.errList(), 2)
}

func TestPollerDecodeErrorContinues(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		if call == 1 {
			return io.NopCloser(strings.NewReader("garbage\n" + `{"Records":[{"eventName":"r1"}]}` + "\n")), nil
		}
		return nil, errTransport
	})

	var c collector
	p := NewPoller(tr, "photos", OnNotification(c.record), OnError(c.err))
	p.Start()
	p.Wait()

	assert.Equal(t, []string{"r1"}, c.names())
	errs := c.errList()
	require.Len(t, errs, 2)
	var decErr *DecodeError
	assert.ErrorAs(t, errs[0], &decErr)
	assert.ErrorIs(t, errs[1], errTransport)
}

func TestPollerStreamErrorIsTerminal(t *testing.T) {
	t.Parallel()

	boom := errors.New("unexpected EOF in chunk")
	body := &trackedBody{Reader: io.MultiReader(
		strings.NewReader(`{"Records":[{"eventName":"r1"}]}`+"\n"),
		iotest.ErrReader(boom),
	)}
	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return body, nil })

	var c collector
	p := NewPoller(tr, "photos", OnNotification(c.record), OnError(c.err))
	p.Start()
	p.Wait()

	assert.Equal(t, []string{"r1"}, c.names())
	require.Len(t, c.errList(), 1)
	assert.ErrorIs(t, c.errList()[0], boom)
	assert.Equal(t, 1, tr.calls())
	assert.True(t, body.closed.Load())
}

func TestPollerStopClosesAfterNextUnit(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	body := &trackedBody{Reader: pr}
	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return body, nil })

	var c collector
	p := NewPoller(tr, "photos", OnNotification(c.record), OnError(c.err))
	p.Start()
	tr.waitRequest(t)
	assert.Equal(t, StatePolling, p.State())

	p.Stop()
	_, err := pw.Write([]byte(`{"Records":[{"eventName":"r1"},{"eventName":"r2"}]}` + "\n"))
	require.NoError(t, err)
	p.Wait()

	assert.Equal(t, []string{"r1", "r2"}, c.names())
	assert.True(t, body.closed.Load())
	assert.Equal(t, 1, tr.calls())
	assert.Empty(t, c.errList())
	assert.Equal(t, StateIdle, p.State())

	// The reader side is closed, so the server can no longer push data.
	_, err = pw.Write([]byte("{}\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestPollerStopBeforeEndPreventsNextRequest(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	body := &trackedBody{Reader: pr}
	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return body, nil })

	p := NewPoller(tr, "photos")
	p.Start()
	tr.waitRequest(t)

	p.Stop()
	require.NoError(t, pw.Close())
	p.Wait()

	assert.True(t, body.closed.Load())
	assert.Equal(t, 1, tr.calls())
}

func TestPollerStopBeforeFirstCycle(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(func(int) (io.ReadCloser, error) { return nil, errTransport })
	p := NewPoller(tr, "photos")

	// Never started.
	p.Wait()
	assert.Equal(t, StateIdle, p.State())

	p.Stop()
	assert.Equal(t, 0, tr.calls())
}

func TestPollerStartIsSingleLoop(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		if call == 1 {
			return pr, nil
		}
		return nil, errTransport
	})

	p := NewPoller(tr, "photos")
	p.Start()
	tr.waitRequest(t)
	p.Start()
	p.Start()
	assert.Equal(t, 1, tr.calls())

	p.Stop()
	require.NoError(t, pw.Close())
	p.Wait()
	assert.Equal(t, 1, tr.calls())
}

func TestPollerStartClearsPendingStop(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		if call == 1 {
			return pr, nil
		}
		return nil, errTransport
	})

	var c collector
	p := NewPoller(tr, "photos", OnNotification(c.record), OnError(c.err))
	p.Start()
	tr.waitRequest(t)

	p.Stop()
	p.Start()
	_, err := pw.Write([]byte(`{"Records":[{"eventName":"r1"}]}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	p.Wait()

	// The loop survived the stop and went on to a second request.
	assert.Equal(t, []string{"r1"}, c.names())
	assert.Equal(t, 2, tr.calls())
	require.Len(t, c.errList(), 1)
	assert.ErrorIs(t, c.errList()[0], errTransport)
}

type countingBody struct {
	io.Reader
	inflight *atomic.Int32
	once     sync.Once
}

func (b *countingBody) Close() error {
	b.once.Do(func() { b.inflight.Add(-1) })
	return nil
}

func TestPollerStartStopRace(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	var inflight, maxInflight atomic.Int32
	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		n := inflight.Add(1)
		for {
			m := maxInflight.Load()
			if n <= m || maxInflight.CompareAndSwap(m, n) {
				break
			}
		}
		if call == 1 {
			return &countingBody{Reader: pr, inflight: &inflight}, nil
		}
		return &countingBody{Reader: strings.NewReader(`{"Records":[]}` + "\n"), inflight: &inflight}, nil
	})

	p := NewPoller(tr, "photos")
	p.Start()
	tr.waitRequest(t)

	// Toggle the loop while its stream is still open.
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p.Start()
				if i%3 == 0 {
					p.Stop()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, tr.calls())

	p.Stop()
	require.NoError(t, pw.Close())
	p.Wait()

	assert.LessOrEqual(t, maxInflight.Load(), int32(1))
	assert.Equal(t, int32(0), inflight.Load())
	assert.Equal(t, 1, tr.calls())
	assert.Equal(t, StateIdle, p.State())
}

func TestPollerWithDecoder(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(func(call int) (io.ReadCloser, error) {
		if call == 1 {
			return io.NopCloser(strings.NewReader("ignored")), nil
		}
		return nil, errTransport
	})

	var c collector
	p := NewPoller(tr, "photos",
		OnNotification(c.record),
		WithDecoder(func(io.Reader) Decoder { return &scriptedDecoder{} }),
	)
	p.Start()
	p.Wait()

	assert.Equal(t, []string{"x", "y"}, c.names())
}

type scriptedDecoder struct{ n int }

func (d *scriptedDecoder) Next() (*FlushUnit, error) {
	d.n++
	switch d.n {
	case 1:
		return &FlushUnit{Records: []Record{{EventName: "x"}}}, nil
	case 2:
		return &FlushUnit{}, nil
	case 3:
		return &FlushUnit{Records: []Record{{EventName: "y"}}}, nil
	default:
		return nil, io.EOF
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "state(9)", State(9).String())
}
