// Package loghub fans pipeline output out to live stream subscribers.
//
// A stream is identified by a caller-chosen id. Groups are created lazily on
// the first subscriber and removed by Close. Delivery is best-effort and
// at-most-once: lines sent before anyone subscribed are dropped, and a late
// subscriber never sees earlier lines.
package loghub

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// DoneSentinel is the last line sent on a stream before it closes.
const DoneSentinel = domain.StreamDone

// Sink receives the lines of one stream.
type Sink interface {
	// Send delivers a line. It must not block for long.
	Send(line string) error
	// Close is called once when the stream closes or the sink is detached.
	Close() error
}

type group struct {
	mu     sync.Mutex
	sinks  map[Sink]struct{}
	closed bool
}

// Hub is a concurrency-safe registry of stream groups.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group

	logger zerolog.Logger
	active prometheus.Gauge
	buffer int
}

// Option customizes a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Hub) { h.logger = l.With().Str("component", "loghub").Logger() }
}

// WithActiveGauge reports the number of open streams.
func WithActiveGauge(g prometheus.Gauge) Option {
	return func(h *Hub) { h.active = g }
}

// WithBuffer sets the per-subscriber channel buffer used by Subscribe.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// New creates an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		groups: make(map[string]*group),
		logger: zerolog.Nop(),
		buffer: 256,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds sink to the stream, creating the stream if needed. The sink
// is detached and closed when ctx ends.
func (h *Hub) Register(ctx context.Context, streamID string, sink Sink) {
	g := h.groupFor(streamID)

	g.mu.Lock()
	if g.closed {
		// Lost a race with Close or with the last subscriber leaving.
		g.mu.Unlock()
		h.forget(streamID, g)
		h.Register(ctx, streamID, sink)
		return
	}
	g.sinks[sink] = struct{}{}
	g.mu.Unlock()

	h.logger.Debug().Str("stream_id", streamID).Msg("subscriber registered")

	if ctx.Done() == nil {
		return
	}
	go func() {
		<-ctx.Done()
		g.mu.Lock()
		_, ok := g.sinks[sink]
		delete(g.sinks, sink)
		empty := !g.closed && len(g.sinks) == 0
		if empty {
			g.closed = true
		}
		g.mu.Unlock()
		if ok {
			_ = sink.Close()
		}
		if empty {
			h.forget(streamID, g)
			h.logger.Debug().Str("stream_id", streamID).Msg("last subscriber left, stream dropped")
		}
	}()
}

// forget removes g from the registry if it is still the group of streamID.
func (h *Hub) forget(streamID string, g *group) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[streamID] != g {
		return
	}
	delete(h.groups, streamID)
	if h.active != nil {
		h.active.Dec()
	}
}

// Subscribe registers a channel sink. The channel is closed when the stream
// closes or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, streamID string) <-chan string {
	s := newChanSink(h.buffer)
	h.Register(ctx, streamID, s)
	return s.ch
}

// Send delivers line to every sink currently registered on the stream.
func (h *Hub) Send(streamID, line string) {
	h.mu.RLock()
	g, ok := h.groups[streamID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	for s := range g.sinks {
		if err := s.Send(line); err != nil {
			h.logger.Debug().Err(err).Str("stream_id", streamID).Msg("dropping line for subscriber")
		}
	}
}

// Close closes every sink of the stream and forgets it. Later sends are
// dropped until a new subscriber registers.
func (h *Hub) Close(streamID string) {
	h.mu.Lock()
	g, ok := h.groups[streamID]
	delete(h.groups, streamID)
	h.mu.Unlock()
	if !ok {
		return
	}
	if h.active != nil {
		h.active.Dec()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for s := range g.sinks {
		_ = s.Close()
	}
	g.sinks = nil
}

// Streams returns the number of open streams.
func (h *Hub) Streams() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

func (h *Hub) groupFor(streamID string) *group {
	h.mu.RLock()
	g, ok := h.groups[streamID]
	h.mu.RUnlock()
	if ok {
		return g
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok := h.groups[streamID]; ok {
		return g
	}
	g = &group{sinks: make(map[Sink]struct{})}
	h.groups[streamID] = g
	if h.active != nil {
		h.active.Inc()
	}
	return g
}
