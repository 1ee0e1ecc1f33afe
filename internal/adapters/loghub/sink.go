package loghub

import (
	"errors"
	"sync"
)

// ErrSubscriberFull is returned when a channel sink cannot keep up.
var ErrSubscriberFull = errors.New("subscriber buffer full")

type chanSink struct {
	once sync.Once
	ch   chan string
}

func newChanSink(buffer int) *chanSink {
	return &chanSink{ch: make(chan string, buffer)}
}

// Send never blocks; a full buffer drops the line for this subscriber only.
// Send and Close are serialized by the owning group's mutex.
func (s *chanSink) Send(line string) error {
	select {
	case s.ch <- line:
		return nil
	default:
		return ErrSubscriberFull
	}
}

func (s *chanSink) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}
