package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one long-lived event sink, owned by exactly one
// Session. Delivery is best-effort: frames beyond the buffer are
// dropped for this subscriber only.
type Subscriber struct {
	id     string
	frames chan Frame
	done   chan struct{}
	once   sync.Once
	detach func()
}

func newSubscriber(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 32
	}
	return &Subscriber{
		id:     uuid.NewString(),
		frames: make(chan Frame, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Subscriber) ID() string {
	return s.id
}

// Frames is the stream of frames to deliver to the transport.
func (s *Subscriber) Frames() <-chan Frame {
	return s.frames
}

// Done is closed when the subscriber is evicted, either by Close or by
// session teardown.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscriber from its session. Safe to call more
// than once; the transport layer calls it on stream close.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.detach != nil {
			s.detach()
		}
	})
}

// push enqueues a frame without blocking. Returns false when the frame
// was dropped because the subscriber is gone or its buffer is full.
func (s *Subscriber) push(f Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- f:
		return true
	default:
		return false
	}
}
