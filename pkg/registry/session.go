package registry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
)

const (
	initializeTimeout = 2 * time.Minute
	reconnectTimeout  = 1 * time.Minute
	destroyTimeout    = 30 * time.Second
	resolveTimeout    = 10 * time.Second
)

// Session owns one automation-engine client for a tenant, tracks its
// coarse connection state and fans translated events out to the
// tenant's subscribers. All sessions are created through the Registry.
type Session struct {
	tenantID string
	client   engine.Client
	limiter  *rate.Limiter

	mu          sync.Mutex
	state       State
	pairingCode string
	subscribers map[string]*Subscriber

	names *nameCache

	events   chan Frame
	done     chan struct{}
	stopOnce sync.Once

	// onState is invoked outside the session lock after every state
	// change; the registry uses it to sync persisted tenant state.
	onState func(tenantID string, state State)
}

func newSession(tenantID string, queueSize int, sendRate rate.Limit, sendBurst int) *Session {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Session{
		tenantID:    tenantID,
		limiter:     rate.NewLimiter(sendRate, sendBurst),
		state:       StateOffline,
		subscribers: make(map[string]*Subscriber),
		names:       newNameCache(),
		events:      make(chan Frame, queueSize),
		done:        make(chan struct{}),
	}
}

func (s *Session) TenantID() string {
	return s.tenantID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PairingCode returns the last pairing token the engine issued, empty
// once the session has paired or before the first pairing round.
func (s *Session) PairingCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairingCode
}

// Client exposes the underlying engine client for data-plane calls.
// Callers must pass the RequireOnline gate first; nil when engine
// client allocation failed at creation time.
func (s *Session) Client() engine.Client {
	return s.client
}

// WaitSend blocks until the session's outbound rate limiter grants a
// slot, or the context is cancelled.
func (s *Session) WaitSend(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// setState switches the state and reports whether it actually changed.
// The callback is captured under the lock so teardown can disarm it.
func (s *Session) setState(next State) bool {
	s.mu.Lock()
	changed := s.state != next
	s.state = next
	onState := s.onState
	s.mu.Unlock()
	if changed {
		log.Session(s.tenantID).Info("Session state changed to " + string(next))
		if onState != nil {
			onState(s.tenantID, next)
		}
	}
	return changed
}

// publish enqueues a frame on the session's bounded event queue. The
// queue is drained by a single goroutine, preserving per-tenant frame
// order. A full queue drops the frame rather than blocking an engine
// callback.
func (s *Session) publish(f Frame) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- f:
	default:
		log.Session(s.tenantID).Warn("Event queue full, dropping " + f.Type + " frame")
	}
}

// drain is the single fan-out loop for this session.
func (s *Session) drain() {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.events:
			s.deliver(f)
		}
	}
}

// deliver pushes one frame to every current subscriber. Delivery is
// best-effort per subscriber: one full or closed sink never affects
// the others.
func (s *Session) deliver(f Frame) {
	s.mu.Lock()
	sinks := make([]*Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		sinks = append(sinks, sub)
	}
	s.mu.Unlock()

	for _, sub := range sinks {
		if !sub.push(f) {
			log.Session(s.tenantID).Debug("Dropped " + f.Type + " frame for subscriber " + sub.ID())
		}
	}
}

// subscribe attaches a new sink and seeds it with the current state so
// late joiners do not wait for the next transition.
func (s *Session) subscribe(buffer int) *Subscriber {
	sub := newSubscriber(buffer)
	sub.detach = func() { s.removeSubscriber(sub.id) }

	s.mu.Lock()
	s.subscribers[sub.id] = sub
	state := s.state
	code := s.pairingCode
	s.mu.Unlock()

	if code != "" && state != StateOnline {
		sub.push(qrFrame(code))
	}
	sub.push(statusFrame(state))
	return sub
}

func (s *Session) removeSubscriber(id string) {
	s.mu.Lock()
	delete(s.subscribers, id)
	s.mu.Unlock()
}

// initialize runs the engine client's asynchronous start. Failures do
// not surface to the creator; the session simply stays OFFLINE until
// an explicit restart.
func (s *Session) initialize() {
	ctx, cancel := context.WithTimeout(context.Background(), initializeTimeout)
	defer cancel()

	if err := s.client.Initialize(ctx); err != nil {
		log.Session(s.tenantID).WithError(err).Warn("Engine client initialization failed")
	}
}

// handleEngineEvent translates raw engine events into frames and
// drives the session state machine. Registered on the engine client
// before Initialize; invoked asynchronously per event.
func (s *Session) handleEngineEvent(evt interface{}) {
	// Teardown can itself provoke engine events (the disconnect from
	// Destroy); a stopped session must not act on them, or the tenant
	// row Stop just removed would be re-persisted.
	select {
	case <-s.done:
		return
	default:
	}

	switch e := evt.(type) {
	case *engine.PairingCodeEvent:
		s.mu.Lock()
		s.pairingCode = e.Code
		s.mu.Unlock()
		changed := s.setState(StateReconnecting)
		// The qr frame must precede the status frame of the same
		// pairing round.
		s.publish(qrFrame(e.Code))
		if changed {
			s.publish(statusFrame(StateReconnecting))
		}

	case *engine.ReadyEvent:
		s.mu.Lock()
		s.pairingCode = ""
		s.mu.Unlock()
		changed := s.setState(StateOnline)
		s.publish(readyFrame())
		if changed {
			s.publish(statusFrame(StateOnline))
		}

	case *engine.DisconnectedEvent:
		log.Session(s.tenantID).Warn("Engine client disconnected: " + e.Reason)
		if s.setState(StateReconnecting) {
			s.publish(statusFrame(StateReconnecting))
		}
		go s.reconnectOnce()

	case *engine.AuthFailureEvent:
		log.Session(s.tenantID).Error("Engine client auth failure: " + e.Reason)
		if s.setState(StateOffline) {
			s.publish(statusFrame(StateOffline))
		}

	case *engine.MessageEvent:
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		dto := s.TranslateMessage(ctx, e.Message)
		cancel()
		s.publish(messageFrame(dto))

	case *engine.AckEvent:
		s.publish(ackFrame(e.MessageID, e.Level))
	}
}

// reconnectOnce performs the single automatic recovery attempt for one
// disconnect event. It is deliberately not a loop: a failed attempt
// degrades the session to OFFLINE, and only a subsequent disconnect
// event (or an explicit restart) makes it eligible again.
func (s *Session) reconnectOnce() {
	select {
	case <-s.done:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), reconnectTimeout)
	defer cancel()

	if err := s.client.Initialize(ctx); err != nil {
		log.Session(s.tenantID).WithError(err).Warn("Reconnect attempt failed")
		if s.setState(StateOffline) {
			s.publish(statusFrame(StateOffline))
		}
		return
	}
	// Success completes through the engine's ready event.
}

// close tears the session down: engine client destroy is best-effort,
// all subscribers are evicted and the fan-out loop stops.
func (s *Session) close() {
	s.stopOnce.Do(func() {
		// Disarm the persistence callback before anything else so late
		// engine events cannot resurrect a removed tenant row.
		s.mu.Lock()
		s.onState = nil
		s.mu.Unlock()

		close(s.done)

		s.mu.Lock()
		sinks := make([]*Subscriber, 0, len(s.subscribers))
		for _, sub := range s.subscribers {
			sinks = append(sinks, sub)
		}
		s.subscribers = make(map[string]*Subscriber)
		s.mu.Unlock()

		for _, sub := range sinks {
			sub.Close()
		}

		if s.client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
			defer cancel()
			if err := s.client.Destroy(ctx); err != nil {
				log.Session(s.tenantID).WithError(err).Warn("Engine client teardown failed")
			}
		}
	})
}
