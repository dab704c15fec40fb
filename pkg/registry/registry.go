package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
)

// ErrNotReady is returned by RequireOnline for sessions that exist but
// are not ONLINE. The HTTP boundary maps it to a 400 response.
var ErrNotReady = errors.New("tenant session is not online")

const persistTimeout = 5 * time.Second

// Persistence syncs coarse tenant state to durable storage so sessions
// can be restored after a restart. Implementations must tolerate being
// called from multiple goroutines. May be nil on the Registry.
type Persistence interface {
	SaveTenantState(ctx context.Context, tenantID string, state string) error
	RemoveTenant(ctx context.Context, tenantID string) error
}

// TenantStatus is one row of the registry's operational snapshot.
type TenantStatus struct {
	TenantID    string `json:"tenantId"`
	State       State  `json:"state"`
	Subscribers int    `json:"subscribers"`
}

// Registry is the sole owner of the tenant -> Session map. It is an
// injected object rather than a package global so tests and embedders
// can run isolated instances.
type Registry struct {
	engine  engine.Engine
	persist Persistence

	queueSize        int
	subscriberBuffer int
	sendRate         rate.Limit
	sendBurst        int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New builds a Registry on top of an engine. Queue and rate tuning
// comes from the environment with safe defaults. persist may be nil.
func New(eng engine.Engine, persist Persistence) *Registry {
	return &Registry{
		engine:           eng,
		persist:          persist,
		queueSize:        env.GetEnvIntOrDefault("WA_EVENT_QUEUE_SIZE", 256),
		subscriberBuffer: env.GetEnvIntOrDefault("WA_SUBSCRIBER_BUFFER", 32),
		sendRate:         rate.Limit(env.GetEnvIntOrDefault("WA_SEND_RATE_PER_SECOND", 5)),
		sendBurst:        env.GetEnvIntOrDefault("WA_SEND_BURST", 10),
		sessions:         make(map[string]*Session),
	}
}

// GetOrCreate returns the tenant's session, constructing it on first
// reference. Construction never fails synchronously: an engine client
// allocation failure is logged and leaves the session OFFLINE.
func (r *Registry) GetOrCreate(tenantID string) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[tenantID]; ok {
		r.mu.Unlock()
		return s
	}

	s := newSession(tenantID, r.queueSize, r.sendRate, r.sendBurst)
	s.onState = r.syncState

	client, err := r.engine.NewClient(tenantID)
	if err != nil {
		log.Session(tenantID).WithError(err).Error("Failed to allocate engine client")
	} else {
		s.client = client
		// Handlers must be registered before the client starts.
		client.AddEventHandler(s.handleEngineEvent)
	}

	r.sessions[tenantID] = s
	r.mu.Unlock()

	go s.drain()
	if s.client != nil {
		go s.initialize()
	}
	// The initial state write happens outside the registry lock, like
	// Stop's removal: a slow tenant store must not block reads.
	r.syncState(tenantID, StateOffline)

	log.Session(tenantID).Info("Session created")
	return s
}

// Get returns the tenant's session or nil. Read paths never fail for
// unknown tenants.
func (r *Registry) Get(tenantID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[tenantID]
}

// RequireOnline is the gate every data-plane operation passes through.
// The answer is "was online when checked"; callers must tolerate the
// state changing across later suspension points.
func (r *Registry) RequireOnline(tenantID string) (*Session, error) {
	s := r.Get(tenantID)
	if s == nil || s.State() != StateOnline {
		return nil, ErrNotReady
	}
	return s, nil
}

// Subscribe attaches a new event sink to the tenant's session,
// creating the session when needed.
func (r *Registry) Subscribe(tenantID string) *Subscriber {
	return r.GetOrCreate(tenantID).subscribe(r.subscriberBuffer)
}

// Stop tears down the tenant's session and removes it from the map.
// Idempotent: stopping an unknown tenant is a no-op success. Teardown
// of the engine client runs asynchronously and is not retried.
func (r *Registry) Stop(tenantID string) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if ok {
		delete(r.sessions, tenantID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	go s.close()

	if r.persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := r.persist.RemoveTenant(ctx, tenantID); err != nil {
			log.Session(tenantID).WithError(err).Warn("Failed to remove persisted tenant")
		}
	}

	log.Session(tenantID).Info("Session stopped")
}

// List returns a point-in-time snapshot of all known sessions, sorted
// by tenant id. The snapshot may be immediately stale.
func (r *Registry) List() []TenantStatus {
	r.mu.RLock()
	statuses := make([]TenantStatus, 0, len(r.sessions))
	for _, s := range r.sessions {
		statuses = append(statuses, TenantStatus{
			TenantID:    s.TenantID(),
			State:       s.State(),
			Subscribers: s.SubscriberCount(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].TenantID < statuses[j].TenantID
	})
	return statuses
}

// Shutdown closes every session. Used on process exit only; sessions
// are torn down synchronously so the engine can flush.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.close()
	}
}

func (r *Registry) syncState(tenantID string, state State) {
	if r.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.persist.SaveTenantState(ctx, tenantID, string(state)); err != nil {
		log.Session(tenantID).WithError(err).Warn("Failed to persist tenant state")
	}
}
