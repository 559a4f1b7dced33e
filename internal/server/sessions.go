package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"golang.org/x/sync/semaphore"
)

// session is the server-side home of one describe.State.
// The semaphore serializes requests that mutate the state.
type session struct {
	state *describe.State
	sem   *semaphore.Weighted

	mu         sync.RWMutex // guards state.Names and collection
	collection *ingestion.Collection

	lastUsed atomic.Int64 // unix nanoseconds
}

func (s *session) setCollection(coll *ingestion.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = coll
	s.state.Names = coll.Names
}

func (s *session) names() ingestion.NameList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(ingestion.NameList(nil), s.state.Names...)
}

// acquire claims the session for the current request or reports it busy.
func (s *session) acquire() (release func(), err error) {
	if !s.sem.TryAcquire(1) {
		return nil, &ErrSessionBusy{SessionID: s.state.ID}
	}
	return func() { s.sem.Release(1) }, nil
}

func (s *session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// sessionStore keeps sessions in memory. Sessions idle for longer than ttl
// are evicted, and at most maxSessions are held at once. A zero ttl or
// maxSessions disables that bound. Busy sessions are never evicted.
type sessionStore struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*session
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	janitorStop chan struct{}
	stopOnce    sync.Once
}

func newSessionStore(ttl time.Duration, maxSessions int) *sessionStore {
	return &sessionStore{
		sessions:    make(map[uuid.UUID]*session),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

func (st *sessionStore) create(exportPath string) (*session, error) {
	sess := &session{
		state: describe.NewState(exportPath),
		sem:   semaphore.NewWeighted(1),
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	sess.touch(now)
	st.evictExpiredLocked(now)
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions && !st.evictOldestLocked() {
		return nil, &ErrTooManySessions{Limit: st.maxSessions}
	}
	st.sessions[sess.state.ID] = sess
	return sess, nil
}

func (st *sessionStore) get(id uuid.UUID) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	sess.touch(st.now())
	return sess, nil
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// evictExpired drops idle sessions past the ttl and returns how many were dropped.
func (st *sessionStore) evictExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.evictExpiredLocked(st.now())
}

func (st *sessionStore) evictExpiredLocked(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-st.ttl)
	evicted := 0
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) && st.removeIdleLocked(id, sess) {
			evicted++
		}
	}
	return evicted
}

// evictOldestLocked drops the least recently used idle session.
func (st *sessionStore) evictOldestLocked() bool {
	var (
		oldestID uuid.UUID
		oldest   *session
	)
	for id, sess := range st.sessions {
		if oldest == nil || sess.idleSince().Before(oldest.idleSince()) {
			if sess.sem.TryAcquire(1) {
				if oldest != nil {
					oldest.sem.Release(1)
				}
				oldestID, oldest = id, sess
			}
		}
	}
	if oldest == nil {
		return false
	}
	delete(st.sessions, oldestID)
	oldest.sem.Release(1)
	return true
}

func (st *sessionStore) removeIdleLocked(id uuid.UUID, sess *session) bool {
	if !sess.sem.TryAcquire(1) {
		return false
	}
	delete(st.sessions, id)
	sess.sem.Release(1)
	return true
}

// startJanitor evicts expired sessions every interval until stop is called.
func (st *sessionStore) startJanitor(interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}
	st.janitorStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.evictExpired()
			case <-st.janitorStop:
				return
			}
		}
	}()
}

func (st *sessionStore) stop() {
	st.stopOnce.Do(func() {
		if st.janitorStop != nil {
			close(st.janitorStop)
		}
	})
}

// wait blocks until every in-flight request has released its session.
func (st *sessionStore) wait(ctx context.Context) error {
	st.mu.RLock()
	all := make([]*session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		all = append(all, sess)
	}
	st.mu.RUnlock()

	for _, sess := range all {
		if err := sess.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		sess.sem.Release(1)
	}
	return nil
}
