// Package session remembers the active document of each caller between
// questions.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/segmentio/ksuid"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
)

// Session is a snapshot of one caller's state.
type Session struct {
	ID       string
	Document *attachment.Document
	// PendingForce routes the next question straight to document QA.
	PendingForce bool
	UpdatedAt    time.Time
}

// Store keeps sessions in a size- and age-bounded LRU.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, Session]
	now   func() time.Time
}

func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1
	}
	return &Store{
		cache: expirable.NewLRU[string, Session](size, nil, ttl),
		now:   time.Now,
	}
}

// Create starts an empty session.
func (s *Store) Create() Session {
	sess := Session{ID: ksuid.New().String(), UpdatedAt: s.now()}
	s.cache.Add(sess.ID, sess)
	return sess
}

func (s *Store) Get(id string) (Session, bool) {
	return s.cache.Get(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Attach stores doc as the active document and arms the force flag. An
// unknown but well-formed id starts a new session under that id.
func (s *Store) Attach(id string, doc *attachment.Document) (Session, error) {
	if _, err := ksuid.Parse(id); err != nil {
		return Session{}, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		sess = Session{ID: id}
	}
	sess.Document = doc
	sess.PendingForce = true
	sess.UpdatedAt = s.now()
	s.cache.Add(id, sess)
	return sess, nil
}

// Take returns the active document and whether this question must be forced
// to document QA. The force flag is consumed; the document stays.
func (s *Store) Take(id string) (*attachment.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false, ErrNotFound
	}
	force := sess.PendingForce
	sess.PendingForce = false
	sess.UpdatedAt = s.now()
	s.cache.Add(id, sess)
	return sess.Document, force, nil
}

func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}
