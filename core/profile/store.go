package profile

import (
	"encoding/json"
	"sync"

	"github.com/tkamau/tunza/core"
)

// Storage persists one JSON document per key. Implementations must be safe
// for concurrent use.
type Storage interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// Record is one profile document. Values are whatever json.Unmarshal
// produces for the stored JSON.
type Record map[string]interface{}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store holds a role-scoped profile record in memory and writes every change
// through to its Storage under a fixed key.
//
// Set merges at the TOP LEVEL only: each incoming key replaces the stored
// value for that key wholesale, nested maps are never merged. Callers that
// want to update one field of a nested object must read it, modify it and
// write the whole object back.
type Store struct {
	storage Storage
	logger  core.Logger
	key     string
	role    string

	mu   sync.RWMutex
	data Record
	subs []func(Record)
}

func NewStore(storage Storage, logger core.Logger, role string) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
		key:     "profile." + role,
		role:    role,
		data:    Defaults(role),
	}
}

// Get returns a snapshot of the record. Mutating the returned map does not
// affect the store.
func (s *Store) Get() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Set shallow-merges patch into the record and writes the result through to
// storage before returning. Persistence is best effort: a storage failure is
// logged and the in-memory record keeps the merged value.
func (s *Store) Set(patch Record) {
	s.mu.Lock()
	for k, v := range patch {
		s.data[k] = v
	}
	snapshot := s.data.Clone()
	subs := s.subs
	s.mu.Unlock()

	s.persist(snapshot)
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}

// Reset discards the record and restores the role's default shape, both in
// memory and in storage.
func (s *Store) Reset() {
	s.mu.Lock()
	s.data = Defaults(s.role)
	snapshot := s.data.Clone()
	subs := s.subs
	s.mu.Unlock()

	s.persist(snapshot)
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}

// Subscribe registers fn to run after every Set and Reset with a snapshot of
// the new record. Subscribers run on the mutating goroutine.
func (s *Store) Subscribe(fn func(Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) persist(snapshot Record) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("profile: marshal record", "key", s.key, "err", err)
		return
	}
	if err = s.storage.Write(s.key, data); err != nil {
		s.logger.Error("profile: persist record", "key", s.key, "err", err)
	}
}

// hydrate replaces the record with the stored copy, if any. Missing or
// corrupt documents leave the defaults in place.
func (s *Store) hydrate() {
	data, err := s.storage.Read(s.key)
	if err != nil || len(data) == 0 {
		return
	}
	var rec Record
	if err = json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("profile: discarding corrupt record", "key", s.key, "err", err)
		return
	}
	s.mu.Lock()
	s.data = rec
	s.mu.Unlock()
}
