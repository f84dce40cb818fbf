// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Store keeps the sessions of the process in memory. Sessions expire after
// being idle for the store TTL and never survive a restart.
type Store struct {
	ttl   time.Duration
	cache *cache.Cache
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{ttl: ttl, cache: cache.New(ttl, ttl/2)}
}

// Create registers a new empty session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString())
	st.cache.Set(s.ID, s, st.ttl)

	return s
}

// Get returns the session with the given id and extends its lifetime.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}

	s, ok := v.(*Session)
	if !ok {
		return nil, false
	}

	st.cache.Set(id, s, st.ttl)

	return s, true
}

// Delete forgets a session.
func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	return st.cache.ItemCount()
}
