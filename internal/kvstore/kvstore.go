// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package kvstore is a minimal in-memory key/value store, the same narrow
// shape pkg/kademlia/routing_helpers_test.go drives through
// storelogger.New(zap.L(), teststore.New()) — the teacher's real storage
// package (storelogger/teststore/boltdb-backed store) was pruned from the
// retrieval pack, so this is rebuilt from that usage, not copied.
package kvstore

import (
	"bytes"
	"sort"
	"sync"

	"github.com/zeebo/errs"
)

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = errs.Class("key not found")

// Key and Value are opaque byte strings, matching storage.Key/storage.Value.
type Key []byte
type Value []byte

// Store is a small in-memory, sorted key/value store.
type Store struct {
	mu   sync.Mutex
	data map[string]Value
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string]Value)}
}

// Put inserts or overwrites key.
func (s *Store) Put(key Key, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = append(Value(nil), value...)
	return nil
}

// Get returns the value stored for key.
func (s *Store) Get(key Key) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound.New("%x", key)
	}
	return v, nil
}

// Delete removes key, if present.
func (s *Store) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Keys returns every key currently stored, sorted ascending.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, Key(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	return keys
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
