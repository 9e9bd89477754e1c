// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package statestore holds the persistence collaborators used by components
// to save their serialized state: an in-memory map, a sqlite table and a
// directory of json files.
package statestore

import (
	"fmt"
	"sync"
)

const (
	Backend_Memory = "memory"
	Backend_SQLite = "sqlite"
	Backend_File   = "file"
)

// Store saves and loads serialized state by key. Load reports false when
// nothing has been stored under key.
type Store interface {
	Save(key string, data string) error
	Load(key string) (string, bool, error)
}

// Open creates a store for the named backend. path is the sqlite db file or the
// file store directory and is ignored for the memory backend.
func Open(backend string, path string) (Store, error) {
	switch backend {
	case "", Backend_Memory:
		return MakeMemStore(), nil
	case Backend_SQLite:
		return OpenSQLiteStore(path)
	case Backend_File:
		return OpenFileStore(path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// Close closes stores that hold resources.
func Close(s Store) error {
	if closer, ok := s.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

type MemStore struct {
	lock *sync.Mutex
	m    map[string]string
}

func MakeMemStore() *MemStore {
	return &MemStore{lock: &sync.Mutex{}, m: make(map[string]string)}
}

func (s *MemStore) Save(key string, data string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.m[key] = data
	return nil
}

func (s *MemStore) Load(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	data, ok := s.m[key]
	return data, ok, nil
}
