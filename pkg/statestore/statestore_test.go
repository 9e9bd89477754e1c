// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func checkRoundTrip(t *testing.T, s Store) {
	t.Helper()
	_, found, err := s.Load("todos")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if found {
		t.Fatalf("expected nothing stored yet")
	}
	for _, data := range []string{`{"a":1}`, `{"a":2,"b":[true,"x"]}`} {
		if err := s.Save("todos", data); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, found, err := s.Load("todos")
		if err != nil || !found {
			t.Fatalf("load: found=%v err=%v", found, err)
		}
		if got != data {
			t.Errorf("got %q want %q", got, data)
		}
	}
}

func TestMemStore(t *testing.T) {
	checkRoundTrip(t, MakeMemStore())
}

func openTestSQLite(t *testing.T, dbName string) *SQLiteStore {
	s, err := OpenSQLiteStore(dbName)
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") || strings.Contains(err.Error(), "requires cgo") {
			t.Skipf("sqlite store tests require cgo: %v", err)
		}
		t.Fatalf("opening sqlite store: %v", err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	s := openTestSQLite(t, MemoryDBName)
	defer s.Close()
	checkRoundTrip(t, s)
	version, err := s.Version("todos")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	dbName := filepath.Join(t.TempDir(), "state.db")
	s := openTestSQLite(t, dbName)
	if err := s.Save("todos", `{"x":true}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()
	s = openTestSQLite(t, dbName)
	defer s.Close()
	got, found, err := s.Load("todos")
	if err != nil || !found || got != `{"x":true}` {
		t.Errorf("reopen load = %q found=%v err=%v", got, found, err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	checkRoundTrip(t, s)
	if _, err := os.Stat(filepath.Join(dir, "todos.json")); err != nil {
		t.Errorf("expected key file: %v", err)
	}
	if err := s.Save("../escape", "x"); err == nil {
		t.Errorf("expected invalid key error")
	}
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	keyCh := make(chan string, 16)
	if err := s.Watch(func(key string) { keyCh <- key }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "todos.json"), []byte("{}"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case key := <-keyCh:
		if key != "todos" {
			t.Errorf("key = %q", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no watch notification")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", ""); err == nil {
		t.Errorf("expected error for unknown backend")
	}
	s, err := Open(Backend_Memory, "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if err := Close(s); err != nil {
		t.Errorf("close: %v", err)
	}
}
