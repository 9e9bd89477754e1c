// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alexflint/go-filemutex"
	"github.com/fsnotify/fsnotify"
)

const fileStoreExt = ".json"
const fileStoreLockName = "state.lock"

var validKeyRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileStore keeps one file per key in a directory. A lock file guards
// writes against other processes sharing the directory.
type FileStore struct {
	dir     string
	lock    *filemutex.FileMutex
	watcher *fsnotify.Watcher
}

func OpenFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store needs a directory")
	}
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	lock, err := filemutex.New(filepath.Join(dir, fileStoreLockName))
	if err != nil {
		return nil, fmt.Errorf("filemutex new error: %w", err)
	}
	log.Printf("[store] using file store %s\n", dir)
	return &FileStore{dir: dir, lock: lock}, nil
}

func (s *FileStore) keyPath(key string) (string, error) {
	if !validKeyRe.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+fileStoreExt), nil
}

func (s *FileStore) Save(key string, data string) error {
	fileName, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("filemutex lock error: %w", err)
	}
	defer s.lock.Unlock()
	// write-then-rename so readers never see a partial file
	tmpName := fileName + ".tmp"
	err = os.WriteFile(tmpName, []byte(data), 0600)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	err = os.Rename(tmpName, fileName)
	if err != nil {
		return fmt.Errorf("renaming %s: %w", tmpName, err)
	}
	return nil
}

func (s *FileStore) Load(key string) (string, bool, error) {
	fileName, err := s.keyPath(key)
	if err != nil {
		return "", false, err
	}
	if err := s.lock.Lock(); err != nil {
		return "", false, fmt.Errorf("filemutex lock error: %w", err)
	}
	defer s.lock.Unlock()
	barr, err := os.ReadFile(fileName)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", fileName, err)
	}
	return string(barr), true, nil
}

// Watch calls fn with the key whenever a key file is written by anyone
// (this process included). fn runs on the watcher goroutine; callers that
// touch components must post to the ui loop.
func (s *FileStore) Watch(fn func(key string)) error {
	if s.watcher != nil {
		return errors.New("file store is already being watched")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	err = watcher.Add(s.dir)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	s.watcher = watcher
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				base := filepath.Base(event.Name)
				if !strings.HasSuffix(base, fileStoreExt) {
					continue
				}
				fn(strings.TrimSuffix(base, fileStoreExt))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[store] watcher error: %v\n", err)
			}
		}
	}()
	return nil
}

func (s *FileStore) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
		s.watcher = nil
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Close())
		s.lock = nil
	}
	return errors.Join(errs...)
}
