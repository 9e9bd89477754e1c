// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package statestore

// sqlite backed store, includes migration support and txwrap setup

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sawka/txwrap"

	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	dbfs "github.com/wavetermdev/ripple/db"
)

const MemoryDBName = ":memory:"
const migrationsDirName = "migrations-statestore"
const dbTimeout = 2 * time.Second

type TxWrap = txwrap.TxWrap

type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLiteStore opens (or creates) the db at dbName and migrates it.
// Use MemoryDBName for a private in-memory db.
func OpenSQLiteStore(dbName string) (*SQLiteStore, error) {
	var rtn *sqlx.DB
	var err error
	if dbName == "" || dbName == MemoryDBName {
		log.Printf("[store] using in-memory db\n")
		rtn, err = sqlx.Open("sqlite3", MemoryDBName)
	} else {
		log.Printf("[store] opening db %s\n", dbName)
		rtn, err = sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbName))
	}
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// one connection, an in-memory db only lives as long as its connection
	rtn.DB.SetMaxOpenConns(1)
	err = migrateDB(rtn.DB)
	if err != nil {
		rtn.Close()
		return nil, err
	}
	return &SQLiteStore{db: rtn}, nil
}

func makeMigrate(db *sql.DB) (*migrate.Migrate, error) {
	fsVar, err := iofs.New(dbfs.StateStoreMigrationFS, migrationsDirName)
	if err != nil {
		return nil, fmt.Errorf("opening fs: %w", err)
	}
	mdriver, err := sqlite3migrate.WithInstance(db, &sqlite3migrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("making statestore migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", fsVar, "sqlite3", mdriver)
	if err != nil {
		return nil, fmt.Errorf("making statestore migration: %w", err)
	}
	return m, nil
}

func getMigrateVersion(m *migrate.Migrate) (uint, bool, error) {
	curVersion, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	return curVersion, dirty, err
}

func migrateDB(db *sql.DB) error {
	m, err := makeMigrate(db)
	if err != nil {
		return err
	}
	curVersion, dirty, err := getMigrateVersion(m)
	if dirty {
		return fmt.Errorf("statestore, migrate up, database is dirty")
	}
	if err != nil {
		return fmt.Errorf("statestore, cannot get current migration version: %w", err)
	}
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrating statestore: %w", err)
	}
	newVersion, _, err := getMigrateVersion(m)
	if err != nil {
		return fmt.Errorf("statestore, cannot get new migration version: %w", err)
	}
	if newVersion != curVersion {
		log.Printf("[store] migration done, version %d -> %d\n", curVersion, newVersion)
	}
	return nil
}

func (s *SQLiteStore) withTx(fn func(tx *TxWrap) error) error {
	ctx, cancelFn := context.WithTimeout(context.Background(), dbTimeout)
	defer cancelFn()
	return txwrap.WithTx(ctx, s.db, fn)
}

func (s *SQLiteStore) Save(key string, data string) error {
	return s.withTx(func(tx *TxWrap) error {
		query := `INSERT INTO db_state (key, version, data, updatedts) VALUES (?, 1, ?, ?)
		          ON CONFLICT (key) DO UPDATE SET data = excluded.data, version = version + 1, updatedts = excluded.updatedts`
		tx.Exec(query, key, data, time.Now().UnixMilli())
		return nil
	})
}

func (s *SQLiteStore) Load(key string) (string, bool, error) {
	var data string
	var found bool
	err := s.withTx(func(tx *TxWrap) error {
		query := `SELECT data FROM db_state WHERE key = ?`
		found = tx.Get(&data, query, key)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return data, found, nil
}

// Version returns how many times key has been saved.
func (s *SQLiteStore) Version(key string) (int, error) {
	var version int
	err := s.withTx(func(tx *TxWrap) error {
		version = tx.GetInt(`SELECT version FROM db_state WHERE key = ?`, key)
		return nil
	})
	return version, err
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
