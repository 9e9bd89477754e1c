// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package ripplebase

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/wavetermdev/ripple/pkg/statestore"
	"gopkg.in/ini.v1"
)

// set by the build
var RippleVersion = "0.0.0"
var BuildTime = "0"

const (
	DataHomeEnvVar = "RIPPLE_DATA_HOME"
	DevEnvVar      = "RIPPLE_DEV"
)

const (
	DotEnvFileName = ".env"
	ConfigFileName = "config.ini"
	DBFileName     = "ripple.db"
	StateDirName   = "state"
	DefaultDataDir = "~/.ripple"
	DevDataDir     = "~/.ripple-dev"
	DefaultWebAddr = "127.0.0.1:7070"
)

const (
	Section_Store = "store"
	Section_UI    = "ui"
	Section_Web   = "web"
)

var DataHome_VarCache string // caches RIPPLE_DATA_HOME
var Dev_VarCache string      // caches RIPPLE_DEV

// CacheEnvVars loads an optional .env file from the working directory (never
// overriding variables already set) and caches the ripple variables.
func CacheEnvVars() error {
	err := godotenv.Load(DotEnvFileName)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load %s: %w", DotEnvFileName, err)
	}
	DataHome_VarCache = os.Getenv(DataHomeEnvVar)
	Dev_VarCache = os.Getenv(DevEnvVar)
	return nil
}

func IsDevMode() bool {
	return Dev_VarCache != ""
}

func GetDataDir() string {
	if DataHome_VarCache != "" {
		return ExpandHomeDirSafe(DataHome_VarCache)
	}
	if IsDevMode() {
		return ExpandHomeDirSafe(DevDataDir)
	}
	return ExpandHomeDirSafe(DefaultDataDir)
}

func GetHomeDir() string {
	homeVar, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return homeVar
}

func ExpandHomeDir(pathStr string) (string, error) {
	if pathStr != "~" && !strings.HasPrefix(pathStr, "~/") {
		return filepath.Clean(pathStr), nil
	}
	homeDir := GetHomeDir()
	if pathStr == "~" {
		return homeDir, nil
	}
	expandedPath := filepath.Clean(filepath.Join(homeDir, pathStr[2:]))
	if !strings.HasPrefix(expandedPath, homeDir) {
		return "", fmt.Errorf("potential path traversal detected for path %s", pathStr)
	}
	return expandedPath, nil
}

func ExpandHomeDirSafe(pathStr string) string {
	path, _ := ExpandHomeDir(pathStr)
	return path
}

func EnsureDataDir(dataDir string) error {
	return TryMkdirs(dataDir, 0700, "ripple data directory")
}

func TryMkdirs(dirName string, perm os.FileMode, dirDesc string) error {
	info, err := os.Stat(dirName)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.MkdirAll(dirName, perm)
		if err != nil {
			return fmt.Errorf("cannot make %s %q: %w", dirDesc, dirName, err)
		}
		info, err = os.Stat(dirName)
	}
	if err != nil {
		return fmt.Errorf("error trying to stat %s: %w", dirDesc, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q must be a directory", dirDesc, dirName)
	}
	return nil
}

type Settings struct {
	StoreBackend string
	StorePath    string
	FocusID      string
	Strict       bool
	WebAddr      string
	WebOpen      bool
}

func DefaultSettings() Settings {
	return Settings{
		StoreBackend: statestore.Backend_SQLite,
		WebAddr:      DefaultWebAddr,
	}
}

// LoadSettings reads config.ini from dataDir. A missing file yields the defaults.
func LoadSettings(dataDir string) (Settings, error) {
	rtn := DefaultSettings()
	fname := filepath.Join(dataDir, ConfigFileName)
	if _, err := os.Stat(fname); errors.Is(err, fs.ErrNotExist) {
		return rtn, nil
	}
	cfg, err := ini.Load(fname)
	if err != nil {
		return rtn, fmt.Errorf("error reading %s: %w", fname, err)
	}
	store := cfg.Section(Section_Store)
	rtn.StoreBackend = store.Key("backend").MustString(rtn.StoreBackend)
	rtn.StorePath = store.Key("path").MustString("")
	ui := cfg.Section(Section_UI)
	rtn.FocusID = ui.Key("focus-id").MustString("")
	rtn.Strict = ui.Key("strict").MustBool(false)
	web := cfg.Section(Section_Web)
	rtn.WebAddr = web.Key("addr").MustString(rtn.WebAddr)
	rtn.WebOpen = web.Key("open").MustBool(false)
	switch rtn.StoreBackend {
	case statestore.Backend_Memory, statestore.Backend_SQLite, statestore.Backend_File:
	default:
		log.Printf("[config] unknown store backend %q in %s, using %s\n", rtn.StoreBackend, fname, statestore.Backend_SQLite)
		rtn.StoreBackend = statestore.Backend_SQLite
	}
	return rtn, nil
}

// StoreLocation is the sqlite db file or the file store directory for s.
func (s Settings) StoreLocation(dataDir string) string {
	if s.StorePath != "" {
		return ExpandHomeDirSafe(s.StorePath)
	}
	switch s.StoreBackend {
	case statestore.Backend_SQLite:
		return filepath.Join(dataDir, DBFileName)
	case statestore.Backend_File:
		return filepath.Join(dataDir, StateDirName)
	}
	return ""
}
