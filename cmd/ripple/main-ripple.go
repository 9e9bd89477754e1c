// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/ripplebase"
	"github.com/wavetermdev/ripple/pkg/statestore"
	"github.com/wavetermdev/ripple/pkg/todo"
)

// these are set at build time
var RippleVersion = "0.0.0"
var BuildTime = "0"

var dataHomeFlag string
var storeFlag string

var rootCmd = &cobra.Command{
	Use:           "ripple",
	Short:         "Ripple - a todo list on a replace-and-refocus component engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return ripplebase.CacheEnvVars()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataHomeFlag, "data-home", "", "data directory (default $"+ripplebase.DataHomeEnvVar+" or ~/.ripple)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "state store backend: memory, sqlite or file (default from config.ini)")
}

type appEnv struct {
	dataDir  string
	settings ripplebase.Settings
	store    statestore.Store
	doc      *hostdom.Document
	list     *todo.TodoList
}

func (env *appEnv) Close() {
	err := statestore.Close(env.store)
	if err != nil {
		log.Printf("[store] error closing store: %v\n", err)
	}
}

// openApp resolves configuration, opens the store and mounts the todo list.
func openApp(strictOverride bool) (*appEnv, error) {
	dataDir := ripplebase.GetDataDir()
	if dataHomeFlag != "" {
		dataDir = ripplebase.ExpandHomeDirSafe(dataHomeFlag)
	}
	settings, err := ripplebase.LoadSettings(dataDir)
	if err != nil {
		return nil, err
	}
	if storeFlag != "" {
		settings.StoreBackend = storeFlag
	}
	if strictOverride {
		settings.Strict = true
	}
	if settings.StoreBackend != statestore.Backend_Memory {
		err = ripplebase.EnsureDataDir(dataDir)
		if err != nil {
			return nil, err
		}
	}
	store, err := statestore.Open(settings.StoreBackend, settings.StoreLocation(dataDir))
	if err != nil {
		return nil, fmt.Errorf("cannot open %s store: %w", settings.StoreBackend, err)
	}
	doc := hostdom.MakeDocument()
	list, err := todo.MountApp(doc, &todo.ListOptions{
		Store:   store,
		FocusID: settings.FocusID,
		Strict:  settings.Strict,
	})
	if err != nil {
		statestore.Close(store)
		return nil, err
	}
	return &appEnv{dataDir: dataDir, settings: settings, store: store, doc: doc, list: list}, nil
}

func main() {
	ripplebase.RippleVersion = RippleVersion
	ripplebase.BuildTime = BuildTime
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[ripple] ")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
