// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/statestore"
	"github.com/wavetermdev/ripple/pkg/termhost"
	"github.com/wavetermdev/ripple/pkg/todo"
	"github.com/wavetermdev/ripple/pkg/uiloop"
)

const LogFileName = "ripple.log"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the todo list from the terminal",
	RunE:  runRunCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// watchStore reloads the list when another process edits a file store.
// onReload runs on the loop after the list re-rendered.
func watchStore(env *appEnv, loop *uiloop.Loop, onReload func()) {
	fileStore, ok := env.store.(*statestore.FileStore)
	if !ok {
		return
	}
	err := fileStore.Watch(func(key string) {
		if key != todo.StoreKey {
			return
		}
		loop.Post(func() {
			env.list.Reload(fileStore)
			if onReload != nil {
				onReload()
			}
		})
	})
	if err != nil {
		log.Printf("[store] cannot watch file store: %v\n", err)
	}
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	env, err := openApp(false)
	if err != nil {
		return err
	}
	defer env.Close()
	if termhost.IsInteractive(os.Stdin) && env.settings.StoreBackend != statestore.Backend_Memory {
		// the line editor owns the terminal, keep log lines out of it
		logFile, err := os.OpenFile(filepath.Join(env.dataDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	loop := uiloop.MakeLoop()
	go loop.Run(ctx)
	defer loop.Stop()
	watchStore(env, loop, nil)
	host := termhost.MakeHost(env.doc, env.list, os.Stdout, false)
	return host.RunStdio(ctx, loop)
}
