// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/uiloop"
	"github.com/wavetermdev/ripple/pkg/web"
	"golang.org/x/sync/errgroup"
)

var serveAddr string
var serveOpen bool

var serveCmd = &cobra.Command{
	Use:   "serve [--addr host:port] [--open]",
	Short: "Serve the todo list to a browser",
	RunE:  runServeCmd,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config.ini)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the page in a browser")
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	env, err := openApp(false)
	if err != nil {
		return err
	}
	defer env.Close()
	addr := env.settings.WebAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	listener, err := web.MakeTCPListener(addr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	loop := uiloop.MakeLoop()
	server := web.MakeServer(loop, env.doc, env.doc.Body())
	watchStore(env, loop, server.Broadcast)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return server.Serve(gctx, listener)
	})
	if serveOpen || env.settings.WebOpen {
		url := "http://" + listener.Addr().String() + "/"
		if err := open.Run(url); err != nil {
			log.Printf("[web] cannot open browser for %s: %v\n", url, err)
		}
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
