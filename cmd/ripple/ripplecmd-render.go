// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/hostdom"
)

var renderStrict bool

var renderCmd = &cobra.Command{
	Use:   "render [--strict]",
	Short: "Print the html of the stored todo list",
	RunE:  runRenderCmd,
}

func init() {
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "fail on malformed descriptors")
	rootCmd.AddCommand(renderCmd)
}

func runRenderCmd(cmd *cobra.Command, args []string) error {
	env, err := openApp(renderStrict)
	if err != nil {
		return err
	}
	defer env.Close()
	if env.settings.Strict && env.list.LastBuildErr() != nil {
		return fmt.Errorf("render failed: %w", env.list.LastBuildErr())
	}
	fmt.Println(env.list.Live().RenderHTML(&hostdom.HTMLOpts{Indent: "  "}))
	return nil
}
