// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/ripplebase"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ripple version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ripple v%s (%s)\n", ripplebase.RippleVersion, ripplebase.BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
