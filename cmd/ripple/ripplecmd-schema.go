// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/ripple/pkg/todo"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the json schema of the stored todo state",
	RunE: func(cmd *cobra.Command, args []string) error {
		barr, err := todo.StateSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(barr))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
