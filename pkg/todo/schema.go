// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package todo

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// StateSchema is the json schema of the persisted todo state.
func StateSchema() ([]byte, error) {
	schema := jsonschema.Reflect(&TodoState{})
	schema.Title = "Ripple todo state"
	barr, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal todo state schema: %w", err)
	}
	return barr, nil
}
