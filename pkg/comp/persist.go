// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package comp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

func MarshalState(s State) (string, error) {
	barr, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("json marshal state: %w", err)
	}
	return string(barr), nil
}

func UnmarshalState(data string) (State, error) {
	var rtn State
	err := json.Unmarshal([]byte(data), &rtn)
	if err != nil {
		return nil, fmt.Errorf("json unmarshal state: %w", err)
	}
	if rtn == nil {
		return nil, errors.New("stored state is null")
	}
	return rtn, nil
}

// LoadState reads the state saved under key. It returns a copy of defaults
// when there is no store, nothing stored, or the stored text cannot be read.
func LoadState(store Store, key string, defaults State) State {
	if store == nil || key == "" {
		return defaults.Clone()
	}
	data, found, err := store.Load(key)
	if err != nil {
		log.Printf("[comp] cannot load state %q, using defaults: %v\n", key, err)
		return defaults.Clone()
	}
	if !found {
		return defaults.Clone()
	}
	state, err := UnmarshalState(data)
	if err != nil {
		log.Printf("[comp] stored state %q is corrupt, using defaults: %v\n", key, err)
		return defaults.Clone()
	}
	return state
}
