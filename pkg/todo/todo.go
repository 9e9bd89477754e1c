// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package todo is the todo-list application built on comp.
package todo

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/wavetermdev/ripple/pkg/comp"
)

const StoreKey = "todos"

const (
	StateKey_InputText = "inputText"
	StateKey_Todos     = "todos"
	StateKey_NextId    = "nextId"
)

const (
	Topic_DeleteRequested = "delete-requested"
	Key_Enter             = "Enter"
)

type Todo struct {
	Id        int    `json:"id" jsonschema:"minimum=1"`
	Text      string `json:"text" jsonschema:"minLength=1"`
	Completed bool   `json:"completed"`
}

// TodoState is the persisted shape of the list's state.
type TodoState struct {
	InputText string `json:"inputText"`
	Todos     []Todo `json:"todos"`
	NextId    int    `json:"nextId" jsonschema:"minimum=1"`
}

func SeedTodos() []Todo {
	return []Todo{
		{Id: 1, Text: "Do homework"},
		{Id: 2, Text: "Do practice"},
		{Id: 3, Text: "Go home"},
	}
}

func SeedState() TodoState {
	return TodoState{Todos: SeedTodos(), NextId: 4}
}

func (ts TodoState) ToState() comp.State {
	todos := ts.Todos
	if todos == nil {
		todos = []Todo{}
	}
	return comp.State{
		StateKey_InputText: ts.InputText,
		StateKey_Todos:     todos,
		StateKey_NextId:    ts.NextId,
	}
}

// DecodeState converts a component state (typed, or freshly parsed from
// json) into a TodoState. A missing or stale nextId is repaired so new ids
// never collide with existing ones.
func DecodeState(state comp.State) (TodoState, error) {
	var rtn TodoState
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &rtn,
	})
	if err != nil {
		return rtn, fmt.Errorf("cannot create todo state decoder: %w", err)
	}
	err = decoder.Decode(map[string]any(state))
	if err != nil {
		return rtn, fmt.Errorf("cannot decode todo state: %w", err)
	}
	for _, t := range rtn.Todos {
		if t.Id >= rtn.NextId {
			rtn.NextId = t.Id + 1
		}
	}
	if rtn.NextId < 1 {
		rtn.NextId = 1
	}
	return rtn, nil
}

func todosOf(state comp.State) []Todo {
	todos, _ := state[StateKey_Todos].([]Todo)
	return todos
}

func nextIdOf(state comp.State) int {
	nextId, _ := state[StateKey_NextId].(int)
	return nextId
}

func inputTextOf(state comp.State) string {
	text, _ := state[StateKey_InputText].(string)
	return text
}

func remainingCount(todos []Todo) int {
	count := 0
	for _, t := range todos {
		if !t.Completed {
			count++
		}
	}
	return count
}
