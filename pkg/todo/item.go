// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package todo

import (
	"fmt"

	"github.com/wavetermdev/ripple/pkg/comp"
	"github.com/wavetermdev/ripple/pkg/eventbus"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/vdom"
)

const (
	itemStateKey_Todo       = "todo"
	itemStateKey_Confirming = "confirming"
)

type ItemProps struct {
	OnToggle func(id int)
	OnDelete func(id int)
}

// TaskItem renders one row. Deleting is two-step: the first click asks for
// confirmation and tells the sibling rows (through the list's bus) to drop
// theirs, so at most one row is confirming at a time.
type TaskItem struct {
	*comp.Base
	props ItemProps
	bus   *eventbus.Bus
	sub   eventbus.Handle
}

func MakeTaskItem(doc *hostdom.Document, todo Todo, bus *eventbus.Bus, props ItemProps, strict bool) *TaskItem {
	item := &TaskItem{props: props, bus: bus}
	initial := comp.State{itemStateKey_Todo: todo, itemStateKey_Confirming: false}
	item.Base = comp.MakeBase(doc, item, initial, &comp.Options{
		Name:   fmt.Sprintf("TaskItem[%d]", todo.Id),
		Strict: strict,
	})
	if bus != nil {
		item.sub = bus.Subscribe(Topic_DeleteRequested, item.handleDeleteRequested)
	}
	return item
}

func (item *TaskItem) Todo() Todo {
	todo, _ := item.Get(itemStateKey_Todo).(Todo)
	return todo
}

func (item *TaskItem) Confirming() bool {
	confirming, _ := item.Get(itemStateKey_Confirming).(bool)
	return confirming
}

// SetTodo is called by the list when this row's todo changed.
func (item *TaskItem) SetTodo(todo Todo) {
	if item.Todo() == todo {
		return
	}
	item.Mutate(comp.State{itemStateKey_Todo: todo}, nil)
}

func (item *TaskItem) RequestDelete() {
	if item.bus != nil {
		item.bus.Publish(eventbus.Event{Topic: Topic_DeleteRequested, Sender: item.ID(), Data: item.Todo().Id})
	}
	item.Mutate(comp.State{itemStateKey_Confirming: true}, nil)
}

func (item *TaskItem) ConfirmDelete() {
	if !item.Confirming() {
		return
	}
	if item.props.OnDelete != nil {
		item.props.OnDelete(item.Todo().Id)
	}
}

func (item *TaskItem) CancelDelete() {
	item.Mutate(comp.State{itemStateKey_Confirming: false}, nil)
}

func (item *TaskItem) toggle() {
	if item.props.OnToggle != nil {
		item.props.OnToggle(item.Todo().Id)
	}
}

func (item *TaskItem) handleDeleteRequested(ev eventbus.Event) {
	if ev.Sender == item.ID() || !item.Confirming() {
		return
	}
	item.Mutate(comp.State{itemStateKey_Confirming: false}, nil)
}

// Dispose detaches the row from the bus once the list dropped it.
func (item *TaskItem) Dispose() {
	item.sub.Unsubscribe()
}

func (item *TaskItem) Render(state comp.State) *vdom.Elem {
	todo, _ := state[itemStateKey_Todo].(Todo)
	confirming, _ := state[itemStateKey_Confirming].(bool)
	textStyle := vdom.Style{}
	if todo.Completed {
		textStyle["text-decoration"] = "line-through"
	}
	actions := vdom.IfElse(confirming,
		[]any{
			vdom.H("button", vdom.Attrs{
				"id":      fmt.Sprintf("confirm-%d", todo.Id),
				"class":   "confirm-btn",
				"onClick": item.ConfirmDelete,
			}, "Delete?"),
			vdom.H("button", vdom.Attrs{
				"id":      fmt.Sprintf("cancel-%d", todo.Id),
				"class":   "cancel-btn",
				"onClick": item.CancelDelete,
			}, "Cancel"),
		},
		vdom.H("button", vdom.Attrs{
			"id":      fmt.Sprintf("delete-%d", todo.Id),
			"class":   "delete-btn",
			"onClick": item.RequestDelete,
		}, "Delete"),
	)
	return vdom.H("li", vdom.Attrs{
		"class":   vdom.Classes("todo-item", vdom.If(todo.Completed, "completed"), vdom.If(confirming, "confirming")),
		"data-id": todo.Id,
	},
		vdom.H("input", vdom.Attrs{
			"id":       fmt.Sprintf("toggle-%d", todo.Id),
			"type":     "checkbox",
			"checked":  todo.Completed,
			"onChange": item.toggle,
		}),
		vdom.H("span", vdom.Attrs{"class": "todo-text", "style": textStyle}, todo.Text),
		actions,
	)
}
