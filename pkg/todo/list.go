// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package todo

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/wavetermdev/ripple/pkg/comp"
	"github.com/wavetermdev/ripple/pkg/eventbus"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/vdom"
)

const AppAnchorId = "app"

var headerElem = vdom.Bind(`<div class="header"><h1>TODO List</h1></div>`, nil)

type ListOptions struct {
	Store   comp.Store
	FocusID string
	Strict  bool
}

// TodoList owns the todos, the row components and the bus the rows use to
// coordinate. Rows survive across list renders; their live trees are moved
// into each new list tree.
type TodoList struct {
	*comp.Base
	bus    *eventbus.Bus
	rows   map[int]*TaskItem
	strict bool
}

func MakeTodoList(doc *hostdom.Document, opts *ListOptions) *TodoList {
	if opts == nil {
		opts = &ListOptions{}
	}
	l := &TodoList{
		bus:    eventbus.MakeBus(),
		rows:   make(map[int]*TaskItem),
		strict: opts.Strict,
	}
	loaded := comp.LoadState(opts.Store, StoreKey, SeedState().ToState())
	ts, err := DecodeState(loaded)
	if err != nil {
		log.Printf("[todo] stored todos unusable, using seed: %v\n", err)
		ts = SeedState()
	}
	l.Base = comp.MakeBase(doc, l, ts.ToState(), &comp.Options{
		Name:     "TodoList",
		Store:    opts.Store,
		StoreKey: StoreKey,
		FocusID:  opts.FocusID,
		Strict:   opts.Strict,
	})
	l.syncRows(ts.Todos)
	return l
}

// MountApp creates the list and attaches it under the #app anchor, creating
// the anchor in the body if the document has none.
func MountApp(doc *hostdom.Document, opts *ListOptions) (*TodoList, error) {
	anchor := doc.GetElementByID(AppAnchorId)
	if anchor == nil {
		anchor = doc.CreateElement("div")
		anchor.SetAttribute(hostdom.IdAttr, AppAnchorId)
		if err := doc.Body().AppendChild(anchor); err != nil {
			return nil, fmt.Errorf("cannot create app anchor: %w", err)
		}
	}
	l := MakeTodoList(doc, opts)
	if err := comp.Mount(anchor, l); err != nil {
		return nil, fmt.Errorf("cannot mount todo list: %w", err)
	}
	return l, nil
}

func (l *TodoList) Bus() *eventbus.Bus {
	return l.bus
}

func (l *TodoList) Row(id int) *TaskItem {
	return l.rows[id]
}

// Todos returns a copy of the current todos.
func (l *TodoList) Todos() []Todo {
	return slices.Clone(todosOf(l.State()))
}

func (l *TodoList) InputText() string {
	return inputTextOf(l.State())
}

func (l *TodoList) TodoState() TodoState {
	state := l.State()
	return TodoState{InputText: inputTextOf(state), Todos: slices.Clone(todosOf(state)), NextId: nextIdOf(state)}
}

func (l *TodoList) OnInput(text string) {
	l.Mutate(comp.State{StateKey_InputText: text}, nil)
}

// AddTask appends the trimmed input text as a new todo and clears the input.
// Whitespace-only input is ignored.
func (l *TodoList) AddTask() {
	state := l.State()
	text := strings.TrimSpace(inputTextOf(state))
	if text == "" {
		return
	}
	nextId := nextIdOf(state)
	todos := append(slices.Clone(todosOf(state)), Todo{Id: nextId, Text: text})
	l.setTodos(todos, comp.State{StateKey_InputText: "", StateKey_NextId: nextId + 1})
}

func (l *TodoList) Toggle(id int) {
	todos := slices.Clone(todosOf(l.State()))
	idx := slices.IndexFunc(todos, func(t Todo) bool { return t.Id == id })
	if idx < 0 {
		return
	}
	todos[idx].Completed = !todos[idx].Completed
	l.setTodos(todos, nil)
}

func (l *TodoList) Delete(id int) {
	todos := todosOf(l.State())
	remaining := slices.DeleteFunc(slices.Clone(todos), func(t Todo) bool { return t.Id == id })
	if len(remaining) == len(todos) {
		return
	}
	l.setTodos(remaining, nil)
}

func (l *TodoList) ClearCompleted() {
	todos := todosOf(l.State())
	remaining := slices.DeleteFunc(slices.Clone(todos), func(t Todo) bool { return t.Completed })
	if len(remaining) == len(todos) {
		return
	}
	l.setTodos(remaining, nil)
}

// Reload re-reads the stored todos (after an external edit) and re-renders
// when they differ from the current state.
func (l *TodoList) Reload(store comp.Store) {
	loaded := comp.LoadState(store, StoreKey, nil)
	if len(loaded) == 0 {
		return
	}
	ts, err := DecodeState(loaded)
	if err != nil {
		log.Printf("[todo] ignoring unusable stored todos: %v\n", err)
		return
	}
	cur := l.TodoState()
	if ts.InputText == cur.InputText && ts.NextId == cur.NextId && slices.Equal(ts.Todos, cur.Todos) {
		return
	}
	l.syncRows(ts.Todos)
	l.Mutate(ts.ToState(), nil)
}

func (l *TodoList) setTodos(todos []Todo, extra comp.State) {
	l.syncRows(todos)
	l.Mutate(comp.State{StateKey_Todos: todos}.Merge(extra), nil)
}

// syncRows makes the row registry match todos before the list re-renders:
// new todos get a row, changed todos update their row, dropped rows leave the bus.
func (l *TodoList) syncRows(todos []Todo) {
	seen := make(map[int]bool, len(todos))
	for _, t := range todos {
		seen[t.Id] = true
		row := l.rows[t.Id]
		if row == nil {
			l.rows[t.Id] = MakeTaskItem(l.Document(), t, l.bus, ItemProps{OnToggle: l.Toggle, OnDelete: l.Delete}, l.strict)
			continue
		}
		row.SetTodo(t)
	}
	for id, row := range l.rows {
		if !seen[id] {
			row.Dispose()
			delete(l.rows, id)
		}
	}
}

func (l *TodoList) onKeyDown(e *hostdom.Event) {
	if e.Key == Key_Enter {
		l.AddTask()
	}
}

func (l *TodoList) Render(state comp.State) *vdom.Elem {
	todos := todosOf(state)
	remaining := remainingCount(todos)
	completed := len(todos) - remaining
	remainingText := fmt.Sprintf("%d items left", remaining)
	if remaining == 1 {
		remainingText = "1 item left"
	}
	return vdom.H("div", vdom.Attrs{"id": "todo-app", "class": "todo-app"},
		headerElem,
		vdom.H("div", vdom.Attrs{"class": "new-todo-row"},
			vdom.H("input", vdom.Attrs{
				"id":          "new-todo",
				"type":        "text",
				"placeholder": "What needs to be done?",
				"value":       inputTextOf(state),
				"onInput":     func(e *hostdom.Event) { l.OnInput(e.Target.Value()) },
				"onKeyDown":   l.onKeyDown,
			}),
			vdom.H("button", vdom.Attrs{"id": "add-btn", "onClick": l.AddTask}, "Add"),
		),
		vdom.H("ul", vdom.Attrs{"id": "todos", "class": "todo-list"},
			vdom.ForEach(todos, func(t Todo, _ int) any {
				if row := l.rows[t.Id]; row != nil {
					return row
				}
				return nil
			}),
		),
		vdom.H("footer", vdom.Attrs{"class": "footer"},
			vdom.H("span", vdom.Attrs{"id": "remaining"}, remainingText),
			vdom.H("button", vdom.Attrs{
				"id":       "clear-completed",
				"disabled": completed == 0,
				"onClick":  l.ClearCompleted,
			}, "Clear completed"),
		),
	)
}
