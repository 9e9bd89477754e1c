// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package hostdom

import (
	"fmt"

	"github.com/wavetermdev/ripple/pkg/panichandler"
)

const (
	EventType_Click   = "click"
	EventType_Input   = "input"
	EventType_Change  = "change"
	EventType_KeyDown = "keydown"
	EventType_Focus   = "focus"
)

type Listener func(*Event)

type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Key           string // set for keydown events

	stopped bool
}

func (e *Event) StopPropagation() {
	e.stopped = true
}

func (n *Node) AddEventListener(eventType string, fn Listener) {
	if n.Type != ElementNode || eventType == "" || fn == nil {
		return
	}
	n.listeners[eventType] = append(n.listeners[eventType], fn)
}

func (n *Node) ListenerCount(eventType string) int {
	return len(n.listeners[eventType])
}

// DispatchEvent runs listeners on the target and then bubbles to its ancestors.
// The propagation path is fixed before the first listener runs, so handlers that
// replace parts of the tree do not change which listeners fire.
func (n *Node) DispatchEvent(ev *Event) {
	if ev == nil {
		return
	}
	ev.Target = n
	var path []*Node
	for cur := n; cur != nil; cur = cur.parent {
		path = append(path, cur)
	}
	for _, cur := range path {
		ev.CurrentTarget = cur
		fns := append([]Listener(nil), cur.listeners[ev.Type]...)
		for _, fn := range fns {
			callListener(fn, ev)
		}
		if ev.stopped {
			break
		}
	}
	ev.CurrentTarget = nil
}

func callListener(fn Listener, ev *Event) {
	defer func() {
		panichandler.LogPanic(fmt.Sprintf("event listener %s on %s", ev.Type, ev.CurrentTarget), recover())
	}()
	fn(ev)
}

// Click dispatches a click; checkboxes flip their checked property first
// and then also receive a change event.
func (n *Node) Click() {
	isCheckbox := n.Tag == "input" && (n.Attr("type") == "checkbox" || n.Attr("type") == "radio")
	if isCheckbox {
		n.SetChecked(!n.Checked())
	}
	n.DispatchEvent(&Event{Type: EventType_Click})
	if isCheckbox {
		n.DispatchEvent(&Event{Type: EventType_Change})
	}
}

// Input sets the value of a text control, moves the cursor to the end and fires input.
func (n *Node) Input(value string) {
	n.SetValue(value)
	end := TextLength(value)
	n.SetSelectionRange(end, end)
	n.DispatchEvent(&Event{Type: EventType_Input})
}

func (n *Node) KeyDown(key string) {
	n.DispatchEvent(&Event{Type: EventType_KeyDown, Key: key})
}
