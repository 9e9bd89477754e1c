// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package termhost

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/todo"
	"github.com/wavetermdev/ripple/pkg/uiloop"
)

func makeTestHost(t *testing.T) (*Host, *todo.TodoList, *bytes.Buffer) {
	t.Helper()
	doc := hostdom.MakeDocument()
	list, err := todo.MountApp(doc, nil)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	out := &bytes.Buffer{}
	return MakeHost(doc, list, out, false), list, out
}

func execAll(t *testing.T, h *Host, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := h.Exec(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
}

func TestTypeAndEnter(t *testing.T) {
	h, list, _ := makeTestHost(t)
	execAll(t, h, "type   Walk the dog", "enter")
	todos := list.Todos()
	if len(todos) != 4 || todos[3].Text != "Walk the dog" {
		t.Errorf("unexpected todos: %v", todos)
	}
}

func TestRowCommands(t *testing.T) {
	h, list, out := makeTestHost(t)
	execAll(t, h, "toggle 1", "delete 2", "print")
	if !strings.Contains(out.String(), "[x] 1. Do homework") || !strings.Contains(out.String(), "2. Do practice  (delete? confirm/cancel)") {
		t.Errorf("unexpected print output:\n%s", out.String())
	}
	execAll(t, h, "confirm 2", "clear")
	var ids []int
	for _, td := range list.Todos() {
		ids = append(ids, td.Id)
	}
	if diff := cmp.Diff([]int{3}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFocusSelect(t *testing.T) {
	h, _, out := makeTestHost(t)
	execAll(t, h, "type hello", "select 2 2", "type hello!", "print")
	if !strings.Contains(out.String(), "[focus #new-todo 6:6]") {
		t.Errorf("unexpected focus line:\n%s", out.String())
	}
	out.Reset()
	execAll(t, h, "focus new-todo", "select 1 3", "print")
	if !strings.Contains(out.String(), "[focus #new-todo 1:3]") {
		t.Errorf("unexpected focus line:\n%s", out.String())
	}
	out.Reset()
	execAll(t, h, "blur", "print")
	if strings.Contains(out.String(), "[focus") {
		t.Errorf("blur should drop focus:\n%s", out.String())
	}
	if err := h.Exec("select 0 0"); err == nil {
		t.Errorf("select without focus should fail")
	}
}

func TestTypeNonAscii(t *testing.T) {
	h, _, out := makeTestHost(t)
	execAll(t, h, "type Сделать уроки", "print")
	if !strings.Contains(out.String(), "[focus #new-todo 13:13]") {
		t.Errorf("cursor should count characters:\n%s", out.String())
	}
}

func TestExecErrors(t *testing.T) {
	h, _, _ := makeTestHost(t)
	cases := []string{"bogus", "toggle", "toggle x", "confirm 1", "focus nope", "select 1"}
	for _, line := range cases {
		if err := h.Exec(line); err == nil {
			t.Errorf("%q should fail", line)
		}
	}
	if err := h.Exec("quit"); !errors.Is(err, ErrQuit) {
		t.Errorf("quit returned %v", err)
	}
	if err := h.Exec("   "); err != nil {
		t.Errorf("blank line returned %v", err)
	}
}

func TestRunOnLoop(t *testing.T) {
	h, list, out := makeTestHost(t)
	h.autoPrint = true
	loop := uiloop.MakeLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-loop.Done()
	}()
	go loop.Run(ctx)
	input := "type Read\nadd\nbogus\nquit\ntype never\n"
	err := h.Run(ctx, loop, MakeScannerReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(list.Todos()) != 4 {
		t.Errorf("expected the added todo, got %v", list.Todos())
	}
	if !strings.Contains(out.String(), `error: unknown command "bogus"`) {
		t.Errorf("missing error output:\n%s", out.String())
	}
	if strings.Contains(list.InputText(), "never") {
		t.Errorf("commands after quit must not run")
	}
}
