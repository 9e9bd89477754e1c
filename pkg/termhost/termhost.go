// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package termhost drives the todo document from line commands. Each command
// is translated into the same host events a browser would produce (focus,
// input, keydown, click) so the components cannot tell the difference.
package termhost

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/todo"
	"github.com/wavetermdev/ripple/pkg/uiloop"
	"golang.org/x/term"
)

const Prompt = "ripple> "

var ErrQuit = errors.New("quit")

type LineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (r *scannerReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func MakeScannerReader(in io.Reader) LineReader {
	return &scannerReader{scanner: bufio.NewScanner(in)}
}

func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type Host struct {
	doc       *hostdom.Document
	list      *todo.TodoList
	out       io.Writer
	autoPrint bool
}

func MakeHost(doc *hostdom.Document, list *todo.TodoList, out io.Writer, autoPrint bool) *Host {
	return &Host{doc: doc, list: list, out: out, autoPrint: autoPrint}
}

// RunStdio runs the host on the process terminal. An interactive stdin is put
// in raw mode and read through a line editor; anything else is read line by line.
func (h *Host) RunStdio(ctx context.Context, loop *uiloop.Loop) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return h.Run(ctx, loop, MakeScannerReader(os.Stdin))
	}
	origState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("error setting raw mode: %w", err)
	}
	defer term.Restore(fd, origState)
	terminal := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, Prompt)
	h.out = terminal
	h.autoPrint = true
	return h.Run(ctx, loop, terminal)
}

// Run executes commands from lines on loop until quit, EOF or ctx is done.
func (h *Host) Run(ctx context.Context, loop *uiloop.Loop, lines LineReader) error {
	if h.autoPrint {
		loop.Call(ctx, h.printList)
	}
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading command: %w", err)
		}
		var execErr error
		err = loop.Call(ctx, func() {
			execErr = h.Exec(line)
		})
		if errors.Is(err, uiloop.ErrStopped) || ctx.Err() != nil {
			return err
		}
		if err != nil {
			// the command panicked; the loop survives it
			execErr = err
		}
		if errors.Is(execErr, ErrQuit) {
			return nil
		}
		if execErr != nil {
			fmt.Fprintf(h.out, "error: %v\n", execErr)
		}
	}
}

// Exec runs one command. Must be called on the ui loop.
func (h *Host) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	var err error
	changed := true
	switch cmd {
	case "type":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))
		err = h.typeText(text)
	case "enter":
		err = h.pressEnter()
	case "add":
		err = h.click("add-btn")
	case "clear":
		err = h.click("clear-completed")
	case "toggle", "delete", "confirm", "cancel":
		err = h.rowCommand(cmd, args)
	case "focus":
		err = h.focus(args)
	case "blur":
		if active := h.doc.ActiveElement(); active != nil {
			active.Blur()
		}
	case "select":
		err = h.selectRange(args)
	case "print":
		changed = false
		h.printList()
	case "html":
		changed = false
		fmt.Fprintln(h.out, h.list.Live().RenderHTML(&hostdom.HTMLOpts{Indent: "  "}))
	case "help":
		changed = false
		h.printHelp()
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	if err != nil {
		return err
	}
	if changed && h.autoPrint {
		h.printList()
	}
	return nil
}

func (h *Host) find(id string) (*hostdom.Node, error) {
	node := h.doc.GetElementByID(id)
	if node == nil {
		return nil, fmt.Errorf("no element #%s", id)
	}
	return node, nil
}

func (h *Host) click(id string) error {
	node, err := h.find(id)
	if err != nil {
		return err
	}
	node.Focus()
	node.Click()
	return nil
}

func (h *Host) typeText(text string) error {
	node, err := h.find("new-todo")
	if err != nil {
		return err
	}
	node.Focus()
	node.Input(text)
	return nil
}

func (h *Host) pressEnter() error {
	node := h.doc.ActiveElement()
	if node == nil {
		var err error
		node, err = h.find("new-todo")
		if err != nil {
			return err
		}
		node.Focus()
	}
	node.KeyDown(todo.Key_Enter)
	return nil
}

func (h *Host) rowCommand(cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <id>", cmd)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid todo id %q", args[0])
	}
	return h.click(fmt.Sprintf("%s-%d", cmd, id))
}

func (h *Host) focus(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: focus <element-id>")
	}
	node, err := h.find(args[0])
	if err != nil {
		return err
	}
	node.Focus()
	return nil
}

func (h *Host) selectRange(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: select <start> <end>")
	}
	start, err1 := strconv.Atoi(args[0])
	end, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return errors.New("select offsets must be integers")
	}
	node := h.doc.ActiveElement()
	if node == nil {
		return errors.New("nothing is focused")
	}
	node.SetSelectionRange(start, end)
	return nil
}

func (h *Host) printList() {
	for _, t := range h.list.Todos() {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		suffix := ""
		if row := h.list.Row(t.Id); row != nil && row.Confirming() {
			suffix = "  (delete? confirm/cancel)"
		}
		fmt.Fprintf(h.out, "[%s] %d. %s%s\n", mark, t.Id, t.Text, suffix)
	}
	if remaining := h.doc.GetElementByID("remaining"); remaining != nil {
		fmt.Fprintf(h.out, "%s\n", remaining.TextContent())
	}
	input := h.list.InputText()
	focusStr := ""
	if active := h.doc.ActiveElement(); active != nil && active.ID() != "" {
		start, end := active.SelectionRange()
		focusStr = fmt.Sprintf("  [focus #%s %d:%d]", active.ID(), start, end)
	}
	fmt.Fprintf(h.out, "new todo: %q%s\n", input, focusStr)
}

func (h *Host) printHelp() {
	fmt.Fprint(h.out, `commands:
  type <text>          type into the new todo input
  enter                press Enter on the focused control
  add                  click Add
  toggle <id>          toggle a todo
  delete <id>          ask to delete a todo
  confirm <id>         confirm a pending delete
  cancel <id>          cancel a pending delete
  clear                clear completed todos
  focus <element-id>   focus an element
  blur                 drop focus
  select <start> <end> set the selection of the focused control
  print                show the list
  html                 show the rendered html
  quit                 exit
`)
}
