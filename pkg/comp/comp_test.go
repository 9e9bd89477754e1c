// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package comp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/statestore"
	"github.com/wavetermdev/ripple/pkg/vdom"
)

type formComp struct {
	*Base
	renders  int
	onRender func(state State)
}

func (f *formComp) Render(state State) *vdom.Elem {
	f.renders++
	if f.onRender != nil {
		f.onRender(state)
	}
	text, _ := state["text"].(string)
	return vdom.H("form", vdom.Attrs{"class": "form"},
		vdom.If(state["hideEntry"] != true, vdom.H("input", vdom.Attrs{
			"id":      "entry",
			"type":    "text",
			"value":   text,
			"onInput": func(e *hostdom.Event) { f.Mutate(State{"text": e.Target.Value()}, nil) },
		})),
		vdom.H("input", vdom.Attrs{"id": "other", "type": "text"}),
		vdom.H("span", nil, fmt.Sprintf("%v/%v", state["a"], state["b"])),
	)
}

func makeForm(doc *hostdom.Document, initial State, opts *Options) *formComp {
	f := &formComp{}
	f.Base = MakeBase(doc, f, initial, opts)
	return f
}

func freshHTML(t *testing.T, state State) string {
	t.Helper()
	doc := hostdom.MakeDocument()
	return makeForm(doc, state, nil).Materialize().OuterHTML()
}

func TestMaterializeIdempotent(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, State{"a": 1}, nil)
	if f.Mounted() {
		t.Fatalf("new component must be unmounted")
	}
	n1 := f.Materialize()
	n2 := f.Materialize()
	if n1 != n2 || f.renders != 1 {
		t.Errorf("materialize must not re-render (renders=%d)", f.renders)
	}
	if !f.Mounted() || f.Live() != n1 {
		t.Errorf("expected mounted with live tree")
	}
}

func TestShallowMerge(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, nil, nil)
	f.Mutate(State{"a": 1}, nil)
	f.Mutate(State{"b": 2}, nil)
	if diff := cmp.Diff(State{"a": 1, "b": 2}, f.State()); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	snapshot := f.State()
	snapshot["a"] = 99
	if f.Get("a") != 1 {
		t.Errorf("State() must return a copy")
	}
}

func TestLiveTreeMatchesRender(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, State{"a": 0}, nil)
	Mount(doc.Body(), f)
	for i := 1; i <= 5; i++ {
		f.Mutate(State{"a": i, "text": strings.Repeat("x", i)}, nil)
	}
	f.Mutate(State{"b": "end"}, nil)
	if diff := cmp.Diff(freshHTML(t, f.State()), f.Live().OuterHTML()); diff != "" {
		t.Errorf("live tree differs from a fresh render (-want +got):\n%s", diff)
	}
	if f.Live().Parent() != doc.Body() || doc.Body().ChildCount() != 1 {
		t.Errorf("exactly one live tree must be attached")
	}
}

func TestReplaceAtSamePosition(t *testing.T) {
	doc := hostdom.MakeDocument()
	before := doc.CreateElement("header")
	after := doc.CreateElement("footer")
	f := makeForm(doc, nil, nil)
	doc.Body().AppendChild(before)
	Mount(doc.Body(), f)
	doc.Body().AppendChild(after)
	old := f.Live()
	f.Mutate(State{"a": "x"}, nil)
	kids := doc.Body().Children()
	if len(kids) != 3 || kids[0] != before || kids[1] != f.Live() || kids[2] != after {
		t.Fatalf("tree not replaced in place: %v", kids)
	}
	if old.Parent() != nil || old == f.Live() {
		t.Errorf("old tree should be detached")
	}
}

func TestMutateUnattached(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, nil, nil)
	f.Mutate(State{"a": 1}, nil)
	if !f.Mounted() || f.Live().Parent() != nil {
		t.Errorf("unattached mutate records a live tree without touching the surface")
	}
	if doc.Body().ChildCount() != 0 {
		t.Errorf("surface must not change")
	}
}

func TestOnCompleteOrder(t *testing.T) {
	doc := hostdom.MakeDocument()
	store := statestore.MakeMemStore()
	f := makeForm(doc, nil, &Options{Store: store, StoreKey: "form"})
	Mount(doc.Body(), f)
	called := false
	f.Mutate(State{"a": 5}, func() {
		called = true
		if !strings.Contains(f.Live().OuterHTML(), "5/") {
			t.Errorf("callback ran before the swap")
		}
		data, found, _ := store.Load("form")
		if !found || !strings.Contains(data, `"a":5`) {
			t.Errorf("callback ran before persist: %q", data)
		}
	})
	if !called {
		t.Errorf("onComplete not called")
	}
}

func TestFocusPreserved(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, State{"text": "hello"}, nil)
	Mount(doc.Body(), f)
	entry := doc.GetElementByID("entry")
	entry.Focus()
	entry.SetValue("hello!")
	entry.SetSelectionRange(2, 2)
	entry.DispatchEvent(&hostdom.Event{Type: hostdom.EventType_Input})

	newEntry := doc.GetElementByID("entry")
	if newEntry == entry {
		t.Fatalf("entry should have been rebuilt")
	}
	if entry.IsConnected() {
		t.Errorf("old entry must be detached")
	}
	if doc.ActiveElement() != newEntry {
		t.Fatalf("focus not restored on the new entry (active=%v)", doc.ActiveElement())
	}
	if start, end := newEntry.SelectionRange(); start != 2 || end != 2 {
		t.Errorf("selection = (%d,%d), want (2,2)", start, end)
	}
	if newEntry.Value() != "hello!" {
		t.Errorf("value = %q", newEntry.Value())
	}
}

func TestFocusTargetMissing(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, nil, nil)
	Mount(doc.Body(), f)
	doc.GetElementByID("entry").Focus()
	f.Mutate(State{"hideEntry": true}, nil)
	if doc.ActiveElement() != nil {
		t.Errorf("nothing should be focused, got %v", doc.ActiveElement())
	}
}

func TestFocusIDRestricts(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, nil, &Options{FocusID: "entry"})
	Mount(doc.Body(), f)
	doc.GetElementByID("other").Focus()
	f.Mutate(State{"a": 1}, nil)
	if doc.ActiveElement() != nil {
		t.Errorf("only the designated control is restored")
	}
	doc.GetElementByID("entry").Focus()
	f.Mutate(State{"a": 2}, nil)
	if active := doc.ActiveElement(); active == nil || active.ID() != "entry" {
		t.Errorf("designated control should be restored, got %v", active)
	}
}

func TestReentrantMutateQueued(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, State{"a": 0}, nil)
	Mount(doc.Body(), f)
	var order []string
	f.onRender = func(state State) {
		if state["a"] == 1 && state["b"] == nil {
			f.Mutate(State{"b": "from-render"}, func() { order = append(order, "inner") })
		}
	}
	f.Mutate(State{"a": 1}, func() { order = append(order, "outer") })
	if diff := cmp.Diff([]string{"outer", "inner"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if f.Get("b") != "from-render" {
		t.Errorf("queued mutation lost")
	}
	if !strings.Contains(f.Live().OuterHTML(), "1/from-render") {
		t.Errorf("live tree does not reflect final state: %s", f.Live().OuterHTML())
	}
}

func TestForeignGoroutineMutatePanics(t *testing.T) {
	doc := hostdom.MakeDocument()
	f := makeForm(doc, nil, nil)
	panicked := make(chan bool, 1)
	f.onRender = func(state State) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer func() { panicked <- recover() != nil }()
			f.Mutate(State{"a": "foreign"}, nil)
		}()
		<-done
	}
	f.Materialize()
	if !<-panicked {
		t.Errorf("mutate from another goroutine during a cycle must panic")
	}
}

func TestStrictBuildErr(t *testing.T) {
	doc := hostdom.MakeDocument()
	r := &badRenderer{}
	b := MakeBase(doc, r, nil, &Options{Strict: true, Name: "bad"})
	b.Materialize()
	if b.LastBuildErr() == nil {
		t.Errorf("strict component should record build errors")
	}
	if b.Name() != "bad" || b.ID() == "" {
		t.Errorf("name=%q id=%q", b.Name(), b.ID())
	}
}

type badRenderer struct{}

func (badRenderer) Render(state State) *vdom.Elem {
	return &vdom.Elem{Tag: "div", Children: []any{3.14}}
}

type switchRenderer struct{}

func (switchRenderer) Render(state State) *vdom.Elem {
	if state["bad"] == true {
		return &vdom.Elem{Tag: "div", Attrs: vdom.Attrs{"id": "after"}, Children: []any{3.14}}
	}
	return vdom.H("div", vdom.Attrs{"id": "before"}, vdom.H("input", vdom.Attrs{"id": "entry", "type": "text"}))
}

func TestStrictRejectedRenderKeepsTree(t *testing.T) {
	doc := hostdom.MakeDocument()
	b := MakeBase(doc, switchRenderer{}, nil, &Options{Strict: true})
	Mount(doc.Body(), b)
	oldLive := b.Live()
	entry := doc.GetElementByID("entry")
	entry.Focus()
	entry.SetSelectionRange(1, 1)

	completed := false
	b.Mutate(State{"bad": true}, func() { completed = true })
	if !completed || b.Get("bad") != true {
		t.Errorf("state must still be merged and onComplete called")
	}
	if b.LastBuildErr() == nil {
		t.Errorf("rejected render should be recorded")
	}
	if b.Live() != oldLive || oldLive.Parent() != doc.Body() {
		t.Fatalf("previous tree should stay in place")
	}
	if got := doc.Body().InnerHTML(nil); got != `<div id="before"><input id="entry" type="text"></div>` {
		t.Errorf("body = %s", got)
	}
	if doc.ActiveElement() != entry {
		t.Errorf("focus should stay on the entry")
	}
	if start, end := entry.SelectionRange(); start != 1 || end != 1 {
		t.Errorf("selection = (%d,%d)", start, end)
	}

	b.Mutate(State{"bad": false}, nil)
	if b.LastBuildErr() != nil || b.Live() == oldLive {
		t.Errorf("a valid render should replace the tree (err=%v)", b.LastBuildErr())
	}
}

func TestLenientRenderReplaces(t *testing.T) {
	doc := hostdom.MakeDocument()
	b := MakeBase(doc, switchRenderer{}, nil, nil)
	Mount(doc.Body(), b)
	b.Mutate(State{"bad": true}, nil)
	if got := doc.Body().InnerHTML(nil); got != `<div id="after"></div>` {
		t.Errorf("body = %s", got)
	}
	if b.LastBuildErr() != nil {
		t.Errorf("lenient builds do not report errors: %v", b.LastBuildErr())
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	state := State{
		"text": "abc",
		"flag": true,
		"list": []any{"x", false, map[string]any{"nested": []any{"y"}}},
		"map":  map[string]any{"k": "v", "b": true},
	}
	data, err := MarshalState(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalState(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(state, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStateFallback(t *testing.T) {
	defaults := State{"seed": true}
	store := statestore.MakeMemStore()
	if got := LoadState(store, "k", defaults); !cmp.Equal(defaults, got) {
		t.Errorf("absent state should use defaults, got %v", got)
	}
	store.Save("k", "{not json")
	if got := LoadState(store, "k", defaults); !cmp.Equal(defaults, got) {
		t.Errorf("corrupt state should use defaults, got %v", got)
	}
	store.Save("k", "null")
	if got := LoadState(store, "k", defaults); !cmp.Equal(defaults, got) {
		t.Errorf("null state should use defaults, got %v", got)
	}
	store.Save("k", `{"seed":false}`)
	if got := LoadState(store, "k", defaults); got["seed"] != false {
		t.Errorf("stored state should win, got %v", got)
	}
	if got := LoadState(nil, "k", defaults); !cmp.Equal(defaults, got) {
		t.Errorf("no store should use defaults")
	}
}

func TestPersistOnEveryMutate(t *testing.T) {
	doc := hostdom.MakeDocument()
	store := statestore.MakeMemStore()
	f := makeForm(doc, State{"a": "x"}, &Options{Store: store, StoreKey: "form"})
	f.Mutate(State{"b": true}, nil)
	loaded := LoadState(store, "form", nil)
	if diff := cmp.Diff(State{"a": "x", "b": true}, loaded); diff != "" {
		t.Errorf("persisted state mismatch (-want +got):\n%s", diff)
	}
}
