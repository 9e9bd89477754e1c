// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package comp implements stateful components over hostdom.
//
// A component owns one State value and at most one live tree. Every call to
// Mutate merges, persists, re-renders the whole component subtree, swaps it
// into the host surface in place of the old one, and restores focus on the
// control that had it. There is no diffing and no batching.
package comp

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/outrigdev/goid"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/vdom"
)

// State is a component's state. It is treated as a value: merges produce a new
// map and the old one is never written to again.
type State map[string]any

func (s State) Clone() State {
	rtn := make(State, len(s))
	for k, v := range s {
		rtn[k] = v
	}
	return rtn
}

// Merge returns a new State with partial's fields overwriting s's.
func (s State) Merge(partial State) State {
	rtn := make(State, len(s)+len(partial))
	for k, v := range s {
		rtn[k] = v
	}
	for k, v := range partial {
		rtn[k] = v
	}
	return rtn
}

// Renderer is implemented by concrete components. Render must be a pure
// function of state (and the component's fixed props).
type Renderer interface {
	Render(state State) *vdom.Elem
}

// Store is the persistence collaborator (see statestore).
type Store interface {
	Save(key string, data string) error
	Load(key string) (string, bool, error)
}

type Options struct {
	Name     string
	Store    Store  // optional, state is saved on every Mutate when set
	StoreKey string // key for Store
	FocusID  string // restrict focus restoration to this control id ("" = any control with an id)
	Strict   bool   // reject malformed descriptors; a rejected re-render keeps the previous tree (see LastBuildErr)
}

type pendingMutation struct {
	partial    State
	onComplete func()
}

type Base struct {
	id       string
	name     string
	doc      *hostdom.Document
	builder  *vdom.Builder
	renderer Renderer
	store    Store
	storeKey string
	focusID  string

	state        State
	live         *hostdom.Node
	lastBuildErr error

	// goroutine id while rendering or swapping, 0 otherwise
	cycleGoId atomic.Uint64
	pending   []pendingMutation
}

func MakeBase(doc *hostdom.Document, renderer Renderer, initial State, opts *Options) *Base {
	if opts == nil {
		opts = &Options{}
	}
	b := &Base{
		id:       uuid.New().String(),
		name:     opts.Name,
		doc:      doc,
		builder:  vdom.MakeBuilder(doc, opts.Strict),
		renderer: renderer,
		store:    opts.Store,
		storeKey: opts.StoreKey,
		focusID:  opts.FocusID,
		state:    initial.Clone(),
	}
	if b.name == "" {
		b.name = fmt.Sprintf("%T", renderer)
	}
	return b
}

func (b *Base) ID() string {
	return b.id
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Document() *hostdom.Document {
	return b.doc
}

// State returns a copy of the current state.
func (b *Base) State() State {
	return b.state.Clone()
}

func (b *Base) Get(key string) any {
	return b.state[key]
}

// Live returns the live tree, nil until the component is materialized.
func (b *Base) Live() *hostdom.Node {
	return b.live
}

func (b *Base) Mounted() bool {
	return b.live != nil
}

func (b *Base) LastBuildErr() error {
	return b.lastBuildErr
}

// Materialize builds the live tree on first call and returns the existing
// tree afterwards without re-rendering.
func (b *Base) Materialize() *hostdom.Node {
	if b.live != nil {
		return b.live
	}
	if b.inCycle() {
		panic(fmt.Sprintf("%s rendered itself recursively", b.name))
	}
	b.withCycle(func() {
		b.live = b.build(b.render())
	})
	b.drainPending()
	return b.live
}

// Mutate shallow-merges partial into the state, persists, rebuilds and swaps
// the live tree, then calls onComplete. A Mutate issued while this component is
// rendering or swapping is queued and runs as its own cycle right after the
// current one.
func (b *Base) Mutate(partial State, onComplete func()) {
	if cycleGoId := b.cycleGoId.Load(); cycleGoId != 0 {
		if gid := goid.Get(); gid != cycleGoId {
			panic(fmt.Sprintf("%s.Mutate called from goroutine %d while updating on goroutine %d (post through the ui loop)", b.name, gid, cycleGoId))
		}
		b.pending = append(b.pending, pendingMutation{partial: partial, onComplete: onComplete})
		return
	}
	b.runMutation(partial, onComplete)
	b.drainPending()
}

func (b *Base) drainPending() {
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		b.runMutation(next.partial, next.onComplete)
	}
}

func (b *Base) runMutation(partial State, onComplete func()) {
	b.state = b.state.Merge(partial)
	b.persist()
	b.withCycle(b.update)
	if onComplete != nil {
		onComplete()
	}
}

func (b *Base) inCycle() bool {
	return b.cycleGoId.Load() != 0
}

func (b *Base) withCycle(fn func()) {
	b.cycleGoId.Store(goid.Get())
	defer b.cycleGoId.Store(0)
	fn()
}

func (b *Base) render() *vdom.Elem {
	return b.renderer.Render(b.state.Clone())
}

func (b *Base) build(elem *vdom.Elem) *hostdom.Node {
	node, err := b.builder.Build(elem)
	b.lastBuildErr = err
	if err != nil {
		log.Printf("[comp] %s render: %v\n", b.name, err)
	}
	if node == nil {
		// keep the "always a live tree" invariant for components that render nothing
		node = b.doc.CreateTextNode("")
	}
	return node
}

func (b *Base) persist() {
	if b.store == nil || b.storeKey == "" {
		return
	}
	data, err := MarshalState(b.state)
	if err != nil {
		log.Printf("[comp] %s cannot serialize state: %v\n", b.name, err)
		return
	}
	err = b.store.Save(b.storeKey, data)
	if err != nil {
		log.Printf("[comp] %s cannot save state %q: %v\n", b.name, b.storeKey, err)
	}
}
