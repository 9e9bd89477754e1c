// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package comp

import (
	"log"

	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/vdom"
)

type focusSnapshot struct {
	id       string
	selStart int
	selEnd   int
}

// update is the replace cycle. The old subtree is destroyed wholesale, which
// drops keyboard focus, so the focused control is captured first and re-found
// by id in the new subtree. A strict component whose render fails the
// descriptor check keeps its previous tree untouched.
func (b *Base) update() {
	focus := b.captureFocus()
	elem := b.render()
	if b.builder.Strict && b.live != nil {
		if err := vdom.Check(elem); err != nil {
			b.lastBuildErr = err
			log.Printf("[comp] %s render rejected, keeping previous tree: %v\n", b.name, err)
			b.restoreFocus(focus)
			return
		}
	}
	newNode := b.build(elem)
	oldNode := b.live
	if oldNode != nil && oldNode.Parent() != nil {
		err := oldNode.Parent().ReplaceChild(newNode, oldNode)
		if err != nil {
			log.Printf("[comp] %s cannot swap live tree: %v\n", b.name, err)
		}
	}
	b.live = newNode
	b.restoreFocus(focus)
}

func (b *Base) captureFocus() *focusSnapshot {
	if b.live == nil {
		return nil
	}
	active := b.doc.ActiveElement()
	if active == nil || !b.live.Contains(active) {
		return nil
	}
	id := active.ID()
	if id == "" {
		return nil
	}
	if b.focusID != "" && id != b.focusID {
		return nil
	}
	start, end := active.SelectionRange()
	return &focusSnapshot{id: id, selStart: start, selEnd: end}
}

func (b *Base) restoreFocus(focus *focusSnapshot) {
	if focus == nil {
		return
	}
	target := b.live.FindByID(focus.id)
	if target == nil {
		return
	}
	target.Focus()
	target.SetSelectionRange(focus.selStart, focus.selEnd)
}

// Mount attaches a component's live tree under anchor. It is the one-time
// entry-point wiring done when the host is ready.
func Mount(anchor *hostdom.Node, c interface{ Materialize() *hostdom.Node }) error {
	return anchor.AppendChild(c.Materialize())
}
