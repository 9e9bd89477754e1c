// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package hostdom

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

const RootTag = "html"
const BodyTag = "body"

// Document is the in-memory host surface. It owns every node it creates
// and tracks the focused element. It is not safe for concurrent use; all
// access happens on the ui loop.
type Document struct {
	root    *Node
	body    *Node
	active  *Node
	nextHid int
}

func MakeDocument() *Document {
	doc := &Document{}
	doc.root = doc.CreateElement(RootTag)
	doc.body = doc.CreateElement(BodyTag)
	doc.root.AppendChild(doc.body)
	return doc
}

func (d *Document) Root() *Node {
	return d.root
}

func (d *Document) Body() *Node {
	return d.body
}

func (d *Document) allocHid() int {
	d.nextHid++
	return d.nextHid
}

func (d *Document) CreateElement(tag string) *Node {
	return &Node{
		Type:      ElementNode,
		Tag:       strings.ToLower(tag),
		Hid:       d.allocHid(),
		doc:       d,
		attrs:     linkedhashmap.New(),
		style:     linkedhashmap.New(),
		props:     make(map[string]any),
		listeners: make(map[string][]Listener),
	}
}

func (d *Document) CreateTextNode(text string) *Node {
	return &Node{
		Type: TextNode,
		Text: text,
		Hid:  d.allocHid(),
		doc:  d,
	}
}

// ActiveElement returns the focused element, or nil when nothing is focused
// or the focused element has been detached from the document.
func (d *Document) ActiveElement() *Node {
	if d.active == nil {
		return nil
	}
	if !d.active.IsConnected() {
		d.active = nil
		return nil
	}
	return d.active
}

func (d *Document) GetElementByID(id string) *Node {
	return d.root.FindByID(id)
}

// GetNodeByHid finds a connected node by its handle.
func (d *Document) GetNodeByHid(hid int) *Node {
	if hid <= 0 {
		return nil
	}
	var found *Node
	d.root.Walk(func(n *Node) bool {
		if n.Hid == hid {
			found = n
			return false
		}
		return true
	})
	return found
}
