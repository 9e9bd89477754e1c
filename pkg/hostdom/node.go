// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package hostdom

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

type NodeType int

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
)

const IdAttr = "id"

const (
	Prop_Checked  = "checked"
	Prop_Selected = "selected"
	Prop_Disabled = "disabled"
	Prop_Value    = "value"
)

var ErrNotChild = errors.New("node is not a child of this parent")
var ErrHierarchy = errors.New("node cannot be inserted here")

// Node is a materialized UI node owned by a Document.
// Structure is write-once: attributes and live properties change in place,
// children are replaced wholesale by the caller.
type Node struct {
	Type NodeType
	Tag  string
	Text string
	Hid  int // document-unique handle, used by remote hosts to address nodes

	doc       *Document
	parent    *Node
	children  []*Node
	attrs     *linkedhashmap.Map // string => string, insertion ordered
	style     *linkedhashmap.Map // string => string
	props     map[string]any
	selStart  int
	selEnd    int
	listeners map[string][]Listener
}

func (n *Node) Document() *Document {
	return n.doc
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	rtn := make([]*Node, len(n.children))
	copy(rtn, n.children)
	return rtn
}

func (n *Node) ChildCount() int {
	return len(n.children)
}

func (n *Node) IsElement() bool {
	return n.Type == ElementNode
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Type == TextNode {
		return fmt.Sprintf("#text(%q)", n.Text)
	}
	if id := n.ID(); id != "" {
		return fmt.Sprintf("<%s#%s>", n.Tag, id)
	}
	return fmt.Sprintf("<%s hid=%d>", n.Tag, n.Hid)
}

func (n *Node) SetAttribute(name string, val string) {
	if n.Type != ElementNode || name == "" {
		return
	}
	n.attrs.Put(name, val)
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.attrs == nil {
		return "", false
	}
	val, ok := n.attrs.Get(name)
	if !ok {
		return "", false
	}
	return val.(string), true
}

func (n *Node) Attr(name string) string {
	val, _ := n.GetAttribute(name)
	return val
}

// AttributeNames returns attribute names in the order they were first set.
func (n *Node) AttributeNames() []string {
	if n.attrs == nil {
		return nil
	}
	keys := n.attrs.Keys()
	rtn := make([]string, 0, len(keys))
	for _, k := range keys {
		rtn = append(rtn, k.(string))
	}
	return rtn
}

func (n *Node) ID() string {
	return n.Attr(IdAttr)
}

func (n *Node) SetStyleProperty(name string, val string) {
	if n.Type != ElementNode || name == "" {
		return
	}
	if val == "" {
		n.style.Remove(name)
		return
	}
	n.style.Put(name, val)
}

func (n *Node) StyleProperty(name string) string {
	if n.style == nil {
		return ""
	}
	val, ok := n.style.Get(name)
	if !ok {
		return ""
	}
	return val.(string)
}

// StyleText renders the style properties as a css declaration list.
func (n *Node) StyleText() string {
	if n.style == nil || n.style.Empty() {
		return ""
	}
	var parts []string
	it := n.style.Iterator()
	for it.Next() {
		parts = append(parts, fmt.Sprintf("%s: %s", it.Key(), it.Value()))
	}
	return strings.Join(parts, "; ")
}

// SetProperty sets a live property. Live properties are not reflected as attributes.
func (n *Node) SetProperty(name string, val any) {
	if n.Type != ElementNode {
		return
	}
	if val == nil {
		delete(n.props, name)
		return
	}
	n.props[name] = val
}

func (n *Node) Property(name string) any {
	if n.props == nil {
		return nil
	}
	return n.props[name]
}

func (n *Node) BoolProperty(name string) bool {
	bval, _ := n.Property(name).(bool)
	return bval
}

func (n *Node) Value() string {
	sval, _ := n.Property(Prop_Value).(string)
	return sval
}

func (n *Node) SetValue(val string) {
	n.SetProperty(Prop_Value, val)
}

func (n *Node) Checked() bool {
	return n.BoolProperty(Prop_Checked)
}

func (n *Node) SetChecked(checked bool) {
	n.SetProperty(Prop_Checked, checked)
}

// TextLength is the length of s in UTF-16 code units, the unit browsers use
// for selection offsets.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// SetSelectionRange stores the cursor selection as given. Offsets are in
// UTF-16 code units (see TextLength). Hosts clamp when presenting.
func (n *Node) SetSelectionRange(start int, end int) {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	n.selStart = start
	n.selEnd = end
}

func (n *Node) SelectionRange() (int, int) {
	return n.selStart, n.selEnd
}

func (n *Node) indexOf(child *Node) int {
	for idx, c := range n.children {
		if c == child {
			return idx
		}
	}
	return -1
}

func (n *Node) isInclusiveAncestorOf(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	if n == nil || other == nil {
		return false
	}
	return n.isInclusiveAncestorOf(other)
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	idx := p.indexOf(n)
	if idx >= 0 {
		p.children = append(p.children[:idx], p.children[idx+1:]...)
	}
	n.parent = nil
}

// AppendChild appends child, moving it from its current parent if it has one.
func (n *Node) AppendChild(child *Node) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	child.detach()
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// ReplaceChild puts newChild at the exact position of oldChild and detaches oldChild.
func (n *Node) ReplaceChild(newChild *Node, oldChild *Node) error {
	if oldChild == nil || oldChild.parent != n {
		return ErrNotChild
	}
	if newChild == oldChild {
		return nil
	}
	if err := n.checkInsert(newChild); err != nil {
		return err
	}
	newChild.detach()
	idx := n.indexOf(oldChild)
	n.children[idx] = newChild
	newChild.parent = n
	oldChild.parent = nil
	return nil
}

func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return ErrNotChild
	}
	child.detach()
	return nil
}

func (n *Node) checkInsert(child *Node) error {
	if child == nil || n.Type != ElementNode {
		return ErrHierarchy
	}
	if child.isInclusiveAncestorOf(n) {
		return ErrHierarchy
	}
	if child.doc != n.doc {
		return fmt.Errorf("%w: node belongs to another document", ErrHierarchy)
	}
	return nil
}

// IsConnected reports whether the node is reachable from the document root.
func (n *Node) IsConnected() bool {
	if n == nil || n.doc == nil {
		return false
	}
	return n.doc.root.isInclusiveAncestorOf(n)
}

// Walk visits n and its descendants in document order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// FindByID locates the first descendant (or n itself) with the given id.
func (n *Node) FindByID(id string) *Node {
	if n == nil || id == "" {
		return nil
	}
	var found *Node
	n.Walk(func(cur *Node) bool {
		if cur.Type == ElementNode && cur.ID() == id {
			found = cur
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element for which match returns true.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var rtn []*Node
	n.Walk(func(cur *Node) bool {
		if cur.Type == ElementNode && match(cur) {
			rtn = append(rtn, cur)
		}
		return true
	})
	return rtn
}

func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var buf strings.Builder
	for _, c := range n.children {
		buf.WriteString(c.TextContent())
	}
	return buf.String()
}

func (n *Node) Focus() {
	if n == nil || n.Type != ElementNode || !n.IsConnected() {
		return
	}
	n.doc.active = n
}

func (n *Node) Blur() {
	if n.doc != nil && n.doc.active == n {
		n.doc.active = nil
	}
}
