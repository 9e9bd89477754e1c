// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"reflect"
	"strings"

	"github.com/wavetermdev/ripple/pkg/hostdom"
)

const StyleAttr = "style"
const EventAttrPrefix = "on"

// Elem is an immutable node descriptor. Render functions build a fresh
// tree of these on every call; the Builder turns them into hostdom nodes.
type Elem struct {
	Tag      string
	Attrs    map[string]any
	Children []any // string | *Elem | *hostdom.Node | Mountable
	Events   map[string]any
}

// Style is a structured style attribute; each property is applied individually.
type Style map[string]string

// Attrs is shorthand for descriptor attribute maps.
type Attrs = map[string]any

// Events is shorthand for descriptor event maps.
type Events = map[string]any

// Mountable is a component embedded in another component's descriptor.
// Building the parent contributes the component's live tree.
type Mountable interface {
	Materialize() *hostdom.Node
}

// H creates a descriptor. Children may be strings, *Elem, *hostdom.Node,
// Mountable, or slices of those; slices are flattened and nils dropped.
func H(tag string, attrs map[string]any, children ...any) *Elem {
	rtn := &Elem{Tag: tag, Attrs: attrs}
	for _, part := range children {
		rtn.Children = appendPart(rtn.Children, part)
	}
	return rtn
}

func appendPart(parts []any, part any) []any {
	switch p := part.(type) {
	case nil:
		return parts
	case string, *hostdom.Node, Mountable:
		if isNilPtr(p) {
			return parts
		}
		return append(parts, p)
	case *Elem:
		if p == nil {
			return parts
		}
		return append(parts, p)
	case []any:
		for _, sub := range p {
			parts = appendPart(parts, sub)
		}
		return parts
	case []*Elem:
		for _, sub := range p {
			parts = appendPart(parts, sub)
		}
		return parts
	case []string:
		for _, sub := range p {
			parts = append(parts, sub)
		}
		return parts
	}
	rval := reflect.ValueOf(part)
	if rval.Kind() == reflect.Slice {
		for i := 0; i < rval.Len(); i++ {
			parts = appendPart(parts, rval.Index(i).Interface())
		}
		return parts
	}
	// left for the builder to skip (or reject in strict mode)
	return append(parts, part)
}

func isNilPtr(v any) bool {
	rval := reflect.ValueOf(v)
	return rval.Kind() == reflect.Ptr && rval.IsNil()
}

func Classes(classes ...any) string {
	var parts []string
	for _, class := range classes {
		if c, ok := class.(string); ok && c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func If(cond bool, part any) any {
	if cond {
		return part
	}
	return nil
}

func IfElse(cond bool, part any, elsePart any) any {
	if cond {
		return part
	}
	return elsePart
}

func ForEach[T any](items []T, fn func(T, int) any) []any {
	elems := make([]any, 0, len(items))
	for idx, item := range items {
		elems = append(elems, fn(item, idx))
	}
	return elems
}
