// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"

	"github.com/wavetermdev/ripple/pkg/hostdom"
)

// Builder materializes descriptor trees into hostdom nodes.
// In strict mode malformed descriptors are reported instead of skipped;
// the tree is still built from the valid parts.
type Builder struct {
	Doc    *hostdom.Document
	Strict bool
}

func MakeBuilder(doc *hostdom.Document, strict bool) *Builder {
	return &Builder{Doc: doc, Strict: strict}
}

// Build materializes part (normally the *Elem returned by a render function).
// The error is always nil unless the builder is strict.
func (b *Builder) Build(part any) (*hostdom.Node, error) {
	var errs []error
	var errsPtr *[]error
	if b.Strict {
		errsPtr = &errs
	}
	node := b.buildPart(part, errsPtr)
	if node == nil && len(errs) == 0 && b.Strict {
		errs = append(errs, fmt.Errorf("render produced no node (got %T)", part))
	}
	return node, errors.Join(errs...)
}

func (b *Builder) buildPart(part any, errs *[]error) *hostdom.Node {
	switch p := part.(type) {
	case *Elem:
		if p == nil {
			return nil
		}
		return b.buildElem(p, errs)
	case string:
		return b.Doc.CreateTextNode(p)
	case *hostdom.Node:
		return p
	case Mountable:
		if isNilPtr(p) {
			return nil
		}
		return p.Materialize()
	}
	return nil
}

func (b *Builder) buildElem(elem *Elem, errs *[]error) *hostdom.Node {
	children := make([]any, 0, len(elem.Children))
	for _, child := range elem.Children {
		switch c := child.(type) {
		case string:
			children = append(children, c)
		case *Elem, *hostdom.Node, Mountable:
			node := b.buildPart(c, errs)
			if node == nil {
				continue
			}
			children = append(children, node)
		default:
			// passed through so createElement skips (or reports) it
			children = append(children, child)
		}
	}
	return createElement(b.Doc, elem.Tag, elem.Attrs, children, elem.Events, errs)
}

// Check reports what a strict Build of part would reject, without creating
// nodes or materializing embedded components.
func Check(part any) error {
	var errs []error
	switch p := part.(type) {
	case *Elem:
		if p == nil {
			errs = append(errs, errors.New("render produced no node (got nil *Elem)"))
			break
		}
		checkElem(p, &errs)
	case string, *hostdom.Node, Mountable:
	default:
		errs = append(errs, fmt.Errorf("render produced no node (got %T)", part))
	}
	return errors.Join(errs...)
}

func checkElem(elem *Elem, errs *[]error) {
	report := func(format string, args ...any) {
		*errs = append(*errs, fmt.Errorf("<%s> "+format, append([]any{elem.Tag}, args...)...))
	}
	for _, key := range sortedKeys(elem.Attrs) {
		if elem.Attrs[key] == nil {
			continue
		}
		if _, err := classifyAttr(key, elem.Attrs[key]); err != nil {
			report("%v", err)
		}
	}
	for _, child := range elem.Children {
		switch c := child.(type) {
		case *Elem:
			if c != nil {
				checkElem(c, errs)
			}
		case string, *hostdom.Node, Mountable:
		default:
			report("child of type %T is neither text nor a node", child)
		}
	}
	for _, name := range sortedKeys(elem.Events) {
		if toListener(elem.Events[name]) == nil {
			report("event %q: handler of type %T is not callable", name, elem.Events[name])
		}
	}
}
