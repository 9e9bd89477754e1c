// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/wavetermdev/ripple/pkg/hostdom"
)

// live properties are applied with SetProperty, static attributes would not track later changes
var liveProps = map[string]bool{
	hostdom.Prop_Checked:  true,
	hostdom.Prop_Selected: true,
	hostdom.Prop_Disabled: true,
	hostdom.Prop_Value:    true,
}

// CreateElement builds one node. Malformed input (non-callable handlers,
// unsupported child values) is skipped. The node is never attached.
func CreateElement(doc *hostdom.Document, tag string, attrs map[string]any, children any, events map[string]any) *hostdom.Node {
	return createElement(doc, tag, attrs, children, events, nil)
}

// CreateElementStrict is CreateElement that rejects malformed input.
// The returned node is built from the valid parts even when err != nil.
func CreateElementStrict(doc *hostdom.Document, tag string, attrs map[string]any, children any, events map[string]any) (*hostdom.Node, error) {
	var errs []error
	node := createElement(doc, tag, attrs, children, events, &errs)
	return node, errors.Join(errs...)
}

func createElement(doc *hostdom.Document, tag string, attrs map[string]any, children any, events map[string]any, errs *[]error) *hostdom.Node {
	node := doc.CreateElement(tag)
	report := func(format string, args ...any) {
		if errs != nil {
			*errs = append(*errs, fmt.Errorf("<%s> "+format, append([]any{tag}, args...)...))
		}
	}
	for _, key := range sortedKeys(attrs) {
		applyAttr(node, key, attrs[key], report)
	}
	appendChildren(doc, node, children, report)
	for _, name := range sortedKeys(events) {
		fn := toListener(events[name])
		if fn == nil {
			report("event %q: handler of type %T is not callable", name, events[name])
			continue
		}
		node.AddEventListener(name, fn)
	}
	return node
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type attrKind int

const (
	attrKind_Plain attrKind = iota
	attrKind_Style
	attrKind_Event
	attrKind_Prop
)

// classifyAttr decides how an attribute is applied. Callables only ever become
// listeners: a function value is never written out as attribute text.
func classifyAttr(key string, val any) (attrKind, error) {
	if key == StyleAttr && isStyleValue(val) {
		return attrKind_Style, nil
	}
	if _, ok := inlineEventName(key); ok {
		if toListener(val) != nil {
			return attrKind_Event, nil
		}
		if isCamelEventKey(key) {
			return attrKind_Plain, fmt.Errorf("attribute %q: handler of type %T is not callable", key, val)
		}
	}
	if reflect.ValueOf(val).Kind() == reflect.Func {
		return attrKind_Plain, fmt.Errorf("attribute %q: function of type %T cannot be an attribute value", key, val)
	}
	if liveProps[key] {
		return attrKind_Prop, nil
	}
	return attrKind_Plain, nil
}

func applyAttr(node *hostdom.Node, key string, val any, report func(string, ...any)) {
	if val == nil {
		return
	}
	kind, err := classifyAttr(key, val)
	if err != nil {
		report("%v", err)
		return
	}
	switch kind {
	case attrKind_Style:
		applyStyle(node, val)
	case attrKind_Event:
		eventName, _ := inlineEventName(key)
		node.AddEventListener(eventName, toListener(val))
	case attrKind_Prop:
		node.SetProperty(key, liveValue(key, val))
	default:
		node.SetAttribute(key, attrString(val))
	}
}

func isStyleValue(val any) bool {
	switch val.(type) {
	case Style, map[string]string, map[string]any:
		return true
	}
	return false
}

func applyStyle(node *hostdom.Node, val any) {
	switch style := val.(type) {
	case Style:
		for _, k := range sortedStringKeys(style) {
			node.SetStyleProperty(k, style[k])
		}
	case map[string]string:
		for _, k := range sortedStringKeys(style) {
			node.SetStyleProperty(k, style[k])
		}
	case map[string]any:
		for _, k := range sortedKeys(style) {
			if style[k] == nil {
				continue
			}
			node.SetStyleProperty(k, attrString(style[k]))
		}
	}
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func liveValue(key string, val any) any {
	if key == hostdom.Prop_Value {
		return attrString(val)
	}
	if bval, ok := val.(bool); ok {
		return bval
	}
	sval := attrString(val)
	return sval != "" && sval != "false"
}

// inlineEventName maps onClick and onclick => click.
func inlineEventName(key string) (string, bool) {
	if len(key) <= len(EventAttrPrefix) || !strings.HasPrefix(strings.ToLower(key), EventAttrPrefix) {
		return "", false
	}
	return strings.ToLower(key[len(EventAttrPrefix):]), true
}

// isCamelEventKey reports "onClick" style keys. These are always handlers, while
// lower-case keys like "one" or "online" are plain attributes unless given a callable.
func isCamelEventKey(key string) bool {
	if _, ok := inlineEventName(key); !ok {
		return false
	}
	return unicode.IsUpper(rune(key[len(EventAttrPrefix)]))
}

func attrString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(val)
}

func toListener(val any) hostdom.Listener {
	switch fn := val.(type) {
	case hostdom.Listener:
		if fn == nil {
			return nil
		}
		return fn
	case func(*hostdom.Event):
		if fn == nil {
			return nil
		}
		return fn
	case func():
		if fn == nil {
			return nil
		}
		return func(*hostdom.Event) { fn() }
	}
	return nil
}

func appendChildren(doc *hostdom.Document, node *hostdom.Node, children any, report func(string, ...any)) {
	switch c := children.(type) {
	case nil:
		return
	case []any:
		for _, child := range c {
			appendChild(doc, node, child, report)
		}
	case []*hostdom.Node:
		for _, child := range c {
			appendChild(doc, node, child, report)
		}
	case []string:
		for _, child := range c {
			appendChild(doc, node, child, report)
		}
	default:
		appendChild(doc, node, children, report)
	}
}

func appendChild(doc *hostdom.Document, node *hostdom.Node, child any, report func(string, ...any)) {
	switch c := child.(type) {
	case string:
		node.AppendChild(doc.CreateTextNode(c))
	case *hostdom.Node:
		if c == nil {
			report("nil child node")
			return
		}
		if err := node.AppendChild(c); err != nil {
			report("child %s: %v", c, err)
		}
	default:
		report("child of type %T is neither text nor a node", child)
	}
}
