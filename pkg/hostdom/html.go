// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package hostdom

import (
	"html"
	"strconv"
	"strings"
)

const HidAttr = "data-hid"

var voidElems = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "wbr": true,
}

// IsVoidElem reports tags that never have children or an end tag.
func IsVoidElem(tag string) bool {
	return voidElems[strings.ToLower(tag)]
}

var boolProps = []string{Prop_Checked, Prop_Selected, Prop_Disabled}

type HTMLOpts struct {
	Handles bool // emit data-hid so remote hosts can address nodes
	Indent  string
}

func (n *Node) OuterHTML() string {
	return n.RenderHTML(nil)
}

func (n *Node) InnerHTML(opts *HTMLOpts) string {
	if opts == nil {
		opts = &HTMLOpts{}
	}
	var buf strings.Builder
	for _, c := range n.children {
		writeNode(&buf, c, opts, 0)
	}
	return buf.String()
}

func (n *Node) RenderHTML(opts *HTMLOpts) string {
	if opts == nil {
		opts = &HTMLOpts{}
	}
	var buf strings.Builder
	writeNode(&buf, n, opts, 0)
	return buf.String()
}

func writeIndent(buf *strings.Builder, opts *HTMLOpts, depth int) {
	if opts.Indent == "" {
		return
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString(strings.Repeat(opts.Indent, depth))
}

func writeNode(buf *strings.Builder, n *Node, opts *HTMLOpts, depth int) {
	if n.Type == TextNode {
		writeIndent(buf, opts, depth)
		buf.WriteString(html.EscapeString(n.Text))
		return
	}
	writeIndent(buf, opts, depth)
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	if opts.Handles {
		writeAttr(buf, HidAttr, strconv.Itoa(n.Hid))
	}
	for _, name := range n.AttributeNames() {
		if name == "style" && !n.style.Empty() {
			continue
		}
		writeAttr(buf, name, n.Attr(name))
	}
	if styleText := n.StyleText(); styleText != "" {
		writeAttr(buf, "style", styleText)
	}
	if val, ok := n.props[Prop_Value].(string); ok {
		if _, hasAttr := n.GetAttribute(Prop_Value); !hasAttr {
			writeAttr(buf, Prop_Value, val)
		}
	}
	for _, prop := range boolProps {
		if n.BoolProperty(prop) {
			buf.WriteByte(' ')
			buf.WriteString(prop)
		}
	}
	buf.WriteByte('>')
	if voidElems[n.Tag] {
		return
	}
	for _, c := range n.children {
		writeNode(buf, c, opts, depth+1)
	}
	if len(n.children) > 0 {
		writeIndent(buf, opts, depth)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}

func writeAttr(buf *strings.Builder, name string, val string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(html.EscapeString(val))
	buf.WriteByte('"')
}
