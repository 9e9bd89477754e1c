// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wavetermdev/htmltoken"
	"github.com/wavetermdev/ripple/pkg/hostdom"
)

// Bind parses an HTML snippet into a descriptor.
// Attribute values of the form "#param:name" are replaced by params[name];
// <bindparam key="name"/> splices params[name] in as children.

const Html_ParamPrefix = "#param:"
const Html_BindParamTagName = "bindparam"
const fragmentTag = "#fragment"

func appendChildToStack(stack []*Elem, child any) {
	if child == nil || len(stack) == 0 {
		return
	}
	parent := stack[len(stack)-1]
	parent.Children = appendPart(parent.Children, child)
}

func popElemStack(stack []*Elem) []*Elem {
	if len(stack) <= 1 {
		return stack
	}
	curElem := stack[len(stack)-1]
	appendChildToStack(stack[:len(stack)-1], curElem)
	return stack[:len(stack)-1]
}

func curElemTag(stack []*Elem) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1].Tag
}

func finalizeStack(stack []*Elem) *Elem {
	if len(stack) == 0 {
		return nil
	}
	for len(stack) > 1 {
		stack = popElemStack(stack)
	}
	rtnElem := stack[0]
	if len(rtnElem.Children) == 1 {
		if elem, ok := rtnElem.Children[0].(*Elem); ok {
			return elem
		}
	}
	// several top-level parts get wrapped, a descriptor always has one root
	rtnElem.Tag = "div"
	return rtnElem
}

func getAttrString(token htmltoken.Token, key string) string {
	for _, attr := range token.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func attrToProp(attrVal string, params map[string]any) any {
	if strings.HasPrefix(attrVal, Html_ParamPrefix) {
		bindKey := attrVal[len(Html_ParamPrefix):]
		bindVal, ok := params[bindKey]
		if !ok {
			return nil
		}
		return bindVal
	}
	return attrVal
}

func tokenToElem(token htmltoken.Token, params map[string]any) *Elem {
	elem := &Elem{Tag: token.Data}
	for _, attr := range token.Attr {
		if attr.Key == "" {
			continue
		}
		if elem.Attrs == nil {
			elem.Attrs = make(map[string]any)
		}
		key := attr.Key
		val := attrToProp(attr.Val, params)
		if toListener(val) != nil {
			key = normalizeEventKey(key)
		}
		elem.Attrs[key] = val
	}
	return elem
}

// normalizeEventKey turns "onclick" into "onClick" so bound handlers are
// recognized whatever case the tokenizer hands back.
func normalizeEventKey(key string) string {
	if len(key) <= len(EventAttrPrefix) || !strings.HasPrefix(strings.ToLower(key), EventAttrPrefix) {
		return key
	}
	rest := key[len(EventAttrPrefix):]
	return EventAttrPrefix + strings.ToUpper(rest[:1]) + rest[1:]
}

func isWsChar(char rune) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

func processTextStr(s string) string {
	if strings.TrimFunc(s, isWsChar) == "" {
		return ""
	}
	return strings.TrimFunc(s, isWsChar)
}

// Bind never fails: parse errors are rendered as a text child so they show up on screen.
func Bind(htmlStr string, params map[string]any) *Elem {
	elem, err := BindStrict(htmlStr, params)
	if err != nil {
		appendChildToStack([]*Elem{elem}, err.Error())
	}
	return elem
}

func BindStrict(htmlStr string, params map[string]any) (*Elem, error) {
	iter := htmltoken.NewTokenizer(strings.NewReader(htmlStr))
	elemStack := []*Elem{{Tag: fragmentTag}}
	var tokenErr error
outer:
	for {
		tokenType := iter.Next()
		token := iter.Token()
		switch tokenType {
		case htmltoken.StartTagToken:
			if token.Data == Html_BindParamTagName {
				tokenErr = errors.New("bindparam tags must be self closing")
				break outer
			}
			elem := tokenToElem(token, params)
			if hostdom.IsVoidElem(elem.Tag) {
				appendChildToStack(elemStack, elem)
				continue
			}
			elemStack = append(elemStack, elem)
		case htmltoken.EndTagToken:
			if hostdom.IsVoidElem(token.Data) {
				continue
			}
			if len(elemStack) <= 1 {
				tokenErr = fmt.Errorf("end tag %q without start tag", token.Data)
				break outer
			}
			if curElemTag(elemStack) != token.Data {
				tokenErr = fmt.Errorf("end tag %q does not match start tag %q", token.Data, curElemTag(elemStack))
				break outer
			}
			elemStack = popElemStack(elemStack)
		case htmltoken.SelfClosingTagToken:
			if token.Data == Html_BindParamTagName {
				keyAttr := getAttrString(token, "key")
				appendChildToStack(elemStack, params[keyAttr])
				continue
			}
			appendChildToStack(elemStack, tokenToElem(token, params))
		case htmltoken.TextToken:
			textStr := processTextStr(token.Data)
			if textStr == "" {
				continue
			}
			appendChildToStack(elemStack, textStr)
		case htmltoken.CommentToken:
			continue
		case htmltoken.DoctypeToken:
			tokenErr = errors.New("doctype not supported")
			break outer
		case htmltoken.ErrorToken:
			if iter.Err() == io.EOF {
				break outer
			}
			tokenErr = iter.Err()
			break outer
		}
	}
	if tokenErr == nil && len(elemStack) > 1 {
		tokenErr = fmt.Errorf("unclosed tag %q", curElemTag(elemStack))
	}
	return finalizeStack(elemStack), tokenErr
}
