// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the document to a browser. The page shows the
// server-rendered html; user events travel back over a websocket, are
// applied to the in-memory document on the ui loop, and every connection
// receives the new render.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/wavetermdev/ripple/pkg/hostdom"
	"github.com/wavetermdev/ripple/pkg/uiloop"
)

type WebFnType = func(http.ResponseWriter, *http.Request)

const (
	CacheControlHeaderKey     = "Cache-Control"
	CacheControlHeaderNoCache = "no-cache"

	ContentTypeHeaderKey = "Content-Type"
	ContentTypeJson      = "application/json"
	ContentTypeHtml      = "text/html; charset=utf-8"
)

const HttpReadTimeout = 5 * time.Second
const HttpWriteTimeout = 21 * time.Second
const HttpMaxHeaderBytes = 60000
const HttpShutdownTimeout = 2 * time.Second
const OutputChSize = 100

//go:embed static/index.html
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

type WebFnOpts struct {
	AllowCaching bool
}

// Server bridges browsers to one document. All document access happens on loop.
type Server struct {
	loop *uiloop.Loop
	doc  *hostdom.Document
	root *hostdom.Node

	lock  *sync.Mutex
	conns map[string]chan any // connid => output channel
}

func MakeServer(loop *uiloop.Loop, doc *hostdom.Document, root *hostdom.Node) *Server {
	return &Server{
		loop:  loop,
		doc:   doc,
		root:  root,
		lock:  &sync.Mutex{},
		conns: make(map[string]chan any),
	}
}

func WebFnWrap(opts WebFnOpts, fn WebFnType) WebFnType {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recErr := recover()
			if recErr == nil {
				return
			}
			panicStr := fmt.Sprintf("panic: %v", recErr)
			log.Printf("[web] panic: %v\n", recErr)
			debug.PrintStack()
			http.Error(w, panicStr, http.StatusInternalServerError)
		}()
		if !opts.AllowCaching {
			w.Header().Set(CacheControlHeaderKey, CacheControlHeaderNoCache)
		}
		fn(w, r)
	}
}

func (s *Server) Router() *mux.Router {
	gr := mux.NewRouter()
	gr.HandleFunc("/", WebFnWrap(WebFnOpts{}, s.handleIndex)).Methods(http.MethodGet)
	gr.HandleFunc("/api/render", WebFnWrap(WebFnOpts{}, s.handleRender)).Methods(http.MethodGet)
	gr.HandleFunc("/ws", s.HandleWs)
	return gr
}

type indexData struct {
	Title   string
	AppHtml template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	msg, err := s.snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeHtml)
	err = indexTemplate.Execute(w, indexData{Title: "Ripple", AppHtml: template.HTML(msg.Html)})
	if err != nil {
		log.Printf("[web] error rendering index: %v\n", err)
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	msg, err := s.snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJson(w, msg)
}

// snapshot renders the document on the ui loop.
func (s *Server) snapshot(ctx context.Context) (*RenderMessage, error) {
	var rtn *RenderMessage
	err := s.loop.Call(ctx, func() {
		rtn = s.renderMessage()
	})
	if err != nil {
		return nil, fmt.Errorf("cannot render document: %w", err)
	}
	return rtn, nil
}

// must be called on the ui loop
func (s *Server) renderMessage() *RenderMessage {
	rtn := &RenderMessage{
		Type: MessageType_Render,
		Html: s.root.InnerHTML(&hostdom.HTMLOpts{Handles: true}),
	}
	if active := s.doc.ActiveElement(); active != nil {
		rtn.FocusHid = active.Hid
		rtn.SelStart, rtn.SelEnd = active.SelectionRange()
	}
	return rtn
}

// Broadcast pushes the current render to every connection. Must be called
// on the ui loop.
func (s *Server) Broadcast() {
	msg := s.renderMessage()
	s.lock.Lock()
	defer s.lock.Unlock()
	for connId, outputCh := range s.conns {
		if !trySend(outputCh, msg) {
			log.Printf("[web] output channel full, dropping render for conn %s\n", connId)
		}
	}
}

func (s *Server) registerConn(connId string, outputCh chan any) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.conns[connId] = outputCh
}

func (s *Server) unregisterConn(connId string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.conns, connId)
}

// NumConns is the number of open websocket connections.
func (s *Server) NumConns() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.conns)
}

func MakeTCPListener(addr string) (net.Listener, error) {
	rtn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error creating listener at %v: %w", addr, err)
	}
	log.Printf("[web] server listening on %s\n", rtn.Addr())
	return rtn, nil
}

// Serve blocks until ctx is done or the server fails.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		WriteTimeout:   HttpWriteTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        s.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), HttpShutdownTimeout)
		defer cancelFn()
		server.Shutdown(shutdownCtx)
	}()
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
