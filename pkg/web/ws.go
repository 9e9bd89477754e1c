// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wavetermdev/ripple/pkg/hostdom"
)

const wsReadWaitTimeout = 15 * time.Second
const wsWriteWaitTimeout = 10 * time.Second
const wsPingPeriodTickTime = 10 * time.Second
const wsInitialPingTime = 1 * time.Second

const (
	MessageType_Ping   = "ping"
	MessageType_Pong   = "pong"
	MessageType_Event  = "event"
	MessageType_Render = "render"
	MessageType_Error  = "error"
)

// ClientMessage is sent by the browser. For events Event is one of click,
// input, keydown or focus and Hid addresses the target node.
type ClientMessage struct {
	Type     string `json:"type"`
	Event    string `json:"event,omitempty"`
	Hid      int    `json:"hid,omitempty"`
	Value    string `json:"value,omitempty"`
	Key      string `json:"key,omitempty"`
	SelStart *int   `json:"selstart,omitempty"`
	SelEnd   *int   `json:"selend,omitempty"`
}

type RenderMessage struct {
	Type     string `json:"type"`
	Html     string `json:"html"`
	FocusHid int    `json:"focushid,omitempty"`
	SelStart int    `json:"selstart"`
	SelEnd   int    `json:"selend"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:   4 * 1024,
	WriteBufferSize:  32 * 1024,
	HandshakeTimeout: 1 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

func writeJson(w http.ResponseWriter, data any) {
	barr, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	w.WriteHeader(http.StatusOK)
	w.Write(barr)
}

func (s *Server) HandleWs(w http.ResponseWriter, r *http.Request) {
	err := s.handleWsInternal(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleWsInternal(w http.ResponseWriter, r *http.Request) error {
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}
	defer conn.Close()
	wsConnId := uuid.New().String()
	log.Printf("[web] new websocket connection: connid:%s\n", wsConnId)
	outputCh := make(chan any, OutputChSize)
	closeCh := make(chan any)
	s.registerConn(wsConnId, outputCh)
	defer s.unregisterConn(wsConnId)
	s.loop.Post(func() {
		trySend(outputCh, s.renderMessage())
	})
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(conn, outputCh, closeCh)
	}()
	go func() {
		defer wg.Done()
		writeLoop(conn, outputCh, closeCh)
	}()
	wg.Wait()
	return nil
}

func (s *Server) readLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any) {
	readWait := wsReadWaitTimeout
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(readWait))
	defer close(closeCh)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[web] read error: %v\n", err)
			}
			break
		}
		var msg ClientMessage
		err = json.Unmarshal(message, &msg)
		if err != nil {
			log.Printf("[web] error unmarshalling client message: %v\n", err)
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		switch msg.Type {
		case MessageType_Pong:
		case MessageType_Ping:
			trySend(outputCh, map[string]any{"type": MessageType_Pong, "stime": time.Now().UnixMilli()})
		case MessageType_Event:
			s.postEvent(msg, outputCh)
		default:
			trySend(outputCh, ErrorMessage{Type: MessageType_Error, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

// trySend drops m when the writer is gone or backed up.
func trySend(outputCh chan any, m any) bool {
	select {
	case outputCh <- m:
		return true
	default:
		return false
	}
}

func (s *Server) postEvent(msg ClientMessage, outputCh chan any) {
	ok := s.loop.Post(func() {
		err := s.applyEvent(msg)
		if err != nil {
			trySend(outputCh, ErrorMessage{Type: MessageType_Error, Error: err.Error()})
			return
		}
		if msg.Event != hostdom.EventType_Focus {
			s.Broadcast()
		}
	})
	if !ok {
		log.Printf("[web] ui loop stopped, dropping %s event\n", msg.Event)
	}
}

// applyEvent replays a browser event on the document. Must run on the ui loop.
func (s *Server) applyEvent(msg ClientMessage) error {
	node := s.doc.GetNodeByHid(msg.Hid)
	if node == nil {
		return fmt.Errorf("no node with hid %d", msg.Hid)
	}
	switch msg.Event {
	case hostdom.EventType_Focus:
		node.Focus()
		applySelection(node, msg)
	case hostdom.EventType_Click:
		node.Focus()
		node.Click()
	case hostdom.EventType_Input:
		node.Focus()
		node.SetValue(msg.Value)
		end := hostdom.TextLength(msg.Value)
		node.SetSelectionRange(end, end)
		applySelection(node, msg)
		node.DispatchEvent(&hostdom.Event{Type: hostdom.EventType_Input})
	case hostdom.EventType_KeyDown:
		node.Focus()
		applySelection(node, msg)
		node.KeyDown(msg.Key)
	default:
		return fmt.Errorf("unsupported event %q", msg.Event)
	}
	return nil
}

func applySelection(node *hostdom.Node, msg ClientMessage) {
	if msg.SelStart == nil || msg.SelEnd == nil {
		return
	}
	node.SetSelectionRange(*msg.SelStart, *msg.SelEnd)
}

func writePing(conn *websocket.Conn) error {
	pingMessage := map[string]any{"type": MessageType_Ping, "stime": time.Now().UnixMilli()}
	jsonVal, _ := json.Marshal(pingMessage)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout)) // no error
	return conn.WriteMessage(websocket.TextMessage, jsonVal)
}

func writeLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any) {
	ticker := time.NewTicker(wsInitialPingTime)
	defer ticker.Stop()
	initialPing := true
	for {
		select {
		case msg := <-outputCh:
			barr, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[web] cannot marshal websocket message: %v\n", err)
				break
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout))
			err = conn.WriteMessage(websocket.TextMessage, barr)
			if err != nil {
				conn.Close()
				log.Printf("[web] write error: %v\n", err)
				return
			}

		case <-ticker.C:
			err := writePing(conn)
			if err != nil {
				log.Printf("[web] write error: %v\n", err)
				return
			}
			if initialPing {
				initialPing = false
				ticker.Reset(wsPingPeriodTickTime)
			}

		case <-closeCh:
			return
		}
	}
}
