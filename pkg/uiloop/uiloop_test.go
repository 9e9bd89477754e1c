// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package uiloop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := MakeLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestPostOrder(t *testing.T) {
	l, _ := startLoop(t)
	var order []string
	doneCh := make(chan struct{})
	l.Post(func() {
		order = append(order, "a")
		l.Defer(func() {
			order = append(order, "deferred")
			close(doneCh)
		})
		l.Post(func() { order = append(order, "c") })
		order = append(order, "b")
	})
	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		t.Fatalf("deferred callback never ran")
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "deferred"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOnLoop(t *testing.T) {
	l, _ := startLoop(t)
	if l.OnLoop() {
		t.Errorf("test goroutine is not the loop")
	}
	var onLoop, nested bool
	err := l.Call(context.Background(), func() {
		onLoop = l.OnLoop()
		l.Call(context.Background(), func() { nested = true })
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !onLoop || !nested {
		t.Errorf("onLoop=%v nested=%v", onLoop, nested)
	}
}

func TestPanicRecovered(t *testing.T) {
	l, _ := startLoop(t)
	l.Post(func() { panic("boom") })
	ran := false
	err := l.Call(context.Background(), func() { ran = true })
	if err != nil || !ran {
		t.Errorf("loop should survive a panicking task (err=%v)", err)
	}
}

func TestStop(t *testing.T) {
	l := MakeLoop()
	go l.Run(context.Background())
	l.Stop()
	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop")
	}
	if l.Post(func() {}) {
		t.Errorf("post after stop must fail")
	}
	if err := l.Call(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("call after stop: %v", err)
	}
}

func TestCancelContext(t *testing.T) {
	l := MakeLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop on cancel")
	}
}

func TestCallReturnsPanic(t *testing.T) {
	l, _ := startLoop(t)
	err := l.Call(context.Background(), func() { panic("boom") })
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("call should report the panic, got %v", err)
	}
	var nestedErr error
	err = l.Call(context.Background(), func() {
		nestedErr = l.Call(context.Background(), func() { panic(errors.New("inner")) })
	})
	if err != nil || nestedErr == nil || !strings.Contains(nestedErr.Error(), "inner") {
		t.Errorf("outer=%v nested=%v", err, nestedErr)
	}
}
