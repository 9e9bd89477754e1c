// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package uiloop runs all document work on one goroutine. Hosts and
// background watchers post closures; components never see another goroutine.
package uiloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/outrigdev/goid"
	"github.com/wavetermdev/ripple/pkg/panichandler"
)

var ErrStopped = errors.New("ui loop stopped")

type Loop struct {
	lock     sync.Mutex
	cond     *sync.Cond
	queue    []func()
	deferred []func()
	stopped  bool
	loopGoId atomic.Uint64
	doneCh   chan struct{}
}

func MakeLoop() *Loop {
	l := &Loop{doneCh: make(chan struct{})}
	l.cond = sync.NewCond(&l.lock)
	return l
}

// Post queues fn to run on the loop. Returns false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.stopped {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Defer is a zero-delay callback: fn runs after the current task returns,
// once no posted task is waiting.
func (l *Loop) Defer(fn func()) bool {
	if fn == nil {
		return false
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.stopped {
		return false
	}
	l.deferred = append(l.deferred, fn)
	l.cond.Signal()
	return true
}

// Call runs fn on the loop and waits for it. Called from the loop itself it
// runs fn inline. A panic in fn is returned as an error.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if l.OnLoop() {
		return callTask(fn)
	}
	doneCh := make(chan struct{})
	var taskErr error
	ok := l.Post(func() {
		defer close(doneCh)
		taskErr = callTask(fn)
	})
	if !ok {
		return ErrStopped
	}
	select {
	case <-doneCh:
		return taskErr
	case <-ctx.Done():
		return ctx.Err()
	case <-l.doneCh:
		return ErrStopped
	}
}

func (l *Loop) OnLoop() bool {
	gid := l.loopGoId.Load()
	return gid != 0 && gid == goid.Get()
}

// Run processes tasks until Stop is called or ctx is done. Tasks still
// queued when the loop stops are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.loopGoId.CompareAndSwap(0, goid.Get()) {
		return errors.New("ui loop already running")
	}
	defer close(l.doneCh)
	stopCtxCh := make(chan struct{})
	defer close(stopCtxCh)
	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-stopCtxCh:
		}
	}()
	for {
		fn, ok := l.next()
		if !ok {
			break
		}
		runTask(fn)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (l *Loop) next() (func(), bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for len(l.queue) == 0 && len(l.deferred) == 0 && !l.stopped {
		l.cond.Wait()
	}
	if l.stopped {
		return nil, false
	}
	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue = l.queue[1:]
		return fn, true
	}
	fn := l.deferred[0]
	l.deferred = l.deferred[1:]
	return fn, true
}

func (l *Loop) Stop() {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	l.deferred = nil
	l.cond.Broadcast()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.doneCh
}

func runTask(fn func()) {
	defer func() {
		panichandler.LogPanic("ui loop task", recover())
	}()
	fn()
}

func callTask(fn func()) (rtnErr error) {
	defer func() {
		if panicErr := panichandler.PanicHandler("ui loop call", recover()); panicErr != nil {
			rtnErr = panicErr
		}
	}()
	fn()
	return nil
}
