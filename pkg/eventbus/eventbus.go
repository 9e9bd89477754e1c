// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/uuid"
	"github.com/wavetermdev/ripple/pkg/panichandler"
)

// Bus is a narrow coordination channel owned by a common ancestor.
// Siblings subscribe through handles instead of holding references to each
// other. Delivery is synchronous, in subscription order, on the caller's
// goroutine (the ui loop), so there is no locking.
type Bus struct {
	subs *linkedhashmap.Map // subscription id => *subscription
}

type Event struct {
	Topic  string
	Sender string // id of the publishing component
	Data   any
}

type subscription struct {
	id    string
	topic string
	fn    func(Event)
}

type Handle struct {
	id  string
	bus *Bus
}

func MakeBus() *Bus {
	return &Bus{subs: linkedhashmap.New()}
}

func (b *Bus) Subscribe(topic string, fn func(Event)) Handle {
	sub := &subscription{id: uuid.New().String(), topic: topic, fn: fn}
	b.subs.Put(sub.id, sub)
	return Handle{id: sub.id, bus: b}
}

func (h Handle) Unsubscribe() {
	if h.bus == nil {
		return
	}
	h.bus.subs.Remove(h.id)
}

func (h Handle) Active() bool {
	if h.bus == nil {
		return false
	}
	_, ok := h.bus.subs.Get(h.id)
	return ok
}

func (b *Bus) NumSubscribers(topic string) int {
	count := 0
	for _, val := range b.subs.Values() {
		if val.(*subscription).topic == topic {
			count++
		}
	}
	return count
}

// Publish delivers ev to every subscriber of ev.Topic registered when Publish
// was called. Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(ev Event) {
	var targets []*subscription
	for _, val := range b.subs.Values() {
		sub := val.(*subscription)
		if sub.topic == ev.Topic {
			targets = append(targets, sub)
		}
	}
	for _, sub := range targets {
		if _, ok := b.subs.Get(sub.id); !ok {
			continue
		}
		deliver(sub, ev)
	}
}

func deliver(sub *subscription, ev Event) {
	defer func() {
		panichandler.LogPanic("eventbus handler "+ev.Topic, recover())
	}()
	sub.fn(ev)
}
