// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPublishOrderAndTopics(t *testing.T) {
	bus := MakeBus()
	var got []string
	bus.Subscribe("a", func(ev Event) { got = append(got, "1:"+ev.Data.(string)) })
	bus.Subscribe("b", func(ev Event) { got = append(got, "b") })
	h := bus.Subscribe("a", func(ev Event) { got = append(got, "2:"+ev.Data.(string)) })
	bus.Publish(Event{Topic: "a", Data: "x"})
	if diff := cmp.Diff([]string{"1:x", "2:x"}, got); diff != "" {
		t.Errorf("delivery mismatch (-want +got):\n%s", diff)
	}
	h.Unsubscribe()
	if h.Active() {
		t.Errorf("handle should be inactive after unsubscribe")
	}
	got = nil
	bus.Publish(Event{Topic: "a", Data: "y"})
	if diff := cmp.Diff([]string{"1:y"}, got); diff != "" {
		t.Errorf("after unsubscribe (-want +got):\n%s", diff)
	}
	if n := bus.NumSubscribers("a"); n != 1 {
		t.Errorf("subscribers = %d", n)
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := MakeBus()
	var second Handle
	calls := 0
	bus.Subscribe("t", func(ev Event) {
		calls++
		second.Unsubscribe()
	})
	second = bus.Subscribe("t", func(ev Event) { calls += 100 })
	bus.Subscribe("t", func(ev Event) { panic("bad handler") })
	bus.Publish(Event{Topic: "t"})
	if calls != 1 {
		t.Errorf("calls = %d, unsubscribed handler must not run", calls)
	}
	var zero Handle
	zero.Unsubscribe()
}
