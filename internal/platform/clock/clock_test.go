package clock

import (
	"testing"
	"time"
)

func TestFake_FiresInOrder(t *testing.T) {
	c := NewFake()
	var order []string
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := c.AfterFunc(time.Second, func() { order = append(order, "never") })
	if !stopped.Stop() {
		t.Fatal("expected Stop to report a pending timer")
	}

	c.Advance(1500 * time.Millisecond)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("expected only a to fire, got %v", order)
	}
	if c.Pending() != 1 {
		t.Errorf("expected one pending timer, got %d", c.Pending())
	}

	c.Advance(time.Second)
	if len(order) != 2 || order[1] != "b" {
		t.Fatalf("expected b second, got %v", order)
	}
	if stopped.Stop() {
		t.Error("expected second Stop to return false")
	}
}

func TestFake_CallbackCanSchedule(t *testing.T) {
	c := NewFake()
	fired := 0
	c.AfterFunc(time.Second, func() {
		fired++
		c.AfterFunc(time.Second, func() { fired++ })
	})
	c.Advance(3 * time.Second)
	if fired != 2 {
		t.Errorf("expected chained timer to fire within the same advance, got %d", fired)
	}
	if want := NewFake().Now().Add(3 * time.Second); !c.Now().Equal(want) {
		t.Errorf("expected clock at %v, got %v", want, c.Now())
	}
}
