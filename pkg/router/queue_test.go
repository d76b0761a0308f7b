package router

import (
	"reflect"
	"testing"
)

func TestEventQueueCoalesces(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Op: OpAdd, Path: "get/a.go"})
	q.push(Event{Op: OpChange, Path: "get/b.go"})
	q.push(Event{Op: OpChange, Path: "get/a.go"})
	q.push(Event{Op: OpRemove, Path: "get/b.go"})

	select {
	case <-q.ready:
	default:
		t.Fatal("ready not signaled")
	}
	select {
	case <-q.ready:
		t.Fatal("ready signaled more than once")
	default:
	}

	want := []Event{
		{Op: OpChange, Path: "get/a.go"},
		{Op: OpRemove, Path: "get/b.go"},
	}
	if got := q.drain(); !reflect.DeepEqual(got, want) {
		t.Errorf("drain() = %v, want %v", got, want)
	}
	if got := q.drain(); len(got) != 0 {
		t.Errorf("second drain() = %v, want empty", got)
	}
}

func TestEventQueuePushAfterDrain(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Op: OpAdd, Path: "get/a.go"})
	<-q.ready
	q.drain()

	q.push(Event{Op: OpAdd, Path: "get/a.go"})
	select {
	case <-q.ready:
	default:
		t.Fatal("ready not signaled for event pushed after drain")
	}
	if got := q.drain(); len(got) != 1 {
		t.Errorf("drain() = %v, want one event", got)
	}
}
