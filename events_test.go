package datatable

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestBusDispatch(t *testing.T) {
	b := NewBus()

	t.Run("delivers to kind subscribers only", func(t *testing.T) {
		var states, errors int
		b.On(EventStateChange, func(Event) { states++ })
		b.On(EventError, func(Event) { errors++ })

		b.Emit(StateChangeEvent{})
		b.Emit(StateChangeEvent{})
		b.Emit(ErrorEvent{Type: ErrorQuery})

		if states != 2 || errors != 1 {
			t.Errorf("states=%d errors=%d, want 2/1", states, errors)
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		n := 0
		off := b.On(EventDataLoaded, func(Event) { n++ })
		b.Emit(DataLoadedEvent{Count: 1})
		off()
		b.Emit(DataLoadedEvent{Count: 2})
		if n != 1 {
			t.Errorf("handler ran %d times, want 1", n)
		}
	})

	t.Run("unsubscribe does not disturb other handlers", func(t *testing.T) {
		var a, c int
		offA := b.On(EventAfterRender, func(Event) { a++ })
		b.On(EventAfterRender, func(Event) { c++ })
		offA()
		b.Emit(RenderEvent{After: true})
		if a != 0 || c != 1 {
			t.Errorf("a=%d c=%d, want 0/1", a, c)
		}
	})
}

func TestBusConcurrentSubscribeAndEmit(t *testing.T) {
	b := NewBus()
	var delivered atomic.Int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.Emit(StateChangeEvent{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			off := b.On(EventStateChange, func(Event) { delivered.Add(1) })
			off()
		}
	}()
	wg.Wait()

	// a handler subscribed for good still works afterwards
	b.On(EventStateChange, func(Event) { delivered.Add(1) })
	before := delivered.Load()
	b.Emit(StateChangeEvent{})
	if delivered.Load() != before+1 {
		t.Error("post-churn subscription not delivered")
	}
}

func TestEventKinds(t *testing.T) {
	cases := []struct {
		ev   Event
		want EventKind
	}{
		{InitEvent{}, EventBeforeInit},
		{InitEvent{After: true}, EventAfterInit},
		{QueryEvent{}, EventBeforeQuery},
		{QueryEvent{After: true}, EventAfterQuery},
		{RenderEvent{}, EventBeforeRender},
		{RenderEvent{After: true}, EventAfterRender},
		{StateChangeEvent{}, EventStateChange},
		{DataLoadedEvent{}, EventDataLoaded},
		{ErrorEvent{}, EventError},
	}
	for _, c := range cases {
		if got := c.ev.Kind(); got != c.want {
			t.Errorf("%T.Kind() = %v, want %v", c.ev, got, c.want)
		}
	}
}

func TestEventKindString(t *testing.T) {
	if EventBeforeQuery.String() != "beforeQuery" {
		t.Errorf("got %q", EventBeforeQuery.String())
	}
	if EventError.String() != "error" {
		t.Errorf("got %q", EventError.String())
	}
	if EventKind(200).String() != "unknown" {
		t.Errorf("got %q", EventKind(200).String())
	}
}

func TestErrorTypeString(t *testing.T) {
	cases := map[ErrorType]string{
		ErrorRender:   "render",
		ErrorSecurity: "security",
		ErrorQuery:    "query",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
