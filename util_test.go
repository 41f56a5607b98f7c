package datatable

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Errorf("Clamp(-3,0,10) = %d", got)
	}
	if got := Clamp(42, 0, 10); got != 10 {
		t.Errorf("Clamp(42,0,10) = %d", got)
	}
	if got := Clamp(2.5, 0.0, 2.0); got != 2.0 {
		t.Errorf("Clamp(2.5,0,2) = %v", got)
	}
}

func TestToText(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"hi", "hi"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{3.5, "3.5"},
		{float64(10), "10"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := ToText(c.in); got != c.want {
			t.Errorf("ToText(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFieldAccessor(t *testing.T) {
	row := Row{
		"name": "kim",
		"address": map[string]any{
			"city": "Oslo",
			"geo":  map[string]any{"lat": 59.9},
		},
	}

	t.Run("flat field", func(t *testing.T) {
		if got := FieldAccessor("name")(row); got != "kim" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("nested path", func(t *testing.T) {
		if got := FieldAccessor("address.city")(row); got != "Oslo" {
			t.Errorf("got %v", got)
		}
		if got := FieldAccessor("address.geo.lat")(row); got != 59.9 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("missing segments yield nil", func(t *testing.T) {
		if got := FieldAccessor("address.zip")(row); got != nil {
			t.Errorf("got %v", got)
		}
		if got := FieldAccessor("name.deeper")(row); got != nil {
			t.Errorf("got %v", got)
		}
		if got := FieldAccessor("nope")(row); got != nil {
			t.Errorf("got %v", got)
		}
	})

	t.Run("nil row", func(t *testing.T) {
		if got := FieldAccessor("name")(nil); got != nil {
			t.Errorf("got %v", got)
		}
	})
}

func TestDebouncer(t *testing.T) {
	t.Run("burst collapses to one call", func(t *testing.T) {
		var n atomic.Int32
		d := NewDebouncer(30 * time.Millisecond)
		defer d.Stop()

		for i := 0; i < 10; i++ {
			d.Call(func() { n.Add(1) })
		}
		time.Sleep(120 * time.Millisecond)
		if got := n.Load(); got != 1 {
			t.Errorf("fn ran %d times, want 1", got)
		}
	})

	t.Run("stop cancels pending call", func(t *testing.T) {
		var n atomic.Int32
		d := NewDebouncer(30 * time.Millisecond)
		d.Call(func() { n.Add(1) })
		d.Stop()
		time.Sleep(120 * time.Millisecond)
		if got := n.Load(); got != 0 {
			t.Errorf("fn ran %d times after Stop", got)
		}
	})
}
