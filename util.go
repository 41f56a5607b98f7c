package datatable

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clamp constrains v to the range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToText converts a cell value to its display text.
// nil becomes the empty string rather than "<nil>".
func ToText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FieldAccessor compiles a dotted field path like "user.address.city" into an
// accessor over nested row maps. Missing or non-map intermediate values yield
// nil instead of panicking.
func FieldAccessor(path string) Accessor {
	if !strings.Contains(path, ".") {
		return func(r Row) any {
			if r == nil {
				return nil
			}
			return r[path]
		}
	}
	parts := strings.Split(path, ".")
	return func(r Row) any {
		var cur any = r
		for _, p := range parts {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[p]
		}
		return cur
	}
}

// Debouncer coalesces a burst of calls into one invocation after a quiet
// period. Each Call resets the countdown; only the last function runs.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn to run after the quiet period, cancelling any
// previously scheduled function.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
