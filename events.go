package datatable

import "sync"

// EventKind enumerates the lifecycle notifications a table emits. The set is
// closed: every kind has exactly one payload type.
type EventKind uint8

const (
	EventBeforeInit EventKind = iota
	EventAfterInit
	EventBeforeQuery
	EventAfterQuery
	EventBeforeRender
	EventAfterRender
	EventStateChange
	EventDataLoaded
	EventError

	eventKindCount // sentinel, keep last
)

var eventKindNames = [...]string{
	"beforeInit", "afterInit",
	"beforeQuery", "afterQuery",
	"beforeRender", "afterRender",
	"stateChange", "dataLoaded", "error",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is a lifecycle notification. Each payload type reports its own kind.
type Event interface {
	Kind() EventKind
}

// InitEvent fires around table construction.
type InitEvent struct {
	After bool
}

func (e InitEvent) Kind() EventKind {
	if e.After {
		return EventAfterInit
	}
	return EventBeforeInit
}

// QueryEvent fires around a server-mode query. Before the fetch Rows is zero;
// after an accepted response it carries the row count.
type QueryEvent struct {
	After bool
	Query Query
	Token uint64
	Rows  int
}

func (e QueryEvent) Kind() EventKind {
	if e.After {
		return EventAfterQuery
	}
	return EventBeforeQuery
}

// RenderEvent fires around a render pass. Before a pass only Reasons is set;
// after a pass Result and Window describe the produced frame.
type RenderEvent struct {
	After   bool
	Reasons []string
	Result  Result
	Window  Window
}

func (e RenderEvent) Kind() EventKind {
	if e.After {
		return EventAfterRender
	}
	return EventBeforeRender
}

// StateChangeEvent fires after every accepted mutation.
type StateChangeEvent struct {
	State ViewState
}

func (StateChangeEvent) Kind() EventKind { return EventStateChange }

// DataLoadedEvent fires when a row set arrives, locally or from a server.
type DataLoadedEvent struct {
	Count int
}

func (DataLoadedEvent) Kind() EventKind { return EventDataLoaded }

// ErrorType discriminates recoverable error events.
type ErrorType uint8

const (
	ErrorRender ErrorType = iota
	ErrorSecurity
	ErrorQuery
)

func (t ErrorType) String() string {
	switch t {
	case ErrorRender:
		return "render"
	case ErrorSecurity:
		return "security"
	case ErrorQuery:
		return "query"
	}
	return "unknown"
}

// ErrorEvent reports a recovered failure: a throwing cell renderer, a markup
// request while markup is disabled, or a rejected server query.
type ErrorEvent struct {
	Type   ErrorType
	Err    error
	Column string // ErrorRender, ErrorSecurity
	Query  *Query // ErrorQuery
	Token  uint64 // ErrorQuery
}

func (ErrorEvent) Kind() EventKind { return EventError }

// Handler receives events. Handlers run synchronously on the emitting
// goroutine; keep them short.
type Handler func(Event)

// Bus is a synchronous pub/sub dispatcher over the closed event-kind set.
// Subscription and dispatch are safe for concurrent use; tables emit from
// the scheduler timer and server fetch goroutines while hosts subscribe.
type Bus struct {
	mu       sync.Mutex
	handlers [eventKindCount][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// On subscribes a handler to one event kind and returns an unsubscribe
// function. Unsubscribing zeroes the slot rather than reordering, so
// subscriptions taken during dispatch stay valid.
func (b *Bus) On(kind EventKind, h Handler) func() {
	if kind >= eventKindCount {
		return func() {}
	}
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	idx := len(b.handlers[kind]) - 1
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.handlers[kind][idx] = nil
		b.mu.Unlock()
	}
}

// Emit dispatches an event to its kind's subscribers in subscription order.
// The handler list is snapshotted under the lock; handlers themselves run
// outside it, so they may subscribe or unsubscribe freely.
func (b *Bus) Emit(e Event) {
	kind := e.Kind()
	if kind >= eventKindCount {
		return
	}
	b.mu.Lock()
	hs := append([]Handler(nil), b.handlers[kind]...)
	b.mu.Unlock()
	for _, h := range hs {
		if h != nil {
			h(e)
		}
	}
}
