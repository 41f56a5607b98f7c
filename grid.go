// Package datatable implements an interactive data-table engine: a pure
// filter/sort/paginate query pipeline, fixed-row-height virtual windowing,
// coalesced render scheduling, optional server-side data sources with
// stale-response rejection, and persisted view state. Painting is delegated
// to a Renderer collaborator; see cmd/tabledemo for a terminal host.
package datatable

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	// ErrNoRenderer reports construction without a Renderer.
	ErrNoRenderer = errors.New("datatable: renderer is required")
	// ErrNoFetcher reports server mode enabled without a fetch collaborator.
	ErrNoFetcher = errors.New("datatable: server mode requires a fetch collaborator")
	// ErrMarkupDisabled reports a CellMarkup output while markup is disabled.
	ErrMarkupDisabled = errors.New("datatable: markup output requested while markup is disabled")
)

// Table orchestrates the pipeline: it owns the configuration, the view
// state, the server snapshot and the render scheduling. All methods are safe
// for concurrent use; render passes run on the scheduler's timer goroutine.
type Table struct {
	mu   sync.Mutex
	opts Options
	cols []column

	engine *Engine
	bus    *Bus
	sched  *Scheduler

	store      StateStore
	storeOwned bool
	storeKey   string

	state  ViewState
	rowKey func(Row, int) string

	serverMode bool
	fetch      Fetcher
	token      uint64
	snapshot   *Snapshot

	ctx    context.Context
	cancel context.CancelFunc

	lastResult Result
	lastWindow Window
	closed     bool
}

// New builds a table from options merged over DefaultOptions. A missing
// renderer or (in server mode) fetcher is a configuration error.
func New(opts Options) (*Table, error) {
	merged := mergeOptions(DefaultOptions(), opts)
	if merged.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if merged.Server.Enabled && merged.Server.Fetch == nil {
		return nil, ErrNoFetcher
	}

	t := &Table{
		opts:       merged,
		bus:        NewBus(),
		engine:     NewEngine(merged.Filter.CaseSensitive),
		serverMode: merged.Server.Enabled,
		fetch:      merged.Server.Fetch,
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	if merged.OnEvent != nil {
		for k := EventKind(0); k < eventKindCount; k++ {
			t.bus.On(k, merged.OnEvent)
		}
	}
	t.bus.Emit(InitEvent{})

	t.cols = compileColumns(merged.Columns)
	t.engine.setCompiled(t.cols)
	t.engine.SetRows(merged.Rows)
	t.rowKey = compileRowKey(merged.RowKey)

	t.store = NopStore{}
	if merged.Persist.Enabled {
		switch {
		case merged.Persist.Store != nil:
			t.store = merged.Persist.Store
		case merged.Persist.Path != "":
			t.store = OpenStateStore(merged.Persist.Path)
			t.storeOwned = true
		}
	}
	t.storeKey = merged.Persist.Key

	def := t.defaultState()
	t.state = def
	if loaded, ok := t.store.Load(t.storeKey); ok {
		t.state = mergeState(def, loaded)
	}

	t.sched = NewScheduler(merged.RenderQuantum, t.renderPass)

	if t.serverMode {
		t.reload("init")
	} else {
		t.bus.Emit(DataLoadedEvent{Count: len(merged.Rows)})
		t.sched.Request("init")
	}
	t.bus.Emit(InitEvent{After: true})
	return t, nil
}

func (t *Table) defaultState() ViewState {
	return ViewState{
		Sort:     t.opts.Sorting.Initial,
		PageSize: t.opts.Pagination.PageSize,
	}
}

func compileRowKey(spec any) func(Row, int) string {
	switch k := spec.(type) {
	case func(Row, int) string:
		return k
	case string:
		get := FieldAccessor(k)
		return func(r Row, i int) string {
			if v := get(r); v != nil {
				return ToText(v)
			}
			return strconv.Itoa(i)
		}
	default:
		return func(_ Row, i int) string { return strconv.Itoa(i) }
	}
}

// On subscribes to one lifecycle event kind; the returned function
// unsubscribes.
func (t *Table) On(kind EventKind, h Handler) func() {
	return t.bus.On(kind, h)
}

// ---------------------------------------------------------------------------
// mutation API
// ---------------------------------------------------------------------------

// SetSearch replaces the search term, resetting page and scroll.
func (t *Table) SetSearch(term string) {
	t.mutate("search", true, func(st *ViewState) {
		st.Search = term
		st.Page = 0
		st.ScrollTop = 0
	})
}

// SetPage moves to the given zero-based page, resetting scroll. Out-of-range
// pages are clamped by the next query.
func (t *Table) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	t.mutate("page", true, func(st *ViewState) {
		st.Page = page
		st.ScrollTop = 0
	})
}

// SetPageSize changes the page size, returning to the first page.
// Non-positive sizes fall back to DefaultPageSize.
func (t *Table) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	t.mutate("pageSize", true, func(st *ViewState) {
		st.PageSize = n
		st.Page = 0
		st.ScrollTop = 0
	})
}

// SetSort replaces the ordered sort-rule list. Rules naming unknown or
// unsortable columns stay in state but are skipped by the engine.
func (t *Table) SetSort(rules []SortRule) {
	cp := append([]SortRule(nil), rules...)
	t.mutate("sort", true, func(st *ViewState) {
		st.Sort = cp
		st.Page = 0
	})
}

// ToggleSort cycles a column through none → asc → desc → none. With additive
// set and multi-sort enabled, the toggle adds, flips or removes one rule
// inside the existing ordered list instead of replacing it. Toggles on
// unknown or unsortable columns are ignored.
func (t *Table) ToggleSort(columnID string, additive bool) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	col := columnByID(t.cols, columnID)
	if col == nil || !col.sortable {
		t.mu.Unlock()
		return
	}

	rules := t.state.Sort
	idx := -1
	for i, r := range rules {
		if r.Column == columnID {
			idx = i
			break
		}
	}

	if t.opts.Sorting.Multi && additive {
		next := append([]SortRule(nil), rules...)
		switch {
		case idx < 0:
			next = append(next, SortRule{Column: columnID})
		case !next[idx].Desc:
			next[idx].Desc = true
		default:
			next = append(next[:idx], next[idx+1:]...)
		}
		t.state.Sort = next
	} else {
		switch {
		case idx < 0:
			t.state.Sort = []SortRule{{Column: columnID}}
		case !rules[idx].Desc:
			t.state.Sort = []SortRule{{Column: columnID, Desc: true}}
		default:
			t.state.Sort = nil
		}
	}
	t.state.Page = 0
	st := t.state
	t.mu.Unlock()

	t.afterMutation(st, "sort", true)
}

// SetScroll records a new scroll offset and requests a windowing pass. It
// does not reset the page and is never a server-side concern.
func (t *Table) SetScroll(top float64) {
	if top < 0 {
		top = 0
	}
	t.mutate("scroll", false, func(st *ViewState) {
		st.ScrollTop = top
	})
}

// SetData replaces the row set wholesale. In server mode it replaces the
// snapshot instead, with counts defaulting from the row count.
func (t *Table) SetData(rows []Row) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.serverMode {
		t.snapshot = &Snapshot{Rows: rows, FilteredCount: len(rows), TotalCount: len(rows)}
	} else {
		t.engine.SetRows(rows)
	}
	t.mu.Unlock()

	t.bus.Emit(DataLoadedEvent{Count: len(rows)})
	t.sched.Request("data")
}

// Reload re-queries the server in server mode; locally it just redraws.
func (t *Table) Reload() {
	if t.serverMode {
		t.reload("reload")
		return
	}
	t.sched.Request("reload")
}

// ClearState resets the interaction state to construction defaults and
// removes the persisted record.
func (t *Table) ClearState() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.state = t.defaultState()
	st := t.state
	t.mu.Unlock()

	t.store.Clear(t.storeKey)
	t.bus.Emit(StateChangeEvent{State: st})
	if t.serverMode {
		t.reload("clear")
	} else {
		t.sched.Request("clear")
	}
}

// mutate runs the common mutator shape: mutate state under lock, persist,
// emit the state change, then reload (server mode) or request a render.
func (t *Table) mutate(reason string, serverRelevant bool, fn func(*ViewState)) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	fn(&t.state)
	st := t.state
	t.mu.Unlock()

	t.afterMutation(st, reason, serverRelevant)
}

func (t *Table) afterMutation(st ViewState, reason string, serverRelevant bool) {
	// Persistence is best-effort: a failing medium must not break mutations.
	t.store.Save(t.storeKey, st)
	t.bus.Emit(StateChangeEvent{State: st})
	if t.serverMode && serverRelevant {
		t.reload(reason)
		return
	}
	t.sched.Request(reason)
}

// ---------------------------------------------------------------------------
// queries and render passes
// ---------------------------------------------------------------------------

// State returns a copy of the current interaction state.
func (t *Table) State() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result runs (or, in server mode, adapts) the current query and returns the
// page-local result.
func (t *Table) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resultLocked()
}

// Rows returns the current page-local rows.
func (t *Table) Rows() []Row {
	return t.Result().Rows
}

// VisibleRows returns the windowed subsequence of the current page.
func (t *Table) VisibleRows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := t.resultLocked()
	win := t.windowLocked(len(res.Rows))
	return res.Rows[win.Start:win.End]
}

// Status returns the announcement text for the current result, in the shape
// "Showing 11-20 of 134 entries (filtered from 500)".
func (t *Table) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(t.resultLocked())
}

// PageSizes returns the configured page-size choices.
func (t *Table) PageSizes() []int {
	return t.opts.Pagination.PageSizes
}

// RowKey resolves the stable identity of a row at a page-local index.
func (t *Table) RowKey(row Row, index int) string {
	return t.rowKey(row, index)
}

// Render flushes any pending render immediately. Hosts normally rely on the
// coalesced scheduler; this exists for deterministic redraw points.
func (t *Table) Render() {
	t.sched.Flush()
}

// Close tears the table down: pending renders are cancelled, in-flight server
// responses are invalidated, and a self-opened store is closed.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.token++ // any in-flight response now fails the token check
	t.mu.Unlock()

	t.cancel()
	t.sched.Close()
	if t.storeOwned {
		return t.store.Close()
	}
	return nil
}

func (t *Table) queryLocked() Query {
	return Query{
		Search:   t.state.Search,
		Sort:     t.state.Sort,
		Page:     t.state.Page,
		PageSize: t.state.PageSize,
		Paginate: t.opts.Pagination.Enabled,
	}
}

func (t *Table) resultLocked() Result {
	if t.serverMode {
		return t.snapshotResultLocked()
	}
	return t.engine.Run(t.queryLocked())
}

// snapshotResultLocked adapts the last accepted server snapshot to a Result,
// clamping the page against the server-reported counts.
func (t *Table) snapshotResultLocked() Result {
	var res Result
	if t.snapshot == nil {
		return res
	}
	res.Rows = t.snapshot.Rows
	res.FilteredCount = t.snapshot.FilteredCount
	res.TotalCount = t.snapshot.TotalCount

	if !t.opts.Pagination.Enabled {
		if res.FilteredCount > 0 {
			res.TotalPages = 1
		}
		return res
	}
	ps := t.state.PageSize
	if ps <= 0 {
		ps = DefaultPageSize
	}
	if res.FilteredCount > 0 {
		res.TotalPages = ceilDiv(res.FilteredCount, ps)
	}
	res.Page = Clamp(t.state.Page, 0, max(0, res.TotalPages-1))
	return res
}

func (t *Table) windowLocked(rowCount int) Window {
	if !t.opts.Virtual.Enabled {
		return fullWindow(rowCount)
	}
	v := t.opts.Virtual
	return ComputeWindow(rowCount, t.state.ScrollTop, v.RowHeight, v.Overscan, v.Height)
}

func (t *Table) statusLocked(res Result) string {
	if res.FilteredCount == 0 {
		if res.TotalCount > 0 {
			return fmt.Sprintf("No matching entries (filtered from %d)", res.TotalCount)
		}
		return "No entries to show"
	}
	first, last := 1, res.FilteredCount
	if t.opts.Pagination.Enabled {
		ps := t.state.PageSize
		if ps <= 0 {
			ps = DefaultPageSize
		}
		first = res.Page*ps + 1
		last = min(first+len(res.Rows)-1, res.FilteredCount)
	}
	s := fmt.Sprintf("Showing %d-%d of %d entries", first, last, res.FilteredCount)
	if res.FilteredCount != res.TotalCount {
		s += fmt.Sprintf(" (filtered from %d)", res.TotalCount)
	}
	return s
}

// renderPass is the scheduler callback: run the query (or adapt the
// snapshot), window it, resolve the visible cells once each, then hand the
// frame to the renderer. Cell failures downgrade locally and never abort the
// pass.
func (t *Table) renderPass(reasons []string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	res := t.resultLocked()
	clamped := false
	if t.opts.Pagination.Enabled && res.Page != t.state.Page {
		// Data shrank underneath the requested page; adopt the clamp.
		t.state.Page = res.Page
		clamped = true
	}
	st := t.state
	win := t.windowLocked(len(res.Rows))
	visible := res.Rows[win.Start:win.End]

	var cellErrs []ErrorEvent
	cells := make([][]CellOutput, len(visible))
	keys := make([]string, len(visible))
	for i, row := range visible {
		rowCells := make([]CellOutput, len(t.cols))
		for c := range t.cols {
			rowCells[c] = resolveCell(&t.cols[c], row, t.opts.AllowMarkup, &cellErrs)
		}
		cells[i] = rowCells
		keys[i] = t.rowKey(row, win.Start+i)
	}

	frame := Frame{
		Result:      res,
		Window:      win,
		VisibleRows: visible,
		Cells:       cells,
		Keys:        keys,
		Reasons:     reasons,
		Status:      t.statusLocked(res),
	}
	t.lastResult = res
	t.lastWindow = win
	renderer := t.opts.Renderer
	t.mu.Unlock()

	// An adopted clamp is a state mutation like any other: persist it and
	// tell subscribers, so State(), the stored record and listeners agree.
	if clamped {
		t.store.Save(t.storeKey, st)
		t.bus.Emit(StateChangeEvent{State: st})
	}
	t.bus.Emit(RenderEvent{Reasons: reasons})
	for _, ev := range cellErrs {
		t.bus.Emit(ev)
	}
	renderer.RenderFrame(frame)
	t.bus.Emit(RenderEvent{After: true, Reasons: reasons, Result: res, Window: win})
}
