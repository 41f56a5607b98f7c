package datatable

import "context"

// Fetcher retrieves one page of rows from an external data source. The
// request carries the current search, sort, page and page size; filtering,
// sorting and paging are the source's job. The context is cancelled when the
// table closes.
type Fetcher func(ctx context.Context, q Query) (ServerResponse, error)

// ServerResponse is the expected reply to a server query. Zero counts
// default from len(Rows).
type ServerResponse struct {
	Rows          []Row `json:"rows"`
	FilteredCount int   `json:"filteredCount"`
	TotalCount    int   `json:"totalCount"`
}

// Snapshot is the last accepted server result, owned exclusively by the
// table and replaced wholesale on each accepted response.
type Snapshot struct {
	Rows          []Row
	FilteredCount int
	TotalCount    int
}

// reload issues a server query guarded by a monotonically increasing token.
// Responses are applied only while the token captured at request time is
// still current: a request superseded before its response lands is discarded
// wholesale, errors included. Last request wins, not first response.
func (t *Table) reload(reason string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.token++
	tok := t.token
	q := t.queryLocked()
	fetch := t.fetch
	ctx := t.ctx
	t.mu.Unlock()

	t.bus.Emit(QueryEvent{Query: q, Token: tok})

	go func() {
		resp, err := fetch(ctx, q)

		t.mu.Lock()
		stale := tok != t.token || t.closed
		t.mu.Unlock()
		if stale {
			return
		}

		if err != nil {
			// State and snapshot stay untouched; no automatic retry.
			t.bus.Emit(ErrorEvent{Type: ErrorQuery, Err: err, Query: &q, Token: tok})
			return
		}

		filtered := resp.FilteredCount
		if filtered <= 0 {
			filtered = len(resp.Rows)
		}
		total := resp.TotalCount
		if total <= 0 {
			total = filtered
		}

		t.mu.Lock()
		if tok != t.token || t.closed {
			t.mu.Unlock()
			return
		}
		t.snapshot = &Snapshot{
			Rows:          resp.Rows,
			FilteredCount: filtered,
			TotalCount:    total,
		}
		t.mu.Unlock()

		t.bus.Emit(QueryEvent{After: true, Query: q, Token: tok, Rows: len(resp.Rows)})
		t.bus.Emit(DataLoadedEvent{Count: len(resp.Rows)})
		t.sched.Request(reason)
	}()
}
