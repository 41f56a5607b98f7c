package datatable

import (
	"sort"
	"strings"
)

// DefaultPageSize is used whenever a query carries a non-positive page size.
const DefaultPageSize = 25

// SortRule orders rows by one column. Rules are applied in sequence as
// successive tie-breakers; the first rule is the primary key.
type SortRule struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// Query is one request against the engine (or a server-side source).
type Query struct {
	Search   string     `json:"search"`
	Sort     []SortRule `json:"sort"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`

	// Paginate is false when the table runs unpaged; the engine then returns
	// every filtered row as a single page. Not part of the server contract.
	Paginate bool `json:"-"`
}

// Result is one page of the filter → sort → paginate pipeline.
// Page is always clamped into [0, TotalPages-1]; the engine never reports an
// out-of-range page.
type Result struct {
	Rows          []Row
	FilteredCount int
	TotalCount    int
	TotalPages    int
	Page          int
}

// Engine runs the pure query pipeline over a cached row set and compiled
// columns. It performs no I/O and never mutates rows; SetRows and SetColumns
// replace their inputs wholesale.
type Engine struct {
	rows          []Row
	cols          []column
	caseSensitive bool

	indices []int // reusable scratch for filtered row indices
}

// NewEngine creates an engine. caseSensitive controls substring filtering.
func NewEngine(caseSensitive bool) *Engine {
	return &Engine{caseSensitive: caseSensitive}
}

// SetRows replaces the working row set. No diffing takes place.
func (e *Engine) SetRows(rows []Row) {
	e.rows = rows
}

// SetColumns recompiles accessors and searchable/sortable flags.
func (e *Engine) SetColumns(cols []Column) {
	e.cols = compileColumns(cols)
}

// setCompiled installs an already-compiled column set (shared with the table
// so accessors compile exactly once).
func (e *Engine) setCompiled(cols []column) {
	e.cols = cols
}

// Len returns the size of the working row set.
func (e *Engine) Len() int { return len(e.rows) }

// Run executes filter → sort → paginate for the given query.
func (e *Engine) Run(q Query) Result {
	idx := e.filter(q.Search)
	e.sortIndices(idx, q.Sort)
	return e.paginate(idx, q)
}

// filter returns the original indices of rows matching the search term, in
// input order. An empty term matches everything.
func (e *Engine) filter(term string) []int {
	idx := e.indices[:0]
	if cap(idx) < len(e.rows) {
		idx = make([]int, 0, len(e.rows))
	}

	if term == "" {
		for i := range e.rows {
			idx = append(idx, i)
		}
		e.indices = idx
		return idx
	}

	needle := term
	if !e.caseSensitive {
		needle = strings.ToLower(needle)
	}
	for i := range e.rows {
		if e.rowMatches(e.rows[i], needle) {
			idx = append(idx, i)
		}
	}
	e.indices = idx
	return idx
}

// rowMatches reports whether any searchable column's text contains needle.
func (e *Engine) rowMatches(row Row, needle string) bool {
	for c := range e.cols {
		if !e.cols[c].searchable {
			continue
		}
		text := ToText(e.cols[c].get(row))
		if !e.caseSensitive {
			text = strings.ToLower(text)
		}
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// sortIndices orders filtered indices by the honored sort rules. Rules naming
// unknown or unsortable columns are skipped without error. The final
// tie-break on original index makes the order stable regardless of the
// underlying algorithm.
func (e *Engine) sortIndices(idx []int, rules []SortRule) {
	honored := make([]*column, 0, len(rules))
	descs := make([]bool, 0, len(rules))
	for _, r := range rules {
		if c := columnByID(e.cols, r.Column); c != nil && c.sortable {
			honored = append(honored, c)
			descs = append(descs, r.Desc)
		}
	}
	if len(honored) == 0 {
		return
	}

	sort.SliceStable(idx, func(i, j int) bool {
		a, b := e.rows[idx[i]], e.rows[idx[j]]
		for r, c := range honored {
			if cmp := compareCells(c.get(a), c.get(b), descs[r]); cmp != 0 {
				return cmp < 0
			}
		}
		return idx[i] < idx[j]
	})
}

// paginate slices the sorted indices into the requested page.
func (e *Engine) paginate(idx []int, q Query) Result {
	res := Result{
		FilteredCount: len(idx),
		TotalCount:    len(e.rows),
	}

	if !q.Paginate {
		if len(idx) > 0 {
			res.TotalPages = 1
		}
		res.Rows = e.collect(idx)
		return res
	}

	ps := q.PageSize
	if ps <= 0 {
		ps = DefaultPageSize
	}
	if len(idx) > 0 {
		res.TotalPages = ceilDiv(len(idx), ps)
	}
	res.Page = Clamp(q.Page, 0, max(0, res.TotalPages-1))

	start := res.Page * ps
	end := min(start+ps, len(idx))
	if start > end {
		start = end
	}
	res.Rows = e.collect(idx[start:end])
	return res
}

func (e *Engine) collect(idx []int) []Row {
	rows := make([]Row, len(idx))
	for i, n := range idx {
		rows[i] = e.rows[n]
	}
	return rows
}
