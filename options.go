package datatable

import "time"

// Options is the construction-time configuration surface. User options are
// merged over DefaultOptions into a fresh per-instance record; the defaults
// themselves are never shared or mutated.
type Options struct {
	Columns []Column
	Rows    []Row

	// RowKey resolves a stable identity for a row: a func(Row, int) string,
	// a field-path string, or nil for the positional index.
	RowKey any

	Pagination PaginationOptions
	Filter     FilterOptions
	Sorting    SortOptions
	Virtual    VirtualOptions
	Persist    PersistOptions
	Server     ServerOptions

	// Renderer paints frames. Required; use NopRenderer for headless tables.
	Renderer Renderer

	// AllowMarkup permits CellMarkup outputs from cell renderers. Off by
	// default: markup then downgrades to literal text with a security error
	// event.
	AllowMarkup bool

	// RenderQuantum is the coalescing window for render requests.
	// Zero means DefaultQuantum.
	RenderQuantum time.Duration

	// OnEvent, when set, is subscribed to every event kind before any
	// lifecycle event fires, so construction events are observable.
	OnEvent Handler
}

// PaginationOptions controls paging.
type PaginationOptions struct {
	Enabled   bool
	PageSize  int
	PageSizes []int
}

// FilterOptions controls search filtering.
type FilterOptions struct {
	CaseSensitive bool
	// Debounce is the suggested input debounce for hosts; the table's own
	// SetSearch is synchronous.
	Debounce time.Duration
}

// SortOptions controls sorting.
type SortOptions struct {
	// Multi enables additive multi-column sorting via ToggleSort.
	Multi bool
	// Initial is the sort applied before any interaction.
	Initial []SortRule
}

// VirtualOptions controls row windowing.
type VirtualOptions struct {
	Enabled   bool
	Height    int // viewport height in the same units as RowHeight
	RowHeight int // uniform row height, floored at MinRowHeight
	Overscan  int
}

// PersistOptions controls view-state persistence.
type PersistOptions struct {
	Enabled bool
	Key     string
	// Path is the bbolt file to open. Ignored when Store is set.
	Path string
	// Store injects a medium directly; the table will not close it.
	Store StateStore
}

// ServerOptions delegates filtering, sorting and paging to a remote source.
type ServerOptions struct {
	Enabled bool
	Fetch   Fetcher
}

// DefaultOptions returns the per-instance defaults. Boolean fields carry no
// defaults: mergeOptions takes every bool from the user record as-is, so
// features like pagination and virtualization are opt-in.
func DefaultOptions() Options {
	return Options{
		Pagination: PaginationOptions{
			PageSize:  DefaultPageSize,
			PageSizes: []int{10, 25, 50, 100},
		},
		Filter: FilterOptions{
			Debounce: 250 * time.Millisecond,
		},
		Virtual: VirtualOptions{
			Height:    400,
			RowHeight: 28,
			Overscan:  5,
		},
		Persist: PersistOptions{
			Key: "datatable",
		},
		RenderQuantum: DefaultQuantum,
	}
}

// mergeOptions lays user options over defaults. Zero-valued scalar fields
// keep their defaults; booleans are taken from the user record as-is (false
// means off, never "use the default"), as are non-empty slices.
func mergeOptions(def, user Options) Options {
	o := def

	o.Columns = user.Columns
	o.Rows = user.Rows
	o.RowKey = user.RowKey
	o.Renderer = user.Renderer
	o.AllowMarkup = user.AllowMarkup

	o.Pagination.Enabled = user.Pagination.Enabled
	if user.Pagination.PageSize > 0 {
		o.Pagination.PageSize = user.Pagination.PageSize
	}
	if len(user.Pagination.PageSizes) > 0 {
		o.Pagination.PageSizes = user.Pagination.PageSizes
	}

	o.Filter.CaseSensitive = user.Filter.CaseSensitive
	if user.Filter.Debounce > 0 {
		o.Filter.Debounce = user.Filter.Debounce
	}

	o.Sorting = user.Sorting

	o.Virtual.Enabled = user.Virtual.Enabled
	if user.Virtual.Height > 0 {
		o.Virtual.Height = user.Virtual.Height
	}
	if user.Virtual.RowHeight > 0 {
		o.Virtual.RowHeight = user.Virtual.RowHeight
	}
	if user.Virtual.Overscan > 0 {
		o.Virtual.Overscan = user.Virtual.Overscan
	}

	o.Persist.Enabled = user.Persist.Enabled
	if user.Persist.Key != "" {
		o.Persist.Key = user.Persist.Key
	}
	o.Persist.Path = user.Persist.Path
	o.Persist.Store = user.Persist.Store

	o.Server = user.Server

	if user.RenderQuantum > 0 {
		o.RenderQuantum = user.RenderQuantum
	}
	o.OnEvent = user.OnEvent

	return o
}
