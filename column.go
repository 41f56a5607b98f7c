package datatable

import "strconv"

// Row is an opaque record of field name to value. The engine never mutates
// rows; callers keep ownership of the values.
type Row = map[string]any

// Accessor produces a cell value from a row.
type Accessor func(Row) any

// RenderFunc formats a cell value for display. It receives the raw value and
// the full row, and returns a tagged CellOutput. A nil RenderFunc renders the
// value's plain text.
type RenderFunc func(value any, row Row) CellOutput

// Column describes one table column. The zero value of NoSort/NoSearch means
// the column participates in sorting and filtering.
type Column struct {
	ID       string // unique within a table; defaults to Field, else the position
	Field    string // dotted path into the row; ignored when Accessor is set
	Accessor Accessor
	NoSort   bool
	NoSearch bool
	Render   RenderFunc
}

// column is the compiled form: the accessor is resolved once at configuration
// time, never re-parsed per row.
type column struct {
	id         string
	get        Accessor
	sortable   bool
	searchable bool
	render     RenderFunc
}

// compileColumns resolves accessors and flags for a column list.
func compileColumns(cols []Column) []column {
	out := make([]column, len(cols))
	for i, c := range cols {
		cc := column{
			id:         c.ID,
			sortable:   !c.NoSort,
			searchable: !c.NoSearch,
			render:     c.Render,
		}
		if cc.id == "" {
			if c.Field != "" {
				cc.id = c.Field
			} else {
				cc.id = strconv.Itoa(i)
			}
		}
		switch {
		case c.Accessor != nil:
			cc.get = c.Accessor
		case c.Field != "":
			cc.get = FieldAccessor(c.Field)
		default:
			cc.get = nilAccessor
		}
		out[i] = cc
	}
	return out
}

func nilAccessor(Row) any { return nil }

// columnByID finds a compiled column, or nil when the id is unknown.
func columnByID(cols []column, id string) *column {
	for i := range cols {
		if cols[i].id == id {
			return &cols[i]
		}
	}
	return nil
}
