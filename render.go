package datatable

import "fmt"

// CellKind discriminates the shapes a cell renderer can produce.
type CellKind uint8

const (
	// CellText is plain text; the host escapes/encodes it as needed.
	CellText CellKind = iota
	// CellMarkup is raw host markup, honored only when the table allows it.
	CellMarkup
	// CellNode is an opaque host-native element handle.
	CellNode
	// CellRaw is an unformatted value the host coerces itself.
	CellRaw
)

// CellOutput is the resolved display form of one cell. It is computed once
// per cell per render pass and handed to the Renderer.
type CellOutput struct {
	Kind  CellKind
	Text  string // CellText, CellMarkup
	Node  any    // CellNode
	Value any    // CellRaw
}

// TextCell returns a plain-text cell.
func TextCell(s string) CellOutput { return CellOutput{Kind: CellText, Text: s} }

// MarkupCell returns a raw-markup cell. Tables reject these unless
// Options.AllowMarkup is set, downgrading to the literal text.
func MarkupCell(s string) CellOutput { return CellOutput{Kind: CellMarkup, Text: s} }

// NodeCell returns a host-node cell.
func NodeCell(n any) CellOutput { return CellOutput{Kind: CellNode, Node: n} }

// RawCell returns an unformatted-value cell.
func RawCell(v any) CellOutput { return CellOutput{Kind: CellRaw, Value: v} }

// Frame is the product of one render pass: the query result, the visible
// window over it, and the resolved cells for the windowed rows only.
type Frame struct {
	Result Result
	Window Window

	// VisibleRows is Result.Rows[Window.Start:Window.End].
	VisibleRows []Row
	// Cells is row-major over VisibleRows, one CellOutput per column.
	Cells [][]CellOutput
	// Keys holds the row key for each visible row.
	Keys []string

	Reasons []string
	Status  string
}

// Renderer paints frames. Implementations own all host concerns: element
// construction, styling, focus. The table never calls RenderFrame
// concurrently with itself.
type Renderer interface {
	RenderFrame(Frame)
}

// NopRenderer discards frames. Useful for headless hosts and tests that only
// exercise the data pipeline.
type NopRenderer struct{}

func (NopRenderer) RenderFrame(Frame) {}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(Frame)

func (f RendererFunc) RenderFrame(fr Frame) { f(fr) }

// resolveCell formats one cell, recovering from renderer panics and gating
// raw markup. Failures downgrade to plain text and are reported through errs
// so the render pass can keep going.
func resolveCell(col *column, row Row, allowMarkup bool, errs *[]ErrorEvent) CellOutput {
	val := col.get(row)
	if col.render == nil {
		return TextCell(ToText(val))
	}
	out, err := safeRender(col.render, val, row)
	if err != nil {
		*errs = append(*errs, ErrorEvent{Type: ErrorRender, Err: err, Column: col.id})
		return TextCell(ToText(val))
	}
	if out.Kind == CellMarkup && !allowMarkup {
		*errs = append(*errs, ErrorEvent{Type: ErrorSecurity, Err: ErrMarkupDisabled, Column: col.id})
		return TextCell(out.Text)
	}
	return out
}

func safeRender(fn RenderFunc, v any, row Row) (out CellOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cell renderer panicked: %v", r)
		}
	}()
	return fn(v, row), nil
}
