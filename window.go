package datatable

// MinRowHeight floors the row height used by windowing math, avoiding
// division pathologies from tiny or zero heights.
const MinRowHeight = 24

// Window is a bounded visible slice over a page-local row array. Start/End
// are row indices ([Start, End)); the pads are the heights of the elided rows
// above and below, so the scrollable area keeps a constant total height.
//
// Invariant: 0 <= Start <= End <= rowCount, and
// TopPad + (End-Start)*rowHeight + BottomPad == rowCount*rowHeight.
type Window struct {
	Start     int
	End       int
	TopPad    int
	BottomPad int
}

// ComputeWindow maps a scroll offset onto the visible row range. Row heights
// are uniform; overscan rows are added on both sides to mask scroll popping.
func ComputeWindow(rowCount int, scrollTop float64, rowHeight, overscan, viewportHeight int) Window {
	if rowCount <= 0 {
		return Window{}
	}
	if rowHeight < MinRowHeight {
		rowHeight = MinRowHeight
	}
	if overscan < 0 {
		overscan = 0
	}
	if scrollTop < 0 {
		scrollTop = 0
	}

	perViewport := ceilDiv(viewportHeight, rowHeight)
	if perViewport < 1 {
		perViewport = 1
	}

	first := int(scrollTop) / rowHeight
	start := Clamp(first-overscan, 0, max(0, rowCount-perViewport))
	end := Clamp(start+perViewport+2*overscan, 0, rowCount)

	return Window{
		Start:     start,
		End:       end,
		TopPad:    start * rowHeight,
		BottomPad: max(0, (rowCount-end)*rowHeight),
	}
}

// fullWindow covers every row with no padding, for non-virtualized tables.
func fullWindow(rowCount int) Window {
	return Window{End: rowCount}
}
