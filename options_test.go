package datatable

import (
	"testing"
	"time"
)

func TestDefaultOptionsBooleansOff(t *testing.T) {
	def := DefaultOptions()
	if def.Pagination.Enabled || def.Virtual.Enabled || def.Persist.Enabled || def.Server.Enabled {
		t.Fatalf("defaults must not enable features: %+v", def)
	}
}

func TestMergeOptions(t *testing.T) {
	def := DefaultOptions()

	t.Run("zero user record keeps scalar defaults, features off", func(t *testing.T) {
		got := mergeOptions(def, Options{})
		if got.Pagination.Enabled {
			t.Error("pagination enabled without opt-in")
		}
		if got.Pagination.PageSize != DefaultPageSize {
			t.Errorf("pageSize = %d, want %d", got.Pagination.PageSize, DefaultPageSize)
		}
		if got.RenderQuantum != DefaultQuantum {
			t.Errorf("quantum = %v, want %v", got.RenderQuantum, DefaultQuantum)
		}
		if got.Virtual.RowHeight != def.Virtual.RowHeight {
			t.Errorf("rowHeight = %d, want %d", got.Virtual.RowHeight, def.Virtual.RowHeight)
		}
	})

	t.Run("explicit values win", func(t *testing.T) {
		got := mergeOptions(def, Options{
			Pagination:    PaginationOptions{Enabled: true, PageSize: 7},
			RenderQuantum: 5 * time.Millisecond,
		})
		if !got.Pagination.Enabled || got.Pagination.PageSize != 7 {
			t.Errorf("pagination = %+v", got.Pagination)
		}
		if got.RenderQuantum != 5*time.Millisecond {
			t.Errorf("quantum = %v", got.RenderQuantum)
		}
	})

	t.Run("unpaged table without opt-in", func(t *testing.T) {
		tbl, err := New(Options{
			Columns:       peopleColumns(),
			Rows:          peopleRows(),
			Renderer:      NopRenderer{},
			RenderQuantum: time.Hour,
		})
		if err != nil {
			t.Fatal(err)
		}
		defer tbl.Close()
		res := tbl.Result()
		if len(res.Rows) != 3 || res.TotalPages != 1 {
			t.Fatalf("unpaged result = %+v", res)
		}
	})
}
