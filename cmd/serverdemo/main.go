// Command serverdemo runs the datatable against a simulated remote data
// source and prints the query lifecycle. The backend answers early requests
// slower than later ones, so a burst of searches completes out of order and
// the stale-response guard visibly discards everything but the last query.
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	datatable "github.com/AlbertoNessi/BetterDataTable"
)

var (
	rowCount = flag.Int("rows", 500, "backend dataset size")
	latency  = flag.Duration("latency", 200*time.Millisecond, "base backend latency")
)

// backend is an in-memory stand-in for a paging/sorting HTTP API.
type backend struct {
	rows  []datatable.Row
	calls atomic.Int64
}

func newBackend(n int) *backend {
	names := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	rows := make([]datatable.Row, n)
	for i := range rows {
		rows[i] = datatable.Row{
			"id":    i + 1,
			"name":  fmt.Sprintf("%s-%03d", names[i%len(names)], i),
			"score": (i * 13) % 100,
		}
	}
	return &backend{rows: rows}
}

// fetch filters, sorts and pages server-side. Each call is faster than the
// one before it, forcing responses to land out of order.
func (b *backend) fetch(ctx context.Context, q datatable.Query) (datatable.ServerResponse, error) {
	call := b.calls.Add(1)
	delay := *latency * time.Duration(max(1, 6-call))
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return datatable.ServerResponse{}, ctx.Err()
	}

	matched := make([]datatable.Row, 0, len(b.rows))
	needle := strings.ToLower(q.Search)
	for _, r := range b.rows {
		if needle == "" || strings.Contains(r["name"].(string), needle) {
			matched = append(matched, r)
		}
	}

	for i := len(q.Sort) - 1; i >= 0; i-- {
		rule := q.Sort[i]
		sort.SliceStable(matched, func(a, c int) bool {
			av := datatable.ToText(matched[a][rule.Column])
			cv := datatable.ToText(matched[c][rule.Column])
			if rule.Desc {
				return av > cv
			}
			return av < cv
		})
	}

	start := q.Page * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+q.PageSize, len(matched))

	return datatable.ServerResponse{
		Rows:          matched[start:end],
		FilteredCount: len(matched),
		TotalCount:    len(b.rows),
	}, nil
}

func logEvent(e datatable.Event) {
	switch ev := e.(type) {
	case datatable.QueryEvent:
		if ev.After {
			fmt.Printf("  [token %d] accepted: %d rows\n", ev.Token, ev.Rows)
		} else {
			fmt.Printf("  [token %d] query search=%q page=%d\n", ev.Token, ev.Query.Search, ev.Query.Page)
		}
	case datatable.ErrorEvent:
		fmt.Printf("  [token %d] %s error: %v\n", ev.Token, ev.Type, ev.Err)
	}
}

func printFrame(f datatable.Frame) {
	fmt.Printf("frame (%s): %s\n", strings.Join(f.Reasons, ","), f.Status)
	for i, row := range f.VisibleRows {
		if i == 5 {
			fmt.Printf("  … %d more\n", len(f.VisibleRows)-i)
			break
		}
		fmt.Printf("  %v  %v  %v\n", row["id"], row["name"], row["score"])
	}
}

func main() {
	flag.Parse()

	b := newBackend(*rowCount)
	tbl, err := datatable.New(datatable.Options{
		Columns: []datatable.Column{
			{ID: "id", Field: "id"},
			{ID: "name", Field: "name"},
			{ID: "score", Field: "score"},
		},
		Pagination:    datatable.PaginationOptions{Enabled: true, PageSize: 10},
		RenderQuantum: 30 * time.Millisecond,
		OnEvent:       logEvent,
		Server:        datatable.ServerOptions{Enabled: true, Fetch: b.fetch},
		Renderer:      datatable.RendererFunc(printFrame),
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer tbl.Close()

	// a typing burst: three queries in flight at once, slowest first
	fmt.Println("-- burst: \"a\", \"al\", \"alp\" --")
	for _, term := range []string{"a", "al", "alp"} {
		tbl.SetSearch(term)
		time.Sleep(20 * time.Millisecond)
	}

	// wait out the slowest in-flight response; only the last query lands
	time.Sleep(7 * *latency)

	fmt.Println("-- sort by score desc --")
	tbl.SetSort([]datatable.SortRule{{Column: "score", Desc: true}})
	time.Sleep(3 * *latency)
}
