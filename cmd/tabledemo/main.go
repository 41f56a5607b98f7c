// Command tabledemo is an interactive terminal host for the datatable engine:
// search with live debounce, pagination, multi-column sorting, virtual
// scrolling and persisted view state, painted with lipgloss inside a
// bubbletea program.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	datatable "github.com/AlbertoNessi/BetterDataTable"
)

var (
	rowCount  = flag.Int("rows", 250, "dataset size")
	statePath = flag.String("state", "", "bbolt file for persisted view state (empty = no persistence)")
)

const demoRowHeight = 24 // windowing unit; one terminal line per row

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	searchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Ken", "Dennis", "Leslie", "Tony"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Thompson", "Ritchie", "Lamport", "Hoare"}
	depts      = []string{"Platform", "Infra", "Data", "Research", "Support"}
)

func buildRows(n int) []datatable.Row {
	rows := make([]datatable.Row, n)
	for i := range rows {
		rows[i] = datatable.Row{
			"id":    i + 1,
			"name":  firstNames[i%len(firstNames)] + " " + lastNames[(i/3)%len(lastNames)],
			"dept":  depts[i%len(depts)],
			"score": (i * 37) % 100,
		}
	}
	return rows
}

func demoColumns() []datatable.Column {
	return []datatable.Column{
		{ID: "id", Field: "id"},
		{ID: "name", Field: "name"},
		{ID: "dept", Field: "dept"},
		{ID: "score", Field: "score", Render: func(v any, _ datatable.Row) datatable.CellOutput {
			n, _ := v.(int)
			return datatable.TextCell(fmt.Sprintf("%3d %s", n, strings.Repeat("|", n/10)))
		}},
	}
}

var columnWidths = map[string]int{"id": 5, "name": 22, "dept": 10, "score": 16}

type frameMsg datatable.Frame

func waitForFrame(ch chan datatable.Frame) tea.Cmd {
	return func() tea.Msg { return frameMsg(<-ch) }
}

type model struct {
	tbl    *datatable.Table
	frames chan datatable.Frame
	frame  datatable.Frame

	searching bool
	search    string
	debounce  *datatable.Debouncer

	height int
}

func (m *model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = datatable.Frame(msg)
		return m, waitForFrame(m.frames)
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.tbl.State()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
	case "left", "h":
		m.tbl.SetPage(st.Page - 1)
	case "right", "l":
		m.tbl.SetPage(st.Page + 1)
	case "up", "k":
		m.tbl.SetScroll(st.ScrollTop - demoRowHeight)
	case "down", "j":
		m.tbl.SetScroll(st.ScrollTop + demoRowHeight)
	case "+":
		m.tbl.SetPageSize(nextPageSize(m.tbl.PageSizes(), st.PageSize, 1))
	case "-":
		m.tbl.SetPageSize(nextPageSize(m.tbl.PageSizes(), st.PageSize, -1))
	case "1":
		m.tbl.ToggleSort("id", false)
	case "2":
		m.tbl.ToggleSort("name", false)
	case "3":
		m.tbl.ToggleSort("dept", false)
	case "4":
		m.tbl.ToggleSort("score", false)
	case "!":
		m.tbl.ToggleSort("id", true)
	case "@":
		m.tbl.ToggleSort("name", true)
	case "#":
		m.tbl.ToggleSort("dept", true)
	case "$":
		m.tbl.ToggleSort("score", true)
	case "c":
		m.search = ""
		m.tbl.ClearState()
	}
	return m, nil
}

func (m *model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
	case "backspace":
		if m.search != "" {
			m.search = m.search[:len(m.search)-1]
			m.queueSearch()
		}
	case "ctrl+c":
		return m, tea.Quit
	default:
		if msg.Type == tea.KeyRunes {
			m.search += string(msg.Runes)
			m.queueSearch()
		}
	}
	return m, nil
}

// queueSearch routes keystrokes through the debouncer so a typing burst
// becomes one query.
func (m *model) queueSearch() {
	q := m.search
	m.debounce.Call(func() { m.tbl.SetSearch(q) })
}

func nextPageSize(sizes []int, current, dir int) int {
	for i, s := range sizes {
		if s == current {
			return sizes[datatable.Clamp(i+dir, 0, len(sizes)-1)]
		}
	}
	if len(sizes) > 0 {
		return sizes[0]
	}
	return current
}

func (m *model) View() string {
	var b strings.Builder

	prompt := "/ to search"
	if m.searching || m.search != "" {
		prompt = "search: " + m.search
		if m.searching {
			prompt += "_"
		}
	}
	b.WriteString(searchStyle.Render(prompt))
	b.WriteString("\n")

	marks := sortMarks(m.tbl.State().Sort)
	var header strings.Builder
	for _, id := range []string{"id", "name", "dept", "score"} {
		header.WriteString(pad(id+marks[id], columnWidths[id]))
	}
	b.WriteString(headerStyle.Render(header.String()))
	b.WriteString("\n")

	f := m.frame
	cols := demoColumns()
	for _, rowCells := range f.Cells {
		for c, cell := range rowCells {
			text := cellText(cell)
			if cols[c].ID == "score" {
				text = scoreStyle.Render(pad(text, columnWidths["score"]))
				b.WriteString(text)
				continue
			}
			b.WriteString(pad(text, columnWidths[cols[c].ID]))
		}
		b.WriteString("\n")
	}

	res := f.Result
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s — page %d/%d", f.Status, res.Page+1, max(1, res.TotalPages))))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ page  ↑/↓ scroll  +/- page size  1-4 sort (shift: add)  c reset  q quit"))
	return b.String()
}

func sortMarks(rules []datatable.SortRule) map[string]string {
	marks := map[string]string{}
	for _, r := range rules {
		if r.Desc {
			marks[r.Column] = "▼"
		} else {
			marks[r.Column] = "▲"
		}
	}
	return marks
}

func cellText(c datatable.CellOutput) string {
	switch c.Kind {
	case datatable.CellRaw:
		return datatable.ToText(c.Value)
	default:
		return c.Text
	}
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s[:w-1] + " "
	}
	return s + strings.Repeat(" ", w-len(s))
}

func main() {
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tabledemo requires a terminal")
		os.Exit(1)
	}
	_, termHeight, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		termHeight = 24
	}
	visibleLines := max(5, termHeight-5) // chrome: search, header, status, help

	frames := make(chan datatable.Frame, 16)
	opts := datatable.Options{
		Columns: demoColumns(),
		Rows:    buildRows(*rowCount),
		RowKey:  "id",
		Pagination: datatable.PaginationOptions{
			Enabled:  true,
			PageSize: 50,
		},
		Sorting: datatable.SortOptions{Multi: true},
		Virtual: datatable.VirtualOptions{
			Enabled:   true,
			Height:    visibleLines * demoRowHeight,
			RowHeight: demoRowHeight,
			Overscan:  2,
		},
		Renderer: datatable.RendererFunc(func(f datatable.Frame) {
			frames <- f
		}),
	}
	if *statePath != "" {
		opts.Persist = datatable.PersistOptions{Enabled: true, Key: "tabledemo", Path: *statePath}
	}

	tbl, err := datatable.New(opts)
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Close()

	m := &model{
		tbl:      tbl,
		frames:   frames,
		debounce: datatable.NewDebouncer(250 * time.Millisecond),
	}
	defer m.debounce.Stop()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
