// Package tui is the interactive terminal application: address input,
// filter controls, the transaction table, and chart overlays.
//
// The bubbletea program loop is the single owner of all application state.
// Exactly one background command is ever in flight: the fetch, which runs
// off-loop, computes a value, and delivers it back as a message. That
// message hand-off is the only point where data crosses goroutines.
package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/export"
	"github.com/luokaci05/btctrack/service/tracker"
	"github.com/luokaci05/btctrack/service/txfilter"
)

// focus identifies which control is receiving keystrokes.
type focus int

const (
	focusAddress focus = iota
	focusSearch
	focusMin
	focusMax
	focusTable
	focusCount // sentinel
)

// fetchDoneMsg delivers a completed background fetch to the program loop.
type fetchDoneMsg tracker.FetchResult

// Model is the bubbletea model for the tracker.
type Model struct {
	tracker *tracker.Tracker

	addressInput textinput.Model
	searchInput  textinput.Model
	minInput     textinput.Model
	maxInput     textinput.Model
	table        table.Model

	periodIdx int
	groupIdx  int
	focus     focus

	// displayed is the current filter output in fetch order; the table
	// may show it re-sorted, but exports and charts read this slice
	// (sorted per the table when sorting is active).
	displayed []explorer.Transaction
	sortCol   int // -1 = fetch order
	sortAsc   bool

	chart    string // non-empty = chart overlay is up
	status   string
	statusOK bool
	width    int
	height   int
}

// New creates the TUI model. defaultAddress pre-fills the address input.
func New(tr *tracker.Tracker, defaultAddress string) Model {
	address := textinput.New()
	address.Placeholder = "Bitcoin address"
	address.SetValue(defaultAddress)
	address.CharLimit = 100
	address.Width = 48
	address.Focus()

	search := textinput.New()
	search.Placeholder = "Hash contains"
	search.Width = 24

	min := textinput.New()
	min.Placeholder = "Min amount"
	min.Width = 12

	max := textinput.New()
	max.Placeholder = "Max amount"
	max.Width = 12

	t := table.New(
		table.WithColumns(tableColumns(96)),
		table.WithHeight(14),
	)

	return Model{
		tracker:      tr,
		addressInput: address,
		searchInput:  search,
		minInput:     min,
		maxInput:     max,
		table:        t,
		periodIdx:    indexOfPeriod(txfilter.AllTime),
		groupIdx:     indexOfGranularity(aggregate.Month),
		sortCol:      -1,
		status:       "Ready",
		statusOK:     true,
		width:        100,
		height:       30,
	}
}

func tableColumns(width int) []table.Column {
	hashWidth := width - 18 - 18 - 6
	if hashWidth < 20 {
		hashWidth = 20
	}
	return []table.Column{
		{Title: "Transaction Hash", Width: hashWidth},
		{Title: "Date/Time", Width: 18},
		{Title: "Amount (BTC)", Width: 18},
	}
}

func indexOfPeriod(p txfilter.Period) int {
	for i, x := range txfilter.Periods() {
		if x == p {
			return i
		}
	}
	return 0
}

func indexOfGranularity(g aggregate.Granularity) int {
	for i, x := range aggregate.Granularities() {
		if x == g {
			return i
		}
	}
	return 0
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// period returns the currently selected period.
func (m Model) period() txfilter.Period {
	return txfilter.Periods()[m.periodIdx]
}

// granularity returns the currently selected grouping.
func (m Model) granularity() aggregate.Granularity {
	return aggregate.Granularities()[m.groupIdx]
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(tableColumns(msg.Width - 4))
		if h := msg.Height - 14; h > 4 {
			m.table.SetHeight(h)
		}
		return m, nil

	case fetchDoneMsg:
		m.tracker.CompleteFetch(tracker.FetchResult(msg))
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), false)
			return m, nil
		}
		m.setStatus("Ready", true)
		m = m.applyFilters()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The chart overlay blocks all interaction until dismissed.
	if m.chart != "" {
		switch msg.String() {
		case "esc", "enter", "q":
			m.chart = ""
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		if m.focus == focusAddress {
			return m.startFetch()
		}
		m = m.applyFilters()
		return m, nil
	}

	// The remaining shortcuts only apply while the table has focus;
	// otherwise printable keys belong to the text inputs.
	if m.focus == focusTable {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "f":
			return m.startFetch()
		case "a":
			m = m.applyFilters()
			return m, nil
		case "p":
			m.periodIdx = (m.periodIdx + 1) % len(txfilter.Periods())
			m = m.applyFilters()
			return m, nil
		case "g":
			m.groupIdx = (m.groupIdx + 1) % len(aggregate.Granularities())
			return m, nil
		case "s":
			m = m.cycleSort()
			return m, nil
		case "e":
			m = m.exportDisplayed()
			return m, nil
		case "1":
			m = m.showAggregateChart(m.granularity(), aggregate.Count, "Transactions")
			return m, nil
		case "2":
			m = m.showAggregateChart(m.granularity(), aggregate.Volume, "Volume (BTC)")
			return m, nil
		case "3":
			m = m.showAggregateChart(aggregate.Weekday, aggregate.Count, "Transactions")
			return m, nil
		case "4":
			m = m.showHistogramChart()
			return m, nil
		}
	}

	return m.updateFocused(msg)
}

// cycleFocus moves input focus forward or backward through the controls.
func (m Model) cycleFocus(dir int) Model {
	m.focus = focus((int(m.focus) + dir + int(focusCount)) % int(focusCount))

	inputs := []*textinput.Model{&m.addressInput, &m.searchInput, &m.minInput, &m.maxInput}
	for i, in := range inputs {
		if focus(i) == m.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if m.focus == focusTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
	return m
}

// updateFocused forwards a message to whichever control has focus.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusAddress:
		m.addressInput, cmd = m.addressInput.Update(msg)
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusMin:
		m.minInput, cmd = m.minInput.Update(msg)
	case focusMax:
		m.maxInput, cmd = m.maxInput.Update(msg)
	case focusTable:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// startFetch validates and launches the single background fetch. While it
// is in flight further fetch triggers are rejected by the tracker.
func (m Model) startFetch() (tea.Model, tea.Cmd) {
	run, err := m.tracker.BeginFetch(m.addressInput.Value())
	if err != nil {
		switch err {
		case tracker.ErrEmptyAddress:
			m.setStatus("Please enter a bitcoin address!", false)
		case tracker.ErrFetchInFlight:
			// Trigger is disabled; ignore the keypress.
		default:
			m.setStatus(err.Error(), false)
		}
		return m, nil
	}

	m.setStatus("Fetching data...", true)
	return m, func() tea.Msg {
		return fetchDoneMsg(run(context.Background()))
	}
}

// applyFilters reads the criteria fresh from the inputs, recomputes the
// displayed subset, and refreshes the table. It never refetches.
func (m Model) applyFilters() Model {
	c := txfilter.Criteria{
		Period: m.period(),
		Search: m.searchInput.Value(),
	}

	var warnings []string
	min, err := txfilter.ParseBound("min", m.minInput.Value())
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	c.MinAmount = min

	max, err := txfilter.ParseBound("max", m.maxInput.Value())
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	c.MaxAmount = max

	m.tracker.SetCriteria(c)
	m.displayed = m.tracker.ApplyFilters(time.Now())
	m = m.refreshTable()

	switch {
	case len(warnings) > 0:
		m.setStatus(fmt.Sprintf("Warning: %s", warnings[0]), false)
	case len(m.displayed) == 0 && len(m.tracker.Records()) > 0:
		m.setStatus("No data after filtering.", false)
	default:
		m.setStatus(fmt.Sprintf("%d transaction(s) displayed", len(m.displayed)), true)
	}
	return m
}

// cycleSort advances the table sort: each press moves through column
// ascending, column descending, then the next column, and finally back to
// fetch order. Sorting reorders only the displayed view.
func (m Model) cycleSort() Model {
	switch {
	case m.sortCol == -1:
		m.sortCol, m.sortAsc = 0, true
	case m.sortAsc:
		m.sortAsc = false
	case m.sortCol < 2:
		m.sortCol, m.sortAsc = m.sortCol+1, true
	default:
		m.sortCol = -1
	}
	return m.refreshTable()
}

// sortedDisplayed returns the displayed subset in table order.
func (m Model) sortedDisplayed() []explorer.Transaction {
	rows := make([]explorer.Transaction, len(m.displayed))
	copy(rows, m.displayed)
	if m.sortCol == -1 {
		return rows
	}

	less := func(a, b explorer.Transaction) bool {
		switch m.sortCol {
		case 0:
			return a.HashFull < b.HashFull
		case 1:
			return a.Time.Before(b.Time)
		default:
			return a.Amount < b.Amount
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if m.sortAsc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
	return rows
}

func (m Model) refreshTable() Model {
	sorted := m.sortedDisplayed()
	rows := make([]table.Row, len(sorted))
	for i, t := range sorted {
		rows[i] = table.Row{t.HashDisplay(), t.TimeDisplay(), export.FormatAmount(t.Amount)}
	}
	m.table.SetRows(rows)
	return m
}

// exportDisplayed writes the rows currently shown in the table, in table
// order, to a timestamped CSV in the working directory.
func (m Model) exportDisplayed() Model {
	if len(m.displayed) == 0 {
		m.setStatus("Nothing to export.", false)
		return m
	}

	path := fmt.Sprintf("transactions-%s.csv", time.Now().Format("20060102-150405"))
	if err := m.tracker.Export(path, m.sortedDisplayed()); err != nil {
		m.setStatus(fmt.Sprintf("Export failed: %v", err), false)
		return m
	}
	m.setStatus(fmt.Sprintf("Exported %d row(s) to %s", len(m.displayed), path), true)
	return m
}

// showAggregateChart renders a chart over the displayed subset. An empty
// subset skips rendering entirely.
func (m Model) showAggregateChart(g aggregate.Granularity, mode aggregate.Mode, measure string) Model {
	if len(m.displayed) == 0 {
		m.setStatus("No data after filtering.", false)
		return m
	}
	buckets := m.tracker.Aggregate(m.displayed, g, mode)
	m.chart = RenderChart(buckets, ChartTitle(measure, g, m.period()), g, m.width-4)
	return m
}

func (m Model) showHistogramChart() Model {
	if len(m.displayed) == 0 {
		m.setStatus("No data after filtering.", false)
		return m
	}
	buckets := aggregate.Histogram(m.displayed, 10)
	title := fmt.Sprintf("Amount Distribution (BTC) - Period: %s", periodSuffix(m.period()))
	m.chart = RenderBars(buckets, title, m.width-4)
	return m
}

func periodSuffix(p txfilter.Period) string {
	if p == txfilter.AllTime {
		return "All"
	}
	return string(p)
}

func (m *Model) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

// Run starts the program in the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
