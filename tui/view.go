package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luokaci05/btctrack/service/tracker"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	statusOKStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overlayStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(1, 2)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.chart != "" {
		body := m.chart + "\n\n" + helpStyle.Render("esc to close")
		return overlayStyle.Render(body)
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("btctrack"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Bitcoin address transaction tracker"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Address "))
	b.WriteString(m.addressInput.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Period   "))
	b.WriteString(selectedStyle.Render(string(m.period())))
	b.WriteString(labelStyle.Render("   Group by "))
	b.WriteString(selectedStyle.Render(string(m.granularity())))
	b.WriteString(labelStyle.Render("   Sort "))
	b.WriteString(selectedStyle.Render(m.sortLabel()))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Search  "))
	b.WriteString(m.searchInput.View())
	b.WriteString(labelStyle.Render("  Min "))
	b.WriteString(m.minInput.View())
	b.WriteString(labelStyle.Render("  Max "))
	b.WriteString(m.maxInput.View())
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	style := statusOKStyle
	if !m.statusOK {
		style = statusErrStyle
	}
	status := m.status
	if m.tracker.State() == tracker.Fetching {
		status = "Fetching data..."
	}
	b.WriteString(style.Render(status))
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(m.helpLine()))
	b.WriteString("\n")

	return b.String()
}

func (m Model) sortLabel() string {
	if m.sortCol == -1 {
		return "fetch order"
	}
	names := []string{"hash", "date", "amount"}
	dir := "asc"
	if !m.sortAsc {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", names[m.sortCol], dir)
}

func (m Model) helpLine() string {
	if m.focus == focusTable {
		return "f fetch  a apply  p period  g group  s sort  e export  1 freq  2 volume  3 weekday  4 histogram  q quit"
	}
	return "tab next field  enter fetch/apply  ctrl+c quit"
}
