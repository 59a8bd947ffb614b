// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an accepted cycle in the list.
type OpportunityRow struct {
	Time      string
	Route     string
	Direction string
	Reversed  bool
	Amount    string
	NetValue  decimal.Decimal
	ProfitPct decimal.Decimal
}

// OpportunitiesComponent renders the opportunities list, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent keeps at most maxRows and shows visible at a time.
func NewOpportunitiesComponent(maxRows, visible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: visible,
	}
}

// Add prepends rows, keeping their order.
func (o *OpportunitiesComponent) Add(rows ...OpportunityRow) {
	o.rows = append(append([]OpportunityRow{}, rows...), o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
	o.offset = 0
}

// Len returns the number of stored rows.
func (o *OpportunitiesComponent) Len() int { return len(o.rows) }

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the window towards newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window towards older rows.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(o.rows) == 0 {
		return headerStyle.Render("OPPORTUNITIES") + "\n\nNo opportunities detected yet..."
	}

	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	flipStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", len(o.rows))))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %-8s  %-26s  %-7s  %14s  %10s  %8s\n",
		"Time", "Route", "Hops", "Loan", "Net", "Profit"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 82)) + "\n")

	end := o.offset + o.visible
	if end > len(o.rows) {
		end = len(o.rows)
	}
	for _, row := range o.rows[o.offset:end] {
		dir := fmt.Sprintf("%-7s", row.Direction)
		if row.Reversed {
			dir = flipStyle.Render(dir)
		}
		b.WriteString(fmt.Sprintf("  %-8s  %-26s  %s  %14s  %10s  %s\n",
			row.Time,
			row.Route,
			dir,
			row.Amount,
			"$"+row.NetValue.StringFixed(2),
			profitStyle.Render(fmt.Sprintf("%7s%%", row.ProfitPct.StringFixed(3))),
		))
	}
	if len(o.rows) > o.visible {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", o.offset+1, end, len(o.rows))))
	}
	return b.String()
}
