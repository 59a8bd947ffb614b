package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds cycle statistics for display.
type Stats struct {
	Cycles        int64
	Skipped       int64
	Evaluated     int64
	Opportunities int64
	LastDuration  time.Duration
	LastSkip      string
	Errors        int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	hitRate := float64(0)
	if s.stats.Evaluated > 0 {
		hitRate = float64(s.stats.Opportunities) / float64(s.stats.Evaluated) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	skip := "-"
	if s.stats.LastSkip != "" {
		skip = s.stats.LastSkip
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Cycles: %s  │  Skipped: %s  │  Evaluated: %s  │  Accepted: %s (%.2f%%)\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Skipped)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluated)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			hitRate,
		) +
		fmt.Sprintf("Last cycle: %s  │  Last skip: %s  │  Errors: %s",
			valueStyle.Render(s.stats.LastDuration.Round(time.Millisecond).String()),
			valueStyle.Render(skip),
			errorsDisplay,
		)
}
