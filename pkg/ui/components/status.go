package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// EndpointStatus is one RPC endpoint as shown in the status panel.
type EndpointStatus struct {
	URL         string
	Primary     bool
	Current     bool
	Healthy     bool
	Failures    int
	BlockNumber uint64
	Latency     time.Duration
	ProbeError  string
}

// NetworkStatus is the chain condition summary.
type NetworkStatus struct {
	Healthy  bool
	GasGwei  float64
	Failures int
	Checked  time.Time
}

// StatusComponent renders endpoint and network status.
type StatusComponent struct {
	endpoints []EndpointStatus
	network   *NetworkStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		endpoints: make([]EndpointStatus, 0),
	}
}

// SetEndpoints replaces the endpoint list.
func (s *StatusComponent) SetEndpoints(endpoints []EndpointStatus) {
	s.endpoints = endpoints
}

// SetNetwork replaces the network summary.
func (s *StatusComponent) SetNetwork(n NetworkStatus) {
	s.network = &n
}

// Connected reports whether any endpoint is healthy.
func (s *StatusComponent) Connected() bool {
	for _, e := range s.endpoints {
		if e.Healthy {
			return true
		}
	}
	return false
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("ENDPOINTS"))
	b.WriteString("\n\n")

	if len(s.endpoints) == 0 {
		b.WriteString(dimStyle.Render("  No endpoints probed yet"))
		b.WriteString("\n")
	}
	for _, e := range s.endpoints {
		marker := " "
		if e.Current {
			marker = "▸"
		}
		status := okStyle.Render("●")
		if !e.Healthy {
			status = badStyle.Render("○")
		}
		line := fmt.Sprintf("%s %s %s", marker, status, e.URL)
		if e.Primary {
			line += dimStyle.Render(" (primary)")
		}
		if e.BlockNumber > 0 {
			line += fmt.Sprintf("  #%d", e.BlockNumber)
		}
		if e.Latency > 0 {
			line += dimStyle.Render(fmt.Sprintf("  %dms", e.Latency.Milliseconds()))
		}
		if e.Failures > 0 {
			line += badStyle.Render(fmt.Sprintf("  %d failures", e.Failures))
		}
		if e.ProbeError != "" {
			line += badStyle.Render("  " + e.ProbeError)
		}
		b.WriteString(line + "\n")
	}

	if s.network != nil {
		b.WriteString("\n")
		state := okStyle.Render("ready")
		if !s.network.Healthy {
			state = badStyle.Render("unhealthy")
		}
		b.WriteString(fmt.Sprintf("  Network: %s  │  Gas: %.2f gwei", state, s.network.GasGwei))
		if s.network.Failures > 0 {
			b.WriteString(badStyle.Render(fmt.Sprintf("  │  %d sampling failures", s.network.Failures)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
