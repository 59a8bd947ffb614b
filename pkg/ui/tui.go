package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "rpc", "tokens", "contract"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys KeyMap
	help help.Model

	opportunities *components.OpportunitiesComponent
	breakdown     *components.BreakdownComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent

	phase        Phase
	welcomeStart time.Time
	startupSteps map[string]*StartupStep
	startupTime  time.Time

	quitting   bool
	frozen     bool
	width      int
	height     int
	lastCycle  *domain.CycleReport
	lastUpdate time.Time
	errors     []ErrorEntry
	logs       []string
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		keys:          DefaultKeyMap(),
		help:          help.New(),
		opportunities: components.NewOpportunitiesComponent(200, 12),
		breakdown:     components.NewBreakdownComponent(),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"rpc":      {Name: "Connecting to BSC endpoints", Status: "pending"},
			"tokens":   {Name: "Resolving token metadata", Status: "pending"},
			"contract": {Name: "Reading flash arbitrage contract", Status: "pending"},
		},
		startupTime: now,
		errors:      make([]ErrorEntry, 0, 3),
		logs:        make([]string, 0, 5),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Update must not call Send; trigger the callback directly.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.frozen = !m.frozen
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case CycleMsg:
		if msg.Report != nil {
			m.applyCycle(msg.Report)
		}

	case EndpointsMsg:
		m.status.SetEndpoints(endpointRows(msg.Endpoints))
		if m.status.Connected() {
			m.setStep("rpc", "connected")
		}
		m.lastUpdate = time.Now()

	case NetworkMsg:
		m.status.SetNetwork(networkRow(msg.Health))
		m.lastUpdate = time.Now()

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
		s := m.stats.Stats()
		s.Errors++
		m.stats.Update(s)
		m.logs = addLog(m.logs, "error", msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		m.setStep(msg.Step, msg.Status)
	}

	return m, nil
}

func (m *Model) setStep(step, status string) {
	if s, ok := m.startupSteps[step]; ok {
		s.Status = status
	}
}

func (m Model) startupComplete() bool {
	for _, s := range m.startupSteps {
		if s.Status != "connected" && s.Status != "done" {
			return false
		}
	}
	return true
}

func (m *Model) applyCycle(r *domain.CycleReport) {
	s := m.stats.Stats()
	if r.Skipped {
		s.Skipped++
		s.LastSkip = r.SkipReason
	} else {
		s.Cycles++
		s.Evaluated += int64(r.Evaluated)
		s.Opportunities += int64(len(r.Opportunities))
		s.LastDuration = r.Duration()
	}
	m.stats.Update(s)
	m.lastUpdate = time.Now()

	if r.Skipped {
		m.logs = addLog(m.logs, "warn", fmt.Sprintf("%s cycle skipped: %s", r.Tier, r.SkipReason))
		return
	}
	m.lastCycle = r
	m.phase = PhaseDashboard

	if m.frozen {
		return
	}
	rows := make([]components.OpportunityRow, 0, len(r.Opportunities))
	for _, o := range r.Opportunities {
		rows = append(rows, opportunityRow(o))
	}
	m.opportunities.Add(rows...)

	if best, ok := r.Best(); ok {
		m.breakdown.Set(breakdownOf(best))
	} else {
		m.breakdown.Set(nil)
	}
}

func opportunityRow(o domain.Opportunity) components.OpportunityRow {
	return components.OpportunityRow{
		Time:      o.DetectedAt.Format("15:04:05"),
		Route:     o.Route(),
		Direction: o.Candidate.Direction.String(),
		Reversed:  o.Candidate.Reversed(),
		Amount:    o.LoanAmount.String() + " " + o.Symbols[0],
		NetValue:  o.Profit.NetValue,
		ProfitPct: o.Profit.ProfitPct,
	}
}

func breakdownOf(o domain.Opportunity) *components.Breakdown {
	gwei := decimal.Zero
	if gp := o.Profit.GasCost.GasPrice; gp != nil {
		gwei = decimal.NewFromBigInt(gp, -9)
	}
	return &components.Breakdown{
		Route:            o.Route(),
		Direction:        o.Candidate.Direction.String(),
		Loan:             o.LoanAmount.String() + " " + o.Symbols[0],
		LoanValue:        o.Profit.LoanValue,
		ProfitValue:      o.Profit.ProfitValue,
		GasValue:         o.Profit.GasCost.Value,
		GasGwei:          gwei,
		EstimatedSwapFee: o.Profit.EstimatedSwapFee,
		NetValue:         o.Profit.NetValue,
		ProfitPct:        o.Profit.ProfitPct,
		Gap:              o.Candidate.Gap,
		Reversed:         o.Candidate.Reversed(),
	}
}

func endpointRows(statuses []poolDomain.Status) []components.EndpointStatus {
	rows := make([]components.EndpointStatus, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, components.EndpointStatus{
			URL:         s.URL,
			Primary:     s.Primary,
			Current:     s.Current,
			Healthy:     s.Health == poolDomain.HealthHealthy,
			Failures:    s.Failures,
			BlockNumber: s.BlockNumber,
			Latency:     s.ProbeLatency,
			ProbeError:  s.ProbeError,
		})
	}
	return rows
}

func networkRow(h netDomain.Health) components.NetworkStatus {
	return components.NetworkStatus{
		Healthy:  h.Healthy,
		GasGwei:  h.GasPriceGwei().InexactFloat64(),
		Failures: h.ConsecutiveFailures,
		Checked:  h.LastCheck,
	}
}

// addLog keeps the last 5 lines.
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete() {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" BSC Triangular Arbitrage Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.status.View() + "\n" + m.breakdown.View()
	right := m.opportunities.View()

	if m.width > 120 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(m.width*2/5-2).Render(left),
			BoxStyle.Width(m.width*3/5-2).Render(right)))
	} else {
		w := m.width - 4
		if w < 40 {
			w = 40
		}
		b.WriteString(BoxStyle.Width(w).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(w).Render(right))
	}
	b.WriteString("\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.logs) > 0 {
		for _, l := range m.logs {
			b.WriteString(MutedValue.Render("  " + l))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorDanger).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", e.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.frozen {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorWarning).Render("FROZEN"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	logo := `
   ████████╗██████╗ ██╗      █████╗ ██████╗ ██████╗
   ╚══██╔══╝██╔══██╗██║     ██╔══██╗██╔══██╗██╔══██╗
      ██║   ██████╔╝██║────███████║██████╔╝██████╔╝
      ██║   ██╔══██╗██║     ██╔══██║██╔══██╗██╔══██╗
      ██║   ██║  ██║██║     ██║  ██║██║  ██║██████╔╝
      ╚═╝   ╚═╝  ╚═╝╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`
	var sb strings.Builder
	sb.WriteString("\n\n\n")
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("          PancakeSwap ⇄ Biswap  •  BNB Smart Chain"))
	sb.WriteString("\n\n")
	sb.WriteString(goldStyle.Render(fmt.Sprintf("                   Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  BSC Triangular Arbitrage Scanner"))
	sb.WriteString("\n\n  Starting up...\n\n")

	spinners := []string{"◐", "◓", "◑", "◒"}
	for _, k := range startupOrder {
		step := m.startupSteps[k]

		var icon, text string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, text, style = "✓", "Ready", successStyle
		case "connecting":
			icon = spinners[int(time.Since(m.startupTime).Milliseconds()/200)%len(spinners)]
			text, style = "Connecting...", connectingStyle
		case "failed":
			icon, text, style = "✗", "Failed", failedStyle
		default:
			icon, text, style = "○", "Pending", mutedStyle
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), mutedStyle.Render(step.Name), style.Render(text)))
	}

	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.lastCycle != nil {
		parts = append(parts, fmt.Sprintf("Last cycle: %s %s ago",
			m.lastCycle.Tier, time.Since(m.lastCycle.FinishedAt).Round(time.Second)))
		if best, ok := m.lastCycle.Best(); ok {
			parts = append(parts, PositiveValue.Render(fmt.Sprintf("Best: %s %s%%", best.Route(), best.ProfitPct().StringFixed(3))))
		}
	} else {
		parts = append(parts, MutedValue.Render("Waiting for first cycle"))
	}

	if m.status.Connected() {
		parts = append(parts, StatusConnected.Render("● RPC"))
	} else {
		parts = append(parts, StatusDisconnected.Render("○ RPC"))
	}

	if !m.lastUpdate.IsZero() {
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", time.Since(m.lastUpdate).Round(time.Second))))
	}
	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules
// should start. Set by main.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
