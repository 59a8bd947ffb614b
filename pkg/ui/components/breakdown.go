package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Breakdown is the profitability of the best candidate of the last cycle.
// Values are computed by the evaluator; the component only renders them.
type Breakdown struct {
	Route            string
	Direction        string
	Loan             string
	LoanValue        decimal.Decimal
	ProfitValue      decimal.Decimal
	GasValue         decimal.Decimal
	GasGwei          decimal.Decimal
	EstimatedSwapFee decimal.Decimal
	NetValue         decimal.Decimal
	ProfitPct        decimal.Decimal
	Gap              decimal.Decimal
	Reversed         bool
}

// BreakdownComponent renders the best opportunity's cost breakdown.
type BreakdownComponent struct {
	best *Breakdown
}

// NewBreakdownComponent creates an empty breakdown.
func NewBreakdownComponent() *BreakdownComponent {
	return &BreakdownComponent{}
}

// Set replaces the displayed breakdown; nil clears it.
func (c *BreakdownComponent) Set(b *Breakdown) {
	c.best = b
}

// View renders the breakdown.
func (c *BreakdownComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("BEST CYCLE"))
	b.WriteString("\n\n")

	if c.best == nil {
		b.WriteString(dimStyle.Render("  No accepted cycle in the last scan"))
		return b.String()
	}
	bd := c.best

	direction := bd.Direction
	if bd.Reversed {
		direction += warnStyle.Render(fmt.Sprintf(" (reversed, gap %s%%)", bd.Gap.StringFixed(2)))
	}
	b.WriteString(fmt.Sprintf("  Route:        %s\n", bd.Route))
	b.WriteString(fmt.Sprintf("  Hops:         %s\n", direction))
	b.WriteString(fmt.Sprintf("  Loan:         %s %s\n", bd.Loan, dimStyle.Render("($"+bd.LoanValue.StringFixed(2)+")")))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")
	b.WriteString(fmt.Sprintf("  User profit:  %s\n", positiveStyle.Render("$"+bd.ProfitValue.StringFixed(2))))
	b.WriteString(fmt.Sprintf("  Gas:          %s %s\n",
		negativeStyle.Render("-$"+bd.GasValue.StringFixed(2)),
		dimStyle.Render("@ "+bd.GasGwei.StringFixed(2)+" gwei")))
	b.WriteString(fmt.Sprintf("  Swap fees:    %s\n", dimStyle.Render("~$"+bd.EstimatedSwapFee.StringFixed(2)+" (in quote)")))

	net := positiveStyle
	if bd.NetValue.IsNegative() {
		net = negativeStyle
	}
	b.WriteString(fmt.Sprintf("  Net:          %s\n", net.Render(fmt.Sprintf("$%s (%s%%)", bd.NetValue.StringFixed(2), bd.ProfitPct.StringFixed(3)))))
	return b.String()
}
