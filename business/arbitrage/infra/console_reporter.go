// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints cycles and connection changes to a terminal.
type ConsoleReporter struct {
	out io.Writer

	mu          sync.Mutex
	lastHealthy map[string]bool
	lastNetwork *bool

	header  *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	muted   *color.Color
	success *color.Color
}

// NewConsoleReporter writes to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{
		out:         out,
		lastHealthy: map[string]bool{},
		header:      color.New(color.FgHiWhite, color.Bold),
		good:        color.New(color.FgGreen),
		warn:        color.New(color.FgYellow),
		bad:         color.New(color.FgRed),
		muted:       color.New(color.FgHiBlack),
		success:     color.New(color.FgHiWhite, color.BgGreen),
	}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(context.Context) error {
	r.header.Fprintln(r.out, "BSC Triangular Arbitrage Scanner")
	r.muted.Fprintln(r.out, strings.Repeat("=", 80))
	return nil
}

// Report prints one cycle.
func (r *ConsoleReporter) Report(_ context.Context, report *domain.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := report.FinishedAt.Format("15:04:05")
	if report.Skipped {
		r.warn.Fprintf(r.out, "[%s] %s cycle skipped: %s\n", ts, report.Tier, report.SkipReason)
		return
	}

	fmt.Fprintf(r.out, "[%s] %s cycle: %d triples, %d candidates evaluated, %d accepted in %s\n",
		ts, report.Tier, report.Triples, report.Evaluated, len(report.Opportunities),
		report.Duration().Round(time.Millisecond))

	for i, o := range report.Opportunities {
		r.printOpportunity(i+1, o)
	}
}

func (r *ConsoleReporter) printOpportunity(rank int, o domain.Opportunity) {
	c := o.Candidate
	r.muted.Fprintln(r.out, strings.Repeat("-", 80))
	r.success.Fprintf(r.out, " #%d %s ", rank, o.Route())
	fmt.Fprintf(r.out, "  %s\n", r.good.Sprintf("%s%%", o.ProfitPct().StringFixed(4)))

	direction := c.Direction.String()
	if c.Reversed() {
		direction += r.warn.Sprintf(" (reversed from %s, gap %s%%)", c.Requested, c.Gap.StringFixed(2))
	}
	fmt.Fprintf(r.out, "  Hops:        %s\n", direction)
	fmt.Fprintf(r.out, "  Flash pair:  %s\n", c.FlashPair.Hex())
	fmt.Fprintf(r.out, "  Loan:        %s %s (%s)\n", o.LoanAmount.String(), o.Symbols[0], c.AmountIn)
	for i, h := range c.Hops {
		fmt.Fprintf(r.out, "  Hop %d [%s]:  %s → %s  min out %s\n",
			i+1, h.Exchange, o.Symbols[i], o.Symbols[(i+1)%3], c.MinOutputs[i])
	}

	p := o.Profit
	fmt.Fprintf(r.out, "  Profit:      $%s  gas -$%s  net $%s  (swap fees ~$%s in quote)\n",
		p.ProfitValue.StringFixed(2), p.GasCost.Value.StringFixed(2),
		p.NetValue.StringFixed(2), p.EstimatedSwapFee.StringFixed(2))
}

// UpdateConnectionStatus prints endpoint and network health transitions only.
func (r *ConsoleReporter) UpdateConnectionStatus(endpoints []poolDomain.Status, network netDomain.Health) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := time.Now().Format("15:04:05")
	for _, e := range endpoints {
		healthy := e.Health == poolDomain.HealthHealthy
		prev, seen := r.lastHealthy[e.URL]
		r.lastHealthy[e.URL] = healthy
		if seen && prev == healthy {
			continue
		}
		if healthy {
			r.good.Fprintf(r.out, "[%s] endpoint %s healthy (block #%d)\n", ts, e.URL, e.BlockNumber)
		} else {
			r.bad.Fprintf(r.out, "[%s] endpoint %s unhealthy (%d failures)\n", ts, e.URL, e.Failures)
		}
	}

	if r.lastNetwork == nil || *r.lastNetwork != network.Healthy {
		healthy := network.Healthy
		r.lastNetwork = &healthy
		if healthy {
			r.good.Fprintf(r.out, "[%s] network ready, gas %s gwei\n", ts, network.GasPriceGwei().StringFixed(2))
		} else {
			r.bad.Fprintf(r.out, "[%s] network unhealthy: %s\n", ts, network.LastError)
		}
	}
}

// Stop prints the footer.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out)
	r.header.Fprintln(r.out, "Scanner stopped")
	return nil
}
