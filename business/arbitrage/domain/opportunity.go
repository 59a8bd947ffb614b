package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/internal/apperror"
)

// Opportunity is an accepted candidate with its profitability breakdown.
type Opportunity struct {
	ID         string              `json:"id"`
	DetectedAt time.Time           `json:"detected_at"`
	Candidate  Candidate           `json:"candidate"`
	Symbols    [3]string           `json:"symbols"`
	LoanAmount decimal.Decimal     `json:"loan_amount"`
	Profit     ProfitabilityResult `json:"profit"`
}

// ProfitPct returns the net profit percentage.
func (o *Opportunity) ProfitPct() decimal.Decimal { return o.Profit.ProfitPct }

// IsProfitable returns true if the opportunity clears the threshold.
func (o *Opportunity) IsProfitable() bool { return o.Profit.MeetsThreshold }

// Route renders "WBNB→BUSD→CAKE→WBNB".
func (o *Opportunity) Route() string {
	return o.Symbols[0] + "→" + o.Symbols[1] + "→" + o.Symbols[2] + "→" + o.Symbols[0]
}

// Rank orders opportunities by profit percentage, best first. Ties keep their
// discovery order.
func Rank(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Profit.ProfitPct.GreaterThan(opps[j].Profit.ProfitPct)
	})
}

// Tier selects which triples a cycle scans.
type Tier uint8

const (
	TierAll Tier = iota
	// TierPriority scans priority 1 triples.
	TierPriority
	// TierStandard scans every triple with priority above 1.
	TierStandard
)

// Includes reports whether a triple of the given priority belongs to the tier.
func (t Tier) Includes(priority int) bool {
	switch t {
	case TierPriority:
		return priority == 1
	case TierStandard:
		return priority > 1
	default:
		return true
	}
}

func (t Tier) String() string {
	switch t {
	case TierPriority:
		return "priority"
	case TierStandard:
		return "standard"
	default:
		return "all"
	}
}

// MarshalText renders the tier name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseTier reads "priority", "standard" or "all". The empty string is all.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TierAll, nil
	case "priority":
		return TierPriority, nil
	case "standard":
		return TierStandard, nil
	}
	return TierAll, apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("unknown tier %q", s))
}

// Skip reasons recorded on a CycleReport.
const (
	SkipScanInProgress   = "scan in progress"
	SkipNetworkUnhealthy = "network unhealthy"
	SkipContractPaused   = "contract paused"
	SkipPauseCheckFailed = "pause check failed"
)

// CycleReport is the outcome of one scan cycle.
type CycleReport struct {
	ID            string        `json:"id"`
	Tier          Tier          `json:"tier"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Triples       int           `json:"triples"`
	Evaluated     int           `json:"evaluated"`
	Opportunities []Opportunity `json:"opportunities"`
	Skipped       bool          `json:"skipped"`
	SkipReason    string        `json:"skip_reason,omitempty"`
}

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Best returns the top-ranked opportunity, if any.
func (r *CycleReport) Best() (Opportunity, bool) {
	if len(r.Opportunities) == 0 {
		return Opportunity{}, false
	}
	return r.Opportunities[0], true
}
