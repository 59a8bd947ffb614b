// Package domain contains the endpoint model of the RPC pool.
package domain

import (
	"net/url"
	"strings"
	"time"
)

// Health is the routing verdict for an endpoint.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
)

// ProbeResult is the outcome of the last chain-height probe.
type ProbeResult struct {
	At          time.Time
	BlockNumber uint64
	Latency     time.Duration
	Err         string
}

// Endpoint is one RPC URL and its routing state. Endpoints are created once at
// pool construction and only ever mutated afterwards.
type Endpoint struct {
	Index         int
	URL           string
	Failures      int
	Health        Health
	LastUsed      time.Time
	CooldownUntil time.Time
	Probe         ProbeResult
}

// NewEndpoint returns a healthy endpoint with no history.
func NewEndpoint(index int, rawURL string) *Endpoint {
	return &Endpoint{Index: index, URL: rawURL, Health: HealthHealthy}
}

// Primary reports whether this is the first configured endpoint.
func (e *Endpoint) Primary() bool { return e.Index == 0 }

// Masked returns the URL safe for logs.
func (e *Endpoint) Masked() string { return MaskURL(e.URL) }

// Usable reports whether the endpoint may be selected, ignoring spacing.
func (e *Endpoint) Usable(threshold int) bool {
	return e.Health == HealthHealthy && e.Failures < threshold
}

// RecordSuccess clears the consecutive failure count.
func (e *Endpoint) RecordSuccess() {
	e.Failures = 0
}

// RecordFailure counts a failure and reports whether it tripped the endpoint
// into cooldown.
func (e *Endpoint) RecordFailure(now time.Time, threshold int, cooldown time.Duration) bool {
	e.Failures++
	if e.Failures < threshold || !e.CooldownUntil.IsZero() {
		return false
	}
	e.Health = HealthUnhealthy
	e.CooldownUntil = now.Add(cooldown)
	return true
}

// RestoreIfCooled returns a tripped endpoint to service once its cooldown has
// elapsed.
func (e *Endpoint) RestoreIfCooled(now time.Time) bool {
	if e.CooldownUntil.IsZero() || now.Before(e.CooldownUntil) {
		return false
	}
	e.Health = HealthHealthy
	e.Failures = 0
	e.CooldownUntil = time.Time{}
	return true
}

// ApplyProbe sets health from a probe outcome. Failure counts are untouched.
func (e *Endpoint) ApplyProbe(res ProbeResult) {
	e.Probe = res
	if res.Err == "" {
		e.Health = HealthHealthy
		return
	}
	e.Health = HealthUnhealthy
}

// Status is a read-only copy of an endpoint for reporting.
type Status struct {
	URL           string        `json:"url"`
	Primary       bool          `json:"primary"`
	Current       bool          `json:"current"`
	Health        Health        `json:"health"`
	Failures      int           `json:"consecutive_failures"`
	LastUsed      time.Time     `json:"last_used"`
	CooldownUntil time.Time     `json:"cooldown_until"`
	BlockNumber   uint64        `json:"block_number"`
	ProbeLatency  time.Duration `json:"probe_latency"`
	ProbeError    string        `json:"probe_error,omitempty"`
	ProbedAt      time.Time     `json:"probed_at"`
}

// Status snapshots the endpoint.
func (e *Endpoint) Status(current bool) Status {
	return Status{
		URL:           e.Masked(),
		Primary:       e.Primary(),
		Current:       current,
		Health:        e.Health,
		Failures:      e.Failures,
		LastUsed:      e.LastUsed,
		CooldownUntil: e.CooldownUntil,
		BlockNumber:   e.Probe.BlockNumber,
		ProbeLatency:  e.Probe.Latency,
		ProbeError:    e.Probe.Err,
		ProbedAt:      e.Probe.At,
	}
}

// MaskURL keeps scheme and host and hides credentials and path segments,
// which commonly carry API keys.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	masked := u.Scheme + "://" + u.Host
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" {
		masked += "/***"
	}
	return masked
}
