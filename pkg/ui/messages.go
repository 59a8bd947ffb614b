// Package ui provides the Bubble Tea dashboard for the triangular scanner.
package ui

import (
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
)

// Message types for TUI updates

// CycleMsg is sent when a scan cycle finishes or is skipped.
type CycleMsg struct {
	Report *domain.CycleReport
}

// EndpointsMsg carries a pool snapshot.
type EndpointsMsg struct {
	Endpoints []poolDomain.Status
}

// NetworkMsg carries the network monitor state.
type NetworkMsg struct {
	Health netDomain.Health
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step   string // "config", "rpc", "tokens", "contract"
	Status string // "connecting", "connected", "done", "failed"
}
