package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter forwards cycle and connection updates to the Bubble Tea program.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a reporter that sends through ui.Send.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the contract startup step done; the scanner is wired by then.
func (r *TUIReporter) Start(context.Context) error {
	r.send(ui.StartupMsg{Step: "contract", Status: "done"})
	return nil
}

// Report sends a cycle to the dashboard.
func (r *TUIReporter) Report(_ context.Context, report *domain.CycleReport) {
	r.send(ui.CycleMsg{Report: report})
}

// UpdateConnectionStatus sends the pool snapshot and network state.
func (r *TUIReporter) UpdateConnectionStatus(endpoints []poolDomain.Status, network netDomain.Health) {
	r.send(ui.EndpointsMsg{Endpoints: endpoints})
	r.send(ui.NetworkMsg{Health: network})
}

// Stop quits the program if one is running.
func (r *TUIReporter) Stop() error {
	if ui.Program != nil {
		ui.Program.Quit()
	}
	return nil
}
