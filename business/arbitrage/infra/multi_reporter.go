package infra

import (
	"context"
	"errors"

	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
)

var _ app.Reporter = MultiReporter(nil)

// MultiReporter fans every call out to each reporter in order.
type MultiReporter []app.Reporter

// Start starts every reporter and stops at the first failure.
func (m MultiReporter) Start(ctx context.Context) error {
	for _, r := range m {
		if err := r.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiReporter) Report(ctx context.Context, report *domain.CycleReport) {
	for _, r := range m {
		r.Report(ctx, report)
	}
}

func (m MultiReporter) UpdateConnectionStatus(endpoints []poolDomain.Status, network netDomain.Health) {
	for _, r := range m {
		r.UpdateConnectionStatus(endpoints, network)
	}
}

// Stop stops every reporter and joins their errors.
func (m MultiReporter) Stop() error {
	var errs []error
	for _, r := range m {
		if err := r.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
