// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/bsc-triarb/business/arbitrage/app"
	"github.com/fd1az/bsc-triarb/business/arbitrage/infra/oracle"
	"github.com/fd1az/bsc-triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("arbitrage.Coordinator")
	Evaluator   = di.NewToken[*app.Evaluator]("arbitrage.Evaluator")
	Reporter    = di.NewToken[app.Reporter]("arbitrage.Reporter")
)

// Internal service tokens
var (
	Oracle  = di.NewToken[*oracle.Client]("arbitrage.Oracle")
	Scanner = di.NewToken[*app.Scanner]("arbitrage.Scanner")
)

func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}

func GetEvaluator(c di.ServiceRegistry) *app.Evaluator {
	return di.GetToken(c, Evaluator)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
