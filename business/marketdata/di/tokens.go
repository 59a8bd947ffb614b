// Package di contains dependency injection tokens for the marketdata context.
package di

import (
	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	"github.com/fd1az/bsc-triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("marketdata.Service")
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}
