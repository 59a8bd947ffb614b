// Package di contains dependency injection tokens for the network context.
package di

import (
	"github.com/fd1az/bsc-triarb/business/network/app"
	"github.com/fd1az/bsc-triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("network.Monitor")
)

func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}
