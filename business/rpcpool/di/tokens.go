// Package di contains dependency injection tokens for the rpcpool context.
package di

import (
	"github.com/fd1az/bsc-triarb/business/rpcpool/app"
	"github.com/fd1az/bsc-triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pool = di.NewToken[*app.Pool]("rpcpool.Pool")
)

func GetPool(c di.ServiceRegistry) *app.Pool {
	return di.GetToken(c, Pool)
}
