package di

import "fmt"

// Token binds a registry key to the Go type stored under it.
type Token[T any] struct {
	name string
}

// NewToken creates a token for key name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string { return t.name }

// RegisterToken registers a lazily built service under the token.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token and asserts its type.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	v := sr.Get(t.name)
	out, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: %q holds %T", t.name, v))
	}
	return out
}
