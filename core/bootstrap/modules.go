package bootstrap

import (
	"context"

	coreconfig "github.com/m3rciful/shopbot/core/config"
)

// ServiceProvider wires application services from configuration.
type ServiceProvider interface {
	Provide(ctx context.Context, cfg *coreconfig.Config) (interface{}, error)
}

// ServiceProviderFunc adapts a function to the ServiceProvider interface.
type ServiceProviderFunc func(ctx context.Context, cfg *coreconfig.Config) (interface{}, error)

// Provide executes the underlying function.
func (f ServiceProviderFunc) Provide(ctx context.Context, cfg *coreconfig.Config) (interface{}, error) {
	return f(ctx, cfg)
}

// TypedServiceProvider allows callers to avoid manual type assertions.
type TypedServiceProvider[T any] interface {
	ServiceProvider
	ProvideTyped(ctx context.Context, cfg *coreconfig.Config) (T, error)
}

// TypedServiceProviderFunc adapts a typed function to both typed and untyped provider interfaces.
type TypedServiceProviderFunc[T any] func(ctx context.Context, cfg *coreconfig.Config) (T, error)

// Provide satisfies the ServiceProvider interface.
func (f TypedServiceProviderFunc[T]) Provide(ctx context.Context, cfg *coreconfig.Config) (interface{}, error) {
	return f(ctx, cfg)
}

// ProvideTyped exposes the typed return value without casting.
func (f TypedServiceProviderFunc[T]) ProvideTyped(ctx context.Context, cfg *coreconfig.Config) (T, error) {
	return f(ctx, cfg)
}
