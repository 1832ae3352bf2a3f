package middleware

import (
	"context"

	"lajuana/internal/app/commands"
	"lajuana/internal/app/queries"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Restricted marks messages that only an authenticated admin may send.
type Restricted interface {
	AdminOnly() bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, message any) error

func (f AuthorizerFunc) Authorize(ctx context.Context, message any) error {
	return f(ctx, message)
}

func isRestricted(message any) bool {
	r, ok := message.(Restricted)
	return ok && r.AdminOnly()
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if isRestricted(cmd) {
				if err := a.Authorize(ctx, cmd); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if isRestricted(q) {
				if err := a.Authorize(ctx, q); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, q)
		})
	}
}
