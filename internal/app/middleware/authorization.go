package middleware

import (
	"context"

	"shareit/internal/app/commands"
	"shareit/internal/app/policies"
	"shareit/internal/app/queries"
	"shareit/internal/domain/shared/apperr"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorBound is implemented by messages sent on behalf of a signed-in user.
type ActorBound interface {
	ActorUID() string
}

// ActorAuthorizer rejects anonymous ActorBound messages. When an identity is present on the
// context it must match the message's actor.
type ActorAuthorizer struct {
	Identity policies.IdentityAccessor
}

var (
	errSignInRequired = apperr.NotAuthenticated("please sign in first")
	errActorMismatch  = apperr.Forbidden("you cannot act on behalf of another user")
)

func (a ActorAuthorizer) Authorize(ctx context.Context, message any) error {
	bound, ok := message.(ActorBound)
	if !ok {
		return nil
	}
	actor := bound.ActorUID()
	if actor == "" {
		return errSignInRequired
	}
	if a.Identity == nil {
		return nil
	}
	if current, ok := a.Identity.CurrentUser(ctx); ok && current != actor {
		return errActorMismatch
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
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
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
