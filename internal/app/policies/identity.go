package policies

import (
	"context"
	"strings"
)

// IdentityAccessor reports the signed-in user of a request, if any.
type IdentityAccessor interface {
	CurrentUser(ctx context.Context) (uid string, ok bool)
}

type identityKey struct{}

// WithUser returns a context carrying uid as the signed-in user.
func WithUser(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, identityKey{}, strings.TrimSpace(uid))
}

// ContextIdentity reads the user stored by WithUser.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (string, bool) {
	uid, _ := ctx.Value(identityKey{}).(string)
	return uid, uid != ""
}
