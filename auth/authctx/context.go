// Package authctx carries the verified identity of a request in its
// context.Context.
//
// The auth middleware stores whatever its validator returned:
//
//	ctx = authctx.Set(ctx, claims)
//
// and handlers read it back, typed:
//
//	claims, ok := authctx.Get[*jwt.UserClaims](ctx)
//	userID, ok := authctx.UserID(ctx)
package authctx

import "context"

type contextKey struct{}

var claimsKey = contextKey{}


// Subject is implemented by claims that identify a user.
type Subject interface {
	GetUserID() string
}

// Set returns a copy of ctx carrying claims.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get returns the claims stored in ctx if they have type T.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// UserID returns the id of the authenticated user, if the stored claims
// name one.
func UserID(ctx context.Context) (string, bool) {
	s, ok := Get[Subject](ctx)
	if !ok {
		return "", false
	}
	id := s.GetUserID()
	return id, id != ""
}
