package middleware

// ContextKey is a private key type for context values, avoiding collisions
// with other packages.
type ContextKey string

const (
	// ActorCtxKey holds the authenticated entity.Actor for the request.
	ActorCtxKey = ContextKey("actor")
)
