package common

import "context"

// ContextKey is a type for context keys
type ContextKey string

const (
	PlayerIDKey  ContextKey = "playerID"
	RolesKey     ContextKey = "roles"
	RequestIDKey ContextKey = "requestID"
)

// WithPlayerID adds the authenticated player to context
func WithPlayerID(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, PlayerIDKey, playerID)
}

// GetPlayerID gets the authenticated player from context
func GetPlayerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(PlayerIDKey).(string)
	return id, ok && id != ""
}

// WithRoles adds the caller's roles to context
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, RolesKey, roles)
}

// GetRoles gets the caller's roles from context
func GetRoles(ctx context.Context) []string {
	roles, _ := ctx.Value(RolesKey).([]string)
	return roles
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID gets request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
