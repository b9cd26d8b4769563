package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyRoles       ctxKey = "roles"
)

// PrincipalIDFromContext returns the authenticated principal id injected by
// AuthnMiddleware, or "" when the request is unauthenticated.
func PrincipalIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}

// RolesFromContext returns the role snapshot from the verified access token.
func RolesFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}
