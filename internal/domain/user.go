package domain

import "context"

type ContextKey string

// RoleAdmin is the only role allowed to edit variants.
const RoleAdmin = "admin"

const (
	UserContextKey  ContextKey = "user"
	TokenContextKey ContextKey = "token"
)

// User is the admin identity taken from the access token claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(UserContextKey).(*User)
	return user
}

// TokenFromContext returns the raw bearer token of the current request.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

// WithToken stores the raw bearer token so outbound calls can forward it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenContextKey, token)
}
