package utils

import (
	"context"

	"boardroom-booking/internal/data/entity"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
	TokenKey  contextKey = "token"
)

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userIDVal := ctx.Value(UserIDKey)
	if userIDVal == nil {
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}

	return userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	roleVal := ctx.Value(RoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(string)
	return role, ok
}

func SetUserContext(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}

// GetTokenFromContext returns the bearer token stored by the auth middleware.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

const currentUserKey contextKey = "current_user"

// SetCurrentUser stores the authenticated user so handlers can authorize
// without another lookup.
func SetCurrentUser(ctx context.Context, user *entity.User) context.Context {
	ctx = SetUserContext(ctx, user.ID, string(user.Role))
	return context.WithValue(ctx, currentUserKey, user)
}

func GetCurrentUser(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*entity.User)
	return user, ok && user != nil
}
