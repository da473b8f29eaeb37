package usecase

import (
	"context"

	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/repository"
)

// TargetResolver looks up where a user's pushes go
type TargetResolver struct {
	tokens repository.TokenRepository
}

func NewTargetResolver(tokens repository.TokenRepository) *TargetResolver {
	return &TargetResolver{tokens: tokens}
}

// Resolve returns the user's current push token. A user without a token
// (never registered, or removed) yields domain.ErrNotFound.
func (r *TargetResolver) Resolve(ctx context.Context, userID string) (string, error) {
	token, err := r.tokens.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if token.FCMToken == "" {
		return "", domain.ErrNotFound
	}
	return token.FCMToken, nil
}
