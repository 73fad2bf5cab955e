package ports

import (
	"context"

	"multiview/internal/core/domain"
)

// CredentialService hands out the shared Twitch app token.
type CredentialService interface {
	GetAccessToken(ctx context.Context) (domain.AccessToken, error)
	Configured() bool
	ClientID() string
}

// CategoryResolver maps the configured category name to its Twitch id.
type CategoryResolver interface {
	GetCategoryID(ctx context.Context) (domain.CategoryID, error)
	CategoryName() string
}

type StreamService interface {
	ListStreams(ctx context.Context) ([]domain.StreamRecord, error)
	CacheStatus() domain.CacheStatus
}
