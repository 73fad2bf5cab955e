package ports

import (
	"context"

	"multiview/internal/core/domain"
)

// TwitchClient is the subset of the Twitch API this service calls. Non-2xx
// answers are reported as *domain.StatusError.
type TwitchClient interface {
	ExchangeToken(ctx context.Context, creds domain.Credentials) (string, error)
	SearchCategories(ctx context.Context, token domain.AccessToken, name string) ([]domain.Category, error)
	GetStreams(ctx context.Context, token domain.AccessToken, categoryID domain.CategoryID, first int) ([]domain.StreamRecord, error)
}

// Metrics receives cache and upstream events.
type Metrics interface {
	RecordTokenCacheHit()
	RecordTokenRefresh(success bool)
	RecordCategoryLookup(cached bool)
	RecordStreamsListed(count int)
}
