package services

import (
	"context"
	"sort"
	"time"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"
	apperrors "multiview/pkg/errors"
	"multiview/pkg/tracing"

	"go.uber.org/zap"
)

type streamService struct {
	credentials ports.CredentialService
	categories  ports.CategoryResolver
	client      ports.TwitchClient
	session     ports.SessionRepository
	metrics     ports.Metrics
	logger      *zap.SugaredLogger
	pageSize    int
	now         func() time.Time
}

func NewStreamService(
	credentials ports.CredentialService,
	categories ports.CategoryResolver,
	client ports.TwitchClient,
	session ports.SessionRepository,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	pageSize int,
) ports.StreamService {
	return &streamService{
		credentials: credentials,
		categories:  categories,
		client:      client,
		session:     session,
		metrics:     metrics,
		logger:      logger,
		pageSize:    pageSize,
		now:         time.Now,
	}
}

// ListStreams returns the live streams of the configured category, most
// watched first. Only the first page is fetched and any failure aborts the
// whole listing.
func (s *streamService) ListStreams(ctx context.Context) ([]domain.StreamRecord, error) {
	token, err := s.credentials.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	categoryID, err := s.categories.GetCategoryID(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.TraceTwitchOperation(ctx, "list_streams")
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.CategoryIDKey.String(string(categoryID)))

	streams, err := s.client.GetStreams(ctx, token, categoryID, s.pageSize)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.logger.Errorw("failed to list streams", "category_id", categoryID, "error", err)
		return nil, apperrors.NewUpstreamError(err, domain.MsgStreamsFailed)
	}

	if streams == nil {
		streams = []domain.StreamRecord{}
	}
	SortByViewers(streams)

	s.metrics.RecordStreamsListed(len(streams))
	tracing.AddSpanAttributes(ctx, tracing.StreamCount.Int(len(streams)))

	return streams, nil
}

func (s *streamService) CacheStatus() domain.CacheStatus {
	token, ok := s.session.GetToken()
	status := domain.CacheStatus{
		Configured: s.credentials.Configured(),
		TokenState: domain.StateOf(token, ok, s.now()),
	}
	if ok {
		expiresAt := token.ExpiresAt
		status.TokenExpiresAt = &expiresAt
	}
	if id, ok := s.session.GetCategoryID(); ok {
		status.CategoryID = id
	}
	return status
}

// SortByViewers orders streams by viewer count, highest first, keeping the
// upstream order between equal counts.
func SortByViewers(streams []domain.StreamRecord) {
	sort.SliceStable(streams, func(i, j int) bool {
		return streams[i].ViewerCount > streams[j].ViewerCount
	})
}
