package services

import (
	"context"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"
	apperrors "multiview/pkg/errors"
	"multiview/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type categoryService struct {
	name        string
	credentials ports.CredentialService
	client      ports.TwitchClient
	session     ports.SessionRepository
	metrics     ports.Metrics
	logger      *zap.SugaredLogger
	coalesce    *singleflight.Group
}

// NewCategoryService resolves name once and serves the id from the session
// afterwards. A failed or empty lookup is not remembered.
func NewCategoryService(
	name string,
	credentials ports.CredentialService,
	client ports.TwitchClient,
	session ports.SessionRepository,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	singleFlight bool,
) ports.CategoryResolver {
	s := &categoryService{
		name:        name,
		credentials: credentials,
		client:      client,
		session:     session,
		metrics:     metrics,
		logger:      logger,
	}
	if singleFlight {
		s.coalesce = &singleflight.Group{}
	}
	return s
}

func (s *categoryService) CategoryName() string {
	return s.name
}

func (s *categoryService) GetCategoryID(ctx context.Context) (domain.CategoryID, error) {
	if id, ok := s.session.GetCategoryID(); ok {
		s.metrics.RecordCategoryLookup(true)
		tracing.AddSpanAttributes(ctx, tracing.CategoryIDKey.String(string(id)))
		return id, nil
	}

	if s.coalesce == nil {
		return s.resolve(ctx)
	}

	v, err, _ := s.coalesce.Do(s.name, func() (interface{}, error) {
		return s.resolve(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(domain.CategoryID), nil
}

func (s *categoryService) resolve(ctx context.Context) (domain.CategoryID, error) {
	token, err := s.credentials.GetAccessToken(ctx)
	if err != nil {
		return "", err
	}

	ctx, span := tracing.TraceTwitchOperation(ctx, "resolve_category")
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.CategoryKey.String(s.name), tracing.CacheHitKey.Bool(false))

	s.metrics.RecordCategoryLookup(false)
	categories, err := s.client.SearchCategories(ctx, token, s.name)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.logger.Errorw("category lookup failed", "category", s.name, "error", err)
		return "", apperrors.NewUpstreamError(err, domain.MsgCategoryFailed)
	}

	if len(categories) == 0 || categories[0].ID == "" {
		err := apperrors.NewNotFoundError(domain.CategoryNotFoundMessage(s.name)).
			WithContext("category", s.name)
		tracing.RecordError(ctx, err)
		s.logger.Warnw("category not found", "category", s.name)
		return "", err
	}

	id := categories[0].ID
	s.session.SaveCategoryID(id)
	tracing.AddSpanAttributes(ctx, tracing.CategoryIDKey.String(string(id)))
	s.logger.Infow("resolved category", "category", s.name, "category_id", id)

	return id, nil
}
