package services

import (
	"context"
	"errors"
	"time"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"
	apperrors "multiview/pkg/errors"
	"multiview/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type credentialService struct {
	client  ports.TwitchClient
	session ports.SessionRepository
	creds   domain.Credentials
	metrics ports.Metrics
	logger  *zap.SugaredLogger

	// coalesce is nil unless single-flight refresh was requested.
	coalesce *singleflight.Group
	now      func() time.Time
}

// NewCredentialService returns the token cache. With singleFlight=false
// concurrent callers that find the token expired each refresh it and the
// last write wins.
func NewCredentialService(
	client ports.TwitchClient,
	session ports.SessionRepository,
	creds domain.Credentials,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	singleFlight bool,
) ports.CredentialService {
	return newCredentialService(client, session, creds, metrics, logger, singleFlight, time.Now)
}

func newCredentialService(
	client ports.TwitchClient,
	session ports.SessionRepository,
	creds domain.Credentials,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	singleFlight bool,
	now func() time.Time,
) *credentialService {
	s := &credentialService{
		client:  client,
		session: session,
		creds:   creds,
		metrics: metrics,
		logger:  logger,
		now:     now,
	}
	if singleFlight {
		s.coalesce = &singleflight.Group{}
	}
	return s
}

func (s *credentialService) Configured() bool {
	return s.creds.Configured()
}

func (s *credentialService) ClientID() string {
	return s.creds.ClientID
}

func (s *credentialService) GetAccessToken(ctx context.Context) (domain.AccessToken, error) {
	if !s.creds.Configured() {
		return domain.AccessToken{}, apperrors.NewConfigurationError(domain.MsgNotConfigured)
	}

	if token, ok := s.session.GetToken(); ok && token.ValidAt(s.now()) {
		s.metrics.RecordTokenCacheHit()
		tracing.AddSpanAttributes(ctx, tracing.CacheHitKey.Bool(true))
		return token, nil
	}

	if s.coalesce == nil {
		return s.refresh(ctx)
	}

	v, err, shared := s.coalesce.Do("token", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return domain.AccessToken{}, err
	}
	if shared {
		s.logger.Debugw("joined in-flight token refresh")
	}
	return v.(domain.AccessToken), nil
}

func (s *credentialService) refresh(ctx context.Context) (domain.AccessToken, error) {
	ctx, span := tracing.TraceTwitchOperation(ctx, "refresh_token")
	defer span.End()

	value, err := s.client.ExchangeToken(ctx, s.creds)
	if err == nil && value == "" {
		err = domain.ErrEmptyToken
	}
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		tracing.RecordError(ctx, err)
		s.logger.Errorw("failed to obtain app access token", "error", err)

		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) || errors.Is(err, domain.ErrEmptyToken) {
			return domain.AccessToken{}, apperrors.NewUpstreamAuthError(err, domain.MsgTokenFailed)
		}
		return domain.AccessToken{}, apperrors.NewUpstreamError(err, domain.MsgTokenFailed)
	}

	token := domain.NewAccessToken(value, s.now())
	s.session.SaveToken(token)
	s.metrics.RecordTokenRefresh(true)
	s.logger.Infow("refreshed app access token", "expires_at", token.ExpiresAt)

	return token, nil
}
