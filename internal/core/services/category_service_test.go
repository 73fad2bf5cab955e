package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"multiview/internal/core/domain"
	"multiview/internal/infrastructure/repositories/memory"
	apperrors "multiview/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCategory = "Stream for Humanity"

func newCategoryFixture(t *testing.T, singleFlight bool) (*MockTwitchClient, *countingMetrics, *categoryService) {
	t.Helper()

	client := new(MockTwitchClient)
	client.On("ExchangeToken", mock.Anything, testCreds).Return("tok", nil).Maybe()

	session := memory.NewMemorySessionRepository()
	metrics := &countingMetrics{}
	creds := newCredentialService(client, session, testCreds, metrics, testLogger, false, time.Now)
	svc := NewCategoryService(testCategory, creds, client, session, metrics, testLogger, singleFlight).(*categoryService)
	return client, metrics, svc
}

func TestCategoryService_ResolvesOnceAndCaches(t *testing.T) {
	client, metrics, svc := newCategoryFixture(t, false)
	client.On("SearchCategories", mock.Anything, mock.AnythingOfType("domain.AccessToken"), testCategory).
		Return([]domain.Category{{ID: "509658", Name: testCategory}, {ID: "999", Name: "other"}}, nil).Once()

	for i := 0; i < 3; i++ {
		id, err := svc.GetCategoryID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryID("509658"), id)
	}

	client.AssertNumberOfCalls(t, "SearchCategories", 1)
	client.AssertNumberOfCalls(t, "ExchangeToken", 1)
	assert.Equal(t, 1, metrics.categoryLookup)
	assert.Equal(t, 2, metrics.categoryCached)
}

func TestCategoryService_NotFoundIsNotCached(t *testing.T) {
	client, _, svc := newCategoryFixture(t, false)
	client.On("SearchCategories", mock.Anything, mock.Anything, testCategory).
		Return([]domain.Category{}, nil).Once()
	client.On("SearchCategories", mock.Anything, mock.Anything, testCategory).
		Return([]domain.Category{{ID: "509658"}}, nil).Once()

	_, err := svc.GetCategoryID(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.Equal(t, `Catégorie "Stream for Humanity" non trouvée`, apperrors.PublicMessage(err))

	id, err := svc.GetCategoryID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryID("509658"), id)
	client.AssertNumberOfCalls(t, "SearchCategories", 2)
}

func TestCategoryService_UpstreamFailure(t *testing.T) {
	client, _, svc := newCategoryFixture(t, false)
	client.On("SearchCategories", mock.Anything, mock.Anything, testCategory).
		Return(nil, &domain.StatusError{Endpoint: "games", StatusCode: 500}).Once()

	_, err := svc.GetCategoryID(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUpstream))
	assert.Equal(t, domain.MsgCategoryFailed, apperrors.PublicMessage(err))

	var statusErr *domain.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestCategoryService_TokenErrorPropagatesUnchanged(t *testing.T) {
	client := new(MockTwitchClient)
	session := memory.NewMemorySessionRepository()
	creds := newCredentialService(client, session, domain.Credentials{}, &countingMetrics{}, testLogger, false, time.Now)
	svc := NewCategoryService(testCategory, creds, client, session, &countingMetrics{}, testLogger, false)

	_, err := svc.GetCategoryID(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfiguration))
	client.AssertNotCalled(t, "SearchCategories", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_SingleFlight(t *testing.T) {
	client, _, svc := newCategoryFixture(t, true)
	client.On("SearchCategories", mock.Anything, mock.Anything, testCategory).
		After(30*time.Millisecond).
		Return([]domain.Category{{ID: "509658"}}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.GetCategoryID(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, domain.CategoryID("509658"), id)
		}()
	}
	wg.Wait()

	assert.Equal(t, testCategory, svc.CategoryName())
	client.AssertNumberOfCalls(t, "SearchCategories", 1)
}
