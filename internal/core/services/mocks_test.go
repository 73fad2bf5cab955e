package services

import (
	"context"
	"sync"
	"time"

	"multiview/internal/core/domain"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockTwitchClient struct {
	mock.Mock
}

func (m *MockTwitchClient) ExchangeToken(ctx context.Context, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *MockTwitchClient) SearchCategories(ctx context.Context, token domain.AccessToken, name string) ([]domain.Category, error) {
	args := m.Called(ctx, token, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockTwitchClient) GetStreams(ctx context.Context, token domain.AccessToken, categoryID domain.CategoryID, first int) ([]domain.StreamRecord, error) {
	args := m.Called(ctx, token, categoryID, first)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// copy so the service may sort without touching the fixture
	src := args.Get(0).([]domain.StreamRecord)
	out := make([]domain.StreamRecord, len(src))
	copy(out, src)
	return out, args.Error(1)
}

type countingMetrics struct {
	mu             sync.Mutex
	cacheHits      int
	refreshOK      int
	refreshFailed  int
	categoryCached int
	categoryLookup int
	listed         int
}

func (m *countingMetrics) RecordTokenCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *countingMetrics) RecordTokenRefresh(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.refreshOK++
	} else {
		m.refreshFailed++
	}
}

func (m *countingMetrics) RecordCategoryLookup(cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached {
		m.categoryCached++
	} else {
		m.categoryLookup++
	}
}

func (m *countingMetrics) RecordStreamsListed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = count
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	testCreds  = domain.Credentials{ClientID: "client-id", ClientSecret: "client-secret"}
	testLogger = zap.NewNop().Sugar()
)
