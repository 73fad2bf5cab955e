package memory

import (
	"sync"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"
)

// MemorySessionRepository keeps the shared token and category id for the
// lifetime of the process. The lock only protects the fields themselves;
// callers never hold it across a network call.
type MemorySessionRepository struct {
	mu         sync.RWMutex
	token      domain.AccessToken
	hasToken   bool
	categoryID domain.CategoryID
}

func NewMemorySessionRepository() ports.SessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) GetToken() (domain.AccessToken, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.token, r.hasToken
}

func (r *MemorySessionRepository) SaveToken(token domain.AccessToken) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = token
	r.hasToken = true
}

func (r *MemorySessionRepository) GetCategoryID() (domain.CategoryID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.categoryID, r.categoryID != ""
}

func (r *MemorySessionRepository) SaveCategoryID(id domain.CategoryID) {
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// first resolved id wins; it is never recomputed
	if r.categoryID != "" {
		return
	}
	r.categoryID = id
}
