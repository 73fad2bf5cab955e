package ports

import "multiview/internal/core/domain"

// SessionRepository holds the process-wide token and category id. Writes
// overwrite; nothing is ever evicted.
type SessionRepository interface {
	GetToken() (domain.AccessToken, bool)
	SaveToken(token domain.AccessToken)
	GetCategoryID() (domain.CategoryID, bool)
	SaveCategoryID(id domain.CategoryID)
}
