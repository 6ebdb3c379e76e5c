package v1

import (
	"github.com/gosuda/folio/internal/domain"
)

// ProfileStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type ProfileStore interface {
	Profiles() domain.ProfileRepository
}
