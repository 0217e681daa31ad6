package organizations

import (
	"fmt"

	"github.com/bissquit/statuspage/internal/domain"
)

// Organization errors.
var (
	ErrOrganizationNotFound = fmt.Errorf("organization %w", domain.ErrNotFound)
	ErrSlugExists           = fmt.Errorf("organization slug %w", domain.ErrConflict)
	ErrExternalRefExists    = fmt.Errorf("organization external ref %w", domain.ErrConflict)
)
