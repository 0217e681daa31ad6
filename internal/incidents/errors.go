package incidents

import (
	"fmt"

	"github.com/bissquit/statuspage/internal/domain"
)

// Incident errors.
var (
	ErrIncidentNotFound = fmt.Errorf("incident %w", domain.ErrNotFound)
)
