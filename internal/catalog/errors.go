package catalog

import (
	"fmt"

	"github.com/bissquit/statuspage/internal/domain"
)

// Service errors.
var (
	ErrServiceNotFound = fmt.Errorf("service %w", domain.ErrNotFound)
)
