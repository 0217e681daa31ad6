package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "success", Result(nil))
	assert.Equal(t, "not_found", Result(fmt.Errorf("service %w", domain.ErrNotFound)))
	assert.Equal(t, "invalid", Result(domain.NewValidationError("name", "is required")))
	assert.Equal(t, "conflict", Result(fmt.Errorf("slug %w", domain.ErrConflict)))
	assert.Equal(t, "error", Result(errors.New("connection reset")))
}

func TestRecordOperation(t *testing.T) {
	counter := DomainOperations.WithLabelValues("service", "delete", "not_found")
	before := testutil.ToFloat64(counter)

	RecordOperation("service", "delete", fmt.Errorf("service %w", domain.ErrNotFound))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

type fakePoolStats struct{}

func (fakePoolStats) AcquiredConns() int32 { return 3 }
func (fakePoolStats) IdleConns() int32     { return 2 }
func (fakePoolStats) TotalConns() int32    { return 5 }
func (fakePoolStats) MaxConns() int32      { return 25 }

func TestRecordPoolStats(t *testing.T) {
	RecordPoolStats(fakePoolStats{})

	assert.Equal(t, 3.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("in_use")))
	assert.Equal(t, 2.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("idle")))
	assert.Equal(t, 5.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("total")))
	assert.Equal(t, 25.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("max")))
}
