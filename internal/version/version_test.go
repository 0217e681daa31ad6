package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := GitCommit
	GitCommit = "abc123"
	t.Cleanup(func() { GitCommit = old })

	assert.Contains(t, String(), "commit abc123")
	assert.Contains(t, String(), Version)
}
