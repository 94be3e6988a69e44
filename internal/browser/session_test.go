package browser

import (
	"testing"

	"autoedu/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRunIDStampsEachSession(t *testing.T) {
	a := New(config.BrowserConfig{}, 0, nil)
	b := New(config.BrowserConfig{}, 0, nil)

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID(), "each run gets its own id")
}
