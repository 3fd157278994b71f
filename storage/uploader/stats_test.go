package uploader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	stats := &Stats{}

	assert.Equal(t, time.Duration(0), stats.Average())
	assert.Equal(t, int64(0), stats.ChunkCount())

	stats.Update(2 * time.Second)
	stats.Update(4 * time.Second)

	assert.Equal(t, int64(2), stats.ChunkCount())
	assert.Equal(t, 3*time.Second, stats.Average())
	assert.Equal(t, 6*time.Second, stats.TotalDuration())
}
