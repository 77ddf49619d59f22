package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consensus-engine/internal/model"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestMemory_SetAndGet(t *testing.T) {
	c := NewMemory()
	ec := &model.EntityConsensus{EntityID: "acme"}

	c.Set("acme", ec, 15*time.Minute, now)

	got, ok := c.Get("acme", now.Add(14*time.Minute))
	require.True(t, ok)
	assert.Same(t, ec, got)
}

func TestMemory_Miss(t *testing.T) {
	c := NewMemory()

	_, ok := c.Get("nonexistent", now)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory()
	c.Set("acme", &model.EntityConsensus{EntityID: "acme"}, 15*time.Minute, now)

	_, ok := c.Get("acme", now.Add(16*time.Minute))
	assert.False(t, ok)
}

func TestMemory_Expire(t *testing.T) {
	c := NewMemory()
	c.Set("acme", &model.EntityConsensus{EntityID: "acme"}, time.Hour, now)

	c.Expire("acme")

	_, ok := c.Get("acme", now)
	assert.False(t, ok)
}

func TestMemory_LastWriteWins(t *testing.T) {
	c := NewMemory()
	first := &model.EntityConsensus{EntityID: "acme", OverallConfidence: 10}
	second := &model.EntityConsensus{EntityID: "acme", OverallConfidence: 90}

	c.Set("acme", first, time.Hour, now)
	c.Set("acme", second, time.Hour, now)

	got, ok := c.Get("acme", now)
	require.True(t, ok)
	assert.Same(t, second, got)
}
