package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_Advance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	c.Advance(10 * time.Minute)

	assert.Equal(t, start.Add(10*time.Minute), c.Now())
}

func TestTimeClocker_UTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}
