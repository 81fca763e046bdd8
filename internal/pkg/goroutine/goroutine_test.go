package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_RunsAndCollectsErrors(t *testing.T) {
	g := NewManager(4)
	var ran atomic.Int32
	boom := errors.New("boom")

	for i := range 3 {
		ok := g.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			if i == 0 {
				return boom
			}
			return nil
		})
		assert.True(t, ok)
	}

	err := g.Wait()
	assert.Equal(t, int32(3), ran.Load())
	assert.ErrorIs(t, err, boom)
}

func TestManager_RejectsAfterWait(t *testing.T) {
	g := NewManager(1)
	assert.NoError(t, g.Wait())

	assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))
}

func TestManager_AtCapacity(t *testing.T) {
	g := NewManager(1)
	release := make(chan struct{})

	assert.True(t, g.Go(context.Background(), func(context.Context) error { <-release; return nil }))
	assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	assert.NoError(t, g.Wait())
}

func TestManager_RecoversPanic(t *testing.T) {
	g := NewManager(1)
	g.Go(context.Background(), func(context.Context) error { panic("boom") })
	assert.NoError(t, g.Wait())
}

func TestManager_Nil(t *testing.T) {
	var g *Manager
	assert.False(t, g.Go(context.Background(), nil))
	assert.NoError(t, g.Wait())
}
