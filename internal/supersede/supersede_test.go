package supersede

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewerBeginSupersedesOlder(t *testing.T) {
	g := NewGroup()

	firstCtx, first, doneFirst := g.Begin(context.Background(), "u1:geocode")
	assert.True(t, g.Current(first))

	secondCtx, second, doneSecond := g.Begin(context.Background(), "u1:geocode")
	defer doneSecond()

	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	assert.NoError(t, secondCtx.Err())

	doneFirst()
	assert.True(t, g.Current(second), "finishing a stale token must not clear the newer one")
}

func TestKeysAreIndependent(t *testing.T) {
	g := NewGroup()

	_, a, doneA := g.Begin(context.Background(), "u1:verify")
	defer doneA()
	_, b, doneB := g.Begin(context.Background(), "u2:verify")
	defer doneB()

	assert.True(t, g.Current(a))
	assert.True(t, g.Current(b))
}

func TestFinishedTokenIsNotCurrent(t *testing.T) {
	g := NewGroup()

	_, token, done := g.Begin(context.Background(), "k")
	done()

	assert.False(t, g.Current(token))

	_, next, doneNext := g.Begin(context.Background(), "k")
	defer doneNext()
	assert.True(t, g.Current(next))
	assert.False(t, g.Current(token))
}
