package riotid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"Player#NA1": true,
		"a_b#1234":   true,
		"no-tag":     false,
		"#tagonly":   false,
		"name#":      false,
		"":           false,
	}
	for id, want := range cases {
		assert.Equal(t, want, Valid(id), id)
	}
}

func TestSetPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemory()

	c, err := Load(ctx, blob, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "u1", " Player#NA1 "))

	err = c.Set(ctx, "u2", "nope")
	require.ErrorIs(t, err, ErrInvalidFormat)

	reloaded, err := Load(ctx, blob, zap.NewNop())
	require.NoError(t, err)
	id, ok := reloaded.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Player#NA1", id)
	_, ok = reloaded.Get("u2")
	assert.False(t, ok)
}

func TestSetKeepsValueOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemory()
	c, err := Load(ctx, blob, zap.NewNop())
	require.NoError(t, err)

	blob.FailWrites = errors.New("disk full")
	err = c.Set(ctx, "u1", "Player#NA1")
	require.ErrorIs(t, err, storage.ErrPersistence)

	id, ok := c.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Player#NA1", id)
}

func TestDisplay(t *testing.T) {
	c, err := Load(context.Background(), storage.NewMemory(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "u1", "Player#NA1"))

	mention := func(a engine.Actor) string { return "<@" + string(a) + ">" }
	assert.Equal(t, "<@u1> (`Player#NA1`)", c.Display("u1", mention))
	assert.Equal(t, "<@u2>", c.Display("u2", mention))
}
