package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstepanenko/chainvault/internal/config"
)

func TestOpCtxAppliesStoreTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreTimeout = 3 * time.Second
	a := &app{cfg: cfg}

	before := time.Now()
	ctx, cancel := a.opCtx(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "operation context must carry a deadline")
	assert.WithinDuration(t, before.Add(cfg.StoreTimeout), deadline, time.Second)
}

func TestOpCtxInheritsParentCancellation(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreTimeout = time.Minute
	a := &app{cfg: cfg}

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := a.opCtx(parent)
	defer cancel()

	cancelParent()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSplitUsers(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, splitUsers("alice, bob"))
	assert.Empty(t, splitUsers("  ,  "))
	assert.Empty(t, splitUsers(""))
}
