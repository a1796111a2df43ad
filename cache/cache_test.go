package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWithoutAddressIsDisabled(t *testing.T) {
	c := New("", "", 0)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestNilClientBehavesLikeEmptyCache(t *testing.T) {
	var c *Client
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	assert.False(t, c.Exists(ctx, "k"))
	c.Delete(ctx, "k")
	c.DeletePrefix(ctx, "k")
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableServerFailsSafe(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	assert.False(t, c.Exists(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}
