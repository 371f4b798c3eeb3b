package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(0, 0)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", Entry{Text: "hello", Method: "pdf-text", Pages: 2}))
	e, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Entry{Text: "hello", Method: "pdf-text", Pages: 2}, e)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Entry{Text: "x"}))
	now = now.Add(2 * time.Minute)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetSweepsExpiredKeys(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", Entry{Text: "a"}))
	require.NoError(t, m.Set(ctx, "b", Entry{Text: "b"}))
	now = now.Add(2 * time.Minute)

	// a and b are never read again; writing c must still drop them
	require.NoError(t, m.Set(ctx, "c", Entry{Text: "c"}))
	assert.Equal(t, 1, m.Len())
	_, ok, err := m.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_MaxEntriesEvictsOldest(t *testing.T) {
	m := NewMemory(0, 2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", Entry{Text: "a"}))
	require.NoError(t, m.Set(ctx, "b", Entry{Text: "b"}))
	require.NoError(t, m.Set(ctx, "b", Entry{Text: "b2"}))
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Set(ctx, "c", Entry{Text: "c"}))
	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "oldest entry evicted")
	e, ok, _ := m.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, "b2", e.Text)
	_, ok, _ = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestKey_ContentAndKind(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0o644))

	ka, err := Key(a, "text")
	require.NoError(t, err)
	kb, err := Key(b, "text")
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	kc, err := Key(a, "pdf")
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc)

	_, err = Key(filepath.Join(dir, "missing"), "text")
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedis(common.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Hour}, nil)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "pdf:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "pdf:abc", Entry{Text: "Page A", Method: "pdf-ocr", Pages: 1}))
	assert.True(t, mr.Exists("rfp:extract:pdf:abc"))

	e, ok, err := c.Get(ctx, "pdf:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Page A", e.Text)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "pdf:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(common.CacheConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New(common.CacheConfig{Driver: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New(common.CacheConfig{Driver: "memcached"}, nil)
	assert.Error(t, err)
}
