package rediskv

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("KASIRINAJA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set KASIRINAJA_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	namespace := fmt.Sprintf("it:%d:", time.Now().UnixNano())
	s := New(addr, "", 0, namespace)
	require.NoError(t, s.Ping(ctx))
	t.Cleanup(func() {
		keys, _ := s.Keys(ctx, "")
		for _, key := range keys {
			_ = s.Delete(ctx, key)
		}
		_ = s.Close()
	})

	require.NoError(t, s.Set(ctx, "auto_backup_2", []byte(`{}`)))
	require.NoError(t, s.Set(ctx, "auto_backup_1", []byte(`{}`)))
	require.NoError(t, s.Set(ctx, "products", []byte(`[]`)))

	keys, err := s.Keys(ctx, "auto_backup_")
	require.NoError(t, err)
	assert.Equal(t, []string{"auto_backup_1", "auto_backup_2"}, keys)

	val, ok, err := s.Get(ctx, "products")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(val))

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
