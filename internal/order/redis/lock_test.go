package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediswrap "ms-ordering/internal/order/redis"
)

func setupLock(t *testing.T) (*rediswrap.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return rediswrap.NewRedis(client, 5*time.Second), mr
}

func TestLockOrder(t *testing.T) {
	lock, _ := setupLock(t)

	ok, err := lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquisition while held must fail
	ok, err = lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	assert.False(t, ok)

	// A different order is unaffected
	ok, err = lock.LockOrder("VPBBBBB")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockOrder(t *testing.T) {
	lock, _ := setupLock(t)

	ok, err := lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.UnlockOrder("VPAAAAA"))

	ok, err = lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	assert.True(t, ok, "lock must be re-acquirable after release")
}

func TestUnlockWithoutLockIsNotAnError(t *testing.T) {
	lock, _ := setupLock(t)

	assert.NoError(t, lock.UnlockOrder("VPNEVER"))
}

func TestLockExpires(t *testing.T) {
	lock, mr := setupLock(t)

	ok, err := lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = lock.LockOrder("VPAAAAA")
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must be re-acquirable")
}
