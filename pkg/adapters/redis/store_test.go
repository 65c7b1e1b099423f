package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/onboard/pkg/adapters/redis"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.New(client))
}

func TestRedisLedger_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunOutcomeLedgerContract(t, redis.NewLedger(client, redis.DefaultPrefix))
}

func TestRedisLedger_Hash(t *testing.T) {
	mr, client := newClient(t)
	ledger := redis.NewLedger(client, "test:")

	key := domain.SubmissionKey("01113570442", domain.DefaultProductID)
	require.NoError(t, ledger.Record(context.Background(), key, domain.SubmissionAccepted))
	assert.Equal(t, string(domain.SubmissionAccepted), mr.HGet("test:outcomes", key))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	// Create store with 1s TTL
	store := redis.New(client, redis.WithTTL(1*time.Second), redis.WithPrefix("test:session:"))
	ctx := context.Background()
	sessionID := "session-ttl"

	// 1. Save
	err := store.Save(ctx, sessionID, domain.NewHistory(sessionID, domain.StepRetrieve))
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:session:session-ttl"))

	// 2. Verify List (immediately)
	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// 5. Verify List (lazily cleaned up).
	// The index score is computed from time.Now(), so wall time must pass as well.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
