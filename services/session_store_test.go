package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"salonica-backend/testutil"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_ConcurrentRotateSingleWinner(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	store := NewSessionStore(rdb, testRefreshExpiry)
	ctx := context.Background()
	userID := uuid.New()

	sessionID, refresh, err := store.Create(ctx, userID)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var winners, rejected atomic.Int32
	issued := make(chan string, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			gotUser, gotSession, next, err := store.Rotate(ctx, refresh)
			if err != nil {
				if utils.KindOf(err) == utils.KindUnauthenticated {
					rejected.Add(1)
				}
				return
			}
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, sessionID, gotSession)
			winners.Add(1)
			issued <- next
		}()
	}
	close(start)
	wg.Wait()
	close(issued)

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())

	next := <-issued
	_, _, _, err = store.Rotate(ctx, next)
	require.NoError(t, err)
}

func TestSessionStore_RevokeAll(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	store := NewSessionStore(rdb, testRefreshExpiry)
	ctx := context.Background()
	userID := uuid.New()

	first, _, err := store.Create(ctx, userID)
	require.NoError(t, err)
	second, refresh, err := store.Create(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, store.RevokeAll(ctx, userID))

	requireKind(t, store.Validate(ctx, first, userID), utils.KindUnauthenticated)
	requireKind(t, store.Validate(ctx, second, userID), utils.KindUnauthenticated)
	_, _, _, err = store.Rotate(ctx, refresh)
	requireKind(t, err, utils.KindUnauthenticated)
}
