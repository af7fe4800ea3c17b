package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/database"
)

func TestToggleTwiceRestoresMembership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	photo, err := env.photos.Create(ctx, owner, "", pngSource(t, "p.png", 64, 64))
	require.NoError(t, err)

	before, err := env.likes.LikedBy(ctx, photo.ID, bob)
	require.NoError(t, err)
	require.False(t, before)

	liked, err := env.likes.Toggle(ctx, photo.ID, bob)
	require.NoError(t, err)
	assert.True(t, liked)

	after, err := env.likes.LikedBy(ctx, photo.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, !before, after)

	liked, err = env.likes.Toggle(ctx, photo.ID, bob)
	require.NoError(t, err)
	assert.False(t, liked)

	after, err = env.likes.LikedBy(ctx, photo.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	n, err := env.likes.Count(ctx, photo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleRejectsMissingPhotoAndAnonymous(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.user(t, "bob")

	_, err := env.likes.Toggle(ctx, "missing", bob)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = env.likes.Toggle(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// rendezvousLikes makes every caller observe membership before any of them
// writes, forcing the check-then-act race.
type rendezvousLikes struct {
	database.LikeStore
	wg *sync.WaitGroup
}

func (r rendezvousLikes) LikedBy(ctx context.Context, photoID, userID string) (bool, error) {
	liked, err := r.LikeStore.LikedBy(ctx, photoID, userID)
	r.wg.Done()
	r.wg.Wait()
	return liked, err
}

func TestConcurrentTogglesLeaveOneRow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	photo, err := env.photos.Create(ctx, owner, "", pngSource(t, "p.png", 32, 32))
	require.NoError(t, err)

	var barrier sync.WaitGroup
	barrier.Add(2)
	svc := NewLikeService(env.store, rendezvousLikes{LikeStore: env.store, wg: &barrier})

	var done sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			results[i], errs[i] = svc.Toggle(ctx, photo.ID, bob)
		}(i)
	}
	done.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.True(t, results[i])
	}

	n, err := env.likes.Count(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConcurrentUnlikesAreNoOps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	photo, err := env.photos.Create(ctx, owner, "", pngSource(t, "p.png", 32, 32))
	require.NoError(t, err)
	_, err = env.likes.Toggle(ctx, photo.ID, bob)
	require.NoError(t, err)

	var barrier sync.WaitGroup
	barrier.Add(2)
	svc := NewLikeService(env.store, rendezvousLikes{LikeStore: env.store, wg: &barrier})

	var done sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			_, errs[i] = svc.Toggle(ctx, photo.ID, bob)
		}(i)
	}
	done.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	liked, err := env.likes.LikedBy(ctx, photo.ID, bob)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestManyUsersLikeIndependently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	photo, err := env.photos.Create(ctx, owner, "", pngSource(t, "p.png", 32, 32))
	require.NoError(t, err)

	users := []string{env.user(t, "a"), env.user(t, "b"), env.user(t, "c")}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := env.likes.Toggle(ctx, photo.ID, u)
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	n, err := env.likes.Count(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(users)), n)
}
