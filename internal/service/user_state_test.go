package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestState(t *testing.T, repo *mockRepository) *UserState {
	t.Helper()
	user := domain.NewUserSnapshot("user-1", "user@example.com")
	return NewUserState(user, catalog.NewGenerated(catalog.DefaultSize), repo, zap.NewNop())
}

func ids(items []domain.CatalogItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestAddToCart_Scenario(t *testing.T) {
	repo := newMockRepository()
	sut := newTestState(t, repo)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, 5))
	user, ok := sut.GetUser()
	require.True(t, ok)
	assert.Equal(t, []int64{5}, ids(user.Cart))

	require.NoError(t, sut.AddToCart(ctx, 5))
	user, _ = sut.GetUser()
	assert.Equal(t, []int64{5}, ids(user.Cart))

	assert.Equal(t, 1, repo.saveCount(), "duplicate add must not rewrite the snapshot")
	assert.Equal(t, []int64{5}, ids(repo.stored("user-1").Cart))
}

func TestAddToCart_IdempotentForAllItems(t *testing.T) {
	repo := newMockRepository()
	sut := newTestState(t, repo)
	ctx := context.Background()

	for id := int64(1); id <= catalog.DefaultSize; id += 37 {
		require.NoError(t, sut.AddToCart(ctx, id))
		require.NoError(t, sut.AddToCart(ctx, id))
	}

	user, _ := sut.GetUser()
	assert.Equal(t, []int64{1, 38, 75, 112, 149, 186, 223, 260, 297}, ids(user.Cart))
}

func TestToggleLike_Scenario(t *testing.T) {
	repo := newMockRepository()
	sut := newTestState(t, repo)
	ctx := context.Background()

	require.NoError(t, sut.ToggleLike(ctx, 7))
	user, _ := sut.GetUser()
	assert.Equal(t, []int64{7}, ids(user.Likes))

	require.NoError(t, sut.ToggleLike(ctx, 7))
	user, _ = sut.GetUser()
	assert.Empty(t, user.Likes)

	assert.Equal(t, 2, repo.saveCount())
	assert.Empty(t, repo.stored("user-1").Likes)
}

func TestToggleLike_InvolutionPreservesOthers(t *testing.T) {
	sut := newTestState(t, newMockRepository())
	ctx := context.Background()
	require.NoError(t, sut.ToggleLike(ctx, 1))
	require.NoError(t, sut.ToggleLike(ctx, 2))

	before, _ := sut.GetUser()
	for _, id := range []int64{1, 3, 300} {
		require.NoError(t, sut.ToggleLike(ctx, id))
		require.NoError(t, sut.ToggleLike(ctx, id))
	}
	after, _ := sut.GetUser()

	assert.ElementsMatch(t, ids(before.Likes), ids(after.Likes))
}

func TestMutations_UnknownItem(t *testing.T) {
	repo := newMockRepository()
	sut := newTestState(t, repo)
	ctx := context.Background()

	assert.ErrorIs(t, sut.AddToCart(ctx, 301), catalog.ErrItemNotFound)
	assert.ErrorIs(t, sut.ToggleLike(ctx, 0), catalog.ErrItemNotFound)
	assert.Equal(t, 0, repo.saveCount())
}

func TestMutations_NoSession(t *testing.T) {
	repo := newMockRepository()
	sut := NewUserState(nil, catalog.NewGenerated(10), repo, zap.NewNop())
	ctx := context.Background()

	_, ok := sut.GetUser()
	assert.False(t, ok)
	assert.ErrorIs(t, sut.AddToCart(ctx, 1), ErrNoSession)
	assert.ErrorIs(t, sut.ToggleLike(ctx, 1), ErrNoSession)
	assert.Equal(t, 0, repo.saveCount())
}

func TestMutations_AfterClearAreInert(t *testing.T) {
	sut := newTestState(t, newMockRepository())
	sut.clear()

	assert.ErrorIs(t, sut.AddToCart(context.Background(), 1), ErrNoSession)
	_, ok := sut.GetUser()
	assert.False(t, ok)
}

func TestMutations_PersistFailureKeepsMemoryState(t *testing.T) {
	repo := newMockRepository()
	repo.setSaveErr(errors.New("storage unavailable"))
	sut := newTestState(t, repo)
	ctx := context.Background()

	err := sut.AddToCart(ctx, 5)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorContains(t, err, "storage unavailable")

	user, _ := sut.GetUser()
	assert.True(t, user.InCart(5))

	repo.setSaveErr(nil)
	require.NoError(t, sut.ToggleLike(ctx, 7))
	stored := repo.stored("user-1")
	assert.True(t, stored.InCart(5), "next save writes the full snapshot")
	assert.True(t, stored.Liked(7))
}

func TestSubscribe_NotifiesEffectiveMutations(t *testing.T) {
	sut := newTestState(t, newMockRepository())
	ctx := context.Background()

	var changes []Change
	unsubscribe := sut.Subscribe(func(c Change) {
		// listeners run outside the state lock
		_, ok := sut.GetUser()
		assert.True(t, ok)
		changes = append(changes, c)
	})

	require.NoError(t, sut.AddToCart(ctx, 5))
	require.NoError(t, sut.AddToCart(ctx, 5))
	require.NoError(t, sut.ToggleLike(ctx, 7))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeCartAdded, changes[0].Kind)
	assert.Equal(t, int64(5), changes[0].ItemID)
	assert.Equal(t, "user-1", changes[0].UserID)
	assert.Equal(t, ChangeLikeToggled, changes[1].Kind)
	assert.True(t, changes[1].Liked)
	assert.True(t, changes[1].Snapshot.Liked(7))

	unsubscribe()
	require.NoError(t, sut.ToggleLike(ctx, 7))
	assert.Len(t, changes, 2)
}

func TestGetUser_ReturnsCopy(t *testing.T) {
	sut := newTestState(t, newMockRepository())
	user, _ := sut.GetUser()
	user.AddToCart(domain.CatalogItem{ID: 1})

	again, _ := sut.GetUser()
	assert.Empty(t, again.Cart)
}

func TestUserState_ConcurrentMutations(t *testing.T) {
	for _, n := range []int{20, 21} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			repo := newMockRepository()
			sut := newTestState(t, repo)
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					assert.NoError(t, sut.AddToCart(ctx, 5))
				}()
				go func() {
					defer wg.Done()
					assert.NoError(t, sut.ToggleLike(ctx, 7))
				}()
			}
			wg.Wait()

			user, ok := sut.GetUser()
			require.True(t, ok)
			assert.Equal(t, []int64{5}, ids(user.Cart))
			if n%2 == 0 {
				assert.Empty(t, user.Likes)
			} else {
				assert.Equal(t, []int64{7}, ids(user.Likes))
			}
			assert.Equal(t, 1+n, repo.saveCount())
			assert.Equal(t, user, repo.stored("user-1"))
		})
	}
}
