package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmonitor/healthmonitor/internal/user"
)

func seed(t *testing.T, repo *user.InMemoryRepository, active, inactive int) {
	t.Helper()
	ctx := context.Background()
	n := 0
	add := func(isActive bool) {
		n++
		err := repo.Create(ctx, &user.User{
			Username:   "user" + string(rune('a'+n)),
			IsActive:   isActive,
			DateJoined: time.Now(),
		})
		require.NoError(t, err)
	}
	for i := 0; i < active; i++ {
		add(true)
	}
	for i := 0; i < inactive; i++ {
		add(false)
	}
}

func TestService_Counts(t *testing.T) {
	repo := user.NewInMemoryRepository()
	seed(t, repo, 3, 2)

	counts, err := user.NewService(repo).Counts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), counts.Total)
	assert.Equal(t, int64(3), counts.Active)
}

func TestService_CountsEmpty(t *testing.T) {
	counts, err := user.NewService(user.NewInMemoryRepository()).Counts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, user.Counts{}, counts)
}

func TestService_CountsActiveNeverExceedsTotal(t *testing.T) {
	for _, fixture := range [][2]int{{0, 0}, {1, 0}, {0, 4}, {7, 3}, {10, 10}} {
		repo := user.NewInMemoryRepository()
		seed(t, repo, fixture[0], fixture[1])

		counts, err := user.NewService(repo).Counts(context.Background())
		require.NoError(t, err)
		assert.LessOrEqual(t, counts.Active, counts.Total)
	}
}

type failingRepo struct {
	user.Repository
	err error
}

func (r failingRepo) Count(context.Context) (int64, error) { return 0, r.err }

func TestService_CountsPropagatesError(t *testing.T) {
	boom := errors.New("relation \"users\" does not exist")

	_, err := user.NewService(failingRepo{err: boom}).Counts(context.Background())

	require.ErrorIs(t, err, boom)
}

func TestInMemoryRepository_Create(t *testing.T) {
	repo := user.NewInMemoryRepository()
	ctx := context.Background()

	u := &user.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	// The repository keeps its own copy.
	u.IsActive = false
	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	require.ErrorIs(t, repo.Create(ctx, &user.User{Username: "alice"}), user.ErrUserExists)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

var _ user.Repository = (*user.PostgresRepository)(nil)
