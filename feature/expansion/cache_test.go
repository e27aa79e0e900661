package expansion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"collection-engine/core/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Load(ctx context.Context, id string) (map[string]snapshot.ExpansionState, error) {
	args := m.Called(ctx, id)
	toggles, _ := args.Get(0).(map[string]snapshot.ExpansionState)
	return toggles, args.Error(1)
}

func (m *mockRepository) Save(ctx context.Context, id string, toggles map[string]snapshot.ExpansionState) error {
	return m.Called(ctx, id, toggles).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestCachedStore_Load(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	repo.On("Load", mock.Anything, "c1").Return(map[string]snapshot.ExpansionState{"a": snapshot.Collapsed}, nil).Once()

	c := NewCachedStore(repo, time.Minute)
	first, err := c.Load(ctx, "c1")
	require.NoError(t, err)
	second, err := c.Load(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "Load", 1)

	// Callers get their own copy.
	first["b"] = snapshot.Expanded
	third, _ := c.Load(ctx, "c1")
	assert.NotContains(t, third, "b")
}

func TestCachedStore_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	repo.On("Load", mock.Anything, "c1").Return(map[string]snapshot.ExpansionState{}, nil)

	now := time.Unix(1000, 0)
	c := NewCachedStore(repo, time.Minute)
	c.now = func() time.Time { return now }

	_, _ = c.Load(ctx, "c1")
	now = now.Add(30 * time.Second)
	_, _ = c.Load(ctx, "c1")
	repo.AssertNumberOfCalls(t, "Load", 1)

	now = now.Add(31 * time.Second)
	_, _ = c.Load(ctx, "c1")
	repo.AssertNumberOfCalls(t, "Load", 2)
}

func TestCachedStore_ZeroTTL(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	repo.On("Load", mock.Anything, "c1").Return(map[string]snapshot.ExpansionState{}, nil)

	c := NewCachedStore(repo, 0)
	_, _ = c.Load(ctx, "c1")
	_, _ = c.Load(ctx, "c1")
	repo.AssertNumberOfCalls(t, "Load", 2)
}

func TestCachedStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	toggles := map[string]snapshot.ExpansionState{"a": snapshot.Expanded}
	repo.On("Save", mock.Anything, "c1", toggles).Return(nil)
	repo.On("Delete", mock.Anything, "c1").Return(nil)
	repo.On("Load", mock.Anything, "c1").Return(map[string]snapshot.ExpansionState{}, nil)

	c := NewCachedStore(repo, time.Minute)
	require.NoError(t, c.Save(ctx, "c1", toggles))

	got, err := c.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, toggles, got)
	repo.AssertNotCalled(t, "Load", mock.Anything, "c1")

	require.NoError(t, c.Delete(ctx, "c1"))
	got, err = c.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNumberOfCalls(t, "Load", 1)
}

func TestCachedStore_SaveFailureInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	repo.On("Load", mock.Anything, "c1").Return(map[string]snapshot.ExpansionState{}, nil)
	repo.On("Save", mock.Anything, "c1", mock.Anything).Return(errors.New("down"))

	c := NewCachedStore(repo, time.Minute)
	_, _ = c.Load(ctx, "c1")
	assert.Error(t, c.Save(ctx, "c1", map[string]snapshot.ExpansionState{"a": snapshot.Collapsed}))

	_, _ = c.Load(ctx, "c1")
	repo.AssertNumberOfCalls(t, "Load", 2)
}

type slowRepository struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (s *slowRepository) Load(ctx context.Context, id string) (map[string]snapshot.ExpansionState, error) {
	s.calls.Add(1)
	<-s.gate
	return map[string]snapshot.ExpansionState{"a": snapshot.Collapsed}, nil
}

func (s *slowRepository) Save(context.Context, string, map[string]snapshot.ExpansionState) error {
	return nil
}

func (s *slowRepository) Delete(context.Context, string) error {
	return nil
}

func TestCachedStore_Stampede(t *testing.T) {
	repo := &slowRepository{gate: make(chan struct{})}
	c := NewCachedStore(repo, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Load(context.Background(), "c1")
			assert.NoError(t, err)
			assert.Equal(t, snapshot.Collapsed, got["a"])
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
}
