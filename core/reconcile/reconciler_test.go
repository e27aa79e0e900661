package reconcile

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"collection-engine/core/diff"
	"collection-engine/core/errs"
	"collection-engine/core/identity"
	"collection-engine/core/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockRenderer is a renderer without optional capabilities.
type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) InsertSection(index int, key string) { m.Called(index, key) }
func (m *mockRenderer) RemoveSection(index int)             { m.Called(index) }
func (m *mockRenderer) MoveSection(from, to int)            { m.Called(from, to) }
func (m *mockRenderer) InsertItem(section, item int, key string) {
	m.Called(section, item, key)
}
func (m *mockRenderer) RemoveItem(section, item int) { m.Called(section, item) }
func (m *mockRenderer) MoveItem(fromSection, fromItem, toSection, toItem int) {
	m.Called(fromSection, fromItem, toSection, toItem)
}
func (m *mockRenderer) SetExpansion(section int, expanded bool) { m.Called(section, expanded) }

type section struct {
	key   string
	items []string
	exp   snapshot.ExpansionState
}

func build(t *testing.T, prev *snapshot.Snapshot[string, string], sections ...section) *snapshot.Snapshot[string, string] {
	t.Helper()
	inputs := make([]snapshot.Input[string, string], len(sections))
	for i, s := range sections {
		items := make([]identity.Item[string, string], len(s.items))
		for j, k := range s.items {
			items[j] = identity.Item[string, string]{Key: k, Value: "v" + k}
		}
		inputs[i] = snapshot.Input[string, string]{Key: s.key, Items: items, Expansion: s.exp}
	}
	s, err := snapshot.Build(inputs, nil, prev)
	require.NoError(t, err)
	return s
}

// TestReconcile_RoundTrip tests that a memory renderer always ends up showing
// the snapshot that was reconciled last.
func TestReconcile_RoundTrip(t *testing.T) {
	m := NewMemoryRenderer[string]()
	r := New[string, string](m, Options{})

	states := [][]section{
		{{key: "A", items: []string{"a1", "a2"}}, {key: "B", items: []string{"b1"}}},
		{{key: "B", items: []string{"a2", "b1"}}, {key: "C", items: []string{"c1"}, exp: snapshot.Collapsed}},
		{{key: "C", items: []string{"c1", "a2"}}, {key: "A", items: []string{"b1"}, exp: snapshot.NotExpandable}},
		{},
	}

	for i, st := range states {
		next := build(t, r.Current(), st...)
		_, err := r.Reconcile(next)
		require.NoError(t, err, "state %d", i)
		assert.NoError(t, Verify(m, next), "state %d", i)
		assert.Same(t, next, r.Current())
	}
	assert.Equal(t, len(states), r.Applied())
	assert.Equal(t, len(states), m.Batches(), "every script is one batch")
}

// TestReconcile_RandomRoundTrip tests round-trip correctness against the
// memory renderer over random snapshots.
func TestReconcile_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := NewMemoryRenderer[string]()
	r := New[string, string](m, Options{})

	for n := 0; n < 200; n++ {
		count := 1 + rng.Intn(5)
		sections := make([]section, count)
		for i := range sections {
			sections[i] = section{
				key: fmt.Sprintf("S%d", rng.Intn(8)*10+i),
				exp: []snapshot.ExpansionState{snapshot.Expanded, snapshot.Collapsed, snapshot.NotExpandable}[rng.Intn(3)],
			}
		}
		for _, k := range rng.Perm(30)[:rng.Intn(30)] {
			i := rng.Intn(count)
			sections[i].items = append(sections[i].items, fmt.Sprintf("i%d", k))
		}
		// Section keys may collide across indices; keep the first.
		seen := map[string]bool{}
		unique := sections[:0]
		for _, s := range sections {
			if !seen[s.key] {
				seen[s.key] = true
				unique = append(unique, s)
			}
		}

		next := build(t, nil, unique...)
		_, err := r.Reconcile(next)
		require.NoError(t, err)
		require.NoError(t, Verify(m, next), "iteration %d", n)
	}
}

// TestApply_RejectsInvalidScript tests that a malformed script reaches neither
// the renderer nor the current snapshot.
func TestApply_RejectsInvalidScript(t *testing.T) {
	rend := new(mockRenderer)
	r := New[string, string](rend, Options{})

	next := build(t, nil, section{key: "A", items: []string{"a1"}})
	err := r.Apply(diff.Script[string]{Ops: []diff.Op[string]{
		{Kind: diff.InsertSection, Key: "A", Section: 0},
		{Kind: diff.InsertItem, Key: "a1", Section: 0, Item: 3},
	}}, next)

	assert.True(t, errors.Is(err, errs.ErrIndexOutOfRange))
	assert.Nil(t, r.Current())
	rend.AssertNotCalled(t, "InsertSection", mock.Anything, mock.Anything)
	rend.AssertNotCalled(t, "InsertItem", mock.Anything, mock.Anything, mock.Anything)
}

// TestApply_RejectsMismatchedSnapshot tests that a valid script that does not
// produce the given snapshot is refused.
func TestApply_RejectsMismatchedSnapshot(t *testing.T) {
	rend := new(mockRenderer)
	r := New[string, string](rend, Options{})

	next := build(t, nil, section{key: "A", items: []string{"a1", "a2"}})
	err := r.Apply(diff.Script[string]{Ops: []diff.Op[string]{
		{Kind: diff.InsertSection, Key: "A", Section: 0},
	}}, next)

	assert.True(t, errors.Is(err, errs.ErrInvalidState))
	assert.Equal(t, errs.KindMisuse, errs.KindOf(err))
	rend.AssertExpectations(t)
}

// TestApply_OrderWithoutBatching tests delivery to a renderer that has no
// batch support.
func TestApply_OrderWithoutBatching(t *testing.T) {
	rend := new(mockRenderer)
	r := New[string, string](rend, Options{})

	var order []string
	rend.On("InsertSection", 0, "A").Run(func(mock.Arguments) { order = append(order, "section") }).Once()
	rend.On("InsertItem", 0, 0, "a1").Run(func(mock.Arguments) { order = append(order, "a1") }).Once()
	rend.On("InsertItem", 0, 1, "a2").Run(func(mock.Arguments) { order = append(order, "a2") }).Once()
	rend.On("SetExpansion", 0, true).Run(func(mock.Arguments) { order = append(order, "expansion") }).Once()

	script, err := r.Reconcile(build(t, nil, section{key: "A", items: []string{"a1", "a2"}}))
	require.NoError(t, err)

	rend.AssertExpectations(t)
	assert.Equal(t, []string{"section", "a1", "a2", "expansion"}, order)
	assert.Equal(t, 4, script.Summary().Total())
}

// TestReconcile_RemovesExpansionControl tests that a section turning
// NotExpandable loses its collapse control.
func TestReconcile_RemovesExpansionControl(t *testing.T) {
	m := NewMemoryRenderer[string]()
	r := New[string, string](m, Options{})

	first := build(t, nil, section{key: "A", items: []string{"a1"}}, section{key: "B", items: []string{"b1"}, exp: snapshot.Collapsed})
	_, err := r.Reconcile(first)
	require.NoError(t, err)
	_, control := m.Expansion(0)
	require.True(t, control)

	m.ResetCalls()
	next := build(t, first, section{key: "A", items: []string{"a1"}, exp: snapshot.NotExpandable}, section{key: "B", items: []string{"b1"}})
	script, err := r.Reconcile(next)
	require.NoError(t, err)
	assert.Equal(t, []diff.ExpansionChange[string]{{Section: 0, Key: "A", Removed: true}}, script.Expansion)

	_, control = m.Expansion(0)
	assert.False(t, control)
	assert.Contains(t, m.Calls(), Call{Name: "remove_expansion", Args: []int{0}})
	assert.NoError(t, Verify(m, next))
}

// TestReconcile_RemovedControlWithoutRemover tests that a renderer without
// ControlRemover never receives SetExpansion for a removed control.
func TestReconcile_RemovedControlWithoutRemover(t *testing.T) {
	rend := new(mockRenderer)
	r := New[string, string](rend, Options{})

	rend.On("InsertSection", 0, "A").Once()
	rend.On("SetExpansion", 0, true).Once()
	first := build(t, nil, section{key: "A"})
	_, err := r.Reconcile(first)
	require.NoError(t, err)

	script, err := r.Reconcile(build(t, first, section{key: "A", exp: snapshot.NotExpandable}))
	require.NoError(t, err)
	assert.Len(t, script.Expansion, 1)

	rend.AssertExpectations(t)
	rend.AssertNumberOfCalls(t, "SetExpansion", 1)
}

// TestVerify_StaleControl tests that Verify rejects a control left on a
// NotExpandable section.
func TestVerify_StaleControl(t *testing.T) {
	m := NewMemoryRenderer[string]()
	m.InsertSection(0, "A")
	m.SetExpansion(0, true)

	s := build(t, nil, section{key: "A", exp: snapshot.NotExpandable})
	assert.ErrorIs(t, Verify(m, s), errs.ErrInvalidState)
}

// TestReconcile_DuplicateKeys tests that a configuration error leaves the
// reconciler untouched.
func TestReconcile_DuplicateKeys(t *testing.T) {
	m := NewMemoryRenderer[string]()
	r := New[string, string](m, Options{})

	first := build(t, nil, section{key: "A", items: []string{"a1"}})
	_, err := r.Reconcile(first)
	require.NoError(t, err)

	_, err = snapshot.Build([]snapshot.Input[string, string]{
		{Key: "A", Items: []identity.Item[string, string]{{Key: "x"}, {Key: "x"}}},
	}, nil, nil)
	assert.True(t, errors.Is(err, errs.ErrDuplicateKey))
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
	assert.Same(t, first, r.Current())
}

// TestScroll tests the optional scroll and refresh capabilities.
func TestScroll(t *testing.T) {
	m := NewMemoryRenderer[string]()
	r := New[string, string](m, Options{})
	_, err := r.Reconcile(build(t, nil,
		section{key: "A", items: []string{"a1", "a2"}},
		section{key: "B", items: []string{"b1"}, exp: snapshot.Collapsed},
	))
	require.NoError(t, err)

	ok, err := r.ScrollToItem("a2", ScrollCenter)
	require.NoError(t, err)
	assert.True(t, ok)
	call, found := m.ScrolledTo()
	require.True(t, found)
	assert.Equal(t, []int{0, 1, int(ScrollCenter)}, call.Args)

	_, err = r.ScrollToItem("b1", ScrollTop)
	assert.True(t, errors.Is(err, errs.ErrUnknownKey), "hidden items cannot be scrolled to")

	assert.True(t, r.ScrollToOffset(Point{Y: 120}))
	assert.Equal(t, Point{Y: 120}, m.Offset())

	r.SetRefreshing(true)
	assert.True(t, m.Refreshing())

	plain := New[string, string](new(mockRenderer), Options{})
	assert.False(t, plain.ScrollToOffset(Point{}))
}

func TestParseScrollPosition(t *testing.T) {
	for _, p := range []ScrollPosition{ScrollNearest, ScrollTop, ScrollCenter, ScrollBottom} {
		got, err := ParseScrollPosition(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseScrollPosition("sideways")
	assert.Error(t, err)
}
