package terminal

import (
	"context"
	"testing"
	"time"

	"collection-engine/core/interaction"
	"collection-engine/feature/document"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, src string, opts Options) (*Model, chan tea.Msg) {
	t.Helper()
	doc, err := document.Parse([]byte(src))
	require.NoError(t, err)
	m, err := New(doc, opts)
	require.NoError(t, err)

	msgs := make(chan tea.Msg, 16)
	m.SetSend(func(msg tea.Msg) { msgs <- msg })
	return m, msgs
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(key(k))
	}
}

func pump(t *testing.T, m *Model, msgs chan tea.Msg, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case msg := <-msgs:
			m.Update(msg)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}
}

func cursorKey(m *Model) string {
	k, _ := m.cursorKey()
	return k
}

func TestModel_Rows(t *testing.T) {
	m, _ := newModel(t, "name: inbox\nsections: [{key: a, items: [x, y]}, {key: b, items: [z]}]", Options{})

	require.Len(t, m.rows, 5)
	assert.True(t, m.rows[0].header())
	assert.Equal(t, "a", cursorKey(m))

	view := m.View()
	assert.Contains(t, view, "inbox")
	assert.Contains(t, view, "a (2)")
	assert.Contains(t, view, "z")
}

func TestModel_DragWithinAndAcrossSections(t *testing.T) {
	m, msgs := newModel(t, "sections: [{key: a, items: [x, y]}, {key: b, items: [z]}]", Options{PageSize: 3})

	press(m, "down", "J")
	assert.Equal(t, [][]string{{"y", "x"}, {"z"}}, m.Screen().Items())
	assert.Equal(t, "x", cursorKey(m))
	assert.Equal(t, "moved x to 0/1", m.status)

	// Past the end of a section the item lands after the first item of the next one.
	press(m, "J")
	assert.Equal(t, [][]string{{"y"}, {"z", "x"}}, m.Screen().Items())
	assert.Equal(t, "x", cursorKey(m))

	// The cursor now sits near the end of the last section: one page loads.
	pump(t, m, msgs, 2)
	items := m.Screen().Items()[1]
	assert.Len(t, items, 5)
	assert.Equal(t, []string{"z", "x", "b-1", "b-2", "b-3"}, items)
	assert.Equal(t, "x", cursorKey(m))

	press(m, "K", "K")
	assert.Equal(t, [][]string{{"y", "x"}, {"z", "b-1", "b-2", "b-3"}}, m.Screen().Items())
}

func TestModel_ToggleAndForbiddenDrop(t *testing.T) {
	m, _ := newModel(t, "sections: [{key: a, items: [x, y]}, {key: b, items: [z, w, v, u, t, s, r2]}]", Options{})

	press(m, " ")
	assert.Equal(t, [][]string{{}, {"z", "w", "v", "u", "t", "s", "r2"}}, m.Screen().Items())
	expanded, ok := m.Screen().Expansion(0)
	assert.True(t, ok)
	assert.False(t, expanded)
	assert.Contains(t, m.View(), "▸ a")

	// Header a, header b, then z.
	press(m, "down", "down")
	assert.Equal(t, "z", cursorKey(m))
	press(m, "K")
	assert.Equal(t, "cannot drop there: forbid", m.status)
	assert.Equal(t, []string{"z", "w", "v", "u", "t", "s", "r2"}, m.Screen().Items()[1])

	press(m, "g", " ")
	assert.Equal(t, []string{"x", "y"}, m.Screen().Items()[0])
}

func TestModel_NotExpandable(t *testing.T) {
	m, _ := newModel(t, "sections: [{key: a, expansion: none, items: [x]}]", Options{})
	press(m, " ")
	assert.Equal(t, "a cannot collapse", m.status)
	assert.Equal(t, [][]string{{"x"}}, m.Screen().Items())
}

func TestModel_Select(t *testing.T) {
	m, _ := newModel(t, "sections: [{key: a, items: [x, y, z, w, v, u, q2]}, {key: b, items: [p]}]", Options{})
	press(m, "down", "enter")
	assert.Equal(t, "selected x", m.status)
	assert.NoError(t, m.err)
}

func TestModel_Refresh(t *testing.T) {
	reload := func(context.Context) (*document.Document, error) {
		return document.Parse([]byte("sections: [{key: a, items: [n, x]}]"))
	}
	m, msgs := newModel(t, "sections: [{key: a, items: [x]}]", Options{Reload: reload})

	press(m, "r")
	assert.Equal(t, "refreshing", m.status)
	assert.True(t, m.Screen().Refreshing())
	assert.Contains(t, m.View(), "(refreshing)")

	pump(t, m, msgs, 2)
	assert.Equal(t, [][]string{{"n", "x"}}, m.Screen().Items())
	assert.False(t, m.Screen().Refreshing())
	assert.Equal(t, "refreshed", m.status)
}

func TestModel_MaxPages(t *testing.T) {
	m, msgs := newModel(t, "sections: [{key: a, items: [x]}]", Options{PageSize: 2, MaxPages: 1})

	press(m, "down")
	pump(t, m, msgs, 2)
	assert.Equal(t, []string{"x", "a-1", "a-2"}, m.Screen().Items()[0])
	assert.Equal(t, "loaded page 1, no more items", m.status)

	press(m, "G")
	assert.Equal(t, interaction.Idle, m.Controller().LoadState())
	assert.Empty(t, msgs)
	assert.Len(t, m.Screen().Items()[0], 3)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t, "sections: [{key: a, items: [x]}]", Options{})
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Controller().Closed())
}
