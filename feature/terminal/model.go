package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collection-engine/core/dispatch"
	"collection-engine/core/identity"
	"collection-engine/core/interaction"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
	"collection-engine/core/utils"
	"collection-engine/feature/document"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// DefaultPageSize is the number of items generated per infinite-scroll page.
const DefaultPageSize = 10

// Options configures a Model.
type Options struct {
	// Threshold is the near-end threshold.
	Threshold int
	// Defaults supplies the expansion of untoggled sections.
	Defaults func(int) snapshot.ExpansionState
	// PageSize is the number of items appended per page.
	PageSize int
	// MaxPages stops paging after this many pages. Zero means unlimited.
	MaxPages int
	// LoadDelay simulates the latency of a page load.
	LoadDelay time.Duration
	// Reload supplies fresh data on refresh. Nil disables refresh.
	Reload func(ctx context.Context) (*document.Document, error)
	// Logger must not write to the terminal. Defaults to a no-op logger.
	Logger *zap.Logger
}

// runMsg carries work posted to the controller's executor.
type runMsg func()

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea model of a collection browser.
type Model struct {
	name   string
	opts   Options
	screen *Screen
	ctrl   *interaction.Controller[string, any]
	send   func(tea.Msg)
	logger *zap.Logger

	rows   []row
	cursor int
	scroll int
	width  int
	height int

	pages     int
	generated int
	status    string
	err       error
}

// New creates a browser showing doc. Call SetSend before the program runs.
func New(doc *document.Document, opts Options) (*Model, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}
	m := &Model{
		name:   doc.Name,
		opts:   opts,
		screen: NewScreen(),
		logger: l,
		width:  80,
		height: 24,
	}

	exec := dispatch.ExecutorFunc(m.post)
	copts := interaction.Options[string, any]{
		Threshold: opts.Threshold,
		Defaults:  opts.Defaults,
		LoadMore:  m.loadMore,
		OnSelect: func(item identity.Item[string, any]) {
			m.status = "selected " + item.Key
		},
		OnMove: func(res interaction.MoveResult[string]) {
			m.status = fmt.Sprintf("moved %s to %d/%d", res.Key, res.Effective.Section, res.Effective.Item)
		},
		Logger: l,
	}
	if opts.Reload != nil {
		copts.Refresh = m.reload
	}
	m.ctrl = interaction.New[string, any](exec, m.screen, copts)

	inputs, err := doc.Inputs()
	if err != nil {
		return nil, err
	}
	if _, err := m.ctrl.Update(inputs); err != nil {
		return nil, err
	}
	m.rebuild("", false)
	return m, nil
}

// SetSend sets the function that delivers messages to the running program,
// normally (*tea.Program).Send.
func (m *Model) SetSend(send func(tea.Msg)) {
	m.send = send
}

// post delivers fn to the event loop. Without a program it is dropped.
func (m *Model) post(fn func()) {
	if m.send != nil {
		m.send(runMsg(fn))
	}
}

// Controller returns the controller driving the model.
func (m *Model) Controller() *interaction.Controller[string, any] {
	return m.ctrl
}

// Screen returns the renderer.
func (m *Model) Screen() *Screen {
	return m.screen
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, header := m.cursorKey()

	switch msg := msg.(type) {
	case runMsg:
		msg()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Close()
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
			key, header = m.cursorKey()
		case "down", "j":
			m.moveCursor(1)
			key, header = m.cursorKey()
		case "g", "home":
			m.cursor = 0
			key, header = m.cursorKey()
		case "G", "end":
			m.cursor = len(m.rows) - 1
			key, header = m.cursorKey()
		case " ", "space":
			m.toggle()
		case "enter":
			if r, ok := m.current(); ok && !r.header() {
				m.err = m.ctrl.OnItemTap(r.key)
			}
		case "J", "shift+down":
			m.drag(1)
		case "K", "shift+up":
			m.drag(-1)
		case "r":
			if m.ctrl.BeginRefresh() {
				m.status = "refreshing"
			}
		}
	}

	m.rebuild(key, header)
	m.nearEnd()
	return m, nil
}

func (m *Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) cursorKey() (string, bool) {
	r, ok := m.current()
	if !ok {
		return "", false
	}
	return r.key, r.header()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) toggle() {
	r, ok := m.current()
	if !ok {
		return
	}
	sec, err := m.ctrl.Current().Section(r.section)
	if err != nil {
		m.err = err
		return
	}
	if !sec.Expansion.Expandable() {
		m.status = sec.Key + " cannot collapse"
		return
	}
	if _, err := m.ctrl.Toggle(sec.Key); err != nil {
		m.err = err
	}
}

// drag moves the item under the cursor one step down (dir 1) or up (dir -1),
// crossing into the neighbouring section at the ends.
func (m *Model) drag(dir int) {
	r, ok := m.current()
	if !ok || r.header() {
		return
	}
	cur := m.ctrl.Current()
	src := snapshot.Location{Section: r.section, Item: r.item}
	dst := snapshot.Location{Section: r.section, Item: r.item + dir}

	switch {
	case dst.Item < 0:
		if r.section == 0 {
			return
		}
		dst = snapshot.Location{Section: r.section - 1, Item: cur.VisibleCount(r.section - 1)}
	case dst.Item >= cur.VisibleCount(r.section):
		if r.section == cur.Len()-1 {
			return
		}
		dst = snapshot.Location{Section: r.section + 1, Item: 0}
	}

	if !m.ctrl.BeginDrag(src) {
		return
	}
	if p := m.ctrl.UpdateDrag(src, dst); p.Operation != interaction.DropMove {
		m.ctrl.CancelDrag()
		m.status = "cannot drop there: " + p.Operation.String()
		return
	}
	res, err := m.ctrl.CommitDrag(src, dst)
	if err != nil {
		m.err = err
		return
	}
	if !res.NoOp {
		_ = m.ctrl.ScrollToItem(res.Key, reconcile.ScrollNearest)
	}
}

// nearEnd reports the row under the cursor when it is an item.
func (m *Model) nearEnd() {
	if m.exhausted() {
		return
	}
	r, ok := m.current()
	if !ok || r.header() {
		return
	}
	started, err := m.ctrl.OnNearEnd(r.section, r.item, m.ctrl.Current().VisibleCount(r.section))
	if err != nil {
		m.err = err
		return
	}
	if started {
		m.status = "loading more"
	}
}

func (m *Model) loadMore(ctx context.Context) error {
	if m.opts.LoadDelay > 0 {
		select {
		case <-time.After(m.opts.LoadDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.post(m.appendPage)
	return nil
}

// appendPage generates a page of items at the end of the last section. It
// runs on the event loop.
func (m *Model) appendPage() {
	if m.exhausted() {
		return
	}
	cur := m.ctrl.Current()
	inputs := cur.Inputs()
	if len(inputs) == 0 {
		return
	}
	last := &inputs[len(inputs)-1]
	items := append([]identity.Item[string, any]{}, last.Items...)
	for n := 0; n < m.opts.PageSize; n++ {
		k := m.nextKey(cur, last.Key)
		items = append(items, identity.Item[string, any]{Key: k, Value: fmt.Sprintf("generated item %d", m.generated)})
	}
	last.Items = items

	if _, err := m.ctrl.Update(inputs); err != nil {
		m.err = err
		return
	}
	m.pages++
	m.status = fmt.Sprintf("loaded page %d", m.pages)
	if m.exhausted() {
		m.status += ", no more items"
	}
}

func (m *Model) exhausted() bool {
	return m.opts.MaxPages > 0 && m.pages >= m.opts.MaxPages
}

func (m *Model) nextKey(cur *snapshot.Snapshot[string, any], section string) string {
	for {
		m.generated++
		k := fmt.Sprintf("%s-%d", section, m.generated)
		if _, taken := cur.Item(k); !taken {
			return k
		}
	}
}

func (m *Model) reload(ctx context.Context) error {
	doc, err := m.opts.Reload(ctx)
	if err != nil {
		return err
	}
	inputs, err := doc.Inputs()
	if err != nil {
		return err
	}
	m.post(func() {
		if _, err := m.ctrl.Update(inputs); err != nil {
			m.err = err
			return
		}
		m.pages = 0
		m.status = "refreshed"
	})
	return nil
}

// rebuild recomputes the rows after a change and keeps the cursor on the row
// it was on, or on a requested scroll target.
func (m *Model) rebuild(key string, header bool) {
	m.rows = m.screen.rows()

	if loc, ok := m.screen.takeTarget(); ok {
		for i, r := range m.rows {
			if r.section == loc.Section && r.item == loc.Item {
				m.cursor = i
				break
			}
		}
	} else if key != "" {
		for i, r := range m.rows {
			if r.key == key && r.header() == header {
				m.cursor = i
				break
			}
		}
	}
	m.moveCursor(0)

	if off, ok := m.screen.takeOffset(); ok {
		m.scroll = off
	}
	m.ensureScroll()
	m.ctrl.OnScroll(reconcile.Point{Y: float64(m.scroll)}, reconcile.Size{Width: float64(m.width), Height: float64(len(m.rows))})
}

func (m *Model) listHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) ensureScroll() {
	h := m.listHeight()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+h {
		m.scroll = m.cursor - h + 1
	}
	maxScroll := len(m.rows) - h
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := m.name
	if title == "" {
		title = "collection"
	}
	if m.screen.refreshing {
		title += " (refreshing)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')

	cur := m.ctrl.Current()
	end := m.scroll + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.scroll; i < end; i++ {
		line := m.renderRow(cur, m.rows[i])
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(dimStyle.Render(m.status))
	default:
		b.WriteString(dimStyle.Render("space toggle · J/K drag · r refresh · q quit"))
	}
	return b.String()
}

func (m *Model) renderRow(cur *snapshot.Snapshot[string, any], r row) string {
	if r.header() {
		marker := "  "
		if expanded, ok := m.screen.Expansion(r.section); ok {
			marker = "▾ "
			if !expanded {
				marker = "▸ "
			}
		}
		sec, _ := cur.Section(r.section)
		return headerStyle.Render(fmt.Sprintf("%s%s (%d)", marker, r.key, len(sec.Items)))
	}
	label := "    " + r.key
	if item, ok := cur.Item(r.key); ok && item.Value != nil {
		if v := utils.ToString(item.Value); v != r.key {
			label += "  " + dimStyle.Render(v)
		}
	}
	return label
}
