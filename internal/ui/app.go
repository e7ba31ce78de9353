package ui

import (
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/glance/internal/chart"
	"github.com/five82/glance/internal/logging"
	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/state"
	"github.com/five82/glance/internal/table"
)

// Layouts accepted by the layout preference.
const (
	LayoutHorizontal = "horizontal"
	LayoutVertical   = "vertical"
)

// Options configures the UI.
type Options struct {
	Registry *state.Registry
	Prefs    *prefs.Store
	Pipeline *table.Pipeline
	Charts   *chart.Synchronizer
	// Source names where the report comes from, shown in the header.
	Source string
	// Live is set when a live channel feeds the registry.
	Live bool
	// Clipboard copies text; defaults to the system clipboard.
	Clipboard func(string) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	registry  *state.Registry
	prefs     *prefs.Store
	pipeline  *table.Pipeline
	charts    *chart.Synchronizer
	clipboard func(string) error
	clock     func() time.Time
	source    string
	live      bool

	// UI state
	theme    Theme
	keys     keyMap
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	focused  bool
	showHelp bool
	modal    Modal
	flash    string
	flashID  int
	now      time.Time

	// Navigation
	nav     []string
	current int

	// Current panel page
	view       table.View
	hasView    bool
	cursor     tableCursor
	cursorLine int

	// Report state copied from the registry on refresh
	link          state.Link
	updated       time.Time
	overall       *report.Overall
	overallValues map[string]report.Value
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		registry:  opts.Registry,
		prefs:     opts.Prefs,
		pipeline:  opts.Pipeline,
		charts:    opts.Charts,
		clipboard: copyFn,
		clock:     now,
		source:    opts.Source,
		live:      opts.Live,
		theme:     GetTheme(opts.Prefs.Get().Theme),
		keys:      DefaultKeyMap(),
		spinner:   s,
		viewport:  viewport.New(0, 0),
		focused:   true,
		now:       now(),
	}
	m.link = m.registry.Link()
	if !m.live && m.link.Status == "" {
		m.link.Status = StatusOffline
	}
	return m
}

// Messages

// SnapshotMsg tells the model a new snapshot is in the registry.
type SnapshotMsg struct {
	// SchemaChanged drops every chart instance before rendering.
	SchemaChanged bool
}

// LinkMsg carries a channel status change.
type LinkMsg state.Link

type tickMsg time.Time

type flashClearMsg struct{ id int }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(HeaderTick),
		func() tea.Msg { return SnapshotMsg{SchemaChanged: true} },
	}
	if m.live {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.syncContent()
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		if m.registry.Pending() {
			m.refresh()
		}
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, nil

	case SnapshotMsg:
		if msg.SchemaChanged {
			m.charts.TeardownAll()
		}
		// While unfocused the snapshot stays pending; focus renders the
		// latest one once.
		if !m.focused {
			return m, nil
		}
		m.refresh()
		return m, nil

	case LinkMsg:
		m.setLink(state.Link(msg))
		return m, nil

	case columnsChangedMsg:
		if msg.panelID == m.currentID() {
			m.render(table.Current)
		}
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd(HeaderTick)

	case flashClearMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// refresh copies report state out of the registry, rebuilds the panel list
// and brings every chart up to date. Only the current panel repaints.
func (m *Model) refresh() {
	m.registry.TakePending()
	m.overall, m.overallValues, _ = m.registry.Overall()
	m.updated = m.registry.Updated()
	m.rebuildNav()

	cur := m.currentID()
	for _, id := range m.nav {
		m.charts.Refresh(id, id == cur)
	}
	m.render(table.Current)
}

func (m *Model) rebuildNav() {
	prev := m.currentID()
	m.nav = NavOrder(m.registry.ValidPanels(), m.prefs.Get())
	if i := slices.Index(m.nav, prev); i >= 0 {
		m.current = i
		return
	}
	m.current = min(m.current, max(len(m.nav)-1, 0))
}

func (m Model) currentID() string {
	if m.current < 0 || m.current >= len(m.nav) {
		return ""
	}
	return m.nav[m.current]
}

// render runs the pipeline for the current panel and fits the cursor to the
// new page.
func (m *Model) render(req table.PageRequest) {
	id := m.currentID()
	if id == "" {
		m.view, m.hasView = table.View{}, false
		m.syncContent()
		return
	}
	m.view, m.hasView = m.pipeline.Render(id, req)
	m.clampCursor()
	m.syncContent()
}

func (m *Model) clampCursor() {
	m.cursor.Row = min(m.cursor.Row, max(len(m.view.Rows)-1, 0))
	m.cursor.Row = max(m.cursor.Row, 0)
	m.cursor.Column = min(m.cursor.Column, max(len(m.view.Headers)-1, 0))
	m.cursor.Column = max(m.cursor.Column, 0)
}

func (m *Model) selectPanel(i int) {
	if len(m.nav) == 0 {
		return
	}
	m.current = (i + len(m.nav)) % len(m.nav)
	m.cursor = tableCursor{}
	m.viewport.GotoTop()
	m.render(table.Current)
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flashID++
	m.flash = text
	id := m.flashID
	return tea.Tick(FlashDuration, func(time.Time) tea.Msg { return flashClearMsg{id: id} })
}

// failed logs a preference or chart error and shows it briefly.
func (m *Model) failed(what string, err error) tea.Cmd {
	logging.Warn("ui", "%s: %v", what, err)
	return m.setFlash(what + " failed")
}

// NewProgram builds the program so callers can Send it messages from other
// goroutines.
func NewProgram(opts Options, extra ...tea.ProgramOption) *tea.Program {
	popts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}, extra...)
	return tea.NewProgram(New(opts), popts...)
}

// geometry is the screen split for the current size.
type geometry struct {
	strip       bool // nav rendered as a one-line strip
	overall     bool
	panelWidth  int
	panelHeight int
}

func (m Model) geometry() geometry {
	g := geometry{overall: m.overall != nil && len(m.overall.Items) > 0}
	g.strip = m.width < LayoutCompactWidth || m.prefs.Get().Layout == LayoutVertical

	height := m.height - 2 // header and command bar
	if g.overall {
		height--
	}
	g.panelWidth = m.width
	if g.strip {
		height--
	} else {
		g.panelWidth = m.width - NavWidth
	}
	g.panelHeight = max(height, 3)
	g.panelWidth = max(g.panelWidth, 12)
	return g
}

// syncContent rebuilds the panel body and keeps the cursor row on screen.
func (m *Model) syncContent() {
	if !m.ready {
		return
	}
	g := m.geometry()
	m.viewport.Width = g.panelWidth - 2
	m.viewport.Height = g.panelHeight - 2

	content, line := m.panelContent(m.viewport.Width)
	m.cursorLine = line
	m.viewport.SetContent(content)

	if line < 0 {
		return
	}
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

// visibility decides which halves of the current panel render.
func (m Model) visibility(panel *report.Panel) (showChart, showTable bool) {
	pp := m.prefs.Panel(panel.ID)
	showChart = panel.HasChart() && pp.ChartVisible()
	showTable = panel.HasTable() && pp.TableVisible()
	if showChart && showTable && m.prefs.Get().AutoHideTables && m.width < AutoHideWidth {
		showTable = false
	}
	return showChart, showTable
}

// panelContent renders the current panel and returns the content line of
// the cursor row, or -1.
func (m *Model) panelContent(width int) (string, int) {
	styles := m.theme.Styles().WithBackground(m.boxBg())
	id := m.currentID()
	if id == "" {
		if m.registry.Schema() == nil {
			return styles.MutedText.Render(m.spinner.View() + " Waiting for report..."), -1
		}
		return styles.MutedText.Render("No panels to show. Press X to unhide panels."), -1
	}
	panel, ok := m.registry.Panel(id)
	if !ok {
		return styles.MutedText.Render(table.NoDataText), -1
	}

	var lines []string
	if panel.Desc != "" {
		lines = append(lines, styles.FaintText.Render(truncate(panel.Desc, width)))
	}

	showChart, showTable := m.visibility(panel)
	if showChart {
		lines = append(lines, m.chartBlock(id, width, styles)...)
		lines = append(lines, "")
	}

	cursorLine := -1
	if showTable && m.hasView {
		offset := len(lines) + 1
		if len(m.view.Meta) > 0 {
			offset++
		}
		cursorLine = offset + m.cursor.Row
		lines = append(lines, renderTable(m.view, styles, width, m.cursor, true))
	}
	if !showChart && !showTable {
		lines = append(lines, styles.MutedText.Render("Chart and table hidden. Press v or b."))
	}
	return strings.Join(lines, "\n"), cursorLine
}

func (m *Model) chartBlock(id string, width int, styles Styles) []string {
	if _, ok := m.charts.Instance(id); !ok {
		m.charts.AddChart(id)
	}
	frame, ok := m.charts.Repaint(id, width)
	if !ok {
		return []string{styles.MutedText.Render("No chart data.")}
	}
	var lines []string
	if series, ok := m.charts.Series(id); ok {
		title := series.Title
		if title == "" {
			title = series.Metric
		}
		tag := series.Kind
		if series.Drilled {
			tag += " · drill-down"
		}
		lines = append(lines, styles.AccentText.Bold(true).Render(title)+" "+styles.FaintText.Render(tag))
	}
	for _, l := range strings.Split(frame, "\n") {
		lines = append(lines, styles.ChartY0.Render(l))
	}
	return lines
}

func (m Model) boxBg() string {
	return m.theme.FocusBg
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	g := m.geometry()
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if g.overall {
		b.WriteString(m.renderOverall())
		b.WriteString("\n")
	}

	title := "glance"
	if m.hasView {
		title = m.view.Title
	}
	panelBox := titledBox(m.theme, title, m.viewport.View(), g.panelWidth, g.panelHeight, true)

	if g.strip {
		b.WriteString(m.renderNavStrip())
		b.WriteString("\n")
		b.WriteString(panelBox)
	} else {
		navBox := titledBox(m.theme, "Panels", m.renderNavList(NavWidth-2), NavWidth, g.panelHeight, false)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, navBox, panelBox))
	}
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

func (m Model) panelTitle(id string) string {
	if p, ok := m.registry.Panel(id); ok {
		return p.Title()
	}
	return id
}

func (m Model) renderNavList(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	lines := make([]string, 0, len(m.nav))
	for i, id := range m.nav {
		name := fit(m.panelTitle(id), width-1, false)
		if i == m.current {
			lines = append(lines, styles.Selected.Render(" "+name))
			continue
		}
		lines = append(lines, styles.Text.Render(" "+name))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNavStrip() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	parts := make([]string, 0, len(m.nav))
	for i, id := range m.nav {
		style := styles.MutedText
		if i == m.current {
			style = styles.AccentText.Bold(true)
		}
		parts = append(parts, bg.render(truncate(m.panelTitle(id), 18), style))
	}
	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.join(parts, 2))
}
