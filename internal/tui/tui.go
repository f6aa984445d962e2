// Package tui is the interactive allot application: plan preview, the live
// session with its clock, and the continue/discard prompt after a recovery.
package tui

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/allot/internal/allocation"
	"github.com/fakeyudi/allot/internal/category"
	"github.com/fakeyudi/allot/internal/reminder"
	"github.com/fakeyudi/allot/internal/session"
	"github.com/fakeyudi/allot/internal/state"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("237"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusStyles = map[session.ProgressStatus]lipgloss.Style{
		session.ProgressNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		session.ProgressWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		session.ProgressUrgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true),
		session.ProgressOvertime: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

type screen int

const (
	screenPlan screen = iota
	screenPrompt
	screenSession
	screenAdjust
)

const (
	totalStep   = 5
	maxNotices  = 3
	chromeLines = 4 // title, blank, notices separator, status bar
)

// CategoriesChangedMsg tells the model the categories file changed on disk.
// Only the plan preview reacts; a running session keeps its snapshot.
type CategoriesChangedMsg struct{}

type tickMsg time.Time

// Config wires the model to its collaborators.
type Config struct {
	Store          state.Store
	CategoriesPath string
	TotalMinutes   int
	Tick           time.Duration
	Clock          session.Clock // nil means the wall clock
	// OnEnd archives an ended session and returns a line to show the user.
	OnEnd func(final *session.Session, labels map[string]string) (string, error)
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg     Config
	st      *state.State
	machine *session.Machine
	tracker *reminder.Tracker

	total   int
	plan    allocation.Result
	planErr error
	labels  map[string]string

	screen  screen
	cursor  int
	notices []string

	keys  keyMap
	help  help.Model
	bar   progress.Model
	input textinput.Model
	vp    viewport.Model

	width   int
	height  int
	ready   bool
	ticking bool // a tickMsg is in flight
}

// New builds the model around a state that has already passed the recovery
// guard.
func New(cfg Config, loaded state.LoadResult) Model {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	var clock session.Clock = session.SystemClock{}
	if cfg.Clock != nil {
		clock = cfg.Clock
	}
	tracker := reminder.NewTracker(loaded.State.Reminders)

	input := textinput.New()
	input.Placeholder = "remaining minutes"
	input.CharLimit = 8
	input.Width = 20

	m := Model{
		cfg:     cfg,
		st:      loaded.State,
		tracker: tracker,
		machine: session.NewMachine(loaded.State.Session,
			session.WithClock(clock),
			session.WithEndListener(tracker),
		),
		total: cfg.TotalMinutes,
		keys:  defaultKeys(),
		help:  help.New(),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(30)),
		input: input,
	}
	m.reloadPlan()
	m.ticking = m.machine.IsActive()

	if loaded.HasSuspended {
		m.screen = screenPrompt
		if loaded.Recovered {
			m.notify("a session left running by an earlier run was suspended")
		}
	}
	return m
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	if !m.ticking {
		return nil
	}
	return tick(m.cfg.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, min(40, msg.Width-40))
		m.vp = viewport.New(msg.Width, max(1, msg.Height-chromeLines-maxNotices))
		m.ready = true
		return m, nil

	case tickMsg:
		if !m.machine.IsActive() {
			m.ticking = false
			return m, nil
		}
		m.checkReminders()
		return m, tick(m.cfg.Tick)

	case CategoriesChangedMsg:
		if m.screen == screenPlan {
			m.reloadPlan()
			m.notify("categories reloaded")
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.screen {
		case screenPrompt:
			return m.updatePrompt(msg)
		case screenSession:
			return m.updateSession(msg)
		case screenAdjust:
			return m.updateAdjust(msg)
		default:
			return m.updatePlan(msg)
		}
	}

	if m.screen == screenAdjust {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePlan(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reload):
		m.reloadPlan()
	case key.Matches(msg, m.keys.More):
		m.total += totalStep
		m.reloadPlan()
	case key.Matches(msg, m.keys.Less):
		m.total = max(totalStep, m.total-totalStep)
		m.reloadPlan()
	case key.Matches(msg, m.keys.Start):
		if m.planErr != nil || !m.plan.IsValid {
			m.notify("nothing to start: fix the categories file first")
			return m, nil
		}
		m.machine.Start(m.plan.Allocations, m.total)
		m.cursor = 0
		m.screen = screenSession
		m.persist()
		return m, m.armTick()
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Continue):
		s := m.machine.Resume()
		m.cursor = indexOf(s, s.ActiveCategoryID)
		m.screen = screenSession
		m.persist()
		return m, m.armTick()
	case key.Matches(msg, m.keys.Discard):
		m.end()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.machine.Session()
	if s == nil {
		m.screen = screenPlan
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(0, m.cursor-1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(len(s.Allocations)-1, m.cursor+1)
	case key.Matches(msg, m.keys.Switch):
		m.machine.SwitchContext(s.Allocations[m.cursor].CategoryID)
		m.persist()
	case key.Matches(msg, m.keys.Next):
		next := (indexOf(s, s.ActiveCategoryID) + 1) % len(s.Allocations)
		m.machine.SwitchContext(s.Allocations[next].CategoryID)
		m.cursor = next
		m.persist()
	case key.Matches(msg, m.keys.Pause):
		if s.Status == session.StatusActive {
			m.machine.Pause()
		} else {
			m.machine.Resume()
		}
		m.persist()
		return m, m.armTick()
	case key.Matches(msg, m.keys.Adjust):
		m.screen = screenAdjust
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.End):
		m.end()
	case key.Matches(msg, m.keys.Suspend), key.Matches(msg, m.keys.Quit):
		m.machine.Suspend(m.machine.ElapsedMinutes())
		m.persist()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateAdjust(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		m.screen = screenSession
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.input.Blur()
		m.screen = screenSession
		minutes, err := strconv.ParseFloat(strings.TrimSpace(m.input.Value()), 64)
		if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
			m.notify(fmt.Sprintf("not a number of minutes: %q", m.input.Value()))
			return m, nil
		}
		s := m.machine.Session()
		if s == nil {
			return m, nil
		}
		id := s.Allocations[m.cursor].CategoryID
		elapsed := 0.0
		if id == s.ActiveCategoryID {
			elapsed = m.machine.ElapsedMinutes()
		}
		m.machine.AdjustContextTime(id, minutes, elapsed)
		m.persist()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ── Transitions with side effects ─────────────────

// end finishes the session, hands it to OnEnd and returns to the plan.
func (m *Model) end() {
	labels := m.labels
	final := m.machine.End()
	m.persist()
	m.screen = screenPlan
	m.cursor = 0
	m.reloadPlan()
	if final == nil || m.cfg.OnEnd == nil {
		return
	}
	line, err := m.cfg.OnEnd(final, labels)
	if err != nil {
		log.Printf("finishing session %s: %v", final.ID, err)
		m.notify("warning: " + err.Error())
		return
	}
	m.notify(line)
}

// armTick starts the refresh tick when the clock runs and none is pending.
// The tick stops by itself once the clock stops.
func (m *Model) armTick() tea.Cmd {
	if m.ticking || !m.machine.IsActive() {
		return nil
	}
	m.ticking = true
	return tick(m.cfg.Tick)
}

// persist writes the machine's current session into the state file.
func (m *Model) persist() {
	s := m.machine.Session()
	m.st.Session = s
	m.st.Reminders = m.tracker.History()
	m.st.Mode = state.ModePlanning
	if s != nil && (s.Status == session.StatusActive || s.Status == session.StatusPaused) {
		m.st.Mode = state.ModeSession
	}
	if err := m.cfg.Store.Save(m.st); err != nil {
		log.Printf("saving state: %v", err)
		m.notify("warning: could not save state: " + err.Error())
	}
}

// checkReminders fires the "time is up" notice once per activation of the
// running category.
func (m *Model) checkReminders() {
	s := m.machine.Session()
	if s == nil || s.CategoryStartedAt == nil {
		return
	}
	a := s.Allocation(s.ActiveCategoryID)
	if a == nil {
		return
	}
	remaining := session.RemainingForCategory(*a, session.ElapsedSeconds(s, m.machine.Now()))
	if m.tracker.Observe(m.machine, a.CategoryID, *s.CategoryStartedAt, remaining) {
		m.notify("time is up for " + m.label(a.CategoryID))
		m.persist()
	}
}

func (m *Model) reloadPlan() {
	m.planErr = nil
	snap, err := category.Load(m.cfg.CategoriesPath)
	if err != nil {
		m.planErr = err
		m.plan = allocation.Result{}
		return
	}
	for _, w := range snap.Warnings {
		log.Printf("categories: %s", w)
	}
	m.labels = snap.Labels()
	m.plan = allocation.Calculate(snap.Constraints(), m.total)
}

func (m *Model) notify(s string) {
	m.notices = append(m.notices, s)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m Model) label(id string) string {
	if l, ok := m.labels[id]; ok && l != "" {
		return l
	}
	return id
}

func indexOf(s *session.Session, id string) int {
	if s == nil {
		return 0
	}
	for i, a := range s.Allocations {
		if a.CategoryID == id {
			return i
		}
	}
	return 0
}

// ── View ────────────────────

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  allot  " + m.subtitle())

	vp := m.vp
	vp.SetContent(m.body())

	var notes strings.Builder
	for _, n := range m.notices {
		notes.WriteString(noticeStyle.Render("  "+n) + "\n")
	}

	statusBar := statusBarStyle.Width(m.width).Render(m.help.View(m.keys.forScreen(m.screen)))

	return lipgloss.JoinVertical(lipgloss.Left, title, vp.View(), notes.String(), statusBar)
}

func (m Model) subtitle() string {
	switch m.screen {
	case screenPrompt:
		return "suspended session"
	case screenSession, screenAdjust:
		if s := m.machine.Session(); s != nil {
			return string(s.Status)
		}
	}
	return fmt.Sprintf("plan · %d min", m.total)
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m Model) body() string {
	switch m.screen {
	case screenPrompt:
		return m.renderPrompt()
	case screenSession, screenAdjust:
		return m.renderSession()
	default:
		return m.renderPlan()
	}
}

func (m Model) renderPlan() string {
	var sb strings.Builder
	sb.WriteString(heading("Plan"))
	if m.planErr != nil {
		sb.WriteString(warnStyle.Render("  "+m.planErr.Error()) + "\n")
		sb.WriteString(dimStyle.Render("  categories file: "+m.cfg.CategoriesPath) + "\n")
		return sb.String()
	}
	for _, a := range m.plan.Allocations {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-20s", m.label(a.CategoryID))))
		fmt.Fprintf(&sb, "  %4d min\n", a.AllocatedMinutes)
	}
	if len(m.plan.Warnings) > 0 {
		sb.WriteString(heading("Warnings"))
		for _, w := range m.plan.Warnings {
			sb.WriteString(warnStyle.Render("  ! ") + w.Message + "\n")
		}
	}
	return sb.String()
}

func (m Model) renderPrompt() string {
	var sb strings.Builder
	sb.WriteString(heading("Suspended session"))
	s := m.machine.Session()
	if s == nil {
		return sb.String()
	}
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Started:", s.StartedAt.Format("2006-01-02 15:04"))
	row("Planned:", fmt.Sprintf("%d min", s.TotalDuration))
	row("Tracked:", formatMinutes(s.TotalUsed()))
	row("Was on:", m.label(s.ActiveCategoryID))
	sb.WriteString("\n" + dimStyle.Render("  Continue where you left off, or discard and archive it.") + "\n")
	return sb.String()
}

func (m Model) renderSession() string {
	s := m.machine.Session()
	if s == nil {
		return ""
	}
	now := m.machine.Now()
	var sb strings.Builder

	total := session.SessionProgress(s, now)
	sb.WriteString(heading("Session"))
	fmt.Fprintf(&sb, "  %s  %s left of %d min\n",
		m.bar.ViewAs(fraction(total.Percentage)),
		statusStyles[total.Status].Render(formatMinutes(total.Remaining)),
		s.TotalDuration)

	sb.WriteString(heading("Categories"))
	for i, r := range session.Readings(s, now) {
		marker := "  "
		if r.Active {
			marker = "▶ "
		}
		name := fmt.Sprintf("%s%-18s", marker, m.label(r.CategoryID))
		if i == m.cursor {
			name = activeStyle.Render(name)
		} else {
			name = labelStyle.Render(name)
		}
		fmt.Fprintf(&sb, "  %s %s %s\n",
			name,
			m.bar.ViewAs(fraction(r.Percentage)),
			statusStyles[r.Status].Render(formatMinutes(r.Remaining)))
	}

	if m.screen == screenAdjust {
		sb.WriteString(heading("Adjust " + m.label(s.Allocations[m.cursor].CategoryID)))
		sb.WriteString("  " + m.input.View() + "\n")
	}
	return sb.String()
}

func fraction(pct float64) float64 {
	return max(0, min(1, pct/100))
}

// formatMinutes renders minutes as [-][h:]mm:ss.
func formatMinutes(minutes float64) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	secs := int(math.Round(minutes * 60))
	h, rem := secs/3600, secs%3600
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, rem/60, rem%60)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, rem/60, rem%60)
}
