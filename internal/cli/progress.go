package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/ragdex/internal/tracker"
)

const uiRefreshInterval = 500 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers a snapshot of the tracked operations.
type tickMsg time.Time

// registryChangedMsg is pushed by the tracker's change callback so the
// view updates the moment an operation resolves, not on the next tick.
type registryChangedMsg struct{}

// progressSnapshot is one view of the registry taken on a tick.
type progressSnapshot struct {
	ops        []tracker.Operation
	processing int
	step       tracker.Step
}

// progressModel is the bubbletea model for indexing progress. The polling
// itself happens in the tracker's goroutines; the model only renders
// snapshots of the registry on a timer.
type progressModel struct {
	trk      *tracker.Tracker
	total    int
	snap     progressSnapshot
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
}

// newProgressModel creates a new progress model.
func newProgressModel(trk *tracker.Tracker) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		trk:      trk,
		total:    len(trk.Operations()),
		snap:     takeSnapshot(trk),
		progress: prog,
		theme:    defaultTheme,
	}
}

func takeSnapshot(trk *tracker.Tracker) progressSnapshot {
	return progressSnapshot{
		ops:        trk.Operations(),
		processing: trk.Processing(),
		step:       trk.Step(),
	}
}

// Init returns the initial command (start ticking).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		uiTickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = takeSnapshot(m.trk)
		if m.snap.processing == 0 {
			m.done = true
			return m, tea.Quit
		}
		return m, uiTickCmd()

	case registryChangedMsg:
		m.snap = takeSnapshot(m.trk)
		if m.snap.processing == 0 {
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	resolved := m.total - m.snap.processing
	var pct float64
	if m.total > 0 {
		pct = float64(resolved) / float64(m.total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[step %d/3 %s]", m.snap.step, m.snap.step))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d documents", resolved, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render(
			"\nIndexing continues on the server.\nUse 'ragdex jobs' to check status.\n")
	}

	failed := 0
	for _, op := range m.snap.ops {
		if op.Status == tracker.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return m.theme.errorStyle().Render(
			fmt.Sprintf("\n✗ %d of %d document(s) failed to index\n", failed, m.total))
	}
	return m.theme.completedStyle().Render(
		fmt.Sprintf("\n✓ %d document(s) indexed\n", m.total))
}

// uiTickCmd returns a command that sends a tick after the refresh interval.
func uiTickCmd() tea.Cmd {
	return tea.Tick(uiRefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runProgress runs the interactive progress UI until all tracked
// operations resolve. Returns nil on Ctrl+C; the server keeps indexing.
func runProgress(trk *tracker.Tracker) error {
	p := tea.NewProgram(newProgressModel(trk))

	trk.SetOnChange(func() {
		p.Send(registryChangedMsg{})
	})
	defer trk.SetOnChange(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}
