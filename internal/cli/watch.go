package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/ragdex/internal/tracker"
)

const watchRefreshInterval = 4 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the active store's documents live",
	Long: `Show a live view of the active store's documents, merged with locally
tracked indexing operations. The document listing is re-fetched
periodically until interrupted with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeID, err := restoreStore(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(trk, storeID))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch UI error: %w", err)
	}
	return nil
}

// watchTickMsg triggers a listing refresh.
type watchTickMsg time.Time

// listingMsg reports the outcome of one refresh.
type listingMsg struct {
	err error
}

type watchModel struct {
	trk     *tracker.Tracker
	storeID string
	rows    []tracker.Row
	step    tracker.Step
	lastErr error
	theme   Theme
}

func newWatchModel(trk *tracker.Tracker, storeID string) watchModel {
	return watchModel{
		trk:     trk,
		storeID: storeID,
		rows:    trk.MergedView(),
		step:    trk.Step(),
		theme:   defaultTheme,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case watchTickMsg:
		return m, m.refreshCmd()

	case listingMsg:
		m.lastErr = msg.err
		m.rows = m.trk.MergedView()
		m.step = m.trk.Step()
		return m, watchTickCmd()
	}

	return m, nil
}

func (m watchModel) View() tea.View {
	var b strings.Builder

	header := fmt.Sprintf("Store %s  step %d/3 %s", m.storeID, m.step, m.step)
	b.WriteString(m.theme.statusStyle().Render(header))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString("No documents yet.\n")
	}
	for _, row := range m.rows {
		b.WriteString(fmt.Sprintf("%-12s %s\n", stateLabel(row), truncate(row.DisplayName, 56)))
		if row.Detail != "" {
			b.WriteString(m.theme.errorStyle().Render("    ↳ "+row.Detail) + "\n")
		}
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("listing refresh failed: %v", m.lastErr)))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.hintStyle().Render("Press Ctrl+C to quit"))
	b.WriteString("\n")

	return tea.NewView(b.String())
}

// refreshCmd re-fetches the listing off the update loop.
func (m watchModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return listingMsg{err: m.trk.RefreshListing(ctx)}
	}
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(watchRefreshInterval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}
