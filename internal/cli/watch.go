package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/internal/sshview"
	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/observe"
	"github.com/matzehuels/tilegrid/pkg/render/sink"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// Rows reserved around the preview: title and status table above, summary
// and key help below.
const (
	watchHeaderRows = 6
	watchFooterRows = 2
)

var (
	watchHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	watchHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// watchCommand creates the watch command, a live terminal preview.
func (c *CLI) watchCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Preview the grid live in the terminal",
		Long: `Preview the grid live in the terminal.

The preview follows the terminal size: resize the window and the grid is
recomputed for the new container.

Keys:
  + / -   add or remove a participant
  m       toggle grid and speaker mode
  q       quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			m := newWatchModel(count, cfg.Grid)
			defer m.close()

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 4, "initial number of participants")
	return cmd
}

// =============================================================================
// watchModel - Live layout preview
// =============================================================================

// snapshotMsg carries a recomputed layout from the observer.
type snapshotMsg observe.Snapshot

// watchModel is the bubbletea model for the live preview. The terminal window
// is the observed region: size messages feed the observer, and its snapshots
// come back as snapshotMsg.
type watchModel struct {
	obs   *observe.Observer
	feed  *observe.Feed
	sub   *observe.Subscription
	snaps chan observe.Snapshot

	snap       observe.Snapshot
	cols       int
	mode       tiles.Mode
	gap        float64
	maxVisible int
	quitting   bool
}

func newWatchModel(count int, cfg config.GridConfig) watchModel {
	feed := observe.NewFeed()
	obs := observe.New(observe.WithParticipants(count), observe.WithGap(cfg.Gap))
	obs.Attach(feed)

	snaps := make(chan observe.Snapshot, 1)
	sub := obs.Subscribe(func(s observe.Snapshot) { offerSnapshot(snaps, s) })

	return watchModel{
		obs:        obs,
		feed:       feed,
		sub:        sub,
		snaps:      snaps,
		snap:       obs.Current(),
		cols:       80,
		mode:       tiles.ModeGrid,
		gap:        cfg.Gap,
		maxVisible: cfg.MaxVisible,
	}
}

// offerSnapshot replaces any undelivered snapshot with s.
func offerSnapshot(ch chan observe.Snapshot, s observe.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// waitForSnapshot blocks until the observer delivers a layout.
func waitForSnapshot(ch <-chan observe.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (m watchModel) close() {
	m.sub.Unsubscribe()
	m.obs.Close()
}

func (m watchModel) Init() tea.Cmd {
	return waitForSnapshot(m.snaps)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "+", "=":
			m.obs.SetParticipants(m.obs.Current().Count + 1)
		case "-", "_":
			m.obs.SetParticipants(m.obs.Current().Count - 1)
		case "m":
			if m.mode == tiles.ModeGrid {
				m.mode = tiles.ModeSpeaker
			} else {
				m.mode = tiles.ModeGrid
			}
		}
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.feed.Notify(sshview.CellsToSize(msg.Width, msg.Height-watchHeaderRows-watchFooterRows))
	case snapshotMsg:
		m.snap = observe.Snapshot(msg)
		return m, waitForSnapshot(m.snaps)
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("tilegrid watch"))
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")

	a := tiles.Plan(placeholders(m.snap.Count), m.snap.Size, tiles.Options{
		Mode:       m.mode,
		MaxVisible: m.maxVisible,
		Gap:        tiles.Gap(m.gap),
	})
	b.WriteString(sink.RenderText(a, sink.WithTextWidth(max(m.cols, 1))))
	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("+/- participants  m mode  q quit"))
	return b.String()
}

// status renders the snapshot's inputs and result as a one-row table.
func (m watchModel) status() string {
	l := m.snap.Layout
	measured := "assumed"
	if m.snap.Measured {
		measured = "measured"
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		BorderRow(false).
		Headers("Seq", "Participants", "Container", "Grid", "Cell").
		Row(
			fmt.Sprint(m.snap.Seq),
			fmt.Sprint(m.snap.Count),
			fmt.Sprintf("%s (%s)", m.snap.Size, measured),
			l.Shape.String(),
			fmt.Sprintf("%.0fx%.0f", l.Cell.Width, l.Cell.Height),
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return watchHeaderStyle
			}
			return StyleValue
		})
	return t.Render()
}

// placeholders synthesizes n participants for the preview.
func placeholders(n int) []tiles.Participant {
	ps := make([]tiles.Participant, max(n, 0))
	for i := range ps {
		ps[i] = tiles.Participant{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Participant %d", i+1)}
	}
	return ps
}
