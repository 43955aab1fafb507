package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/tilegrid/internal/sshview"
	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/observe"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain applies every pending snapshot to m.
func drain(t *testing.T, m watchModel) watchModel {
	t.Helper()
	for {
		select {
		case s := <-m.snaps:
			next, _ := m.Update(snapshotMsg(s))
			m = next.(watchModel)
		default:
			return m
		}
	}
}

func TestWatchModelFollowsWindowSize(t *testing.T) {
	m := newWatchModel(4, config.Default().Grid)
	defer m.close()

	if msg := m.Init()(); msg == nil {
		t.Fatal("Init did not deliver the initial snapshot")
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = drain(t, next.(watchModel))

	want := sshview.CellsToSize(100, 40-watchHeaderRows-watchFooterRows)
	if m.snap.Size != want {
		t.Errorf("Size = %v, want %v", m.snap.Size, want)
	}
	if !m.snap.Measured {
		t.Error("snapshot should be measured after a resize")
	}
	if m.snap.Layout.Shape != (grid.Shape{Columns: 2, Rows: 2}) {
		t.Errorf("Shape = %v, want 2x2", m.snap.Layout.Shape)
	}
	if m.cols != 100 {
		t.Errorf("cols = %d, want 100", m.cols)
	}
}

func TestWatchModelKeys(t *testing.T) {
	m := newWatchModel(2, config.Default().Grid)
	defer m.close()

	tests := []struct {
		key       string
		wantCount int
		wantMode  tiles.Mode
	}{
		{"+", 3, tiles.ModeGrid},
		{"=", 4, tiles.ModeGrid},
		{"-", 3, tiles.ModeGrid},
		{"m", 3, tiles.ModeSpeaker},
		{"m", 3, tiles.ModeGrid},
	}
	for _, tt := range tests {
		next, _ := m.Update(key(tt.key))
		m = drain(t, next.(watchModel))
		if m.snap.Count != tt.wantCount {
			t.Errorf("after %q: Count = %d, want %d", tt.key, m.snap.Count, tt.wantCount)
		}
		if m.mode != tt.wantMode {
			t.Errorf("after %q: mode = %q, want %q", tt.key, m.mode, tt.wantMode)
		}
	}
}

func TestWatchModelMinusStopsAtZero(t *testing.T) {
	m := newWatchModel(1, config.Default().Grid)
	defer m.close()

	for range 3 {
		next, _ := m.Update(key("-"))
		m = drain(t, next.(watchModel))
	}
	if m.snap.Count != 0 {
		t.Errorf("Count = %d, want 0", m.snap.Count)
	}
	if !strings.Contains(m.View(), "tilegrid watch") {
		t.Error("empty view should still draw the header")
	}
}

func TestWatchModelView(t *testing.T) {
	m := newWatchModel(15, config.Default().Grid)
	defer m.close()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	m = drain(t, next.(watchModel))

	view := m.View()
	for _, want := range []string{"tilegrid watch", "Participants", "4x3", "+3 more", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWatchModelQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		t.Run(k.String(), func(t *testing.T) {
			m := newWatchModel(1, config.Default().Grid)
			defer m.close()

			next, cmd := m.Update(k)
			if cmd == nil {
				t.Fatal("quit key returned no command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("quit key should return tea.Quit")
			}
			if v := next.(watchModel).View(); v != "" {
				t.Errorf("View after quit = %q, want empty", v)
			}
		})
	}
}

func TestOfferSnapshotKeepsLatest(t *testing.T) {
	ch := make(chan observe.Snapshot, 1)
	offerSnapshot(ch, observe.Snapshot{Seq: 1})
	offerSnapshot(ch, observe.Snapshot{Seq: 2})
	if got := (<-ch).Seq; got != 2 {
		t.Errorf("Seq = %d, want 2", got)
	}
}
