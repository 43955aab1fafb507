package sshview

import (
	"strings"
	"testing"

	"github.com/gliderlabs/ssh"

	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/observe"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

func TestTermSize(t *testing.T) {
	tests := []struct {
		win  ssh.Window
		want grid.Size
	}{
		{ssh.Window{Width: 80, Height: 24}, grid.Size{Width: 640, Height: 352}},
		{ssh.Window{Width: 120, Height: 2}, grid.Size{Width: 960, Height: 0}},
		{ssh.Window{Width: 0, Height: 0}, grid.Size{}},
	}
	for _, tt := range tests {
		if got := TermSize(tt.win); got != tt.want {
			t.Errorf("TermSize(%dx%d) = %v, want %v", tt.win.Width, tt.win.Height, got, tt.want)
		}
	}
}

func TestViewKeys(t *testing.T) {
	v := newView(config.Default().Grid)
	v.setPlaceholders(2)

	tests := []struct {
		key       byte
		want      action
		wantCount int
	}{
		{'+', actionCount, 3},
		{'=', actionCount, 4},
		{'-', actionCount, 3},
		{'m', actionRedraw, 3},
		{'x', actionNone, 3},
		{'q', actionQuit, 3},
		{3, actionQuit, 3},
	}
	for _, tt := range tests {
		if got := v.handleKey(tt.key); got != tt.want {
			t.Errorf("handleKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
		if got := v.count(); got != tt.wantCount {
			t.Errorf("after %q count = %d, want %d", tt.key, got, tt.wantCount)
		}
	}
	if v.mode != tiles.ModeSpeaker {
		t.Errorf("mode = %q, want speaker after m", v.mode)
	}
}

func TestViewMinusStopsAtZero(t *testing.T) {
	v := newView(config.Default().Grid)
	v.setPlaceholders(0)
	if got := v.handleKey('-'); got != actionNone {
		t.Errorf("handleKey('-') on empty = %v, want none", got)
	}
}

func TestViewRosterIgnoresCountKeys(t *testing.T) {
	v := newView(config.Default().Grid)
	v.setRoster([]tiles.Participant{{ID: "ada"}})
	if got := v.handleKey('+'); got != actionNone {
		t.Errorf("handleKey('+') on live room = %v, want none", got)
	}
	if v.count() != 1 {
		t.Errorf("count = %d, want 1", v.count())
	}
}

func TestViewFrame(t *testing.T) {
	v := newView(config.Default().Grid)
	v.setPlaceholders(3)

	out := v.frame(TermSize(ssh.Window{Width: 80, Height: 24}))
	for _, want := range []string{"Participant 1", "Participant 3", "2x2"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q:\n%s", want, out)
		}
	}

	if got := v.frame(grid.Size{}); !strings.Contains(got, "too small") {
		t.Errorf("zero-size frame = %q", got)
	}
}

func TestOfferKeepsLatest(t *testing.T) {
	ch := make(chan observe.Snapshot, 1)
	offer(ch, observe.Snapshot{Seq: 1})
	offer(ch, observe.Snapshot{Seq: 2})
	if got := (<-ch).Seq; got != 2 {
		t.Errorf("pending snapshot seq = %d, want 2", got)
	}
}

func TestForwardWindows(t *testing.T) {
	winCh := make(chan ssh.Window, 1)
	sizes := make(chan grid.Size, 1)
	done := make(chan struct{})

	go forwardWindows(winCh, sizes, done)
	winCh <- ssh.Window{Width: 100, Height: 42}
	if got := <-sizes; got != (grid.Size{Width: 800, Height: 640}) {
		t.Errorf("forwarded size = %v", got)
	}
	close(winCh)
}

func TestToCRLF(t *testing.T) {
	if got := toCRLF("a\nb\n"); got != "a\r\nb\r\n" {
		t.Errorf("toCRLF = %q", got)
	}
}
