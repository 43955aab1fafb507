package tiles

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

func people(n int) []Participant {
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = Participant{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Person %d", i)}
	}
	return ps
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeGrid, false},
		{"grid", ModeGrid, false},
		{"speaker", ModeSpeaker, false},
		{"gallery", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlanEmpty(t *testing.T) {
	a := Plan(nil, grid.Size{Width: 800, Height: 600}, Options{})
	if !a.Empty {
		t.Error("Empty = false for no participants")
	}
	if len(a.Tiles) != 0 {
		t.Errorf("got %d tiles, want 0", len(a.Tiles))
	}
	if !a.Ready() {
		t.Error("empty arrangement should be ready")
	}
	if a.OverflowLabel() != "" {
		t.Errorf("OverflowLabel = %q, want empty", a.OverflowLabel())
	}
}

func TestPlanGrid(t *testing.T) {
	a := Plan(people(6), grid.Size{Width: 1280, Height: 720}, Options{})

	if a.Mode != ModeGrid {
		t.Errorf("Mode = %q, want grid", a.Mode)
	}
	if a.Layout.Shape != (grid.Shape{Columns: 3, Rows: 2}) {
		t.Fatalf("Shape = %v, want 3x2", a.Layout.Shape)
	}
	if len(a.Slots) != 6 || len(a.Tiles) != 6 {
		t.Fatalf("slots=%d tiles=%d, want 6 each", len(a.Slots), len(a.Tiles))
	}

	// Second row, first column.
	tile := a.Tiles[3]
	slotW := (1280.0 - 2*8) / 3
	slotH := (720.0 - 8) / 2
	if !approx(tile.Slot.X, 0) || !approx(tile.Slot.Y, slotH+8) {
		t.Errorf("slot origin = (%v, %v), want (0, %v)", tile.Slot.X, tile.Slot.Y, slotH+8)
	}
	if !approx(tile.Slot.Width, slotW) {
		t.Errorf("slot width = %v, want %v", tile.Slot.Width, slotW)
	}
	if !approx(tile.Rect.Width, a.Layout.Cell.Width) || !approx(tile.Rect.Height, a.Layout.Cell.Height) {
		t.Errorf("tile size = %vx%v, want cell size %v", tile.Rect.Width, tile.Rect.Height, a.Layout.Cell)
	}
	if !approx(tile.Rect.CenterY(), tile.Slot.CenterY()) || !approx(tile.Rect.CenterX(), tile.Slot.CenterX()) {
		t.Error("tile is not centered in its slot")
	}
}

func TestPlanGridLeavesEmptySlots(t *testing.T) {
	a := Plan(people(5), grid.Size{Width: 1280, Height: 720}, Options{})
	if a.Layout.Shape != (grid.Shape{Columns: 3, Rows: 2}) {
		t.Fatalf("Shape = %v, want 3x2", a.Layout.Shape)
	}
	if len(a.Slots) != 6 {
		t.Errorf("got %d slots, want 6", len(a.Slots))
	}
	if len(a.Tiles) != 5 {
		t.Errorf("got %d tiles, want 5", len(a.Tiles))
	}
}

func TestPlanTilesInsideContainer(t *testing.T) {
	sizes := []grid.Size{
		{Width: 1920, Height: 1080},
		{Width: 390, Height: 844},
		{Width: 1000, Height: 1000},
		{Width: 300, Height: 120},
	}
	for _, size := range sizes {
		for n := 1; n <= 15; n++ {
			a := Plan(people(n), size, Options{})
			for _, tile := range a.Tiles {
				r := tile.Rect
				if r.X < -1e-9 || r.Y < -1e-9 ||
					r.X+r.Width > size.Width+1e-9 || r.Y+r.Height > size.Height+1e-9 {
					t.Errorf("%v n=%d: tile %d at %+v leaves container", size, n, tile.Index, r)
				}
			}
		}
	}
}

func TestPlanOverflow(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		maxVisible int
		wantTiles  int
		wantLabel  string
	}{
		{"under default", 8, 0, 8, ""},
		{"at default", 12, 0, 12, ""},
		{"over default", 15, 0, 12, "+3 more"},
		{"custom cap", 7, 4, 4, "+3 more"},
		{"cap above max cells", 20, 50, 12, "+8 more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Plan(people(tt.count), grid.Size{Width: 1280, Height: 720}, Options{MaxVisible: tt.maxVisible})
			if len(a.Tiles) != tt.wantTiles {
				t.Errorf("got %d tiles, want %d", len(a.Tiles), tt.wantTiles)
			}
			if got := a.OverflowLabel(); got != tt.wantLabel {
				t.Errorf("OverflowLabel = %q, want %q", got, tt.wantLabel)
			}
			if a.Layout.Count != tt.wantTiles {
				t.Errorf("Layout.Count = %d, want %d", a.Layout.Count, tt.wantTiles)
			}
		})
	}
}

func TestPlanKeepsJoinOrder(t *testing.T) {
	ps := people(14)
	a := Plan(ps, grid.Size{Width: 1280, Height: 720}, Options{})
	for i, tile := range a.Tiles {
		if tile.Participant.ID != ps[i].ID {
			t.Errorf("tile %d shows %s, want %s", i, tile.Participant.ID, ps[i].ID)
		}
	}
}

func TestPlanSpeaker(t *testing.T) {
	a := Plan(people(3), grid.Size{Width: 1280, Height: 720}, Options{Mode: ModeSpeaker, SpeakerIndex: 1})

	if a.Mode != ModeSpeaker {
		t.Fatalf("Mode = %q, want speaker", a.Mode)
	}
	if len(a.Tiles) != 3 {
		t.Fatalf("got %d tiles, want 3", len(a.Tiles))
	}

	main := a.Tiles[0]
	if !main.Focused || main.Participant.ID != "p1" {
		t.Errorf("main tile = %+v, want focused p1", main)
	}
	if !approx(main.Slot.Width, 1280-224-12) {
		t.Errorf("main width = %v, want %v", main.Slot.Width, 1280-224-12)
	}
	if !approx(main.Rect.Width/main.Rect.Height, grid.TargetAspect) {
		t.Errorf("main aspect = %v, want 16:9", main.Rect.Width/main.Rect.Height)
	}

	thumbs := a.Tiles[1:]
	wantIDs := []string{"p0", "p2"}
	for i, th := range thumbs {
		if th.Participant.ID != wantIDs[i] {
			t.Errorf("thumb %d = %s, want %s", i, th.Participant.ID, wantIDs[i])
		}
		if !approx(th.Rect.X, 1280-224) || !approx(th.Rect.Width, 224) || !approx(th.Rect.Height, 112) {
			t.Errorf("thumb %d rect = %+v", i, th.Rect)
		}
		if !approx(th.Rect.Y, float64(i)*(112+8)) {
			t.Errorf("thumb %d Y = %v, want %v", i, th.Rect.Y, float64(i)*(112+8))
		}
	}
}

func TestPlanSpeakerNarrow(t *testing.T) {
	a := Plan(people(2), grid.Size{Width: 700, Height: 500}, Options{Mode: ModeSpeaker})
	thumb := a.Tiles[1]
	if !approx(thumb.Rect.Width, 192) || !approx(thumb.Rect.Height, 96) {
		t.Errorf("narrow thumb = %vx%v, want 192x96", thumb.Rect.Width, thumb.Rect.Height)
	}
}

func TestPlanSpeakerFallsBack(t *testing.T) {
	t.Run("single participant", func(t *testing.T) {
		a := Plan(people(1), grid.Size{Width: 1280, Height: 720}, Options{Mode: ModeSpeaker})
		if a.Mode != ModeGrid {
			t.Errorf("Mode = %q, want grid", a.Mode)
		}
	})
	t.Run("speaker out of range", func(t *testing.T) {
		a := Plan(people(3), grid.Size{Width: 1280, Height: 720}, Options{Mode: ModeSpeaker, SpeakerIndex: 9})
		if a.Tiles[0].Participant.ID != "p0" {
			t.Errorf("main = %s, want p0", a.Tiles[0].Participant.ID)
		}
	})
}

func TestVideoSource(t *testing.T) {
	tests := []struct {
		p    Participant
		want Source
	}{
		{Participant{}, SourceNone},
		{Participant{CameraOn: true}, SourceCamera},
		{Participant{ScreenShare: true}, SourceScreen},
		{Participant{CameraOn: true, ScreenShare: true}, SourceScreen},
	}
	for _, tt := range tests {
		if got := tt.p.VideoSource(); got != tt.want {
			t.Errorf("%+v.VideoSource() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := (Participant{ID: "u1"}).Label(); got != "u1" {
		t.Errorf("Label = %q, want u1", got)
	}
	if got := (Participant{ID: "u1", Name: "Ada"}).Label(); got != "Ada" {
		t.Errorf("Label = %q, want Ada", got)
	}
}

func TestPlanGap(t *testing.T) {
	size := grid.Size{Width: 1600, Height: 450}

	def := Plan(people(2), size, Options{})
	if def.Layout.Gap != grid.DefaultGap {
		t.Errorf("default Gap = %v, want %v", def.Layout.Gap, grid.DefaultGap)
	}

	none := Plan(people(2), size, Options{Gap: Gap(0)})
	if none.Layout.Gap != 0 {
		t.Errorf("Gap = %v, want 0", none.Layout.Gap)
	}
	if !approx(none.Tiles[1].Slot.X, 800) {
		t.Errorf("second slot X = %v, want 800", none.Tiles[1].Slot.X)
	}
}
