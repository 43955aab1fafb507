package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"json", false},
		{"yaml", false},
		{"txt", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want %s", tt.format, errors.GetCode(err), errors.ErrCodeInvalidFormat)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{"light", false},
		{"dark", false},
		{"neon", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"grid", false},
		{"speaker", false},
		{"gallery", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %f, got %f", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %f, got %f", DefaultHeight, opts.Height)
	}
	if opts.Gap == nil || *opts.Gap != grid.DefaultGap {
		t.Errorf("Gap should be %v, got %v", grid.DefaultGap, opts.Gap)
	}
	if opts.Mode != DefaultMode {
		t.Errorf("Mode should be %s, got %s", DefaultMode, opts.Mode)
	}
	if opts.MaxVisible != tiles.DefaultMaxVisible {
		t.Errorf("MaxVisible should be %d, got %d", tiles.DefaultMaxVisible, opts.MaxVisible)
	}
}

func TestSetLayoutDefaultsCountFromNames(t *testing.T) {
	opts := Options{Names: []string{"Ada", "Grace", "Linus"}}
	opts.SetLayoutDefaults()
	if opts.Count != 3 {
		t.Errorf("Count should be 3, got %d", opts.Count)
	}
}

func TestSetLayoutDefaultsKeepsZeroGap(t *testing.T) {
	opts := Options{Gap: tiles.Gap(0)}
	opts.SetLayoutDefaults()
	if *opts.Gap != 0 {
		t.Errorf("explicit zero gap replaced with %v", *opts.Gap)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Style != DefaultStyle {
		t.Errorf("Style should be %s, got %s", DefaultStyle, opts.Style)
	}
	if opts.Scale != 1 {
		t.Errorf("Scale should be 1, got %v", opts.Scale)
	}
}

func TestOptionsValidateForLayout(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"defaults", Options{Count: 4}, ""},
		{"negative count", Options{Count: -1}, errors.ErrCodeInvalidCount},
		{"negative width", Options{Count: 1, Width: -10, Height: 100}, errors.ErrCodeInvalidSize},
		{"negative gap", Options{Count: 1, Gap: tiles.Gap(-1)}, errors.ErrCodeInvalidSize},
		{"bad mode", Options{Count: 1, Mode: "gallery"}, errors.ErrCodeInvalidMode},
		{"negative max visible", Options{Count: 1, MaxVisible: -3}, errors.ErrCodeInvalidCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLayout()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Count: 5, Mode: "speaker"}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalWidth := opts.Width
	originalStyle := opts.Style
	originalFormats := strings.Join(opts.Formats, ",")

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Width != originalWidth {
		t.Error("Width changed on second call")
	}
	if opts.Style != originalStyle {
		t.Error("Style changed on second call")
	}
	if strings.Join(opts.Formats, ",") != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestArtifactKeyOptsSeparatesVariants(t *testing.T) {
	opts := Options{Style: "light", TextWidth: 80, Scale: 1}
	txt80 := opts.ArtifactKeyOpts(FormatText)
	opts.TextWidth = 120
	txt120 := opts.ArtifactKeyOpts(FormatText)
	if txt80 == txt120 {
		t.Error("text artifacts of different widths share a key")
	}

	png1 := opts.ArtifactKeyOpts(FormatPNG)
	opts.Scale = 2
	png2 := opts.ArtifactKeyOpts(FormatPNG)
	if png1 == png2 {
		t.Error("PNG artifacts of different scales share a key")
	}
}

func TestResolveParticipants(t *testing.T) {
	t.Run("synthesized", func(t *testing.T) {
		ps := ResolveParticipants(Options{Count: 3, Names: []string{"Ada"}})
		if len(ps) != 3 {
			t.Fatalf("got %d participants, want 3", len(ps))
		}
		if ps[0].ID != "p1" || ps[0].Name != "Ada" {
			t.Errorf("first = %+v, want p1/Ada", ps[0])
		}
		if ps[2].Name != "Participant 3" {
			t.Errorf("third name = %q, want Participant 3", ps[2].Name)
		}
	})

	t.Run("explicit list wins", func(t *testing.T) {
		explicit := []tiles.Participant{{ID: "u9", Name: "Nine"}}
		ps := ResolveParticipants(Options{Count: 5, Participants: explicit})
		if len(ps) != 1 || ps[0].ID != "u9" {
			t.Errorf("got %+v, want the explicit list", ps)
		}
	})
}

func TestGenerateLayout(t *testing.T) {
	opts := Options{Count: 4}
	opts.SetLayoutDefaults()
	a := GenerateLayout(opts)
	if a.Layout.Shape != (grid.Shape{Columns: 2, Rows: 2}) {
		t.Errorf("Shape = %v, want 2x2", a.Layout.Shape)
	}
	if len(a.Tiles) != 4 {
		t.Errorf("got %d tiles, want 4", len(a.Tiles))
	}
}

func TestRenderFromArrangement(t *testing.T) {
	opts := Options{Count: 3, Formats: []string{FormatSVG, FormatJSON, FormatYAML, FormatText, FormatDOT}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	a := GenerateLayout(opts)

	artifacts, err := RenderFromArrangement(context.Background(), a, opts)
	if err != nil {
		t.Fatalf("RenderFromArrangement: %v", err)
	}
	if len(artifacts) != len(opts.Formats) {
		t.Fatalf("got %d artifacts, want %d", len(artifacts), len(opts.Formats))
	}
	if !bytes.HasPrefix(artifacts[FormatSVG], []byte("<svg")) {
		t.Errorf("svg artifact does not start with <svg: %.40s", artifacts[FormatSVG])
	}
	var doc map[string]any
	if err := json.Unmarshal(artifacts[FormatJSON], &doc); err != nil {
		t.Errorf("json artifact: %v", err)
	}
	if !strings.Contains(string(artifacts[FormatDOT]), "layout=neato") {
		t.Error("dot artifact missing neato layout")
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Count: 15, Width: 1280, Height: 720, Formats: []string{FormatSVG, FormatJSON}}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit cache: %+v", first.CacheInfo)
	}
	if first.Stats.Participants != 15 || first.Stats.Visible != 12 {
		t.Errorf("stats = %+v, want 15 participants, 12 visible", first.Stats)
	}
	if first.Arrangement.OverflowLabel() != "+3 more" {
		t.Errorf("OverflowLabel = %q, want +3 more", first.Arrangement.OverflowLabel())
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed cache: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}
	if second.InputHash != first.InputHash {
		t.Error("input hash changed between runs")
	}
}

func TestRunnerRefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)

	opts := Options{Count: 2}
	if _, err := runner.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Errorf("refresh run hit cache: %+v", res.CacheInfo)
	}
}

func TestRunnerLayoutKeyDependsOnSize(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)

	wide, hit, err := runner.LayoutWithCacheInfo(ctx, Options{Count: 2, Width: 1600, Height: 450})
	if err != nil || hit {
		t.Fatalf("wide: hit=%v err=%v", hit, err)
	}
	tall, hit, err := runner.LayoutWithCacheInfo(ctx, Options{Count: 2, Width: 450, Height: 1600})
	if err != nil || hit {
		t.Fatalf("tall: hit=%v err=%v", hit, err)
	}
	if wide.Layout.Shape == tall.Layout.Shape {
		t.Errorf("wide and tall containers share shape %v", wide.Layout.Shape)
	}
}

func TestRunnerRejectsInvalidOptions(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{Count: 2, Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}
