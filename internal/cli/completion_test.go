package cli

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"testing"
)

// complete runs cobra's hidden completion command and returns the offered
// values without the trailing directive line.
func complete(t *testing.T, args ...string) []string {
	t.Helper()
	c, _ := newTestCLI(t)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"__complete"}, args...))
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("complete %v: %v", args, err)
	}

	var vals []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.HasPrefix(line, ":") {
			continue
		}
		vals = append(vals, strings.SplitN(line, "\t", 2)[0])
	}
	return vals
}

func TestFlagCompletion(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"style", []string{"render", "--style", ""}, []string{"dark", "light"}},
		{"style prefix", []string{"render", "--style", "d"}, []string{"dark"}},
		{"mode", []string{"render", "--mode", ""}, []string{"grid", "speaker"}},
		{"cache kind", []string{"cache", "clear", "--kind", ""}, []string{"layout", "artifact"}},
		{"first format", []string{"render", "-f", "p"}, []string{"png"}},
		{"next format", []string{"render", "-f", "svg,j"}, []string{"svg,json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := complete(t, tt.args...)
			if !slices.Equal(got, tt.want) {
				t.Errorf("completions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCompletionSkipsChosen(t *testing.T) {
	got := complete(t, "render", "-f", "svg,png,")
	if len(got) == 0 {
		t.Fatal("no completions offered")
	}
	for _, v := range got {
		if !strings.HasPrefix(v, "svg,png,") {
			t.Errorf("completion %q lost the chosen prefix", v)
		}
		if last := strings.TrimPrefix(v, "svg,png,"); last == "svg" || last == "png" {
			t.Errorf("completion %q repeats a chosen format", v)
		}
	}
}

func TestCompletionCommandWritesScript(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			c, _ := newTestCLI(t)
			root := c.RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs([]string{"completion", shell})
			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "tilegrid") {
				t.Errorf("%s script does not mention tilegrid", shell)
			}
		})
	}
}
