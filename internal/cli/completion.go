package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/render/styles"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tilegrid.

Besides subcommands, the scripts complete the values of --format (one
comma-separated entry at a time), --style, --mode, and cache clear --kind.

  $ source <(tilegrid completion bash)
  $ tilegrid completion zsh > "${fpath[1]}/_tilegrid"
  $ tilegrid completion fish > ~/.config/fish/completions/tilegrid.fish
  PS> tilegrid completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}

	return cmd
}

// flagValues maps flag names to the values offered for them. A flag is
// completed on every subcommand that defines it.
func flagValues() map[string][]string {
	return map[string][]string{
		"style": styles.Names(),
		"mode":  {string(tiles.ModeGrid), string(tiles.ModeSpeaker)},
		"kind":  cacheKinds,
	}
}

// registerFlagCompletions attaches value completion to the flags of cmd and
// all of its subcommands.
func registerFlagCompletions(cmd *cobra.Command) {
	values := flagValues()
	for name, vals := range values {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, completeOneOf(vals))
		}
	}
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", completeList(pipeline.FormatNames()))
	}
	for _, sub := range cmd.Commands() {
		registerFlagCompletions(sub)
	}
}

func completeOneOf(vals []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range vals {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeList completes the last entry of a comma-separated list and skips
// values already present in it.
func completeList(vals []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		head, last := "", toComplete
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			head, last = toComplete[:i+1], toComplete[i+1:]
		}
		chosen := strings.Split(strings.TrimSuffix(head, ","), ",")

		var out []string
		for _, v := range vals {
			if strings.HasPrefix(v, last) && !slices.Contains(chosen, v) {
				out = append(out, head+v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
}
