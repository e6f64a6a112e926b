package cli

import (
	"fmt"

	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <stage>",
	Short: "Enable a stage in the pipeline file",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		changed, err := pipeline_yaml.SetStageDisabled(pipelinePath, name, false)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("no change (stage %q already enabled or not found)\n", name)
			return nil
		}

		fmt.Printf("enabled: %s\n", name)
		return nil
	},
}

func init() {
	enableCmd.ValidArgsFunction = completeStageNames
	rootCmd.AddCommand(enableCmd)
}

func completeStageNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names, err := pipeline_yaml.StageNames(pipelinePath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if toComplete == "" || startsWith(n, toComplete) {
			out = append(out, n)
		}
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}

func startsWith(s, pref string) bool {
	if len(pref) > len(s) {
		return false
	}

	return s[:len(pref)] == pref
}
