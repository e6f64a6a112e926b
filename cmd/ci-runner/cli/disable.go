package cli

import (
	"fmt"

	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <stage>",
	Short: "Disable a stage in the pipeline file",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		changed, err := pipeline_yaml.SetStageDisabled(pipelinePath, name, true)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("no change (stage %q already disabled or not found)\n", name)
			return nil
		}

		fmt.Printf("disabled: %s\n", name)
		return nil
	},
}

func init() {
	disableCmd.ValidArgsFunction = completeStageNames
	rootCmd.AddCommand(disableCmd)
}
