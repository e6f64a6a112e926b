package cli

import (
	"fmt"
	"time"

	"github.com/davarch/ci-runner/internal/infrastructure/config"
	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and lint the pipeline file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// validation does not need a webhook, so a config error only
		// costs the default step timeout
		var timeout time.Duration
		if cfg, err := config.Load(cfgPath); err == nil {
			timeout = time.Duration(cfg.Run.StepTimeout)
		}

		p, err := pipeline_yaml.Load(pipelinePath, timeout)
		if err != nil {
			return err
		}

		gated := 0
		for _, s := range p.Stages {
			if s.When.Branch != "" {
				gated++
			}
		}

		fmt.Printf("%s: ok (%d stages, %d branch-gated)\n", pipelinePath, len(p.Stages), gated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
