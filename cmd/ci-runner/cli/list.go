package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/spf13/cobra"
)

var (
	listOnlyEnabled  bool
	listOnlyDisabled bool
	listJSON         bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stages from the pipeline file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline_yaml.Load(pipelinePath, 0)
		if err != nil {
			return err
		}

		type stageRow struct {
			Name     string `json:"name"`
			Branch   string `json:"branch,omitempty"`
			Steps    int    `json:"steps"`
			Disabled bool   `json:"disabled"`
		}

		items := make([]stageRow, 0, len(p.Stages))
		for _, s := range p.Stages {
			if listOnlyEnabled && s.Disabled {
				continue
			}
			if listOnlyDisabled && !s.Disabled {
				continue
			}
			items = append(items, stageRow{
				Name:     s.Name,
				Branch:   s.When.Branch,
				Steps:    len(s.Steps),
				Disabled: s.Disabled,
			})
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "STAGE\tBRANCH\tSTEPS\tDISABLED")
		for _, s := range items {
			branch := s.Branch
			if branch == "" {
				branch = "(any)"
			}
			dis := "false"
			if s.Disabled {
				dis = "true"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, branch, s.Steps, dis)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOnlyEnabled, "enabled", false, "show only enabled stages")
	listCmd.Flags().BoolVar(&listOnlyDisabled, "disabled", false, "show only disabled stages")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	listCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if listOnlyEnabled && listOnlyDisabled {
			return fmt.Errorf("flags --enabled and --disabled are mutually exclusive")
		}
		return nil
	}

	rootCmd.AddCommand(listCmd)
}
