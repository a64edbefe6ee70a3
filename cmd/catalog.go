package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
)

// newCatalogCmd creates the `catalog` command, which prints what a run would execute.
func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Lists the effective test catalog and the scenarios built from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(cat); err != nil {
					return fmt.Errorf("failed to encode catalog: %w", err)
				}
				return enc.Close()
			}

			scenarios := orchestrator.Filter(orchestrator.Build(cat), cfg.Run.Only)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSCENARIO")
			for i, sc := range scenarios {
				fmt.Fprintf(tw, "%d\t%s\n", i+1, sc.Name)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%d scenarios\n", len(scenarios))
			return err
		},
	}
	catalogCmd.Flags().Bool("yaml", false, "Print the merged catalog as YAML instead of the scenario list.")
	addCatalogFlags(catalogCmd)
	return catalogCmd
}
