package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gonarrative/internal/policy"
	"gonarrative/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List registered insight rules and their evidence requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tMIN ROWS\tMIN GROUPS\tDESCRIPTION")
		for _, rc := range rules.NewRegistry().Configs() {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", rc.Name, rc.Requirements.MinSampleSize, rc.Requirements.MinGroups, rc.Description)
		}
		return w.Flush()
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective appraisal policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.Load(cfg.Policy.Path)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(p)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd, policyCmd)
}
