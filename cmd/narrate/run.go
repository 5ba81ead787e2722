package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gonarrative/domain/narrative"
	"gonarrative/internal/engine"
)

var (
	runFilters map[string]string
	runFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run <section>",
	Short: "Narrate one section under optional filters",
	Long: `Narrate one section and print the result.

Example: narrate run bus_stops --filter region=London --format text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initContainer()
		if err != nil {
			return err
		}
		defer c.Shutdown()

		res, err := c.Narratives.Narrate(cmd.Context(), args[0], narrative.FilterState(runFilters))
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), res, runFormat)
	},
}

func init() {
	runCmd.Flags().StringToStringVar(&runFilters, "filter", nil, "field=value filters, repeatable")
	runCmd.Flags().StringVar(&runFormat, "format", "json", "output format: json or text")
	rootCmd.AddCommand(runCmd)
}

func writeResult(w io.Writer, res engine.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text":
		for _, ft := range narrative.FragmentTypes {
			if text, ok := res.Fragment(ft); ok {
				fmt.Fprintln(w, text)
			}
		}
		if len(res.Sources) > 0 {
			fmt.Fprintf(w, "\nSources: %s\n", strings.Join(res.Sources, "; "))
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}
