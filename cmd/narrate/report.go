package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"gonarrative/app"
	"gonarrative/domain/narrative"
)

var (
	reportFilters  map[string]string
	reportSections []string
	reportFormat   string
	reportTitle    string
	reportOut      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Narrate several sections into one document",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initContainer()
		if err != nil {
			return err
		}
		defer c.Shutdown()

		rep, err := c.Reports.Build(cmd.Context(), reportTitle, reportSections, narrative.FilterState(reportFilters))
		if err != nil {
			return err
		}

		var body []byte
		if reportFormat == "json" {
			body, err = json.MarshalIndent(rep, "", "  ")
		} else {
			body, err = rep.Render(app.ReportFormat(reportFormat))
		}
		if err != nil {
			return err
		}

		if reportOut == "" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		return os.WriteFile(reportOut, body, 0o644)
	},
}

func init() {
	reportCmd.Flags().StringToStringVar(&reportFilters, "filter", nil, "field=value filters, repeatable")
	reportCmd.Flags().StringSliceVar(&reportSections, "sections", nil, "section ids (default all)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "output format: markdown, html or json")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "report title")
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
