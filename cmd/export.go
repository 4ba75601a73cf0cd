package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/scan"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's results to an XLSX workbook",
	Long:  "Writes three sheets: the score summary, every per-prompt result, and the verified citations.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		user, _ := cmd.Flags().GetString("user")
		out, _ := cmd.Flags().GetString("out")

		detail, err := env.Service.GetRunDetail(ctx, user, args[0])
		if err != nil {
			return formatScanError(err)
		}

		results, err := env.Store.ListResults(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export: list results")
		}

		file := xlsx.NewFile()
		if err := writeSummarySheet(file, detail); err != nil {
			return err
		}
		if err := writeResultsSheet(file, results); err != nil {
			return err
		}
		if err := writeCitationsSheet(file, results); err != nil {
			return err
		}

		if err := file.Save(out); err != nil {
			return eris.Wrap(err, "export: save workbook")
		}

		fmt.Fprintf(os.Stdout, "Exported run %s to %s\n", detail.Run.ID, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("user", "local", "owning user id")
	exportCmd.Flags().String("out", "visibility.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}

func writeSummarySheet(file *xlsx.File, detail *scan.RunDetail) error {
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addRow(sheet, "Business", detail.Profile.Name)
	addRow(sheet, "Domain", detail.Profile.Domain)
	addRow(sheet, "Run", detail.Run.ID)
	addRow(sheet, "Status", string(detail.Run.Status))
	addRow(sheet, "Models", strings.Join(detail.Run.Models, ", "))
	addRow(sheet, "Errors", fmt.Sprintf("%d", detail.Run.ErrorCount))

	if detail.Score != nil {
		addRow(sheet, "Score", fmt.Sprintf("%d", detail.Score.TotalScore))
		addRow(sheet, "Visibility", string(detail.Score.Status))
		addRow(sheet, "Confidence", string(detail.Score.Confidence.Level))
		for _, c := range detail.Score.Competitors {
			addRow(sheet, "Competitor", c.Name, fmt.Sprintf("%d", c.Mentions))
		}
		for _, r := range detail.Score.Recommendations {
			addRow(sheet, "Recommendation", r)
		}
	}
	return nil
}

func writeResultsSheet(file *xlsx.File, results []model.ScanResult) error {
	sheet, err := file.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "export: add results sheet")
	}

	addRow(sheet, "Model", "Layer", "Mentioned", "Recommended", "Position", "Competitors", "Response")
	for _, r := range results {
		position := ""
		if r.Position != nil {
			position = fmt.Sprintf("%d", *r.Position)
		}
		addRow(sheet,
			r.Model,
			string(r.Layer),
			fmt.Sprintf("%t", r.Mentioned),
			fmt.Sprintf("%t", r.Recommended),
			position,
			strings.Join(r.Competitors, ", "),
			r.Response,
		)
	}
	return nil
}

func writeCitationsSheet(file *xlsx.File, results []model.ScanResult) error {
	sheet, err := file.AddSheet("Citations")
	if err != nil {
		return eris.Wrap(err, "export: add citations sheet")
	}

	addRow(sheet, "Model", "URL", "Domain", "Accessible", "HTTP Status", "Error")
	for _, r := range results {
		for _, c := range r.Citations {
			addRow(sheet,
				r.Model,
				c.URL,
				c.Domain,
				fmt.Sprintf("%t", c.Accessible),
				fmt.Sprintf("%d", c.HTTPStatus),
				c.ValidationError,
			)
		}
	}
	return nil
}
