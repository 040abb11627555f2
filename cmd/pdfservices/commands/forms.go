package commands

import (
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

func newImportFormDataCommand(a *app) *cobra.Command {
	var dataFile string
	cmd := a.jobCommand(jobSpec{
		use:   "import-pdf-form-data <form.pdf>",
		short: "Fill a PDF form from a JSON file keyed by field name",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			data, err := readOptional(dataFile)
			if err != nil {
				return nil, err
			}
			return &pdfservices.ImportFormDataJob{Input: in[0], FormData: data}, nil
		},
	})
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file with the field values")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newExportFormDataCommand(a *app) *cobra.Command {
	return a.jobCommand(jobSpec{
		use:   "export-pdf-form-data <form.pdf>",
		short: "Write a PDF form's field values as JSON",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.ExportFormDataJob{Input: in[0]}, nil
		},
	})
}
