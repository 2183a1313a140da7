package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/attreval/internal/app"
)

func newPredictCmd(c *cli) *cobra.Command {
	var fetchImages bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the predictor over the test table and check its output",
		Long: `Read test_file, predict every item, write non-empty predictions to
output_file and empty ones to fail_file, then sanity check output_file.
When the test table has a ground truth column the run is also scored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("fetch-images") {
				c.cfg.FetchImages = fetchImages
			}
			svc := service.New(service.WithConfig(c.cfg))
			sum, err := svc.Predict(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(c.stdout, "Items: %d predicted: %d failed: %d errors: %d\n",
				sum.Items, sum.Predicted, sum.Failed, sum.Errors)
			fmt.Fprintf(c.stdout, "Output: %s\nFailures: %s\n", sum.OutputFile, sum.FailFile)
			if c.cfg.FetchImages {
				fmt.Fprintf(c.stdout, "Images fetched: %d skipped: %d failed: %d\n",
					sum.Images.Fetched, sum.Images.Skipped, sum.Images.Failed)
			}
			c.printReport(sum.Sanity.Missing, sum.Sanity.Extra)
			fmt.Fprintf(c.stdout, "Parsing successful for file: %s\n", sum.OutputFile)
			if sum.Score != nil {
				fmt.Fprintf(c.stdout, "Combined: %s\n", sum.CombinedFile)
				c.printSummary(*sum.Score)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetchImages, "fetch-images", false, "download item images before predicting")
	return cmd
}
