package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/attreval/internal/app"
)

func newEvaluateCmd(c *cli) *cobra.Command {
	var (
		asJSON      bool
		groundTruth string
		prediction  string
	)
	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Score a results table with both F1 variants",
		Long: `Score a CSV table with ground truth and prediction columns.
Without a file argument the configured results_file is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if groundTruth != "" {
				c.cfg.GroundTruthColumn = groundTruth
			}
			if prediction != "" {
				c.cfg.PredictionColumn = prediction
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			svc := service.New(service.WithConfig(c.cfg))
			sum, err := svc.Evaluate(cmd.Context(), path)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			c.printSummary(sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full summary as JSON")
	cmd.Flags().StringVar(&groundTruth, "ground-truth-column", "", "ground truth column name")
	cmd.Flags().StringVar(&prediction, "prediction-column", "", "prediction column name")
	return cmd
}

func (c *cli) printSummary(sum service.Summary) {
	fmt.Fprintf(c.stdout, "Records: %d\n", sum.Records)
	fmt.Fprintf(c.stdout, "TP=%d FP=%d FN=%d TN=%d\n",
		sum.Counts.TruePositive, sum.Counts.FalsePositive, sum.Counts.FalseNegative, sum.Counts.TrueNegative)
	fmt.Fprintf(c.stdout, "Precision: %s Recall: %s\n", c.score(sum.Precision), c.score(sum.Recall))
	fmt.Fprintf(c.stdout, "Binary F1 Score: %s\n", c.score(sum.BinaryF1))
	fmt.Fprintf(c.stdout, "Weighted F1 Score: %s\n", c.score(sum.WeightedF1))
}
