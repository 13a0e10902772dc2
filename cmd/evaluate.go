package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/legalform/internal/train"
)

var evaluateFormat string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <jurisdiction>",
	Short: "Cross-validate the training pipeline for a jurisdiction",
	Long:  "Runs repeated stratified shuffle splits and reports accuracy, balanced accuracy and F1 scores per split. Nothing is saved.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}
		return runEvaluate(cmd.Context(), cmd.OutOrStdout(), jurisdictionArg(args[0]), evaluateFormat)
	},
}

func runEvaluate(ctx context.Context, out io.Writer, jurisdiction, format string) error {
	codes, err := loadCodes(ctx)
	if err != nil {
		return err
	}
	records, err := loadRegistry(ctx, jurisdiction)
	if err != nil {
		return err
	}

	trainer := train.NewTrainer(codes, cfg.TrainOptions())
	ev, err := trainer.Evaluate(ctx, jurisdiction, records, cfg.EvalOptions())
	if err != nil {
		return eris.Wrapf(err, "evaluate %s", jurisdiction)
	}

	if format == formatTable {
		formatEvaluation(out, ev)
		return nil
	}
	return writeFormatted(out, format, ev)
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateFormat, "format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(evaluateCmd)
}
