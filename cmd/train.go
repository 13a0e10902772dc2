package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/legalform/internal/store"
	"github.com/sells-group/legalform/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train <jurisdiction>",
	Short: "Fit and store the model for a jurisdiction",
	Long:  "Filters the jurisdiction's registry records, fits a complement naive Bayes model on a stratified split, reports held-out accuracy and saves the model.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("train"); err != nil {
			return err
		}
		return runTrain(cmd.Context(), cmd.OutOrStdout(), jurisdictionArg(args[0]))
	},
}

func runTrain(ctx context.Context, out io.Writer, jurisdiction string) error {
	codes, err := loadCodes(ctx)
	if err != nil {
		return err
	}
	records, err := loadRegistry(ctx, jurisdiction)
	if err != nil {
		return err
	}

	trainer := train.NewTrainer(codes, cfg.TrainOptions())
	m, rep, err := trainer.TrainForJurisdiction(ctx, jurisdiction, records)
	if err != nil {
		return eris.Wrapf(err, "train %s", jurisdiction)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "open model store")
	}
	defer st.Close() //nolint:errcheck

	if err := st.Save(ctx, m); err != nil {
		return eris.Wrapf(err, "save model %s", jurisdiction)
	}

	formatReport(out, rep)
	_, _ = fmt.Fprintf(out, "\nSaved model %s for %s\n", m.ID, jurisdiction)
	return nil
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
