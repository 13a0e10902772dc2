package main

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	elfTop    int
	elfFormat string
)

var elfCmd = &cobra.Command{
	Use:   "elf <jurisdiction> <legal name>",
	Short: "Predict the ELF code of a legal entity name",
	Example: `  legalform elf DE "Hans Maier GmbH"
  legalform elf US-DE Acme Holdings LLC --top 5`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("detect"); err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		return runDetect(cmd.Context(), cmd.OutOrStdout(), jurisdictionArg(args[0]), name, elfTop, elfFormat)
	},
}

func runDetect(ctx context.Context, out io.Writer, jurisdiction, name string, top int, format string) error {
	if top <= 0 {
		top = cfg.Detect.Top
	}

	env, err := initDetect(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	preds, err := env.Pipeline.Detect(ctx, name, jurisdiction, top)
	if err != nil {
		return eris.Wrapf(err, "detect %q in %s", name, jurisdiction)
	}

	if format == formatTable {
		formatPredictions(out, preds)
		return nil
	}
	return writeFormatted(out, format, preds)
}

func init() {
	elfCmd.Flags().IntVar(&elfTop, "top", 0, "number of predictions (default from config)")
	elfCmd.Flags().StringVar(&elfFormat, "format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(elfCmd)
}
