package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var abbreviationsAbbr string

var abbreviationsCmd = &cobra.Command{
	Use:   "abbreviations <jurisdiction>",
	Short: "List the legal form abbreviations known for a jurisdiction",
	Long:  "Lists the abbreviations of active ELF codes for a jurisdiction. With --abbr, lists the ELF codes an abbreviation stands for.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAbbreviations(cmd.Context(), cmd.OutOrStdout(), jurisdictionArg(args[0]), abbreviationsAbbr)
	},
}

func runAbbreviations(ctx context.Context, out io.Writer, jurisdiction, abbr string) error {
	codes, err := loadCodes(ctx)
	if err != nil {
		return err
	}
	idx := codes.Active().Index()

	if abbr == "" {
		abbrs := idx.AbbreviationsFor(jurisdiction)
		if len(abbrs) == 0 {
			fmt.Fprintf(os.Stderr, "No abbreviations for %s.\n", jurisdiction)
			return nil
		}
		for _, a := range abbrs {
			_, _ = fmt.Fprintln(out, a)
		}
		return nil
	}

	elfCodes := idx.ElfCodesFor(jurisdiction, abbr)
	if len(elfCodes) == 0 {
		fmt.Fprintf(os.Stderr, "No ELF codes for %q in %s.\n", abbr, jurisdiction)
		return nil
	}
	formatCodes(out, codes, elfCodes)
	return nil
}

func init() {
	abbreviationsCmd.Flags().StringVar(&abbreviationsAbbr, "abbr", "", "list the ELF codes of this abbreviation")
	rootCmd.AddCommand(abbreviationsCmd)
}
