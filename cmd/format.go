package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/legalform/internal/detect"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/model"
	"github.com/sells-group/legalform/internal/train"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeFormatted encodes v as JSON or YAML.
func writeFormatted(out io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func formatPredictions(out io.Writer, preds []detect.Prediction) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tCODE\tSCORE\tLEGAL FORM")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t----------")
	for i, p := range preds {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", i+1, p.Code, p.Score, truncate(p.Name, 60))
	}
	_ = w.Flush()
}

func formatCodes(out io.Writer, codes *elf.CodeList, elfCodes []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tLEGAL FORM")
	_, _ = fmt.Fprintln(w, "----\t----------")
	for _, c := range elfCodes {
		name, _ := codes.LocalName(c)
		_, _ = fmt.Fprintf(w, "%s\t%s\n", c, truncate(name, 60))
	}
	_ = w.Flush()
}

func formatReport(out io.Writer, rep *train.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Jurisdiction:\t%s\n", rep.Jurisdiction)
	_, _ = fmt.Fprintf(w, "Records read:\t%d\n", rep.Raw)
	_, _ = fmt.Fprintf(w, "Other jurisdictions:\t%d\n", rep.Foreign)
	_, _ = fmt.Fprintf(w, "Infrequent codes dropped:\t%d (%d records)\n", len(rep.Infrequent.Codes), rep.Infrequent.Records)
	_, _ = fmt.Fprintf(w, "Inactive codes dropped:\t%d (%d records)\n", len(rep.Inactive.Codes), rep.Inactive.Records)
	_, _ = fmt.Fprintf(w, "Samples:\t%d (%d classes)\n", rep.Samples, rep.Classes)
	_, _ = fmt.Fprintf(w, "Train/test:\t%d/%d\n", rep.TrainSize, rep.TestSize)
	_, _ = fmt.Fprintf(w, "Accuracy:\t%.4f\n", rep.Test.Accuracy)
	_, _ = fmt.Fprintf(w, "Balanced accuracy:\t%.4f\n", rep.Test.BalancedAccuracy)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", rep.Duration.Round(time.Millisecond))
	_ = w.Flush()
}

func formatEvaluation(out io.Writer, ev *train.Evaluation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SPLIT\tACCURACY\tBALANCED\tF1 MICRO\tF1 MACRO\tF1 WEIGHTED\tTRAIN ACC\tFIT")
	_, _ = fmt.Fprintln(w, "-----\t--------\t--------\t--------\t--------\t-----------\t---------\t---")
	for _, f := range ev.Folds {
		_, _ = fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			f.Index, f.Test.Accuracy, f.Test.BalancedAccuracy,
			f.Test.F1Micro, f.Test.F1Macro, f.Test.F1Weighted,
			f.Train.Accuracy, f.FitTime.Round(time.Millisecond),
		)
	}
	m := ev.MeanTest
	_, _ = fmt.Fprintf(w, "mean\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
		m.Accuracy, m.BalancedAccuracy, m.F1Micro, m.F1Macro, m.F1Weighted, ev.MeanTrain.Accuracy)
	_ = w.Flush()
}

func formatModels(out io.Writer, models []*model.Model) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "JURISDICTION\tID\tSAMPLES\tCLASSES\tACCURACY\tBALANCED\tCREATED")
	_, _ = fmt.Fprintln(w, "------------\t--\t-------\t-------\t--------\t--------\t-------")
	for _, m := range models {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%.4f\t%s\n",
			m.Jurisdiction(),
			truncateID(m.ID),
			m.Samples,
			len(m.Classes()),
			m.Scores.Accuracy,
			m.Scores.BalancedAccuracy,
			m.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
