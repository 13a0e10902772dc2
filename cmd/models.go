package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/legalform/internal/model"
	"github.com/sells-group/legalform/internal/store"
	"github.com/sells-group/legalform/pkg/remote"
)

var modelsRemote bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored models",
	Long:  "Lists the models in the configured store with their held-out scores. With --remote, lists the models the remote detection service serves.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if modelsRemote {
			return runRemoteModels(cmd.Context(), cmd.OutOrStdout())
		}
		return runModels(cmd.Context(), cmd.OutOrStdout())
	},
}

func runModels(ctx context.Context, out io.Writer) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "open model store")
	}
	defer st.Close() //nolint:errcheck

	jurisdictions, err := st.List(ctx)
	if err != nil {
		return eris.Wrap(err, "list models")
	}
	if len(jurisdictions) == 0 {
		fmt.Fprintln(os.Stderr, "No models found.")
		return nil
	}

	models := make([]*model.Model, 0, len(jurisdictions))
	for _, j := range jurisdictions {
		m, err := st.Load(ctx, j)
		if err != nil {
			return eris.Wrapf(err, "load model %s", j)
		}
		models = append(models, m)
	}
	formatModels(out, models)
	return nil
}

func runRemoteModels(ctx context.Context, out io.Writer) error {
	if cfg.Detect.RemoteURL == "" {
		return eris.New("detect.remote_url is not set")
	}
	names, err := remote.NewClient(cfg.Detect.RemoteURL).ListModels(ctx)
	if err != nil {
		return eris.Wrap(err, "list remote models")
	}
	for _, n := range names {
		_, _ = fmt.Fprintln(out, n)
	}
	return nil
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsRemote, "remote", false, "list the models of detect.remote_url")
	rootCmd.AddCommand(modelsCmd)
}
